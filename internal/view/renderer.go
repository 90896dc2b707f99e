//go:build !android

package view

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

func glOffset(n int) unsafe.Pointer { return unsafe.Pointer(uintptr(n)) }

// Renderer draws the particle cloud as additive point sprites. Colour and
// size are uploaded once; positions are streamed every frame.
type Renderer struct {
	prog     uint32
	vao      uint32
	posVBO   uint32
	colorVBO uint32
	sizeVBO  uint32
	n        int32

	uMVP        int32
	uPointScale int32
}

// NewRenderer uploads the static attributes of n particles. color is packed
// rgb and size has one entry per particle.
func NewRenderer(n int, color, size []float32) (*Renderer, error) {
	if n <= 0 || len(color) < 3*n || len(size) < n {
		return nil, fmt.Errorf("renderer: buffers too short for %d particles", n)
	}
	prog, err := linkProgram(pointVertSrc, pointFragSrc)
	if err != nil {
		return nil, fmt.Errorf("point program: %w", err)
	}
	r := &Renderer{prog: prog, n: int32(n)}

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	// aPos (vec3), streamed.
	gl.GenBuffers(1, &r.posVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.posVBO)
	gl.BufferData(gl.ARRAY_BUFFER, 3*n*4, nil, gl.STREAM_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, glOffset(0))

	// aColor (vec3), static.
	gl.GenBuffers(1, &r.colorVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.colorVBO)
	gl.BufferData(gl.ARRAY_BUFFER, 3*n*4, gl.Ptr(&color[0]), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, 3*4, glOffset(0))

	// aSize (float), static.
	gl.GenBuffers(1, &r.sizeVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.sizeVBO)
	gl.BufferData(gl.ARRAY_BUFFER, n*4, gl.Ptr(&size[0]), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 1, gl.FLOAT, false, 4, glOffset(0))

	gl.UseProgram(prog)
	r.uMVP = gl.GetUniformLocation(prog, gl.Str("uMVP\x00"))
	r.uPointScale = gl.GetUniformLocation(prog, gl.Str("uPointScale\x00"))

	gl.BindVertexArray(0)
	return r, nil
}

// Draw clears the framebuffer and draws pos (packed xyz, 3*n floats).
func (r *Renderer) Draw(pos []float32, mvp mgl32.Mat4, fov float64, fbW, fbH int) {
	gl.Viewport(0, 0, int32(fbW), int32(fbH))
	gl.ClearColor(0.02, 0.0, 0.03, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	if len(pos) < int(3*r.n) {
		return
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)

	gl.UseProgram(r.prog)
	gl.BindVertexArray(r.vao)
	gl.UniformMatrix4fv(r.uMVP, 1, false, &mvp[0])
	gl.Uniform1f(r.uPointScale, float32(float64(fbH)/math.Tan(fov/2)))

	gl.BindBuffer(gl.ARRAY_BUFFER, r.posVBO)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, int(3*r.n)*4, gl.Ptr(&pos[0]))
	gl.DrawArrays(gl.POINTS, 0, r.n)

	gl.BindVertexArray(0)
}

func (r *Renderer) Destroy() {
	for _, id := range []uint32{r.posVBO, r.colorVBO, r.sizeVBO} {
		if id != 0 {
			gl.DeleteBuffers(1, &id)
		}
	}
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	if r.prog != 0 {
		gl.DeleteProgram(r.prog)
	}
}
