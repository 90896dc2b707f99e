//go:build !android

package view

import "github.com/go-gl/glfw/v3.3/glfw"

type Input struct {
	prevKeys map[glfw.Key]bool
}

func NewInput() *Input {
	return &Input{prevKeys: make(map[glfw.Key]bool)}
}

func (in *Input) JustPressed(window *glfw.Window, key glfw.Key) bool {
	down := window.GetKey(key) == glfw.Press
	jp := down && !in.prevKeys[key]
	in.prevKeys[key] = down
	return jp
}

func held(window *glfw.Window, key glfw.Key) float64 {
	if window.GetKey(key) == glfw.Press {
		return 1
	}
	return 0
}

// UpdateCamera applies the held keys: arrows orbit, E/R zoom in/out,
// C re-enables the idle drift.
func (in *Input) UpdateCamera(window *glfw.Window, cam *Camera, dt float64) {
	dYaw := held(window, glfw.KeyRight) - held(window, glfw.KeyLeft)
	dPitch := held(window, glfw.KeyUp) - held(window, glfw.KeyDown)
	cam.Orbit(dYaw, dPitch, dt)
	cam.Zoom(held(window, glfw.KeyE)-held(window, glfw.KeyR), dt)
	if in.JustPressed(window, glfw.KeyC) {
		cam.Auto = true
	}
	cam.Update(dt)
}
