//go:build !android

package view

import (
	"context"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"heartbeat/internal/sim"
)

type Options struct {
	Window     WindowOptions
	FOVDegrees float64
	Distance   float64
	Audio      bool // initial audio-enabled flag
}

// Run opens the window and drives s from the glfw clock until the window
// closes or ctx is done. M toggles audio, Esc quits.
func Run(ctx context.Context, s *sim.Sim, o Options, log *zap.Logger) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	window, err := OpenWindow(o.Window)
	if err != nil {
		return err
	}
	defer glfw.Terminate()
	defer window.Destroy()

	st := s.Store()
	r, err := NewRenderer(st.N, st.Color, st.Size)
	if err != nil {
		return err
	}
	defer r.Destroy()

	cam := NewCamera(o.FOVDegrees, o.Distance, 60)
	input := NewInput()
	audio := o.Audio && s.AudioAvailable()
	if o.Audio && !audio {
		log.Info("no audio device, running silent")
	}

	glfw.SetTime(0)
	last := 0.0
	for !window.ShouldClose() && ctx.Err() == nil {
		now := glfw.GetTime()
		dt := now - last
		last = now
		if dt > 0.1 {
			dt = 0.1
		}

		glfw.PollEvents()
		if window.GetKey(glfw.KeyEscape) == glfw.Press {
			window.SetShouldClose(true)
			continue
		}
		if input.JustPressed(window, glfw.KeyM) && s.AudioAvailable() {
			audio = !audio
		}

		fbW, fbH := window.GetFramebufferSize()
		if fbW <= 0 || fbH <= 0 {
			continue
		}

		f := s.Frame(now, audio)
		input.UpdateCamera(window, cam, dt)
		r.Draw(f.Positions, cam.MVP(float32(fbW)/float32(fbH)), cam.FOV, fbW, fbH)
		window.SwapBuffers()
	}
	log.Info("window closed", zap.Int("frames", s.Frames()))
	return nil
}
