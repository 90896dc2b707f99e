package sim

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"heartbeat/internal/synth"
	"heartbeat/internal/telemetry"
)

// Headless describes a windowless run at a fixed frame step. Sink, when set,
// is rendered by SamplesPerFrame after every frame so the audio clock tracks
// simulated time; WAV, when set, receives those samples.
type Headless struct {
	Frames          int
	FrameDT         float64
	Audio           bool
	Sink            *synth.OfflineSink
	SamplesPerFrame int
	WAV             *synth.WAVWriter
	Telemetry       *telemetry.Recorder
}

// Summary describes a finished headless run.
type Summary struct {
	Frames       int
	Beats        int
	Grains       uint64
	FirstKinetic float32
	LastKinetic  float32
	Finite       bool
}

// RunHeadless runs h.Frames frames with elapsed = frame*FrameDT. It stops
// early, returning ctx.Err(), if ctx is cancelled.
func (s *Sim) RunHeadless(ctx context.Context, h Headless) (Summary, error) {
	if h.FrameDT <= 0 {
		return Summary{}, fmt.Errorf("headless: frame step must be positive, got %g", h.FrameDT)
	}
	var sum Summary
	sum.Finite = true
	for i := 0; i < h.Frames; i++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		f := s.Frame(float64(i)*h.FrameDT, h.Audio)

		if h.Sink != nil && h.SamplesPerFrame > 0 {
			block := h.Sink.Render(h.SamplesPerFrame)
			if h.WAV != nil {
				if err := h.WAV.Write(block); err != nil {
					return sum, err
				}
			}
		}

		st := s.engine.Stats()
		if err := h.Telemetry.Write(telemetry.FrameRecord{
			Frame:     f.Index,
			Elapsed:   f.Elapsed,
			Cycle:     f.Beat.Cycle,
			Phase:     f.Beat.Phase.String(),
			Scale:     f.Beat.Scale,
			Energy:    f.Beat.EnergyBurst,
			Triggered: f.Beat.Triggered,
			Kinetic:   f.Kinetic,
			Scheduled: st.Scheduled,
			Active:    st.Active,
		}); err != nil {
			return sum, err
		}

		if i == 0 {
			sum.FirstKinetic = f.Kinetic
		}
		sum.LastKinetic = f.Kinetic
		if f.Beat.Triggered {
			sum.Beats++
		}
		sum.Frames++
		if sum.Finite && !s.store.Finite() {
			sum.Finite = false
			s.log.Warn("non-finite particle state", zap.Int("frame", f.Index))
		}
	}
	sum.Grains = s.engine.Stats().Scheduled
	s.log.Info("headless run finished",
		zap.Int("frames", sum.Frames),
		zap.Int("beats", sum.Beats),
		zap.Uint64("grains", sum.Grains),
		zap.Float32("kinetic_first", sum.FirstKinetic),
		zap.Float32("kinetic_last", sum.LastKinetic),
	)
	return sum, nil
}
