package sim

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heartbeat/internal/synth"
	"heartbeat/internal/telemetry"
)

func TestRunHeadlessTelemetry(t *testing.T) {
	s, err := New(Config{Particles: 100, Seed: 9}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	sum, err := s.RunHeadless(context.Background(), Headless{
		Frames:    120,
		FrameDT:   dt,
		Telemetry: telemetry.NewRecorder(&buf),
	})
	require.NoError(t, err)
	assert.Equal(t, 120, sum.Frames)
	assert.Equal(t, 1, sum.Beats)
	assert.True(t, sum.Finite)
	assert.Less(t, sum.LastKinetic, sum.FirstKinetic)

	rows, err := telemetry.ReadAll(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 120)
	assert.True(t, rows[0].Triggered)
	assert.Equal(t, "expand", rows[0].Phase)
	assert.Equal(t, "rest", rows[119].Phase)
	for _, r := range rows[1:] {
		assert.False(t, r.Triggered)
	}
}

func TestRunHeadlessWritesWAV(t *testing.T) {
	sink := synth.NewOfflineSink(rate)
	s, err := New(Config{Particles: 20, Seed: 4}, sink)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := synth.NewWAVWriter(f, rate)

	sum, err := s.RunHeadless(context.Background(), Headless{
		Frames:          150,
		FrameDT:         dt,
		Audio:           true,
		Sink:            sink,
		SamplesPerFrame: perTick,
		WAV:             w,
	})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	assert.Equal(t, uint64(80), sum.Grains, "beats at 0s and 2s")

	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close()
	d := wav.NewDecoder(in)
	require.True(t, d.IsValidFile())
	pcm, err := d.FullPCMBuffer()
	require.NoError(t, err)
	assert.Len(t, pcm.Data, 150*perTick*2)
}

func TestRunHeadlessCancelled(t *testing.T) {
	s, err := New(Config{Particles: 10, Seed: 1}, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := s.RunHeadless(ctx, Headless{Frames: 10, FrameDT: dt})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sum.Frames)
}

func TestRunHeadlessRejectsBadStep(t *testing.T) {
	s, err := New(Config{Particles: 10, Seed: 1}, nil)
	require.NoError(t, err)
	_, err = s.RunHeadless(context.Background(), Headless{Frames: 1})
	assert.Error(t, err)
}
