package synth

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heartbeat/internal/mathutil"
)

func TestOfflineSinkRender(t *testing.T) {
	sink := NewOfflineSink(testRate)
	assert.Nil(t, sink.Render(8), "nothing started")

	require.NoError(t, sink.Start(constant(0.25)))
	assert.Error(t, sink.Start(constant(0)))

	out := sink.Render(8)
	require.Len(t, out, 8)
	assert.Equal(t, [2]float64{0.25, 0.25}, out[7])
	assert.Nil(t, sink.Render(0))
	assert.NoError(t, sink.Close())
}

func TestOfflineSinkAdvancesEngineClock(t *testing.T) {
	e, sink := newTestEngine(t, 1)
	sink.Render(testRate / 2)
	sink.Render(testRate / 2)
	assert.InDelta(t, 1.0, e.Now(), 1e-12)
	assert.InDelta(t, 1.0, e.Stats().Clock, 1e-12)
}

func TestWAVWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "burst.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	e, sink := newTestEngine(t, 3)
	e.Trigger()
	w := NewWAVWriter(f, testRate)
	const blocks, block = 20, 2205
	for i := 0; i < blocks; i++ {
		require.NoError(t, w.Write(sink.Render(block)))
	}
	require.NoError(t, w.Write(nil))
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close()

	d := wav.NewDecoder(in)
	require.True(t, d.IsValidFile())
	buf, err := d.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, ChannelCount, buf.Format.NumChannels)
	assert.Equal(t, testRate, buf.Format.SampleRate)
	assert.Equal(t, 16, int(d.BitDepth))
	assert.Len(t, buf.Data, blocks*block*ChannelCount)

	nonzero := 0
	for _, v := range buf.Data {
		if v != 0 {
			nonzero++
		}
	}
	assert.Positive(t, nonzero)
}

func TestToPCM16Clips(t *testing.T) {
	assert.Equal(t, 32767, toPCM16(1))
	assert.Equal(t, 32767, toPCM16(3))
	assert.Equal(t, -32767, toPCM16(-3))
	assert.Equal(t, 0, toPCM16(0))
	assert.Equal(t, 16383, toPCM16(0.5))
}

func TestStreamReaderEncodesFloat32(t *testing.T) {
	r := &streamReader{src: constant(2)}
	p := make([]byte, 3*bytesPerFrame+3)
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 3*bytesPerFrame, n)

	for i := 0; i < 3; i++ {
		l := math.Float32frombits(binary.LittleEndian.Uint32(p[i*8:]))
		rr := math.Float32frombits(binary.LittleEndian.Uint32(p[i*8+4:]))
		assert.Equal(t, float32(1), l, "hard-clipped")
		assert.Equal(t, float32(1), rr)
	}

	n, err = r.Read(make([]byte, 4))
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestPutStereoIndependentChannels(t *testing.T) {
	p := make([]byte, bytesPerFrame)
	putStereoF32LR(p, 0, -0.5, 0.25)
	assert.Equal(t, float32(-0.5), math.Float32frombits(binary.LittleEndian.Uint32(p)))
	assert.Equal(t, float32(0.25), math.Float32frombits(binary.LittleEndian.Uint32(p[4:])))
}

func TestNoiseBufferIsOneSecond(t *testing.T) {
	e := New(DefaultConfig(), mathutil.NewRand(11), NewOfflineSink(22050))
	require.Len(t, e.noise, 22050)
	for _, v := range e.noise {
		require.GreaterOrEqual(t, v, float32(-1))
		require.LessOrEqual(t, v, float32(1))
	}
}
