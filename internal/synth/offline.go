package synth

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gopxl/beep"

	"heartbeat/internal/mathutil"
)

// OfflineSink is a Sink driven by the caller instead of an audio thread.
// Headless runs use it to advance the engine clock in lockstep with frames.
type OfflineSink struct {
	rate int
	src  beep.Streamer
	buf  [][2]float64
}

func NewOfflineSink(rate int) *OfflineSink {
	return &OfflineSink{rate: rate}
}

func (o *OfflineSink) SampleRate() int { return o.rate }

func (o *OfflineSink) Start(src beep.Streamer) error {
	if o.src != nil {
		return fmt.Errorf("synth: offline sink already started")
	}
	o.src = src
	return nil
}

func (o *OfflineSink) Close() error { return nil }

// Render pulls n frames. The returned slice is reused by the next call.
func (o *OfflineSink) Render(n int) [][2]float64 {
	if o.src == nil || n <= 0 {
		return nil
	}
	if cap(o.buf) < n {
		o.buf = make([][2]float64, n)
	}
	buf := o.buf[:n]
	got, _ := o.src.Stream(buf)
	clear(buf[got:])
	return buf
}

const wavBitDepth = 16

// WAVWriter encodes rendered frames as 16-bit stereo PCM.
type WAVWriter struct {
	enc *wav.Encoder
	buf *audio.IntBuffer
}

func NewWAVWriter(w io.WriteSeeker, rate int) *WAVWriter {
	return &WAVWriter{
		enc: wav.NewEncoder(w, rate, wavBitDepth, ChannelCount, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: ChannelCount, SampleRate: rate},
			SourceBitDepth: wavBitDepth,
		},
	}
}

// Write appends frames, hard-clipping to full scale.
func (w *WAVWriter) Write(frames [][2]float64) error {
	if len(frames) == 0 {
		return nil
	}
	data := w.buf.Data[:0]
	for _, f := range frames {
		data = append(data, toPCM16(f[0]), toPCM16(f[1]))
	}
	w.buf.Data = data
	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return nil
}

// Close finalises the RIFF header. The underlying writer is left open.
func (w *WAVWriter) Close() error {
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	return nil
}

func toPCM16(v float64) int {
	return int(mathutil.ClampF(v, -1, 1) * 32767)
}
