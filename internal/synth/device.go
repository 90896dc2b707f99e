package synth

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/hajimehoshi/oto/v2"

	"heartbeat/internal/mathutil"
)

const (
	ChannelCount  = 2
	bytesPerFrame = 8 // stereo float32 LE

	deviceReadyTimeout = 2 * time.Second
)

// Device is the oto-backed output sink.
type Device struct {
	ctx    *oto.Context
	player oto.Player
	rate   int
}

// OpenDevice opens the host audio output at rate. Any failure is reported
// as ErrNoDevice; callers that want silent fallback pass a nil Sink to New.
func OpenDevice(rate int) (*Device, error) {
	ctx, ready, err := oto.NewContext(rate, ChannelCount, oto.FormatFloat32LE)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	select {
	case <-ready:
	case <-time.After(deviceReadyTimeout):
		return nil, fmt.Errorf("%w: context not ready after %s", ErrNoDevice, deviceReadyTimeout)
	}
	return &Device{ctx: ctx, rate: rate}, nil
}

func (d *Device) SampleRate() int { return d.rate }

// Start plays src until Close.
func (d *Device) Start(src beep.Streamer) error {
	if d.player != nil {
		return fmt.Errorf("synth: device already started")
	}
	player := d.ctx.NewPlayer(&streamReader{src: src})
	player.SetVolume(1)
	player.Play()
	if err := player.Err(); err != nil {
		player.Close()
		return fmt.Errorf("start player: %w", err)
	}
	d.player = player
	return nil
}

func (d *Device) Close() error {
	if d.player == nil {
		return nil
	}
	err := d.player.Close()
	d.player = nil
	if serr := d.ctx.Suspend(); err == nil {
		err = serr
	}
	return err
}

// streamReader adapts a beep.Streamer to the io.Reader oto pulls from,
// encoding float32 LE stereo frames.
type streamReader struct {
	src beep.Streamer
	buf [][2]float64
}

func (r *streamReader) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	if cap(r.buf) < frames {
		r.buf = make([][2]float64, frames)
	}
	buf := r.buf[:frames]
	n, _ := r.src.Stream(buf)
	for i := n; i < frames; i++ {
		buf[i] = [2]float64{}
	}
	for i := range buf {
		putStereoF32LR(p, i, buf[i][0], buf[i][1])
	}
	return frames * bytesPerFrame, nil
}

// putStereoF32LR writes independent left/right samples, hard-clipped to [-1,1].
func putStereoF32LR(buf []byte, i int, left, right float64) {
	lv := math.Float32bits(float32(mathutil.ClampF(left, -1, 1)))
	rv := math.Float32bits(float32(mathutil.ClampF(right, -1, 1)))
	buf[i*8] = byte(lv)
	buf[i*8+1] = byte(lv >> 8)
	buf[i*8+2] = byte(lv >> 16)
	buf[i*8+3] = byte(lv >> 24)
	buf[i*8+4] = byte(rv)
	buf[i*8+5] = byte(rv >> 8)
	buf[i*8+6] = byte(rv >> 16)
	buf[i*8+7] = byte(rv >> 24)
}
