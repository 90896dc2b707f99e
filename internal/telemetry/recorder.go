// Package telemetry writes per-frame simulation records as CSV.
package telemetry

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
)

// FrameRecord is one row of the frame log.
type FrameRecord struct {
	Frame     int     `csv:"frame"`
	Elapsed   float64 `csv:"elapsed"`
	Cycle     int64   `csv:"cycle"`
	Phase     string  `csv:"phase"`
	Scale     float32 `csv:"scale"`
	Energy    float32 `csv:"energy_burst"`
	Triggered bool    `csv:"triggered"`
	Kinetic   float32 `csv:"kinetic_energy"`
	Scheduled uint64  `csv:"grains_scheduled"`
	Active    int     `csv:"grains_active"`
}

// Recorder appends FrameRecords to a CSV stream. A nil *Recorder discards
// everything, so callers need not check whether telemetry is enabled.
type Recorder struct {
	w             io.Writer
	closer        io.Closer
	headerWritten bool
	rows          int
}

// NewRecorder writes to w. The caller keeps ownership of w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: w}
}

// Create opens path for writing. An empty path disables telemetry and
// returns a nil Recorder.
func Create(path string) (*Recorder, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating telemetry file: %w", err)
	}
	return &Recorder{w: f, closer: f}, nil
}

// Write appends one record. The header is emitted with the first row.
func (r *Recorder) Write(rec FrameRecord) error {
	if r == nil {
		return nil
	}
	records := []FrameRecord{rec}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.w); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		r.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, r.w); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
	}
	r.rows++
	return nil
}

// Rows is the number of records written.
func (r *Recorder) Rows() int {
	if r == nil {
		return 0
	}
	return r.rows
}

// Close closes the file opened by Create.
func (r *Recorder) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// ReadAll parses a frame log written by a Recorder.
func ReadAll(in io.Reader) ([]FrameRecord, error) {
	var out []FrameRecord
	if err := gocsv.Unmarshal(in, &out); err != nil {
		return nil, fmt.Errorf("reading telemetry: %w", err)
	}
	return out, nil
}
