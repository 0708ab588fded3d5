package recording

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"
)

// DefaultFrameDelay is the per-frame delay when none is configured.
const DefaultFrameDelay = 100 * time.Millisecond

// Option configures a Recorder.
type Option func(*Recorder)

// WithScale enlarges every frame by factor using nearest-neighbour
// sampling. Factors below 1 are treated as 1.
func WithScale(factor int) Option {
	return func(r *Recorder) {
		r.scale = max(factor, 1)
	}
}

// WithFrameDelay sets how long each frame is shown.
func WithFrameDelay(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.delay = d
		}
	}
}

// WithPalette restricts indexed encoders to the given colours.
func WithPalette(colors ...color.Color) Option {
	return func(r *Recorder) {
		r.palette = color.Palette(colors)
	}
}

// WithMaxFrames stops capturing after n frames. Zero means unlimited.
func WithMaxFrames(n int) Option {
	return func(r *Recorder) {
		r.maxFrames = max(n, 0)
	}
}

// Recorder feeds captured frames to an Encoder. The encoder is started on
// the first capture, sized from that frame.
//
// The Recorder is not safe for concurrent use.
type Recorder struct {
	enc       Encoder
	scale     int
	delay     time.Duration
	palette   color.Palette
	maxFrames int

	frames  int
	scaled  *image.RGBA
	started bool
	ended   bool
}

// NewRecorder creates a Recorder writing through the encoder registered
// as name.
func NewRecorder(name string, opts ...Option) (*Recorder, error) {
	enc, err := NewEncoder(name)
	if err != nil {
		return nil, err
	}
	return NewRecorderWith(enc, opts...), nil
}

// NewRecorderWith creates a Recorder around an existing encoder.
func NewRecorderWith(enc Encoder, opts ...Option) *Recorder {
	r := &Recorder{enc: enc, scale: 1, delay: DefaultFrameDelay}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Capture adds img as the next frame. It reports false without error once
// the frame limit is reached.
func (r *Recorder) Capture(img image.Image) (bool, error) {
	if img == nil {
		return false, nil
	}
	if r.maxFrames > 0 && r.frames >= r.maxFrames {
		return false, nil
	}
	b := img.Bounds()
	w, h := b.Dx()*r.scale, b.Dy()*r.scale
	if !r.started {
		if err := r.enc.Begin(w, h, r.palette); err != nil {
			return false, err
		}
		r.started = true
	}

	frame := img
	if r.scale > 1 {
		if r.scaled == nil || r.scaled.Bounds().Dx() != w || r.scaled.Bounds().Dy() != h {
			r.scaled = image.NewRGBA(image.Rect(0, 0, w, h))
		}
		draw.NearestNeighbor.Scale(r.scaled, r.scaled.Bounds(), img, b, draw.Src, nil)
		frame = r.scaled
	}
	if err := r.enc.AddFrame(frame, r.delay); err != nil {
		return false, err
	}
	r.frames++
	return true, nil
}

// Frames returns the number of captured frames.
func (r *Recorder) Frames() int {
	return r.frames
}

// WriteTo finalizes the encoder and writes its output.
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	if !r.started {
		return 0, ErrNoFrames
	}
	if !r.ended {
		if err := r.enc.End(); err != nil {
			return 0, err
		}
		r.ended = true
	}
	return r.enc.WriteTo(w)
}

// SaveToFile writes the output to path, creating its directory.
func (r *Recorder) SaveToFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("recording: creating directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("recording: creating %s: %w", path, err)
	}
	if _, err := r.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
