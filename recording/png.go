package recording

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"time"

	"golang.org/x/image/draw"
)

func init() {
	Register("png", func() Encoder { return &PNGEncoder{} })
}

// PNGEncoder keeps only the most recent frame and writes it as a PNG.
type PNGEncoder struct {
	last    *image.RGBA
	bounds  image.Rectangle
	started bool
}

// Begin implements Encoder. The palette is ignored.
func (e *PNGEncoder) Begin(width, height int, _ color.Palette) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrFrameSize, width, height)
	}
	e.bounds = image.Rect(0, 0, width, height)
	e.last = nil
	e.started = true
	return nil
}

// AddFrame implements Encoder.
func (e *PNGEncoder) AddFrame(img image.Image, _ time.Duration) error {
	if !e.started {
		return ErrNotStarted
	}
	if img.Bounds().Size() != e.bounds.Size() {
		return fmt.Errorf("%w: got %v, want %v", ErrFrameSize, img.Bounds().Size(), e.bounds.Size())
	}
	if e.last == nil {
		e.last = image.NewRGBA(e.bounds)
	}
	draw.Draw(e.last, e.bounds, img, img.Bounds().Min, draw.Src)
	return nil
}

// End implements Encoder.
func (e *PNGEncoder) End() error {
	if e.last == nil {
		return ErrNoFrames
	}
	return nil
}

// WriteTo implements Encoder.
func (e *PNGEncoder) WriteTo(w io.Writer) (int64, error) {
	if e.last == nil {
		return 0, ErrNoFrames
	}
	cw := &countingWriter{w: w}
	if err := png.Encode(cw, e.last); err != nil {
		return cw.n, fmt.Errorf("recording: encoding png: %w", err)
	}
	return cw.n, nil
}
