package recording

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"io"
	"time"

	"golang.org/x/image/draw"
)

// minGIFDelay is the smallest delay, in hundredths of a second, that
// common GIF viewers honour.
const minGIFDelay = 2

func init() {
	Register("gif", func() Encoder { return &GIFEncoder{} })
}

// GIFEncoder writes an animated, endlessly looping GIF.
type GIFEncoder struct {
	bounds  image.Rectangle
	palette color.Palette
	frames  []*image.Paletted
	delays  []int
	started bool
}

// Begin implements Encoder. A nil palette selects the web-safe palette.
func (e *GIFEncoder) Begin(width, height int, p color.Palette) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrFrameSize, width, height)
	}
	if len(p) == 0 {
		p = palette.WebSafe
	}
	e.bounds = image.Rect(0, 0, width, height)
	e.palette = p
	e.frames = e.frames[:0]
	e.delays = e.delays[:0]
	e.started = true
	return nil
}

// AddFrame implements Encoder. Colours map to the nearest palette entry;
// no dithering, so cell edges stay sharp.
func (e *GIFEncoder) AddFrame(img image.Image, delay time.Duration) error {
	if !e.started {
		return ErrNotStarted
	}
	if img.Bounds().Size() != e.bounds.Size() {
		return fmt.Errorf("%w: got %v, want %v", ErrFrameSize, img.Bounds().Size(), e.bounds.Size())
	}
	dst := image.NewPaletted(e.bounds, e.palette)
	draw.Draw(dst, e.bounds, img, img.Bounds().Min, draw.Src)
	e.frames = append(e.frames, dst)
	e.delays = append(e.delays, gifDelay(delay))
	return nil
}

// gifDelay converts d to hundredths of a second.
func gifDelay(d time.Duration) int {
	return max(int(d/(10*time.Millisecond)), minGIFDelay)
}

// End implements Encoder.
func (e *GIFEncoder) End() error {
	if len(e.frames) == 0 {
		return ErrNoFrames
	}
	return nil
}

// WriteTo implements Encoder.
func (e *GIFEncoder) WriteTo(w io.Writer) (int64, error) {
	if len(e.frames) == 0 {
		return 0, ErrNoFrames
	}
	cw := &countingWriter{w: w}
	err := gif.EncodeAll(cw, &gif.GIF{
		Image:     e.frames,
		Delay:     e.delays,
		LoopCount: 0,
	})
	if err != nil {
		return cw.n, fmt.Errorf("recording: encoding gif: %w", err)
	}
	return cw.n, nil
}

// Frames returns the number of frames added.
func (e *GIFEncoder) Frames() int {
	return len(e.frames)
}
