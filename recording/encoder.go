package recording

import (
	"errors"
	"image"
	"image/color"
	"io"
	"time"
)

// Errors returned by encoders.
var (
	// ErrNotStarted is returned when frames are added before Begin.
	ErrNotStarted = errors.New("recording: encoder not started")

	// ErrNoFrames is returned when output is requested with nothing captured.
	ErrNoFrames = errors.New("recording: no frames captured")

	// ErrFrameSize is returned when a frame does not match the encoder size.
	ErrFrameSize = errors.New("recording: frame size mismatch")
)

// Encoder turns a sequence of frames into an output format.
//
// Encoders are created via the registry using NewEncoder(name) and
// registered via Register() in their init() functions.
type Encoder interface {
	// Begin prepares the encoder for frames of the given size. The palette
	// may be nil, in which case the encoder picks one.
	Begin(width, height int, palette color.Palette) error

	// AddFrame appends a frame shown for delay.
	AddFrame(img image.Image, delay time.Duration) error

	// End finalizes the output. WriteTo is valid afterwards.
	End() error

	// WriteTo writes the encoded output.
	WriteTo(w io.Writer) (int64, error)
}

// countingWriter counts bytes for WriteTo implementations built on
// encoders that only take an io.Writer.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
