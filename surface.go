package life

import (
	"image"
	"image/draw"

	"github.com/gogpu/life/backend"
)

// Frame is one acquired surface image.
type Frame struct {
	// View is handed to backend.Pipeline.Render as Target.View.
	View   any
	Width  uint32
	Height uint32

	// Present shows the frame. Nil means presentation is implicit.
	Present func() error
}

// Surface is the presentation target supplied by the host.
//
// Acquire and Present report backend.ErrSurfaceLost or
// backend.ErrSurfaceOutdated when the surface must be reconfigured, and
// backend.ErrSurfaceTimeout when no image was available in time.
type Surface interface {
	Configure(width, height int) error
	Acquire() (Frame, error)
}

// ImageSurface is an in-memory surface backed by an RGBA image. It serves
// headless runs with the software backend.
type ImageSurface struct {
	img    *image.RGBA
	frames int
}

// NewImageSurface returns an unconfigured image surface.
func NewImageSurface() *ImageSurface {
	return &ImageSurface{}
}

// Configure reallocates the image.
func (s *ImageSurface) Configure(width, height int) error {
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
	return nil
}

// Acquire returns the image as the frame view.
func (s *ImageSurface) Acquire() (Frame, error) {
	if s.img == nil {
		return Frame{}, backend.ErrSurfaceOutdated
	}
	b := s.img.Bounds()
	return Frame{
		View:   draw.Image(s.img),
		Width:  uint32(b.Dx()), //nolint:gosec // image bounds are non-negative
		Height: uint32(b.Dy()), //nolint:gosec // image bounds are non-negative
		Present: func() error {
			s.frames++
			return nil
		},
	}, nil
}

// Image returns the last rendered image, or nil before Configure.
func (s *ImageSurface) Image() *image.RGBA {
	return s.img
}

// Frames returns the number of presented frames.
func (s *ImageSurface) Frames() int {
	return s.frames
}
