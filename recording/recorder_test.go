package recording

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var (
	black = color.RGBA{0, 0, 0, 255}
	white = color.RGBA{255, 255, 255, 255}
)

// checker returns a w x h image with (0,0) white and alternating cells.
func checker(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			if (x+y)%2 == 0 {
				img.SetRGBA(x, y, white)
			} else {
				img.SetRGBA(x, y, black)
			}
		}
	}
	return img
}

func TestRecorderScalesNearestNeighbour(t *testing.T) {
	enc := &mockEncoder{}
	r := NewRecorderWith(enc, WithScale(3), WithFrameDelay(50*time.Millisecond))

	ok, err := r.Capture(checker(2, 2))
	if err != nil || !ok {
		t.Fatalf("Capture() = %v, %v", ok, err)
	}
	if enc.width != 6 || enc.height != 6 || enc.beginCalls != 1 {
		t.Fatalf("Begin(%d, %d) called %d times", enc.width, enc.height, enc.beginCalls)
	}
	frame := enc.frames[0].(*image.RGBA)
	for _, p := range []image.Point{{0, 0}, {2, 2}, {3, 3}, {5, 5}} {
		if got := frame.RGBAAt(p.X, p.Y); got != white {
			t.Errorf("pixel %v = %v, want white", p, got)
		}
	}
	for _, p := range []image.Point{{3, 0}, {0, 5}} {
		if got := frame.RGBAAt(p.X, p.Y); got != black {
			t.Errorf("pixel %v = %v, want black", p, got)
		}
	}
	if enc.delays[0] != 50*time.Millisecond {
		t.Errorf("delay = %v", enc.delays[0])
	}
}

func TestRecorderMaxFrames(t *testing.T) {
	enc := &mockEncoder{}
	r := NewRecorderWith(enc, WithMaxFrames(2))
	for range 5 {
		if _, err := r.Capture(checker(2, 2)); err != nil {
			t.Fatal(err)
		}
	}
	if r.Frames() != 2 || len(enc.frames) != 2 {
		t.Errorf("Frames() = %d, encoder got %d", r.Frames(), len(enc.frames))
	}
}

func TestRecorderWriteToWithoutFrames(t *testing.T) {
	r := NewRecorderWith(&mockEncoder{})
	if _, err := r.WriteTo(&bytes.Buffer{}); !errors.Is(err, ErrNoFrames) {
		t.Errorf("WriteTo() error = %v, want ErrNoFrames", err)
	}
}

func TestGIFRoundTrip(t *testing.T) {
	r, err := NewRecorder("gif", WithScale(2), WithPalette(black, white), WithFrameDelay(30*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	for range 3 {
		if _, err := r.Capture(checker(4, 4)); err != nil {
			t.Fatal(err)
		}
	}

	var buf bytes.Buffer
	if _, err := r.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	g, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Image) != 3 || g.Delay[0] != 3 {
		t.Errorf("decoded %d frames, delay %d", len(g.Image), g.Delay[0])
	}
	if b := g.Image[0].Bounds(); b.Dx() != 8 || b.Dy() != 8 {
		t.Errorf("frame bounds = %v", b)
	}
	r0, g0, b0, _ := g.Image[0].At(0, 0).RGBA()
	if r0 != 0xffff || g0 != 0xffff || b0 != 0xffff {
		t.Error("top-left pixel not white")
	}
}

func TestGIFDelayFloor(t *testing.T) {
	if got := gifDelay(time.Millisecond); got != minGIFDelay {
		t.Errorf("gifDelay(1ms) = %d, want %d", got, minGIFDelay)
	}
	if got := gifDelay(time.Second); got != 100 {
		t.Errorf("gifDelay(1s) = %d, want 100", got)
	}
}

func TestGIFEncoderErrors(t *testing.T) {
	e := &GIFEncoder{}
	if err := e.AddFrame(checker(2, 2), 0); !errors.Is(err, ErrNotStarted) {
		t.Errorf("AddFrame before Begin = %v", err)
	}
	if err := e.Begin(0, 2, nil); !errors.Is(err, ErrFrameSize) {
		t.Errorf("Begin(0, 2) = %v", err)
	}
	if err := e.Begin(2, 2, nil); err != nil {
		t.Fatal(err)
	}
	if err := e.AddFrame(checker(3, 3), 0); !errors.Is(err, ErrFrameSize) {
		t.Errorf("AddFrame(3x3) = %v", err)
	}
	if err := e.End(); !errors.Is(err, ErrNoFrames) {
		t.Errorf("End() = %v", err)
	}
}

func TestPNGSaveToFile(t *testing.T) {
	r, err := NewRecorder("png")
	if err != nil {
		t.Fatal(err)
	}
	r.Capture(checker(2, 2))
	last := image.NewRGBA(image.Rect(0, 0, 2, 2))
	last.SetRGBA(1, 1, white)
	r.Capture(last)

	path := filepath.Join(t.TempDir(), "shots", "last.png")
	if err := r.SaveToFile(path); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if r0, _, _, _ := img.At(0, 0).RGBA(); r0 != 0 {
		t.Error("png kept an earlier frame")
	}
	if r1, _, _, _ := img.At(1, 1).RGBA(); r1 != 0xffff {
		t.Error("png lost the last frame")
	}
}
