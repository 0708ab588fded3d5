//go:build !(js && wasm)

package main

import (
	"context"
	"fmt"
	"image"
	"math"
	"math/rand/v2"
	"time"

	"github.com/gogpu/life"
	"github.com/gogpu/life/backend"
	"github.com/gogpu/life/config"
	"github.com/gogpu/life/grid"
	"github.com/gogpu/life/recording"
	"github.com/gogpu/life/telemetry"
)

type headlessOptions struct {
	Generations int
	Seed        uint64
	CSVPath     string
	GIFPath     string
	CellPixels  int
	Scale       int
}

// runHeadless randomises the grid and runs opts.Generations steps,
// recording statistics for every generation including the initial one.
func runHeadless(ctx context.Context, cfg *config.Config, opts headlessOptions) (telemetry.Summary, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // seed only
	}
	sim, err := life.New(cfg, life.WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))))
	if err != nil {
		return telemetry.Summary{}, err
	}
	defer sim.Close()
	sim.PlayPause() // step explicitly
	sim.Randomise()

	csv, err := telemetry.Create(opts.CSVPath)
	if err != nil {
		return telemetry.Summary{}, err
	}
	defer csv.Close()

	var frames *frameRecorder
	if opts.GIFPath != "" {
		frames, err = newFrameRecorder(cfg, opts)
		if err != nil {
			return telemetry.Summary{}, err
		}
		defer frames.Close()
	}

	life.Logger().Info("headless run", "backend", sim.Pipeline().Name(), "grid", sim.Grid().String(),
		"generations", opts.Generations, "seed", seed)

	var tracker telemetry.Tracker
	records := make([]telemetry.Record, 0, opts.Generations+1)
	for gen := 0; ; gen++ {
		if err := ctx.Err(); err != nil {
			return telemetry.Summary{}, err
		}
		cells, err := sim.Snapshot()
		if err != nil {
			return telemetry.Summary{}, err
		}
		rec := tracker.Observe(sim.Generation(), cells)
		records = append(records, rec)
		if err := csv.Write(rec); err != nil {
			return telemetry.Summary{}, err
		}
		if frames != nil {
			if err := frames.Add(cells); err != nil {
				return telemetry.Summary{}, err
			}
		}
		if gen == opts.Generations {
			break
		}
		if !sim.StepForward() {
			return telemetry.Summary{}, fmt.Errorf("step %d failed", gen+1)
		}
	}

	if frames != nil {
		if err := frames.Save(opts.GIFPath); err != nil {
			return telemetry.Summary{}, err
		}
	}
	return telemetry.Summarize(records), nil
}

// frameRecorder renders snapshots with a software pipeline so recording
// works the same whichever backend runs the simulation.
type frameRecorder struct {
	mirror  *backend.SoftwareBackend
	surface *life.ImageSurface
	crop    image.Rectangle
	rec     *recording.Recorder
}

func newFrameRecorder(cfg *config.Config, opts headlessOptions) (*frameRecorder, error) {
	px := max(opts.CellPixels, 1)
	colors := backend.Colors{
		Background: cfg.BackgroundColor.Color(),
		Alive:      cfg.AliveColor.Color(),
		Cursor:     cfg.CursorColor.Color(),
	}
	mirror := backend.NewSoftwareBackend()
	err := mirror.Init(backend.Params{Grid: cfg.Derived.Grid, GapRatio: cfg.GapRatio, Wrap: cfg.Wrap, Colors: colors})
	if err != nil {
		return nil, err
	}
	// The layout fits the longer side to the full NDC square, so render
	// square and crop to the cells.
	g := cfg.Derived.Grid
	side := int(max(g.Rows, g.Cols)) * px
	surface := life.NewImageSurface()
	if err := surface.Configure(side, side); err != nil {
		mirror.Close()
		return nil, err
	}
	rec, err := recording.NewRecorder("gif",
		recording.WithScale(opts.Scale),
		recording.WithFrameDelay(cfg.Derived.FrameInterval),
		recording.WithPalette(colors.Background, colors.Alive, colors.Cursor))
	if err != nil {
		mirror.Close()
		return nil, err
	}
	crop := occupied(side, g, cfg.Derived.Layout)
	return &frameRecorder{mirror: mirror, surface: surface, crop: crop, rec: rec}, nil
}

// occupied returns the pixels of a side x side frame covered by the grid.
// Column 0 is at the left edge and row 0 at the bottom.
func occupied(side int, g grid.Grid, l grid.Layout) image.Rectangle {
	span := func(n uint32) int {
		ndc := float64(n)*float64(l.CellSize+l.GapSize) + float64(l.GapSize)
		return min(int(math.Round(ndc/2*float64(side))), side)
	}
	w, h := span(g.Cols), span(g.Rows)
	return image.Rect(0, side-h, w, side)
}

// Add renders cells and captures the frame.
func (f *frameRecorder) Add(cells []uint32) error {
	img, err := f.render(cells)
	if err != nil {
		return err
	}
	_, err = f.rec.Capture(img)
	return err
}

// render draws cells and returns the part of the frame they cover.
func (f *frameRecorder) render(cells []uint32) (image.Image, error) {
	if err := f.mirror.WriteState(cells); err != nil {
		return nil, err
	}
	frame, err := f.surface.Acquire()
	if err != nil {
		return nil, err
	}
	if err := f.mirror.Render(backend.Target{View: frame.View, Width: frame.Width, Height: frame.Height}); err != nil {
		return nil, err
	}
	return f.surface.Image().SubImage(f.crop), nil
}

// Save writes the animation.
func (f *frameRecorder) Save(path string) error {
	return f.rec.SaveToFile(path)
}

// Close releases the mirror pipeline.
func (f *frameRecorder) Close() {
	f.mirror.Close()
}
