// Package life is an interactive Game of Life visualizer whose grid lives
// on the GPU.
//
// # Overview
//
// A Simulation owns a double-buffered pipeline (see package backend): two
// equal cell-state buffers, one current and one next. Each step runs a
// compute pass reading the current buffer and writing the next, then flips
// which buffer is current. Rendering always reads the current buffer, so a
// frame never observes a half-written generation.
//
// The rule is B3/S23. Cells outside the grid count as dead unless the
// configuration enables wrap, which makes the grid toroidal.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/life"
//	    "github.com/gogpu/life/config"
//	    _ "github.com/gogpu/life/gpu" // register the GPU backend
//	)
//
//	cfg, err := config.Load("life.yaml")
//	sim, err := life.New(cfg)
//	defer sim.Close()
//
//	sim.Resize(800, 800)
//	for {
//	    redraw, err := sim.Tick(time.Now())
//	    if redraw {
//	        sim.Redraw(surface)
//	    }
//	}
//
// # Event loop
//
// All Simulation methods run on one goroutine. Tick drains queued
// Controls commands, flushes the paint overlay when its interval is due
// and steps when the frame interval is due. GPU work is submitted without
// waiting; submission order keeps paint merges, steps and frames in order.
//
// # Painting
//
// Pointer positions are mapped to cells and collected in a PaintOverlay.
// On each flush the overlay is ORed into both buffers so it survives the
// next swap, then cleared.
//
// # Controls
//
// Controls is the channel-backed control surface for other goroutines:
// PlayPause, StepForward (only while paused), Randomise, UpdateFPS (clamped
// to [1, 60]) and Reset. Asynchronous pipeline setup reports through the
// same channel.
//
// # Surface errors
//
// Redraw handles the host Surface: a lost or outdated surface is
// reconfigured and retried on the next frame, other errors skip the frame.
// Only pipeline setup errors are returned to the caller.
package life
