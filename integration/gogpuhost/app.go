// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gogpuhost

import (
	"context"
	"time"

	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/life"
	"github.com/gogpu/life/config"
)

// DefaultTitle is the window title used by Run.
const DefaultTitle = "Game of Life"

// Run opens a window sized from cfg and runs the simulation until the
// window closes, Escape is pressed or ctx is done. Options are passed to
// life.New.
func Run(ctx context.Context, cfg *config.Config, opts ...life.Option) error {
	h := NewHost(cfg, opts...)
	return RunHost(ctx, h)
}

// RunHost is Run with a caller-built host, so the caller can feed its
// Controls from other goroutines.
func RunHost(ctx context.Context, h *Host) error {
	w, ht := h.cfg.WindowSize[0], h.cfg.WindowSize[1]
	if w <= 0 || ht <= 0 {
		w, ht = 800, 800
	}

	app := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle(DefaultTitle).
		WithSize(w, ht).
		WithContinuousRender(false))

	var anim *gogpu.AnimationToken
	var drawErr error
	quit := func() { requestQuit(app) }
	h.OnQuit(quit)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			quit()
		case <-done:
		}
	}()

	app.OnDraw(func(dc *gogpu.Context) {
		if anim == nil {
			// Frames run at vsync for the window's lifetime; the
			// scheduler decides which of them step.
			anim = app.StartAnimation()
			life.Logger().Info("gogpuhost: window ready", "backend", dc.Backend())
		}
		var device any
		format := gputypes.TextureFormatUndefined
		if provider := app.GPUContextProvider(); provider != nil {
			device = provider
			format = provider.SurfaceFormat()
		}
		sw, sh := dc.SurfaceSize()
		_, err := h.Draw(DrawFrame{
			Width:         dc.Width(),
			Height:        dc.Height(),
			View:          dc.SurfaceView(),
			SurfaceWidth:  uint32(sw), //nolint:gosec // surface sizes are small
			SurfaceHeight: uint32(sh), //nolint:gosec // surface sizes are small
			Device:        device,
			Format:        format,
			Now:           time.Now(),
		})
		if err != nil && drawErr == nil {
			drawErr = err
			life.Logger().Error("gogpuhost: fatal", "err", err)
			quit()
		}
	})

	events := app.EventSource()
	events.OnResize(h.Resize)
	events.OnKeyPress(h.KeyPress)
	events.OnKeyRelease(func(k gpucontext.Key, _ gpucontext.Modifiers) {
		if sim := h.Simulation(); sim != nil {
			sim.Key(MapKey(k), false)
		}
	})
	events.OnMouseMove(h.MouseMove)
	events.OnMousePress(h.MousePress)
	events.OnMouseRelease(h.MouseRelease)
	events.OnFocus(h.Focus)

	app.OnClose(func() {
		if anim != nil {
			anim.Stop()
		}
		// Release pipeline resources while the shared device is alive.
		h.Close()
	})

	if err := app.Run(); err != nil {
		return err
	}
	return drawErr
}

// requestQuit asks the application to close its window.
func requestQuit(app any) {
	switch a := app.(type) {
	case interface{ Quit() }:
		a.Quit()
	case interface{ Close() }:
		a.Close()
	default:
		life.Logger().Warn("gogpuhost: application cannot be closed programmatically")
	}
}
