//go:build js && wasm

package main

import (
	"log/slog"
	"os"

	"github.com/gogpu/life"
	"github.com/gogpu/life/backend"
	"github.com/gogpu/life/config"
	"github.com/gogpu/life/web"
)

// canvasID is the id of the page's canvas element.
const canvasID = "life"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	life.SetLogger(logger)

	sim, err := life.New(config.Default(),
		life.WithBackend(backend.NameSoftware),
		life.WithAsyncInit())
	if err != nil {
		logger.Error("failed to create simulation", "err", err)
		return
	}
	defer sim.Close()

	release := web.Register(sim.Controls())
	defer release()

	canvas, err := web.NewCanvas(sim, canvasID)
	if err != nil {
		logger.Error("failed to attach canvas", "err", err)
		return
	}
	defer canvas.Release()

	if err := <-canvas.Start(); err != nil {
		logger.Error("simulation stopped", "err", err)
	}
}
