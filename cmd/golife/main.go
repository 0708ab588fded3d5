//go:build !(js && wasm)

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/life"
	"github.com/gogpu/life/config"
	_ "github.com/gogpu/life/gpu" // Register the wgpu backend
	"github.com/gogpu/life/integration/gogpuhost"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to a YAML config (empty = defaults)")
		backendName = flag.String("backend", "", "pipeline backend: wgpu or software (empty = best available)")
		headless    = flag.Bool("headless", false, "run without a window")
		generations = flag.Int("generations", 100, "generations to run in headless mode")
		seed        = flag.Uint64("seed", 0, "random seed for the initial state (0 = time-based)")
		csvPath     = flag.String("csv", "", "headless: write per-generation statistics to this CSV file")
		gifPath     = flag.String("gif", "", "headless: write an animated GIF to this file")
		cellPx      = flag.Int("cell", 4, "headless: pixels per cell in recorded frames")
		scale       = flag.Int("scale", 1, "headless: extra nearest-neighbour scale for recorded frames")
		watch       = flag.Bool("watch", true, "reload the config file when it changes")
		verbose     = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	life.SetLogger(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if *backendName != "" {
		cfg.Backend = *backendName
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *headless {
		sum, err := runHeadless(ctx, cfg, headlessOptions{
			Generations: *generations,
			Seed:        *seed,
			CSVPath:     *csvPath,
			GIFPath:     *gifPath,
			CellPixels:  *cellPx,
			Scale:       *scale,
		})
		if err != nil {
			logger.Error("headless run failed", "err", err)
			os.Exit(1)
		}
		p := message.NewPrinter(language.English)
		p.Printf("%d generations on a %dx%d grid: population mean %.1f (sd %.1f), min %.0f, max %.0f; %d births, %d deaths\n",
			sum.Generations, cfg.Rows, cfg.Cols, sum.Mean, sum.StdDev, sum.Min, sum.Max, sum.Births, sum.Deaths)
		return
	}

	host := gogpuhost.NewHost(cfg)
	if *watch && *configPath != "" {
		go func() {
			err := config.Watch(ctx, *configPath, logger, func(next *config.Config) {
				if *backendName != "" {
					next.Backend = *backendName
				}
				host.Controls().ApplyConfig(next)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("config watch stopped", "err", err)
			}
		}()
	}
	if err := gogpuhost.RunHost(ctx, host); err != nil {
		logger.Error("window closed with error", "err", err)
		os.Exit(1)
	}
}
