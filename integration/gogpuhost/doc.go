// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gogpuhost runs a life.Simulation inside a gogpu window.
//
// The window owns the GPU device; the simulation borrows it through the
// application's device provider, so the compute and render passes share
// the window's queue.
//
// # Usage
//
//	cfg, _ := config.Load("life.yaml")
//	if err := gogpuhost.Run(ctx, cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// # Architecture
//
//	gogpu.App (window, events) → Host → life.Simulation → wgpu pipeline
//
// Host holds everything that does not need a window: key mapping, pointer
// tracking, frame pacing and the surface adapter. Run only binds gogpu
// callbacks to it.
package gogpuhost
