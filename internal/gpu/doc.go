//go:build !nogpu

// Package gpu implements the Game of Life pipeline on the gogpu/wgpu HAL.
//
// The pipeline owns two cell-state storage buffers, A and B, and three
// stages built on them:
//
//   - compute: one B3/S23 generation per dispatch of 16x16 workgroups,
//     reading the current buffer and writing the other
//   - paint: ORs a host-uploaded overlay into both buffers
//   - render: one instanced quad per cell, sized to zero when the cell is dead
//
// Compute and render stages each hold a bind group per buffer. A flag
// selects which one to bind; stepping flips the flag and nothing is rebuilt.
//
// Command buffers are submitted without blocking. A single fence with an
// increasing value tracks them and finished buffers are freed on the next
// submission.
//
// The package is reached through backend.Pipeline; importing
// github.com/gogpu/life/gpu registers it under the name "wgpu".
package gpu
