//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/life/grid"
)

// paintWorkgroupSize matches @workgroup_size in paint.wgsl.
const paintWorkgroupSize = 64

// paintStage ORs an uploaded overlay into both state buffers. Its bind
// group names A and B directly, so it is independent of the current flag.
type paintStage struct {
	dev *deviceHandle

	shader     hal.ShaderModule
	layout     hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	overlay hal.Buffer
	group   hal.BindGroup
	groups  uint32
}

func newPaintStage(dev *deviceHandle, state *stateBuffers, params hal.Buffer, g grid.Grid) (*paintStage, error) {
	p := &paintStage{
		dev:    dev,
		groups: uint32((g.Cells() + paintWorkgroupSize - 1) / paintWorkgroupSize), //nolint:gosec // cell count fits uint32
	}
	if err := p.createPipeline(); err != nil {
		p.destroy()
		return nil, err
	}
	if err := p.createBindings(state, params); err != nil {
		p.destroy()
		return nil, err
	}
	return p, nil
}

func (p *paintStage) createPipeline() error {
	shader, err := p.dev.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "life_paint",
		Source: hal.ShaderSource{WGSL: paintShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile paint shader: %w", err)
	}
	p.shader = shader

	entry := func(binding uint32, kind gputypes.BufferBindingType) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: kind},
		}
	}
	p.layout, err = p.dev.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "life_paint_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			entry(0, gputypes.BufferBindingTypeUniform),
			entry(1, gputypes.BufferBindingTypeReadOnlyStorage),
			entry(2, gputypes.BufferBindingTypeStorage),
			entry(3, gputypes.BufferBindingTypeStorage),
		},
	})
	if err != nil {
		return fmt.Errorf("create paint layout: %w", err)
	}

	p.pipeLayout, err = p.dev.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "life_paint_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.layout},
	})
	if err != nil {
		return fmt.Errorf("create paint pipeline layout: %w", err)
	}

	p.pipeline, err = p.dev.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   "life_paint_pipeline",
		Layout:  p.pipeLayout,
		Compute: hal.ComputeState{Module: p.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create paint pipeline: %w", err)
	}
	return nil
}

func (p *paintStage) createBindings(state *stateBuffers, params hal.Buffer) error {
	var err error
	p.overlay, err = p.dev.uploadBuffer("life_paint_overlay", make([]byte, state.size), gputypes.BufferUsageStorage)
	if err != nil {
		return err
	}
	bufs := state.pair.Both()
	p.group, err = p.dev.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "life_paint_bind",
		Layout: p.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: params.NativeHandle(), Offset: 0, Size: grid.ComputeUniformSize}},
			{Binding: 1, Resource: state.binding(p.overlay)},
			{Binding: 2, Resource: state.binding(bufs[0])},
			{Binding: 3, Resource: state.binding(bufs[1])},
		},
	})
	if err != nil {
		return fmt.Errorf("create paint bind group: %w", err)
	}
	return nil
}

// upload replaces the overlay contents.
func (p *paintStage) upload(paint []uint32) {
	p.dev.queue.WriteBuffer(p.overlay, 0, grid.CellBytes(paint))
}

func (p *paintStage) record(enc hal.CommandEncoder) {
	pass := enc.BeginComputePass(&hal.ComputePassDescriptor{Label: "life_paint"})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, p.group, nil)
	pass.Dispatch(p.groups, 1, 1)
	pass.End()
}

func (p *paintStage) destroy() {
	d := p.dev.device
	if p.group != nil {
		d.DestroyBindGroup(p.group)
		p.group = nil
	}
	if p.overlay != nil {
		d.DestroyBuffer(p.overlay)
		p.overlay = nil
	}
	if p.pipeline != nil {
		d.DestroyComputePipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		d.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.layout != nil {
		d.DestroyBindGroupLayout(p.layout)
		p.layout = nil
	}
	if p.shader != nil {
		d.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
