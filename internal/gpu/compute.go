//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/life/backend"
	"github.com/gogpu/life/grid"
)

// computeStage runs one generation per dispatch. It holds one bind group
// per buffer role assignment: fromA reads A and writes B, fromB the reverse.
type computeStage struct {
	dev *deviceHandle

	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	stateLayout   hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipeline      hal.ComputePipeline

	uniform      hal.Buffer
	uniformGroup hal.BindGroup
	fromA        hal.BindGroup
	fromB        hal.BindGroup

	dims [2]uint32
}

func newComputeStage(dev *deviceHandle, state *stateBuffers, g grid.Grid, wrap bool) (*computeStage, error) {
	c := &computeStage{dev: dev, dims: g.DispatchDims()}
	if err := c.createPipeline(); err != nil {
		c.destroy()
		return nil, err
	}
	if err := c.createBindings(state, g, wrap); err != nil {
		c.destroy()
		return nil, err
	}
	return c, nil
}

func (c *computeStage) createPipeline() error {
	shader, err := c.dev.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "life_compute",
		Source: hal.ShaderSource{WGSL: lifeShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile life shader: %w", err)
	}
	c.shader = shader

	c.uniformLayout, err = c.dev.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "life_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create life uniform layout: %w", err)
	}

	c.stateLayout, err = c.dev.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "life_state_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create life state layout: %w", err)
	}

	c.pipeLayout, err = c.dev.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "life_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{c.uniformLayout, c.stateLayout},
	})
	if err != nil {
		return fmt.Errorf("create life pipeline layout: %w", err)
	}

	c.pipeline, err = c.dev.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   "life_pipeline",
		Layout:  c.pipeLayout,
		Compute: hal.ComputeState{Module: c.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create life pipeline: %w", err)
	}
	return nil
}

func (c *computeStage) createBindings(state *stateBuffers, g grid.Grid, wrap bool) error {
	var err error
	params := grid.ComputeUniform{Rows: g.Rows, Cols: g.Cols, Wrap: wrap}
	c.uniform, err = c.dev.uploadBuffer("life_params", params.Bytes(), gputypes.BufferUsageUniform)
	if err != nil {
		return err
	}

	c.uniformGroup, err = c.dev.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "life_params_bind",
		Layout: c.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: c.uniform.NativeHandle(), Offset: 0, Size: grid.ComputeUniformSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("create life params bind group: %w", err)
	}

	bufs := state.pair.Both()
	c.fromA, err = c.stateGroup("life_state_a_to_b", state, bufs[0], bufs[1])
	if err != nil {
		return err
	}
	c.fromB, err = c.stateGroup("life_state_b_to_a", state, bufs[1], bufs[0])
	return err
}

func (c *computeStage) stateGroup(label string, state *stateBuffers, src, dst hal.Buffer) (hal.BindGroup, error) {
	bg, err := c.dev.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  label,
		Layout: c.stateLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: state.binding(src)},
			{Binding: 1, Resource: state.binding(dst)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s bind group: %w", label, err)
	}
	return bg, nil
}

// record encodes one generation reading the current buffer.
func (c *computeStage) record(enc hal.CommandEncoder, aCurrent bool) {
	pass := enc.BeginComputePass(&hal.ComputePassDescriptor{Label: "life_step"})
	pass.SetPipeline(c.pipeline)
	pass.SetBindGroup(0, c.uniformGroup, nil)
	pass.SetBindGroup(1, backend.Select(aCurrent, c.fromA, c.fromB), nil)
	pass.Dispatch(c.dims[0], c.dims[1], 1)
	pass.End()
}

// destroy releases resources in reverse creation order.
func (c *computeStage) destroy() {
	d := c.dev.device
	for _, bg := range []*hal.BindGroup{&c.fromB, &c.fromA, &c.uniformGroup} {
		if *bg != nil {
			d.DestroyBindGroup(*bg)
			*bg = nil
		}
	}
	if c.uniform != nil {
		d.DestroyBuffer(c.uniform)
		c.uniform = nil
	}
	if c.pipeline != nil {
		d.DestroyComputePipeline(c.pipeline)
		c.pipeline = nil
	}
	if c.pipeLayout != nil {
		d.DestroyPipelineLayout(c.pipeLayout)
		c.pipeLayout = nil
	}
	if c.stateLayout != nil {
		d.DestroyBindGroupLayout(c.stateLayout)
		c.stateLayout = nil
	}
	if c.uniformLayout != nil {
		d.DestroyBindGroupLayout(c.uniformLayout)
		c.uniformLayout = nil
	}
	if c.shader != nil {
		d.DestroyShaderModule(c.shader)
		c.shader = nil
	}
}
