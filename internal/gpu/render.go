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

// renderStage draws one instanced quad per cell from the current state
// buffer. Like the compute stage it keeps one bind group per buffer.
type renderStage struct {
	dev *deviceHandle

	shader     hal.ShaderModule
	layout     hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline

	vertices  hal.Buffer
	indices   hal.Buffer
	instances hal.Buffer
	uniform   hal.Buffer
	groupA    hal.BindGroup
	groupB    hal.BindGroup

	block     grid.RenderUniform
	instCount uint32
	clear     gputypes.Color
}

func newRenderStage(dev *deviceHandle, state *stateBuffers, p backend.Params) (*renderStage, error) {
	layout := p.Layout()
	r := &renderStage{
		dev:       dev,
		block:     grid.NewRenderUniform(p.Grid, layout),
		instCount: uint32(p.Grid.Cells()), //nolint:gosec // cell count fits uint32
	}
	r.applyColors(p.Colors)

	format := p.Format
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatBGRA8Unorm
	}
	if err := r.createPipeline(format); err != nil {
		r.destroy()
		return nil, err
	}
	if err := r.createBuffers(state, p.Grid, layout); err != nil {
		r.destroy()
		return nil, err
	}
	return r, nil
}

func (r *renderStage) createPipeline(format gputypes.TextureFormat) error {
	shader, err := r.dev.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "life_render",
		Source: hal.ShaderSource{WGSL: renderShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile render shader: %w", err)
	}
	r.shader = shader

	r.layout, err = r.dev.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "life_render_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create render layout: %w", err)
	}

	r.pipeLayout, err = r.dev.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "life_render_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.layout},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline layout: %w", err)
	}

	blend := gputypes.BlendStatePremultiplied()
	r.pipeline, err = r.dev.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "life_render_pipeline",
		Layout: r.pipeLayout,
		Vertex: hal.VertexState{
			Module:     r.shader,
			EntryPoint: "vs_main",
			Buffers:    cellVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     r.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}
	return nil
}

// cellVertexLayout returns the per-vertex quad corner stream (location 0)
// and the per-instance cell centre stream (location 1).
func cellVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: grid.VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			},
		},
		{
			ArrayStride: grid.InstanceStride,
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 1},
			},
		},
	}
}

func (r *renderStage) createBuffers(state *stateBuffers, g grid.Grid, layout grid.Layout) error {
	var err error
	if r.vertices, err = r.dev.uploadBuffer("life_quad_vertices", grid.VertexBytes(), gputypes.BufferUsageVertex); err != nil {
		return err
	}
	if r.indices, err = r.dev.uploadBuffer("life_quad_indices", grid.IndexBytes(), gputypes.BufferUsageIndex); err != nil {
		return err
	}
	inst := grid.InstanceBytes(grid.Instances(g, layout))
	if r.instances, err = r.dev.uploadBuffer("life_instances", inst, gputypes.BufferUsageVertex); err != nil {
		return err
	}
	if r.uniform, err = r.dev.uploadBuffer("life_render_uniform", r.block.Bytes(), gputypes.BufferUsageUniform); err != nil {
		return err
	}

	bufs := state.pair.Both()
	if r.groupA, err = r.stateGroup("life_render_a", state, bufs[0]); err != nil {
		return err
	}
	r.groupB, err = r.stateGroup("life_render_b", state, bufs[1])
	return err
}

func (r *renderStage) stateGroup(label string, state *stateBuffers, buf hal.Buffer) (hal.BindGroup, error) {
	bg, err := r.dev.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  label,
		Layout: r.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: r.uniform.NativeHandle(), Offset: 0, Size: grid.RenderUniformSize}},
			{Binding: 1, Resource: state.binding(buf)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s bind group: %w", label, err)
	}
	return bg, nil
}

func (r *renderStage) applyColors(c backend.Colors) {
	r.block.AliveColor = backend.ColorFloats(c.Alive)
	r.block.CursorColor = backend.ColorFloats(c.Cursor)
	bg := backend.ColorFloats(c.Background)
	r.clear = gputypes.Color{R: float64(bg[0]), G: float64(bg[1]), B: float64(bg[2]), A: float64(bg[3])}
}

// setColors updates the palette; the uniform is rewritten immediately.
func (r *renderStage) setColors(c backend.Colors) {
	r.applyColors(c)
	r.flushUniform()
}

// setHover moves the highlighted cell; the uniform is rewritten immediately.
func (r *renderStage) setHover(index uint32) {
	if r.block.Hover == index {
		return
	}
	r.block.Hover = index
	r.flushUniform()
}

func (r *renderStage) flushUniform() {
	if r.uniform != nil {
		r.dev.queue.WriteBuffer(r.uniform, 0, r.block.Bytes())
	}
}

// record clears view and draws every cell instance from the current buffer.
func (r *renderStage) record(enc hal.CommandEncoder, view hal.TextureView, aCurrent bool) {
	rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "life_render_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: r.clear,
		}},
	})
	rp.SetPipeline(r.pipeline)
	rp.SetBindGroup(0, backend.Select(aCurrent, r.groupA, r.groupB), nil)
	rp.SetVertexBuffer(0, r.vertices, 0)
	rp.SetVertexBuffer(1, r.instances, 0)
	rp.SetIndexBuffer(r.indices, gputypes.IndexFormatUint16, 0)
	rp.DrawIndexed(uint32(len(grid.QuadIndices)), r.instCount, 0, 0, 0)
	rp.End()
}

// destroy releases resources in reverse creation order.
func (r *renderStage) destroy() {
	d := r.dev.device
	for _, bg := range []*hal.BindGroup{&r.groupB, &r.groupA} {
		if *bg != nil {
			d.DestroyBindGroup(*bg)
			*bg = nil
		}
	}
	for _, buf := range []*hal.Buffer{&r.uniform, &r.instances, &r.indices, &r.vertices} {
		if *buf != nil {
			d.DestroyBuffer(*buf)
			*buf = nil
		}
	}
	if r.pipeline != nil {
		d.DestroyRenderPipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.pipeLayout != nil {
		d.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.layout != nil {
		d.DestroyBindGroupLayout(r.layout)
		r.layout = nil
	}
	if r.shader != nil {
		d.DestroyShaderModule(r.shader)
		r.shader = nil
	}
}
