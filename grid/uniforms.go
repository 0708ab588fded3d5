package grid

import (
	"encoding/binary"
	"math"
)

// NoHover marks the absence of a highlighted cell in RenderUniform.
const NoHover = math.MaxUint32

// Uniform block sizes in bytes. Both are multiples of 16 so they satisfy
// uniform buffer alignment on every backend.
const (
	RenderUniformSize  = 64
	ComputeUniformSize = 16
)

// RenderUniform is read by the vertex and fragment stages.
//
// WGSL layout:
//
//	cell_size    vec2<f32>  offset 0
//	gap          f32        offset 8
//	rows         u32        offset 12
//	cols         u32        offset 16
//	hover        u32        offset 20
//	(padding)               offset 24
//	alive_color  vec4<f32>  offset 32
//	cursor_color vec4<f32>  offset 48
type RenderUniform struct {
	CellSize    [2]float32
	Gap         float32
	Rows        uint32
	Cols        uint32
	Hover       uint32
	AliveColor  [4]float32
	CursorColor [4]float32
}

// NewRenderUniform fills the geometric part of the block; colours are left
// for the caller.
func NewRenderUniform(g Grid, l Layout) RenderUniform {
	return RenderUniform{
		CellSize: [2]float32{l.CellSize, l.CellSize},
		Gap:      l.GapSize,
		Rows:     g.Rows,
		Cols:     g.Cols,
		Hover:    NoHover,
	}
}

// Bytes serializes the block in its WGSL layout.
func (u RenderUniform) Bytes() []byte {
	buf := make([]byte, 0, RenderUniformSize)
	buf = appendFloat32s(buf, u.CellSize[0], u.CellSize[1], u.Gap)
	buf = binary.LittleEndian.AppendUint32(buf, u.Rows)
	buf = binary.LittleEndian.AppendUint32(buf, u.Cols)
	buf = binary.LittleEndian.AppendUint32(buf, u.Hover)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = appendFloat32s(buf, u.AliveColor[:]...)
	buf = appendFloat32s(buf, u.CursorColor[:]...)
	return buf
}

// ComputeUniform is read by the life and paint compute stages.
type ComputeUniform struct {
	Rows uint32
	Cols uint32
	Wrap bool
}

// Bytes serializes the block as four u32 words: rows, cols, wrap, padding.
func (u ComputeUniform) Bytes() []byte {
	var wrap uint32
	if u.Wrap {
		wrap = 1
	}
	buf := make([]byte, 0, ComputeUniformSize)
	buf = binary.LittleEndian.AppendUint32(buf, u.Rows)
	buf = binary.LittleEndian.AppendUint32(buf, u.Cols)
	buf = binary.LittleEndian.AppendUint32(buf, wrap)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	return buf
}
