package grid

import (
	"encoding/binary"
	"math"
)

// Layout is the placement of cells in normalized device coordinates.
// The larger grid dimension, plus a gap on either side of every cell,
// spans exactly [-1, 1].
type Layout struct {
	CellSize float32
	GapSize  float32
}

// NewLayout derives cell and gap sizes from the grid and the gap-to-cell ratio.
// Negative ratios are treated as zero.
func NewLayout(g Grid, gapRatio float32) Layout {
	if gapRatio < 0 {
		gapRatio = 0
	}
	n := float32(max(g.Rows, g.Cols))
	cell := 2 / (n + (n+1)*gapRatio)
	return Layout{CellSize: cell, GapSize: gapRatio * cell}
}

// Vertex is one corner of the unit cell quad.
type Vertex struct {
	Position [2]float32
}

// Instance is the NDC centre of one cell.
type Instance struct {
	Position [2]float32
}

// Byte strides of the vertex and instance streams.
const (
	VertexStride   = 8
	InstanceStride = 8
)

// QuadVertices is a unit quad centred on the origin, counter-clockwise.
var QuadVertices = [4]Vertex{
	{Position: [2]float32{-0.5, -0.5}},
	{Position: [2]float32{0.5, -0.5}},
	{Position: [2]float32{0.5, 0.5}},
	{Position: [2]float32{-0.5, 0.5}},
}

// QuadIndices triangulates QuadVertices.
var QuadIndices = [6]uint16{0, 1, 2, 2, 3, 0}

// Instances returns one centre per cell in buffer order.
func Instances(g Grid, l Layout) []Instance {
	out := make([]Instance, 0, g.Cells())
	step := l.CellSize + l.GapSize
	origin := -1 + l.GapSize + l.CellSize/2
	for row := uint32(0); row < g.Rows; row++ {
		y := origin + float32(row)*step
		for col := uint32(0); col < g.Cols; col++ {
			out = append(out, Instance{Position: [2]float32{origin + float32(col)*step, y}})
		}
	}
	return out
}

// VertexBytes packs QuadVertices for upload.
func VertexBytes() []byte {
	buf := make([]byte, 0, len(QuadVertices)*VertexStride)
	for _, v := range QuadVertices {
		buf = appendFloat32s(buf, v.Position[:]...)
	}
	return buf
}

// IndexBytes packs QuadIndices for upload, padded to a multiple of 4 bytes.
func IndexBytes() []byte {
	buf := make([]byte, 0, 12)
	for _, i := range QuadIndices {
		buf = binary.LittleEndian.AppendUint16(buf, i)
	}
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf
}

// InstanceBytes packs an instance table for upload.
func InstanceBytes(instances []Instance) []byte {
	buf := make([]byte, 0, len(instances)*InstanceStride)
	for _, in := range instances {
		buf = appendFloat32s(buf, in.Position[:]...)
	}
	return buf
}

// CellBytes packs cell states for upload.
func CellBytes(cells []uint32) []byte {
	buf := make([]byte, 0, len(cells)*4)
	for _, c := range cells {
		buf = binary.LittleEndian.AppendUint32(buf, c)
	}
	return buf
}

// CellsFromBytes unpacks cell states read back from the GPU.
func CellsFromBytes(b []byte) []uint32 {
	cells := make([]uint32, len(b)/4)
	for i := range cells {
		cells[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return cells
}

func appendFloat32s(buf []byte, fs ...float32) []byte {
	for _, f := range fs {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}
