//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/life/backend"
	"github.com/gogpu/life/grid"
)

// stateBuffers is the A/B pair of cell-state storage buffers plus a
// staging buffer for readback. Both buffers are created together and
// always hold the same number of cells.
type stateBuffers struct {
	dev     *deviceHandle
	pair    *backend.DoubleBuffer[hal.Buffer]
	staging hal.Buffer
	size    uint64
}

func newStateBuffers(dev *deviceHandle, g grid.Grid) (*stateBuffers, error) {
	s := &stateBuffers{dev: dev, size: g.StateBytes()}
	zeros := make([]byte, s.size)

	a, err := dev.uploadBuffer("life_state_a", zeros, gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc)
	if err != nil {
		return nil, err
	}
	b, err := dev.uploadBuffer("life_state_b", zeros, gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc)
	if err != nil {
		dev.device.DestroyBuffer(a)
		return nil, err
	}
	s.pair = backend.NewDoubleBuffer(a, b)

	s.staging, err = dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "life_state_staging",
		Size:  s.size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		s.destroy()
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	return s, nil
}

// write overwrites both buffers.
func (s *stateBuffers) write(cells []uint32) {
	data := grid.CellBytes(cells)
	for _, buf := range s.pair.Both() {
		s.dev.queue.WriteBuffer(buf, 0, data)
	}
}

// binding returns a whole-buffer binding of buf.
func (s *stateBuffers) binding(buf hal.Buffer) gputypes.BufferBinding {
	return gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: s.size}
}

// recordReadback copies the current buffer into staging.
func (s *stateBuffers) recordReadback(enc hal.CommandEncoder) {
	enc.CopyBufferToBuffer(s.pair.Current(), s.staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: s.size},
	})
}

// readStaging returns the staging contents. The copy must have completed.
func (s *stateBuffers) readStaging() ([]uint32, error) {
	out := make([]byte, s.size)
	if err := s.dev.queue.ReadBuffer(s.staging, 0, out); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}
	return grid.CellsFromBytes(out), nil
}

func (s *stateBuffers) destroy() {
	if s.staging != nil {
		s.dev.device.DestroyBuffer(s.staging)
		s.staging = nil
	}
	if s.pair.Allocated() {
		for _, buf := range s.pair.Both() {
			s.dev.device.DestroyBuffer(buf)
		}
		s.pair = nil
	}
}
