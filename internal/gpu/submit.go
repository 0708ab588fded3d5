//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/wgpu/hal"
)

// fenceTimeout bounds every blocking wait on the GPU.
const fenceTimeout = 5 * time.Second

// pending is a submitted command buffer and the fence value that signals it.
type pending struct {
	cmd   hal.CommandBuffer
	value uint64
}

// submitter records command buffers and submits them without blocking.
// One fence with a monotonically increasing value tracks every submission;
// finished command buffers are freed on the next submit.
type submitter struct {
	dev      *deviceHandle
	fence    hal.Fence
	value    uint64
	inFlight []pending
}

func newSubmitter(dev *deviceHandle) (*submitter, error) {
	fence, err := dev.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	return &submitter{dev: dev, fence: fence}, nil
}

// submit encodes one command buffer with record and queues it.
func (s *submitter) submit(label string, record func(enc hal.CommandEncoder)) error {
	s.reclaim()

	encoder, err := s.dev.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label + "_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	record(encoder)
	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}

	s.value++
	if err := s.dev.queue.Submit([]hal.CommandBuffer{cmd}, s.fence, s.value); err != nil {
		s.dev.device.FreeCommandBuffer(cmd)
		return fmt.Errorf("submit %s: %w", label, err)
	}
	s.inFlight = append(s.inFlight, pending{cmd: cmd, value: s.value})
	return nil
}

// reclaim frees command buffers the GPU has finished with. It never blocks.
func (s *submitter) reclaim() {
	keep := s.inFlight[:0]
	for _, p := range s.inFlight {
		done, err := s.dev.device.Wait(s.fence, p.value, 0)
		if err == nil && done {
			s.dev.device.FreeCommandBuffer(p.cmd)
			continue
		}
		keep = append(keep, p)
	}
	s.inFlight = keep
}

// wait blocks until every submission so far has completed.
func (s *submitter) wait() error {
	if s.value == 0 {
		return nil
	}
	ok, err := s.dev.device.Wait(s.fence, s.value, fenceTimeout)
	if err != nil || !ok {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", ok, err)
	}
	s.reclaim()
	return nil
}

// destroy waits for outstanding work and releases the fence.
func (s *submitter) destroy() {
	if s.fence == nil {
		return
	}
	if err := s.wait(); err != nil {
		slogger().Warn("gpu: destroying with work in flight", "err", err)
	}
	for _, p := range s.inFlight {
		s.dev.device.FreeCommandBuffer(p.cmd)
	}
	s.inFlight = nil
	s.dev.device.DestroyFence(s.fence)
	s.fence = nil
}

// Pending returns the number of submitted command buffers not yet reclaimed.
func (s *submitter) Pending() int {
	return len(s.inFlight)
}
