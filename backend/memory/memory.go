// Copyright (C) 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package memory implements a deterministic, in-process backend.Backend
// used by the render graph core's own tests and as a template for a
// real GPU binding. The bookkeeping style - a mutex-guarded map keyed by
// a monotonically issued handle - mirrors gapis/database's in-memory
// Database implementation.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/render-foundation/graph/backend"
)

// Backend is an in-memory backend.Backend. The zero value is not usable;
// construct with New.
type Backend struct {
	mu   sync.Mutex
	next uint64

	devices  []backend.DeviceInfo
	selected map[backend.ContextHandle]backend.DeviceInfo

	images       map[backend.ImageHandle]backend.ImageDescription
	frameBuffers map[backend.FrameBufferHandle][]backend.Attachment
	checkpoints  map[backend.CheckpointHandle][]backend.CheckpointHandle // later -> earlier edges

	// FailImageCreate, when true, makes the next CreateImage call fail.
	// Used by tests to exercise spec.md §4.2's backend-failure path.
	FailImageCreate bool
	// FailFrameBufferCreate, when true, makes the next CreateFrameBuffer
	// call fail.
	FailFrameBufferCreate bool
}

// New returns a Backend that will enumerate the given devices.
func New(devices ...backend.DeviceInfo) *Backend {
	return &Backend{
		devices:      devices,
		selected:     map[backend.ContextHandle]backend.DeviceInfo{},
		images:       map[backend.ImageHandle]backend.ImageDescription{},
		frameBuffers: map[backend.FrameBufferHandle][]backend.Attachment{},
		checkpoints:  map[backend.CheckpointHandle][]backend.CheckpointHandle{},
	}
}

func (b *Backend) id() uint64 {
	return atomic.AddUint64(&b.next, 1)
}

// CreateImage implements backend.Backend.
func (b *Backend) CreateImage(ctx context.Context, rc backend.ContextHandle, description backend.ImageDescription) (backend.ImageHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailImageCreate {
		b.FailImageCreate = false
		return backend.InvalidImageHandle, errors.New("memory backend: forced image create failure")
	}
	h := backend.ImageHandle(b.id())
	b.images[h] = description
	return h, nil
}

// DestroyImage implements backend.Backend.
func (b *Backend) DestroyImage(ctx context.Context, rc backend.ContextHandle, handle backend.ImageHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.images, handle)
	return nil
}

// CreateFrameBuffer implements backend.Backend.
func (b *Backend) CreateFrameBuffer(ctx context.Context, rc backend.ContextHandle, pass backend.PassHandle, attachments []backend.Attachment) (backend.FrameBufferHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailFrameBufferCreate {
		b.FailFrameBufferCreate = false
		return backend.InvalidFrameBufferHandle, errors.New("memory backend: forced frame-buffer create failure")
	}
	h := backend.FrameBufferHandle(b.id())
	cp := make([]backend.Attachment, len(attachments))
	copy(cp, attachments)
	b.frameBuffers[h] = cp
	return h, nil
}

// DestroyFrameBuffer implements backend.Backend.
func (b *Backend) DestroyFrameBuffer(ctx context.Context, rc backend.ContextHandle, handle backend.FrameBufferHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.frameBuffers, handle)
	return nil
}

// CreateCheckpoint implements backend.Backend.
func (b *Backend) CreateCheckpoint(ctx context.Context, rc backend.ContextHandle) (backend.CheckpointHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := backend.CheckpointHandle(b.id())
	b.checkpoints[h] = nil
	return h, nil
}

// AddDependency implements backend.Backend. It also rejects a
// self-dependency (a checkpoint waiting on itself), as a last-resort
// check behind the core's structural guarantee (spec.md I3); longer
// cycles are not detected.
func (b *Backend) AddDependency(ctx context.Context, rc backend.ContextHandle, later, earlier backend.CheckpointHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if later == earlier {
		return errors.Errorf("memory backend: refusing self-dependency on checkpoint %d", later)
	}
	b.checkpoints[later] = append(b.checkpoints[later], earlier)
	return nil
}

// HasDependency reports whether a direct later-must-wait-for-earlier
// edge was recorded between the two checkpoints. Exposed for tests that
// verify the checkpoint graph shape the core builds (spec.md §8).
func (b *Backend) HasDependency(later, earlier backend.CheckpointHandle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.checkpoints[later] {
		if e == earlier {
			return true
		}
	}
	return false
}

// EdgeCount returns the total number of dependency edges recorded so
// far, across every checkpoint. Exposed for tests.
func (b *Backend) EdgeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, edges := range b.checkpoints {
		n += len(edges)
	}
	return n
}

// BeginNextFrame implements backend.Backend.
func (b *Backend) BeginNextFrame(ctx context.Context, rc backend.ContextHandle) (bool, error) {
	return true, nil
}

// EnumerateDevices implements backend.Backend.
func (b *Backend) EnumerateDevices(ctx context.Context) ([]backend.DeviceInfo, error) {
	return b.devices, nil
}

// SelectDevice implements backend.Backend.
func (b *Backend) SelectDevice(ctx context.Context, id backend.DeviceID) (backend.ContextHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.devices {
		if d.ID == id {
			rc := backend.ContextHandle(b.id())
			b.selected[rc] = d
			return rc, nil
		}
	}
	return backend.InvalidContextHandle, errors.Errorf("memory backend: no such device %d", id)
}

// SelectedDeviceInfo implements backend.Backend.
func (b *Backend) SelectedDeviceInfo(ctx context.Context, rc backend.ContextHandle) (backend.DeviceInfo, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.selected[rc]
	return d, ok
}
