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

// Package rendergraph implements the render graph resource management
// core: a per-frame transient image and frame-buffer allocator that
// aliases GPU memory across passes via a checkpoint-ordered dependency
// graph (spec.md §1-§5).
package rendergraph

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/render-foundation/graph/backend"
	"github.com/render-foundation/graph/core/log"
	"github.com/render-foundation/graph/rendergraph/arena"
)

// Manager is the upward-facing entry point of spec.md §6.1: one Manager
// per render device context, owning the image cache, frame-buffer
// cache, and per-frame arena behind a single mutex (spec.md §5 - every
// Request holds that mutex for its whole duration, so the cache and
// arena are never observed mid-mutation).
type Manager struct {
	mu sync.Mutex

	backend backend.Backend
	context *RenderContext

	images       *imageCache
	frameBuffers *frameBufferCache
	arena        *arena.Arena

	tracer     trace.Tracer
	bucketHint int
}

// NewManager constructs a Manager bound to b and rc. rc is owned by the
// caller's Scheduler and must outlive the Manager (spec.md §9's Design
// Notes on RenderContext not being a global).
func NewManager(b backend.Backend, rc *RenderContext, opts ...Option) *Manager {
	m := &Manager{
		backend: b,
		context: rc,
		arena:   arena.New(),
		tracer:  otel.Tracer("github.com/render-foundation/graph/rendergraph"),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.images = newImageCache(m.bucketHint)
	m.frameBuffers = newFrameBufferCache(m.bucketHint)
	return m
}

// Request implements spec.md §4.5: allocate a Response, wire its
// checkpoints into the graph, and resolve every image and frame-buffer
// request against the caches. On any failure the whole Request is
// abandoned and no partial Response is returned; the usage records it
// made are retired at the next arena Reset, while cache nodes it created
// stay in the caches and checkpoint edges it added stay in the backend.
func (m *Manager) Request(ctx context.Context, request *Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lg := log.Wrap(ctx).Tag(logCategory)

	spanCtx, span := m.tracer.Start(ctx, "rendergraph.Manager.Request",
		trace.WithAttributes(
			attribute.Int("rendergraph.images_requested", len(request.Images)),
			attribute.Int("rendergraph.frame_buffers_requested", len(request.FrameBuffers)),
			attribute.Int("rendergraph.dependants", len(request.Dependants)),
		))
	defer span.End()
	ctx = spanCtx

	response := &Response{token: m.arena.Allocate(0)}

	usageBegin, err := m.backend.CreateCheckpoint(ctx, m.context.Handle)
	if err != nil {
		lg.Error().Cause(err).Log("failed to create usage-begin checkpoint")
		span.RecordError(err)
		return nil, err
	}
	usageEnd, err := m.backend.CreateCheckpoint(ctx, m.context.Handle)
	if err != nil {
		lg.Error().Cause(err).Log("failed to create usage-end checkpoint")
		span.RecordError(err)
		return nil, err
	}
	if err := m.backend.AddDependency(ctx, m.context.Handle, usageEnd, usageBegin); err != nil {
		span.RecordError(err)
		return nil, err
	}
	response.usageBegin = usageBegin
	response.usageEnd = usageEnd

	// Every dependant must not begin its own pass instance before this
	// Response's usage ends (spec.md §4.5 step 2). Because Dependants can
	// only ever name Responses produced by earlier Request calls in this
	// same frame, this can never close a cycle (spec.md I3).
	for _, dependant := range request.Dependants {
		if err := m.backend.AddDependency(ctx, m.context.Handle, dependant.usageBegin, usageEnd); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	images := make([]backend.ImageHandle, len(request.Images))
	for i, imageRequest := range request.Images {
		handle, err := m.resolveImage(ctx, imageRequest, response, request.Dependants)
		if err != nil {
			lg.Error().Cause(err).Logf("image request %d rejected", i)
			span.RecordError(err)
			return nil, err
		}
		images[i] = handle
	}
	response.images = images

	frameBuffers := make([]backend.FrameBufferHandle, len(request.FrameBuffers))
	for i, fbRequest := range request.FrameBuffers {
		handle, err := m.resolveFrameBuffer(ctx, fbRequest, images)
		if err != nil {
			lg.Error().Cause(err).Logf("frame buffer request %d rejected", i)
			span.RecordError(err)
			return nil, err
		}
		frameBuffers[i] = handle
	}
	response.frameBuffers = frameBuffers

	span.SetAttributes(
		attribute.Int("rendergraph.image_cache_size", m.images.size()),
		attribute.Int("rendergraph.frame_buffer_cache_size", m.frameBuffers.size()),
	)

	return response, nil
}

// ImageCacheSize reports the number of live image cache nodes. Exposed
// for tests verifying spec.md §8's sweep and aliasing properties.
func (m *Manager) ImageCacheSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.images.size()
}

// FrameBufferCacheSize reports the number of live frame-buffer cache
// nodes. Exposed for tests.
func (m *Manager) FrameBufferCacheSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frameBuffers.size()
}

// errNilBackend guards NewScheduler misuse; kept unexported
// since it can only ever be a caller bug, never a runtime condition.
var errNilBackend = errors.New("rendergraph: backend must not be nil")
