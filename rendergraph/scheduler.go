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

package rendergraph

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/render-foundation/graph/backend"
	"github.com/render-foundation/graph/core/log"
)

// Scheduler owns the RenderContext and Manager for one render device
// and drives the per-frame lifecycle of spec.md §4.6: device selection,
// BeginNextFrame, and end-of-frame cache sweep plus arena retirement.
// Its fields are the only things in this module ever allowed to write
// RenderContext (spec.md §5).
type Scheduler struct {
	backend backend.Backend
	context *RenderContext
	manager *Manager
	tracer  trace.Tracer
}

// NewScheduler constructs a Scheduler and the Manager it drives. The
// returned Manager is what callers pass requests to; the Scheduler
// itself is only ever touched once per frame.
func NewScheduler(b backend.Backend, opts ...Option) (*Scheduler, *Manager) {
	if b == nil {
		panic(errNilBackend)
	}
	rc := NewRenderContext()
	manager := NewManager(b, rc, opts...)
	return &Scheduler{
		backend: b,
		context: rc,
		manager: manager,
		tracer:  otel.Tracer("github.com/render-foundation/graph/rendergraph"),
	}, manager
}

// Context returns the RenderContext this Scheduler drives, for callers
// that need the selected device info or frame-scheduled flag.
func (s *Scheduler) Context() *RenderContext {
	return s.context
}

// BeginFrame implements spec.md §4.6 step 1: on the very first frame,
// enumerate devices and deterministically select one (preferring a
// discrete GPU, matching the original source's policy), then advance
// the backend's timeline.
func (s *Scheduler) BeginFrame(ctx context.Context) error {
	lg := log.Wrap(ctx).Tag(logCategory)

	ctx, span := s.tracer.Start(ctx, "rendergraph.Scheduler.BeginFrame")
	defer span.End()

	if s.context.Handle == backend.InvalidContextHandle && !s.context.deviceSelected {
		devices, err := s.backend.EnumerateDevices(ctx)
		if err != nil {
			span.RecordError(err)
			return err
		}
		device, ok := selectPreferredDevice(devices)
		if !ok {
			lg.Critical().Log("no render device available")
			return ErrNoDeviceAvailable
		}

		handle, err := s.backend.SelectDevice(ctx, device.ID)
		if err != nil {
			span.RecordError(err)
			return err
		}

		s.context.Handle = handle
		s.context.Device = device
		s.context.deviceSelected = true
		lg.Info().Logf("selected render device %q", device.Name)
	}

	scheduled, err := s.backend.BeginNextFrame(ctx, s.context.Handle)
	if err != nil {
		span.RecordError(err)
		return err
	}
	s.context.FrameScheduled = scheduled
	span.SetAttributes(attribute.Bool("rendergraph.frame_scheduled", scheduled))
	return nil
}

// selectPreferredDevice implements the original source's device
// selection policy: the first enumerated discrete GPU wins; absent
// one, the first enumerated device of any kind is used.
func selectPreferredDevice(devices []backend.DeviceInfo) (backend.DeviceInfo, bool) {
	for _, d := range devices {
		if d.Type == backend.DeviceTypeDiscreteGPU {
			return d, true
		}
	}
	if len(devices) > 0 {
		return devices[0], true
	}
	return backend.DeviceInfo{}, false
}

// EndFrame implements spec.md §4.6 steps 2-3: sweep both caches for
// nodes that accrued no usage this frame, then shrink and reset the
// arena, retiring every Response minted during the frame (I5).
func (s *Scheduler) EndFrame(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "rendergraph.Scheduler.EndFrame")
	defer span.End()

	s.manager.mu.Lock()
	defer s.manager.mu.Unlock()

	// The sweep's destroy calls must still run even if the request that
	// triggered this EndFrame had its context canceled; detach so the
	// backend sees an uncanceled context while keeping the same log
	// handler.
	sweepCtx := log.Wrap(ctx).Detach().Unwrap()
	s.manager.images.sweep(sweepCtx, s.backend, s.context.Handle)
	s.manager.frameBuffers.sweep(sweepCtx, s.backend, s.context.Handle)

	span.SetAttributes(
		attribute.Int("rendergraph.image_cache_size", s.manager.images.size()),
		attribute.Int("rendergraph.frame_buffer_cache_size", s.manager.frameBuffers.size()),
	)

	s.manager.arena.Shrink()
	s.manager.arena.Reset()
}

// RunFrame is a convenience wrapper combining BeginFrame, fn, and
// EndFrame - the shape most callers actually want. fn is given the
// Manager to issue Request calls against for the duration of the frame.
func (s *Scheduler) RunFrame(ctx context.Context, fn func(ctx context.Context, m *Manager) error) error {
	if err := s.BeginFrame(ctx); err != nil {
		return err
	}
	defer s.EndFrame(ctx)
	return fn(ctx, s.manager)
}
