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

import "github.com/render-foundation/graph/backend"

// RenderContext mirrors spec.md §3's RenderContext singleton, with one
// deliberate change: it is not a process-wide global. Per the Design
// Notes (spec.md §9, "avoid true globals so tests can instantiate
// multiple independent cores"), it is an explicitly constructed value
// owned by the Scheduler and handed to the Manager by reference. Its
// fields are only ever written by the Scheduler (spec.md §5), never by
// Manager.Request.
type RenderContext struct {
	// Device is the info for the currently selected backend device.
	// Zero until the scheduler has run its first frame.
	Device backend.DeviceInfo
	// Handle is the backend context handle every Backend call after
	// device selection must be given.
	Handle backend.ContextHandle
	// FrameScheduled mirrors the backend's own "frame successfully
	// begun" flag, updated once per Scheduler.RunFrame.
	FrameScheduled bool
	// deviceSelected distinguishes "no device yet" from a DeviceInfo
	// that legitimately zero-values (DeviceID 0 is a valid id).
	deviceSelected bool
}

// NewRenderContext constructs an empty, not-yet-scheduled RenderContext.
func NewRenderContext() *RenderContext {
	return &RenderContext{}
}
