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

// Package backend declares the downward contract the render graph core
// uses to talk to an actual GPU implementation (Vulkan, Metal, ...).
// Nothing in this module depends on a concrete backend type - only on
// the Backend interface below, following the teacher's "dynamic
// dispatch over backends" design note (spec.md §9).
package backend

import "context"

// ImageFormat enumerates the pixel formats the core can request. The
// concrete numbering is opaque to the core; only equality matters.
type ImageFormat int

const (
	FormatUnknown ImageFormat = iota
	FormatRGBA8
	FormatBGRA8
	FormatRGBA16F
	FormatD32
	FormatD24S8
)

func (f ImageFormat) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatBGRA8:
		return "BGRA8"
	case FormatRGBA16F:
		return "RGBA16F"
	case FormatD32:
		return "D32"
	case FormatD24S8:
		return "D24S8"
	default:
		return "Unknown"
	}
}

// ImageDescription fully describes a transient render-target image.
// Field-for-field this is the data in spec.md §3's ImageDescription row.
type ImageDescription struct {
	Format ImageFormat
	Width  uint32
	Height uint32
	Depth  uint32
	Layers uint32
	// Mips must be 1: the core is exclusively a transient render-target
	// manager (spec.md I6).
	Mips uint32
	// RenderTarget must be true (spec.md I6).
	RenderTarget bool
	// SupportsSampling, when true, requires the backing image to also be
	// readable by a shader sampler, not only writable as an attachment.
	SupportsSampling bool
	// TrackingName is passed to the backend purely for diagnostics (e.g.
	// a GPU-debugger object label); it never participates in hashing or
	// equality.
	TrackingName string
}

// Attachment binds one image layer into a frame-buffer.
type Attachment struct {
	Image ImageHandle
	Layer uint32
}

// Opaque backend-issued handles. These are deliberately plain integers
// rather than pointers: the core only ever compares and hashes them, it
// never dereferences into backend-owned memory.
type (
	ImageHandle       uint64
	FrameBufferHandle uint64
	CheckpointHandle  uint64
	PassHandle        uint64
	DeviceID          uint64
	ContextHandle     uint64
)

// Zero values of the handle types are never returned by a successful
// backend call and are used as an explicit "invalid handle" sentinel.
const (
	InvalidImageHandle       = ImageHandle(0)
	InvalidFrameBufferHandle = FrameBufferHandle(0)
	InvalidCheckpointHandle  = CheckpointHandle(0)
	InvalidContextHandle     = ContextHandle(0)
)

// DeviceType classifies an enumerated physical device for the
// deterministic selection policy in spec.md §4.6 step 1.
type DeviceType int

const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeDiscreteGPU
)

// DeviceInfo describes one device returned by EnumerateDevices.
type DeviceInfo struct {
	ID   DeviceID
	Name string
	Type DeviceType
}

// Backend is the full downward API contract of spec.md §6: image
// create/destroy, frame-buffer create/destroy, checkpoint
// create/add-dependency, and frame lifecycle. Any implementation
// meeting this interface - in-process, out-of-process over gRPC, or a
// real GPU driver binding - is acceptable to the core.
type Backend interface {
	// CreateImage asks the backend to allocate a new image matching
	// description, tracked under rc. Returns InvalidImageHandle and a
	// non-nil error on failure; the core never retries.
	CreateImage(ctx context.Context, rc ContextHandle, description ImageDescription) (ImageHandle, error)
	// DestroyImage releases a previously created image.
	DestroyImage(ctx context.Context, rc ContextHandle, handle ImageHandle) error

	// CreateFrameBuffer asks the backend to bind attachments to pass.
	CreateFrameBuffer(ctx context.Context, rc ContextHandle, pass PassHandle, attachments []Attachment) (FrameBufferHandle, error)
	// DestroyFrameBuffer releases a previously created frame-buffer.
	DestroyFrameBuffer(ctx context.Context, rc ContextHandle, handle FrameBufferHandle) error

	// CreateCheckpoint creates a new, edge-free checkpoint bound to rc.
	CreateCheckpoint(ctx context.Context, rc ContextHandle) (CheckpointHandle, error)
	// AddDependency records that later must not begin before earlier
	// ends. The core guarantees (by construction, per spec.md I3) that
	// this call is never asked to close a cycle.
	AddDependency(ctx context.Context, rc ContextHandle, later, earlier CheckpointHandle) error

	// BeginNextFrame advances the GPU timeline to the next frame. The
	// returned bool is the backend's own "frame successfully scheduled"
	// flag, mirrored onto RenderContext.FrameScheduled.
	BeginNextFrame(ctx context.Context, rc ContextHandle) (bool, error)
	// EnumerateDevices lists every device the backend can select.
	EnumerateDevices(ctx context.Context) ([]DeviceInfo, error)
	// SelectDevice commits to a device, returning the context handle
	// that every other Backend call must be given from then on.
	SelectDevice(ctx context.Context, id DeviceID) (ContextHandle, error)
	// SelectedDeviceInfo returns the device bound to rc, or false if
	// none has been selected yet.
	SelectedDeviceInfo(ctx context.Context, rc ContextHandle) (DeviceInfo, bool)
}
