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
	"fmt"

	"github.com/render-foundation/graph/backend"
	"github.com/render-foundation/graph/rendergraph/arena"
)

// ImageRequest is one element of Request.Images (spec.md §3, §6).
type ImageRequest struct {
	Description backend.ImageDescription
	// Internal marks an image whose full producer/consumer lifetime is
	// contained within the callee pass (spec.md §4.2's "internal
	// semantics"). Internal requests skip the hazard screen and the
	// parallelism-reduction dependency injection.
	Internal bool
}

// FrameBufferAttachmentRequest names one attachment of a
// FrameBufferRequest by index into the same Request's Images slice.
type FrameBufferAttachmentRequest struct {
	ImageIndex int
	Layer      uint32
}

// FrameBufferRequest is one element of Request.FrameBuffers.
type FrameBufferRequest struct {
	Pass        backend.PassHandle
	Attachments []FrameBufferAttachmentRequest
}

// Request is the caller-owned input to Manager.Request, matching
// spec.md §6's upward API shape exactly.
type Request struct {
	Images       []ImageRequest
	FrameBuffers []FrameBufferRequest
	// Dependants lists Responses that must not begin their own pass
	// instance until the new Response's usage-end checkpoint fires.
	Dependants []*Response
}

// Response is the arena-tracked, immutable-to-the-caller result of a
// successful Manager.Request call, matching spec.md §3's Response row.
// It is only valid for the lifetime of the frame it was produced in
// (spec.md I5); every accessor panics if called after that frame's
// Scheduler.EndFrame has reset the arena.
type Response struct {
	token arena.Token

	usageBegin backend.CheckpointHandle
	usageEnd   backend.CheckpointHandle

	images       []backend.ImageHandle
	frameBuffers []backend.FrameBufferHandle
}

func (r *Response) checkAlive() {
	if !r.token.Alive() {
		panic("rendergraph: Response accessed after its frame's arena was reset")
	}
}

// UsageBegin returns the checkpoint the backend must reach before any
// of this Response's images or frame-buffers may be used.
func (r *Response) UsageBegin() backend.CheckpointHandle {
	r.checkAlive()
	return r.usageBegin
}

// UsageEnd returns the checkpoint signalling this Response's pass
// instance has finished using its images and frame-buffers.
func (r *Response) UsageEnd() backend.CheckpointHandle {
	r.checkAlive()
	return r.usageEnd
}

// Images returns the resolved image handles, one per ImageRequest, in
// request order.
func (r *Response) Images() []backend.ImageHandle {
	r.checkAlive()
	return r.images
}

// FrameBuffers returns the resolved frame-buffer handles, one per
// FrameBufferRequest, in request order.
func (r *Response) FrameBuffers() []backend.FrameBufferHandle {
	r.checkAlive()
	return r.frameBuffers
}

func (r *Response) String() string {
	if !r.token.Alive() {
		return "Response(expired)"
	}
	return fmt.Sprintf("Response(images=%v, frameBuffers=%v)", r.images, r.frameBuffers)
}
