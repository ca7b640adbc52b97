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

import "github.com/pkg/errors"

// logCategory is the log tag every request-validation and
// backend-failure error is logged under (spec.md §7).
const logCategory = "render_foundation_graph"

// Sentinel causes for the request-validation and backend-creation
// failures of spec.md §4.2 and §4.5. Callers branch on these with
// errors.Cause, in the teacher's github.com/pkg/errors idiom.
var (
	// ErrMipsUnsupported is the cause when an image request asks for
	// more than one mip level (spec.md I6).
	ErrMipsUnsupported = errors.New("rendergraph: image requests with mips > 1 are not supported")
	// ErrRenderTargetRequired is the cause when an image request does
	// not set the render-target flag (spec.md I6).
	ErrRenderTargetRequired = errors.New("rendergraph: image requests must set the render target flag")
	// ErrAttachmentIndexOutOfRange is the cause when a frame-buffer
	// request names an image index outside the request's image slice.
	ErrAttachmentIndexOutOfRange = errors.New("rendergraph: frame buffer attachment image index out of range")
	// ErrBackendImageCreateFailed is the cause when the backend's
	// CreateImage call fails or returns an invalid handle.
	ErrBackendImageCreateFailed = errors.New("rendergraph: backend failed to create image")
	// ErrBackendFrameBufferCreateFailed is the cause when the backend's
	// CreateFrameBuffer call fails or returns an invalid handle.
	ErrBackendFrameBufferCreateFailed = errors.New("rendergraph: backend failed to create frame buffer")
	// ErrNoDeviceAvailable is the cause when the scheduler cannot find
	// any device to select (spec.md §4.6 step 1); it is fatal.
	ErrNoDeviceAvailable = errors.New("rendergraph: no render device available")
)
