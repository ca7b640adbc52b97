// Copyright (C) 2018 Google Inc.
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

package rendergraph_test

import (
	"testing"

	"github.com/render-foundation/graph/backend"
	"github.com/render-foundation/graph/backend/memory"
	"github.com/render-foundation/graph/core/assert"
	"github.com/render-foundation/graph/core/log"
	"github.com/render-foundation/graph/rendergraph"
)

func newTestScheduler(t *testing.T) (log.Context, *memory.Backend, *rendergraph.Scheduler, *rendergraph.Manager) {
	lg := log.Testing(t)
	b := memory.New(backend.DeviceInfo{ID: 1, Name: "test-gpu", Type: backend.DeviceTypeDiscreteGPU})
	scheduler, manager := rendergraph.NewScheduler(b)
	if err := scheduler.BeginFrame(lg); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	return lg, b, scheduler, manager
}

func colorDescription() backend.ImageDescription {
	return backend.ImageDescription{
		Format:       backend.FormatRGBA8,
		Width:        1920,
		Height:       1080,
		Depth:        1,
		Layers:       1,
		Mips:         1,
		RenderTarget: true,
		TrackingName: "color",
	}
}

func depthDescription() backend.ImageDescription {
	return backend.ImageDescription{
		Format:       backend.FormatD32,
		Width:        1024,
		Height:       1024,
		Depth:        1,
		Layers:       1,
		Mips:         1,
		RenderTarget: true,
		TrackingName: "depth",
	}
}

// Scenario 1: single pass, single colour target.
func TestSinglePassSingleColorTarget(t *testing.T) {
	ctx, b, _, m := newTestScheduler(t)

	resp, err := m.Request(ctx, &rendergraph.Request{
		Images: []rendergraph.ImageRequest{{Description: colorDescription()}},
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	assert.For(ctx, "image count").ThatInteger(len(resp.Images())).Equals(1)
	assert.For(ctx, "fresh image").IsTrue(resp.Images()[0] != backend.InvalidImageHandle)
	assert.For(ctx, "implicit begin->end edge").IsTrue(b.HasDependency(resp.UsageEnd(), resp.UsageBegin()))
	assert.For(ctx, "edge count").ThatInteger(b.EdgeCount()).Equals(1)
}

// Scenario 2: two passes sharing a depth description, but B lists A as
// a dependant - rule 5's hazard screen must force two distinct nodes.
func TestTwoPassesSharedDepthHazardScreen(t *testing.T) {
	ctx, _, _, m := newTestScheduler(t)

	respA, err := m.Request(ctx, &rendergraph.Request{
		Images: []rendergraph.ImageRequest{{Description: depthDescription()}},
	})
	if err != nil {
		t.Fatalf("Request A: %v", err)
	}

	respB, err := m.Request(ctx, &rendergraph.Request{
		Images:     []rendergraph.ImageRequest{{Description: depthDescription()}},
		Dependants: []*rendergraph.Response{respA},
	})
	if err != nil {
		t.Fatalf("Request B: %v", err)
	}

	assert.For(ctx, "distinct nodes under hazard screen").IsTrue(respA.Images()[0] != respB.Images()[0])
}

// Scenario 3: two independent shadow maps with an aliasing opportunity -
// B does not list A as a dependant, so the hazard screen permits reuse,
// and an edge sequencing A's producer after B's usage is injected.
func TestIndependentShadowMapsAlias(t *testing.T) {
	ctx, b, _, m := newTestScheduler(t)

	respA, err := m.Request(ctx, &rendergraph.Request{
		Images: []rendergraph.ImageRequest{{Description: depthDescription()}},
	})
	if err != nil {
		t.Fatalf("Request A: %v", err)
	}

	respB, err := m.Request(ctx, &rendergraph.Request{
		Images: []rendergraph.ImageRequest{{Description: depthDescription()}},
	})
	if err != nil {
		t.Fatalf("Request B: %v", err)
	}

	assert.For(ctx, "B reuses A's node").That(respB.Images()[0]).Equals(respA.Images()[0])
	assert.For(ctx, "injected edge A.begin<-B.end").IsTrue(b.HasDependency(respA.UsageBegin(), respB.UsageEnd()))
}

// Scenario 4: a frame-buffer built from a surviving image node is
// reused verbatim across frames.
func TestFrameBufferReuseAcrossFrames(t *testing.T) {
	ctx, _, scheduler, m := newTestScheduler(t)

	pass := backend.PassHandle(7)
	buildFrame := func() *rendergraph.Response {
		resp, err := m.Request(ctx, &rendergraph.Request{
			Images: []rendergraph.ImageRequest{{Description: colorDescription()}},
			FrameBuffers: []rendergraph.FrameBufferRequest{{
				Pass:        pass,
				Attachments: []rendergraph.FrameBufferAttachmentRequest{{ImageIndex: 0, Layer: 0}},
			}},
		})
		if err != nil {
			t.Fatalf("Request: %v", err)
		}
		return resp
	}

	frameN := buildFrame()
	scheduler.EndFrame(ctx)
	if err := scheduler.BeginFrame(ctx); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	frameN1 := buildFrame()

	assert.For(ctx, "image reused").That(frameN1.Images()[0]).Equals(frameN.Images()[0])
	assert.For(ctx, "frame buffer reused").That(frameN1.FrameBuffers()[0]).Equals(frameN.FrameBuffers()[0])
}

// Scenario 5: an idle frame evicts everything that was not re-requested.
func TestCacheEvictionAfterIdleFrame(t *testing.T) {
	ctx, _, scheduler, m := newTestScheduler(t)

	_, err := m.Request(ctx, &rendergraph.Request{
		Images: []rendergraph.ImageRequest{{Description: colorDescription()}},
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	scheduler.EndFrame(ctx)

	if err := scheduler.BeginFrame(ctx); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	scheduler.EndFrame(ctx)

	assert.For(ctx, "cache emptied").ThatInteger(m.ImageCacheSize()).Equals(0)
}

// Scenario 6: two image slots in one request with identical descriptions
// never alias onto the same node (I2).
func TestSelfCollisionWithinOneRequest(t *testing.T) {
	ctx, _, _, m := newTestScheduler(t)

	resp, err := m.Request(ctx, &rendergraph.Request{
		Images: []rendergraph.ImageRequest{
			{Description: depthDescription()},
			{Description: depthDescription()},
		},
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	assert.For(ctx, "two distinct nodes").IsTrue(resp.Images()[0] != resp.Images()[1])
	assert.For(ctx, "cache grew to two nodes").ThatInteger(m.ImageCacheSize()).Equals(2)
}

func TestRequestRejectsMipsAndMissingRenderTarget(t *testing.T) {
	ctx, _, _, m := newTestScheduler(t)

	desc := colorDescription()
	desc.Mips = 2
	if _, err := m.Request(ctx, &rendergraph.Request{Images: []rendergraph.ImageRequest{{Description: desc}}}); err == nil {
		t.Fatalf("expected mips rejection")
	}

	desc = colorDescription()
	desc.RenderTarget = false
	if _, err := m.Request(ctx, &rendergraph.Request{Images: []rendergraph.ImageRequest{{Description: desc}}}); err == nil {
		t.Fatalf("expected render target rejection")
	}
}

func TestFrameBufferAttachmentIndexOutOfRange(t *testing.T) {
	ctx, _, _, m := newTestScheduler(t)

	_, err := m.Request(ctx, &rendergraph.Request{
		Images: []rendergraph.ImageRequest{{Description: colorDescription()}},
		FrameBuffers: []rendergraph.FrameBufferRequest{{
			Pass:        backend.PassHandle(1),
			Attachments: []rendergraph.FrameBufferAttachmentRequest{{ImageIndex: 5}},
		}},
	})
	if err == nil {
		t.Fatalf("expected out-of-range rejection")
	}
}

func TestResponseAccessAfterResetPanics(t *testing.T) {
	ctx, _, scheduler, m := newTestScheduler(t)

	resp, err := m.Request(ctx, &rendergraph.Request{
		Images: []rendergraph.ImageRequest{{Description: colorDescription()}},
	})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	scheduler.EndFrame(ctx)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic accessing Response after frame reset")
		}
	}()
	_ = resp.Images()
}

// Dependants edge direction, per spec.md §8's invariant: for a request R
// with dependants D, every d in D gets an edge R.usage_end -> d.usage_begin.
func TestDependantsAreSequencedAfterNewResponse(t *testing.T) {
	ctx, b, _, m := newTestScheduler(t)

	dependant, err := m.Request(ctx, &rendergraph.Request{
		Images: []rendergraph.ImageRequest{{Description: colorDescription()}},
	})
	if err != nil {
		t.Fatalf("Request dependant: %v", err)
	}

	newer, err := m.Request(ctx, &rendergraph.Request{
		Dependants: []*rendergraph.Response{dependant},
	})
	if err != nil {
		t.Fatalf("Request newer: %v", err)
	}

	assert.For(ctx, "newer.end -> dependant.begin").IsTrue(b.HasDependency(dependant.UsageBegin(), newer.UsageEnd()))
}
