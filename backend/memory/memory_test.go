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

package memory_test

import (
	"context"
	"testing"

	"github.com/render-foundation/graph/backend"
	"github.com/render-foundation/graph/backend/memory"
)

func TestCreateImageAndFailureHook(t *testing.T) {
	ctx := context.Background()
	b := memory.New()

	h, err := b.CreateImage(ctx, backend.ContextHandle(1), backend.ImageDescription{RenderTarget: true})
	if err != nil || h == backend.InvalidImageHandle {
		t.Fatalf("CreateImage: handle=%v err=%v", h, err)
	}

	b.FailImageCreate = true
	if _, err := b.CreateImage(ctx, backend.ContextHandle(1), backend.ImageDescription{RenderTarget: true}); err == nil {
		t.Fatalf("expected forced failure")
	}
	// The hook is one-shot.
	if _, err := b.CreateImage(ctx, backend.ContextHandle(1), backend.ImageDescription{RenderTarget: true}); err != nil {
		t.Fatalf("expected hook to reset after firing once, got %v", err)
	}
}

func TestAddDependencyRejectsSelfEdge(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	rc := backend.ContextHandle(1)

	cp, err := b.CreateCheckpoint(ctx, rc)
	if err != nil {
		t.Fatalf("CreateCheckpoint: %v", err)
	}
	if err := b.AddDependency(ctx, rc, cp, cp); err == nil {
		t.Fatalf("expected self-dependency rejection")
	}
}

func TestHasDependencyAndEdgeCount(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	rc := backend.ContextHandle(1)

	a, _ := b.CreateCheckpoint(ctx, rc)
	c, _ := b.CreateCheckpoint(ctx, rc)

	if b.HasDependency(c, a) {
		t.Fatalf("unexpected edge before AddDependency")
	}
	if err := b.AddDependency(ctx, rc, c, a); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	if !b.HasDependency(c, a) {
		t.Fatalf("expected edge after AddDependency")
	}
	if b.EdgeCount() != 1 {
		t.Fatalf("expected 1 edge, got %d", b.EdgeCount())
	}
}

func TestSelectDeviceUnknownID(t *testing.T) {
	ctx := context.Background()
	b := memory.New(backend.DeviceInfo{ID: 1, Name: "only"})

	if _, err := b.SelectDevice(ctx, backend.DeviceID(99)); err == nil {
		t.Fatalf("expected error selecting unknown device")
	}
}
