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

func TestBeginFramePrefersDiscreteGPU(t *testing.T) {
	ctx := log.Testing(t)

	b := memory.New(
		backend.DeviceInfo{ID: 1, Name: "integrated", Type: backend.DeviceTypeOther},
		backend.DeviceInfo{ID: 2, Name: "discrete", Type: backend.DeviceTypeDiscreteGPU},
	)
	scheduler, manager := rendergraph.NewScheduler(b)

	if err := scheduler.BeginFrame(ctx); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}

	resp, err := manager.Request(ctx, &rendergraph.Request{})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	_ = resp

	assert.For(ctx, "prefers discrete GPU").That(scheduler.Context().Device.Name).Equals("discrete")
}

func TestBeginFrameFailsWithNoDevices(t *testing.T) {
	ctx := log.Testing(t)

	b := memory.New()
	scheduler, _ := rendergraph.NewScheduler(b)

	err := scheduler.BeginFrame(ctx)
	assert.For(ctx, "no device error").IsTrue(err == rendergraph.ErrNoDeviceAvailable)
}
