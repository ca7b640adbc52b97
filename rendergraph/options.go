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

import "go.opentelemetry.io/otel/trace"

// Option configures a Manager at construction time. The core owns no
// disk, environment, or CLI state (spec.md §9), so configuration is a
// plain functional-options set rather than a config-file framework.
type Option func(*Manager)

// WithTracer overrides the default otel.Tracer obtained from the global
// TracerProvider, letting a caller pass one bound to its own
// TracerProvider (e.g. a test-local SDK instance with an in-memory
// exporter).
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Manager) {
		m.tracer = tracer
	}
}

// WithInitialBucketHint pre-sizes the image and frame-buffer cache maps
// for a workload expected to settle around n distinct hash buckets,
// avoiding rehashing during the first few frames. Purely an allocation
// hint - it changes no observable behavior.
func WithInitialBucketHint(n int) Option {
	return func(m *Manager) {
		m.bucketHint = n
	}
}
