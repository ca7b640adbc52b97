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

	"github.com/pkg/errors"

	"github.com/render-foundation/graph/backend"
	"github.com/render-foundation/graph/rendergraph/arena"
)

// imageUsage is spec.md §3's UsageRecord: arena-tracked, prepended to
// its node's usage list each time a request aliases onto that node.
type imageUsage struct {
	token    arena.Token
	next     *imageUsage
	producer *Response
	// users is the non-internal request's dependant slice at the time
	// this usage was recorded; empty for internal requests.
	users []*Response
	// internal records that this usage came from an Internal request.
	internal bool
}

// imageCacheNode is spec.md §3's ImageCacheNode.
type imageCacheNode struct {
	image       backend.ImageHandle
	description backend.ImageDescription
	firstUsage  *imageUsage
}

// imageCache is the hash-indexed image cache of spec.md §4.2. It is not
// safe for concurrent use on its own - all access happens under
// Manager's single request mutex (spec.md §5).
type imageCache struct {
	buckets map[uint64][]*imageCacheNode
}

func newImageCache(bucketHint int) *imageCache {
	return &imageCache{buckets: make(map[uint64][]*imageCacheNode, bucketHint)}
}

// containsResponse reports whether needle appears in haystack, by
// pointer identity - used by hazard for §4.2 rule 5's hazard screen.
func containsResponse(haystack []*Response, needle *Response) bool {
	for _, r := range haystack {
		if r == needle {
			return true
		}
	}
	return false
}

// find implements spec.md §4.2's matching predicate (1)-(5). building is
// the Response currently under construction (used for I2's rule 4);
// dependants is the request's Dependants slice (used for rule 5's hazard
// screen, skipped entirely when internal is true).
func (c *imageCache) find(hash uint64, description backend.ImageDescription, internal bool, building *Response, dependants []*Response) *imageCacheNode {
	for _, node := range c.buckets[hash] {
		if !descriptionMatches(node.description, description) {
			continue
		}

		// Rule 4 / I2: never hand the same node to two slots of the
		// Response currently being built.
		if usageExistsFor(node.firstUsage, building) {
			continue
		}

		// Internal images are never shared between two distinct
		// Responses in one frame: an internal request only takes a node
		// with no usage yet this frame, and no request takes a node that
		// an internal request already used.
		if node.firstUsage != nil && (internal || node.firstUsage.internal) {
			continue
		}

		// Rule 5: the conservative hazard screen. An image used by
		// any of the new request's dependants cannot be re-aliased into
		// the new request, unless the request is internal (fully
		// contained within the callee pass).
		if !internal && hazard(node.firstUsage, dependants) {
			continue
		}

		return node
	}
	return nil
}

func descriptionMatches(have, want backend.ImageDescription) bool {
	if have.Format != want.Format || have.Width != want.Width || have.Height != want.Height ||
		have.Depth != want.Depth || have.Layers != want.Layers {
		return false
	}
	// The cached image may be strictly more capable than requested: a
	// sampler-capable image satisfies a non-sampling request too.
	if want.SupportsSampling && !have.SupportsSampling {
		return false
	}
	return true
}

func usageExistsFor(head *imageUsage, response *Response) bool {
	for u := head; u != nil; u = u.next {
		if u.producer == response {
			return true
		}
	}
	return false
}

func hazard(head *imageUsage, dependants []*Response) bool {
	for u := head; u != nil; u = u.next {
		if containsResponse(dependants, u.producer) {
			return true
		}
		for _, user := range u.users {
			if containsResponse(dependants, user) {
				return true
			}
		}
	}
	return false
}

// resolveImage implements the remainder of spec.md §4.2: find-or-create
// a node, record the new usage, and inject the parallelism-reducing
// dependency edges.
func (m *Manager) resolveImage(ctx context.Context, request ImageRequest, building *Response, dependants []*Response) (backend.ImageHandle, error) {
	if request.Description.Mips > 1 {
		return backend.InvalidImageHandle, errors.WithStack(ErrMipsUnsupported)
	}
	if !request.Description.RenderTarget {
		return backend.InvalidImageHandle, errors.WithStack(ErrRenderTargetRequired)
	}

	hash := imageDescriptionHash(request.Description)
	node := m.images.find(hash, request.Description, request.Internal, building, dependants)

	if node == nil {
		handle, err := m.backend.CreateImage(ctx, m.context.Handle, request.Description)
		if err != nil || handle == backend.InvalidImageHandle {
			return backend.InvalidImageHandle, errors.WithStack(ErrBackendImageCreateFailed)
		}
		node = &imageCacheNode{image: handle, description: request.Description}
		m.images.buckets[hash] = append(m.images.buckets[hash], node)
	}

	prior := node.firstUsage

	var users []*Response
	if !request.Internal {
		users = append(users, dependants...)
	}

	usage := &imageUsage{
		token:    m.arena.Allocate(0),
		next:     prior,
		producer: building,
		users:    users,
		internal: request.Internal,
	}
	node.firstUsage = usage

	// Parallelism reduction (spec.md §4.2): the naive alternative is to
	// leave every independent pass maximally parallel, but GPUs rarely
	// benefit from that breadth while the extra live images cost real
	// memory. By sequencing the node's previous producer after this
	// request's users (or after this request itself, if it has none),
	// we trade away that speculative parallelism for substantially more
	// image reuse.
	if prior != nil {
		if len(usage.users) > 0 {
			for _, user := range usage.users {
				if err := m.backend.AddDependency(ctx, m.context.Handle, prior.producer.usageBegin, user.usageEnd); err != nil {
					return backend.InvalidImageHandle, err
				}
			}
		} else {
			if err := m.backend.AddDependency(ctx, m.context.Handle, prior.producer.usageBegin, building.usageEnd); err != nil {
				return backend.InvalidImageHandle, err
			}
		}
	}

	return node.image, nil
}

// sweep implements spec.md §4.6 step 3: any node that accrued no usage
// this frame is destroyed; survivors have their usage list head reset
// for the next frame (the usage records themselves die with the arena).
func (c *imageCache) sweep(ctx context.Context, b backend.Backend, rc backend.ContextHandle) {
	for hash, nodes := range c.buckets {
		survivors := nodes[:0]
		for _, node := range nodes {
			if node.firstUsage == nil {
				b.DestroyImage(ctx, rc, node.image)
				continue
			}
			node.firstUsage = nil
			survivors = append(survivors, node)
		}
		if len(survivors) == 0 {
			delete(c.buckets, hash)
		} else {
			c.buckets[hash] = survivors
		}
	}
}

// size reports the number of live image cache nodes, for tests.
func (c *imageCache) size() int {
	n := 0
	for _, nodes := range c.buckets {
		n += len(nodes)
	}
	return n
}
