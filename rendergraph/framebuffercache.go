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
)

// frameBufferCacheNode is spec.md §3's FrameBufferCacheNode. Unlike an
// imageCacheNode, it carries no usage list: a frame-buffer is a pure
// function of a pass and an ordered attachment list, so matching is
// exact equality rather than a hazard-screened predicate, and survival
// is tracked with a single per-frame flag (spec.md §4.3).
type frameBufferCacheNode struct {
	frameBuffer        backend.FrameBufferHandle
	pass               backend.PassHandle
	attachments        []backend.Attachment
	usedInCurrentFrame bool
}

// frameBufferCache is the hash-indexed frame-buffer cache of spec.md
// §4.3. Like imageCache, it is only ever touched under Manager's single
// request mutex.
type frameBufferCache struct {
	buckets map[uint64][]*frameBufferCacheNode
}

func newFrameBufferCache(bucketHint int) *frameBufferCache {
	return &frameBufferCache{buckets: make(map[uint64][]*frameBufferCacheNode, bucketHint)}
}

func attachmentsEqual(a, b []backend.Attachment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (c *frameBufferCache) find(hash uint64, pass backend.PassHandle, attachments []backend.Attachment) *frameBufferCacheNode {
	for _, node := range c.buckets[hash] {
		if node.pass == pass && attachmentsEqual(node.attachments, attachments) {
			return node
		}
	}
	return nil
}

// resolveFrameBuffer implements spec.md §4.3: resolve each attachment's
// image index against the Response under construction, then find or
// create the matching cache node.
func (m *Manager) resolveFrameBuffer(ctx context.Context, request FrameBufferRequest, images []backend.ImageHandle) (backend.FrameBufferHandle, error) {
	attachments := make([]backend.Attachment, len(request.Attachments))
	for i, a := range request.Attachments {
		if a.ImageIndex < 0 || a.ImageIndex >= len(images) {
			return backend.InvalidFrameBufferHandle, errors.WithStack(ErrAttachmentIndexOutOfRange)
		}
		attachments[i] = backend.Attachment{Image: images[a.ImageIndex], Layer: a.Layer}
	}

	hash := frameBufferHash(request.Pass, attachments)
	node := m.frameBuffers.find(hash, request.Pass, attachments)

	if node == nil {
		handle, err := m.backend.CreateFrameBuffer(ctx, m.context.Handle, request.Pass, attachments)
		if err != nil || handle == backend.InvalidFrameBufferHandle {
			return backend.InvalidFrameBufferHandle, errors.WithStack(ErrBackendFrameBufferCreateFailed)
		}
		node = &frameBufferCacheNode{frameBuffer: handle, pass: request.Pass, attachments: attachments}
		m.frameBuffers.buckets[hash] = append(m.frameBuffers.buckets[hash], node)
	}

	node.usedInCurrentFrame = true
	return node.frameBuffer, nil
}

// sweep implements spec.md §4.6 step 3 for frame buffers: a node not
// touched this frame is destroyed, otherwise its flag is cleared for
// the next frame.
func (c *frameBufferCache) sweep(ctx context.Context, b backend.Backend, rc backend.ContextHandle) {
	for hash, nodes := range c.buckets {
		survivors := nodes[:0]
		for _, node := range nodes {
			if !node.usedInCurrentFrame {
				b.DestroyFrameBuffer(ctx, rc, node.frameBuffer)
				continue
			}
			node.usedInCurrentFrame = false
			survivors = append(survivors, node)
		}
		if len(survivors) == 0 {
			delete(c.buckets, hash)
		} else {
			c.buckets[hash] = survivors
		}
	}
}

// size reports the number of live frame-buffer cache nodes, for tests.
func (c *frameBufferCache) size() int {
	n := 0
	for _, nodes := range c.buckets {
		n += len(nodes)
	}
	return n
}
