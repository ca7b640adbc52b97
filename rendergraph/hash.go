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

// combine folds b into a. It is only ever used for bucketing a Go map
// lookup, never for identity, so any well-mixing combiner works; this
// is the same boost::hash_combine-style mix the original C source uses.
func combine(a, b uint64) uint64 {
	const magic = 0x9e3779b97f4a7c15
	return a ^ (b + magic + (a << 6) + (a >> 2))
}

// imageDescriptionHash implements spec.md §4.2's "Description hash":
// combine (format, layer count) into one word and (width, height,
// depth) into another, then combine those two words. Equality for
// lookup purposes is always decided field-wise afterwards (see
// imageCache.find); this hash only buckets candidates.
func imageDescriptionHash(d backend.ImageDescription) uint64 {
	attributes := uint64(d.Format)<<1 | uint64(d.Layers)
	sizes := combine(uint64(d.Width), combine(uint64(d.Height), uint64(d.Depth)))
	return combine(attributes, sizes)
}

// frameBufferHash implements spec.md §4.3's "Hash": combine the pass
// handle with each (image, layer) pair in order.
func frameBufferHash(pass backend.PassHandle, attachments []backend.Attachment) uint64 {
	h := uint64(pass)
	for _, a := range attachments {
		h = combine(h, combine(uint64(a.Image), uint64(a.Layer)))
	}
	return h
}
