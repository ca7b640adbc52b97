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

package keys_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/render-foundation/graph/core/context/keys"
)

func TestNoKeys(t *testing.T) {
	ctx := context.Background()
	list := keys.Get(ctx)
	if len(list) != 0 {
		t.Errorf("Background context had non zero sized key list")
	}
}

func TestKeys(t *testing.T) {
	ctx := context.Background()
	keyList := []interface{}{"A", "B"}
	initial := []interface{}{"a", "b"}
	for i, k := range keyList {
		ctx = keys.WithValue(ctx, k, initial[i])
	}
	for i, k := range keyList {
		if ctx.Value(k) != initial[i] {
			t.Errorf("Context had %v for %v, expected %v", ctx.Value(k), k, initial[i])
		}
	}
	list := keys.Get(ctx)
	if len(list) != len(keyList) {
		t.Errorf("Key list was incorrect, got %v expected %v", list, keyList)
	}
}

func TestClone(t *testing.T) {
	a := context.Background()
	b := context.Background()
	a = keys.WithValue(a, "a", "A")
	b = keys.WithValue(b, "b", "B")

	got := fmt.Sprintf("%v", keys.Get(a))
	expect := "[a]"
	if got != expect {
		t.Errorf("Initial source incorrect, got %v expected %v", got, expect)
	}

	c := keys.Clone(b, a)
	got = fmt.Sprintf("%v", keys.Get(c))
	expect = "[a b]"
	if got != expect {
		t.Errorf("Clone result incorrect, got %v expected %v", got, expect)
	}
}
