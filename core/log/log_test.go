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

package log_test

import (
	"context"
	"testing"

	"github.com/render-foundation/graph/core/log"
)

type fakeT struct {
	lines []string
}

func (f *fakeT) Log(args ...interface{}) { f.lines = append(f.lines, args[0].(string)) }
func (f *fakeT) Helper()                 {}

func TestDetachPreservesHandlerAcrossCancellation(t *testing.T) {
	ft := &fakeT{}
	ctx, cancel := context.WithCancel(context.Background())
	lg := log.Wrap(ctx).Handler(func(r log.Record) { ft.lines = append(ft.lines, r.Message) })

	cancel()

	detached := lg.Detach()
	if detached.Unwrap().Err() != nil {
		t.Fatalf("detached context should not inherit cancellation, got err: %v", detached.Unwrap().Err())
	}

	detached.Info().Log("still logging after cancellation")
	if len(ft.lines) != 1 || ft.lines[0] != "still logging after cancellation" {
		t.Fatalf("expected handler to survive Detach, got %v", ft.lines)
	}
}
