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

package log

// TestingT is the subset of testing.T this package needs, so tests can
// build a Context without importing the "testing" package from non-test
// code.
type TestingT interface {
	Log(args ...interface{})
	Helper()
}

// Testing returns a Context that forwards every record to t.Log, in the
// same spirit as gapid's log.Testing(t) used throughout
// core/memory/arena/arena_test.go and friends.
func Testing(t TestingT) Context {
	return Background().Handler(func(r Record) {
		t.Helper()
		t.Log(r.String())
	})
}
