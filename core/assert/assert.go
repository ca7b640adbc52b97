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

// Package assert is a trimmed, adapted port of gapid's core/assert: a
// fluent assertion builder used from this module's _test.go files in
// place of bare t.Errorf calls. Only the predicates this module's tests
// exercise were kept; the full enum/map/slice/time predicate families
// from the teacher package were dropped (see DESIGN.md).
package assert

import (
	"fmt"
	"reflect"

	"github.com/render-foundation/graph/core/log"
)

// Assertion is the start of an assertion chain built with For.
type Assertion struct {
	ctx   log.Context
	label string
}

// For begins a new assertion, identified by label in any failure message.
func For(ctx log.Context, label string, args ...interface{}) Assertion {
	if len(args) > 0 {
		label = fmt.Sprintf(label, args...)
	}
	return Assertion{ctx: ctx, label: label}
}

func (a Assertion) fail(format string, args ...interface{}) {
	a.ctx.Error().Logf("assertion %q failed: %s", a.label, fmt.Sprintf(format, args...))
}

// Value wraps a value under assertion.
type Value struct {
	a Assertion
	v interface{}
}

// That begins a value assertion.
func (a Assertion) That(v interface{}) Value { return Value{a: a, v: v} }

// Equals asserts that the wrapped value deep-equals expected.
func (v Value) Equals(expected interface{}) bool {
	if !reflect.DeepEqual(v.v, expected) {
		v.a.fail("got %v, expected %v", v.v, expected)
		return false
	}
	return true
}

// IsNil asserts that the wrapped value is nil.
func (v Value) IsNil() bool {
	if v.v == nil {
		return true
	}
	rv := reflect.ValueOf(v.v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		if rv.IsNil() {
			return true
		}
	}
	v.a.fail("got %v, expected nil", v.v)
	return false
}

// IsNotNil asserts that the wrapped value is not nil.
func (v Value) IsNotNil() bool {
	if v.v != nil {
		rv := reflect.ValueOf(v.v)
		switch rv.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
			if !rv.IsNil() {
				return true
			}
		default:
			return true
		}
	}
	v.a.fail("got %v, expected not nil", v.v)
	return false
}

// IsTrue asserts the wrapped bool is true.
func (a Assertion) IsTrue(v bool) bool {
	if !v {
		a.fail("got false, expected true")
		return false
	}
	return true
}

// IsFalse asserts the wrapped bool is false.
func (a Assertion) IsFalse(v bool) bool {
	if v {
		a.fail("got true, expected false")
		return false
	}
	return true
}

// Integer wraps an integer value under assertion.
type Integer struct {
	a Assertion
	v int
}

// ThatInteger begins an integer assertion.
func (a Assertion) ThatInteger(v int) Integer { return Integer{a: a, v: v} }

// Equals asserts the wrapped integer equals expected.
func (i Integer) Equals(expected int) bool {
	if i.v != expected {
		i.a.fail("got %d, expected %d", i.v, expected)
		return false
	}
	return true
}

// IsAtLeast asserts the wrapped integer is >= min.
func (i Integer) IsAtLeast(min int) bool {
	if i.v < min {
		i.a.fail("got %d, expected at least %d", i.v, min)
		return false
	}
	return true
}
