/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package middleware

import (
	"encoding/json"
	"strings"
)

// RedactedMarker replaces the value of every sensitive key.
const RedactedMarker = "[REDACTED]"

var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"token":         {},
	"authorization": {},
}

// IsSensitiveKey reports whether key names a redacted field, ignoring case.
func IsSensitiveKey(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(key)]
	return ok
}

// Value is a decoded request body: an Object, an Array or a Scalar.
type Value interface {
	isValue()
}

// Object is a JSON object.
type Object map[string]Value

// Array is a JSON array.
type Array []Value

// Scalar holds a string, number, bool or nil.
type Scalar struct {
	V any
}

func (Object) isValue() {}
func (Array) isValue()  {}
func (Scalar) isValue() {}

func (s Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.V)
}

// Parse converts decoded JSON or form values into a Value tree. Types outside
// the JSON model become scalars.
func Parse(v any) Value {
	switch t := v.(type) {
	case Value:
		return t
	case map[string]any:
		obj := make(Object, len(t))
		for k, item := range t {
			obj[k] = Parse(item)
		}
		return obj
	case map[string][]string:
		obj := make(Object, len(t))
		for k, items := range t {
			if len(items) == 1 {
				obj[k] = Scalar{V: items[0]}
				continue
			}
			arr := make(Array, len(items))
			for i, item := range items {
				arr[i] = Scalar{V: item}
			}
			obj[k] = arr
		}
		return obj
	case []any:
		arr := make(Array, len(t))
		for i, item := range t {
			arr[i] = Parse(item)
		}
		return arr
	default:
		return Scalar{V: t}
	}
}

// Sanitize returns a copy of v in which the value of every sensitive key is
// replaced by RedactedMarker, at any depth. v is not modified.
func Sanitize(v Value) Value {
	switch t := v.(type) {
	case Object:
		out := make(Object, len(t))
		for k, item := range t {
			if IsSensitiveKey(k) {
				out[k] = Scalar{V: RedactedMarker}
				continue
			}
			out[k] = Sanitize(item)
		}
		return out
	case Array:
		out := make(Array, len(t))
		for i, item := range t {
			out[i] = Sanitize(item)
		}
		return out
	case nil:
		return Object{}
	default:
		return t
	}
}

// Render returns the compact JSON form of the sanitized v.
func Render(v Value) string {
	b, err := json.Marshal(Sanitize(v))
	if err != nil {
		return "{}"
	}
	return string(b)
}
