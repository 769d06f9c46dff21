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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) Value {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return Parse(v)
}

func TestSanitizeNested(t *testing.T) {
	body := decode(t, `{"password":"x","nested":{"token":"y","ok":"z"}}`)

	assert.JSONEq(t, `{"password":"[REDACTED]","nested":{"token":"[REDACTED]","ok":"z"}}`, Render(body))
}

func TestSanitizeDoesNotMutateInput(t *testing.T) {
	body := decode(t, `{"password":"x","nested":{"token":"y"}}`)
	_ = Sanitize(body)

	obj := body.(Object)
	assert.Equal(t, Scalar{V: "x"}, obj["password"])
	assert.Equal(t, Scalar{V: "y"}, obj["nested"].(Object)["token"])
}

func TestSanitizeCaseInsensitive(t *testing.T) {
	body := decode(t, `{"Password":"a","TOKEN":"b","Authorization":"Bearer c","name":"d"}`)

	assert.JSONEq(t,
		`{"Password":"[REDACTED]","TOKEN":"[REDACTED]","Authorization":"[REDACTED]","name":"d"}`,
		Render(body))
}

func TestSanitizeArrays(t *testing.T) {
	body := decode(t, `{"users":[{"name":"a","password":"p"},"token",3],"token":{"nested":"whole subtree"}}`)

	assert.JSONEq(t,
		`{"users":[{"name":"a","password":"[REDACTED]"},"token",3],"token":"[REDACTED]"}`,
		Render(body))
}

func TestSanitizeTopLevelArrayAndScalars(t *testing.T) {
	assert.JSONEq(t, `[{"token":"[REDACTED]"},1]`, Render(decode(t, `[{"token":"t"},1]`)))
	assert.Equal(t, `"plain"`, Render(Scalar{V: "plain"}))
	assert.Equal(t, `{}`, Render(nil))
}

func TestParseForm(t *testing.T) {
	v := Parse(map[string][]string{"password": {"x"}, "tags": {"a", "b"}})

	assert.JSONEq(t, `{"password":"[REDACTED]","tags":["a","b"]}`, Render(v))
}

func TestIsSensitiveKey(t *testing.T) {
	for _, k := range []string{"password", "PASSWORD", "Token", "authorization"} {
		assert.True(t, IsSensitiveKey(k), k)
	}
	for _, k := range []string{"passwd", "access_token", "auth"} {
		assert.False(t, IsSensitiveKey(k), k)
	}
}
