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

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/sprout/config"
	"github.com/tomoncle/sprout/database"
)

type stubHealth struct{ healthy bool }

func (s stubHealth) HealthCheck(context.Context) *database.HealthStatus {
	return &database.HealthStatus{Healthy: s.healthy, Connected: s.healthy}
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHelloRoute(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := NewRouter(NewHelloService(), nil, logger)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hello World!", w.Body.String())
	require.Len(t, hook.AllEntries(), 1)
	assert.Contains(t, hook.LastEntry().Message, "GET / 200 - 12b")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPanicIsLoggedWithRequestID(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := NewRouter(NewHelloService(), nil, logger)
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, logrus.ErrorLevel, entries[0].Level)
	assert.Equal(t, "panic recovered", entries[0].Message)
	assert.Equal(t, "req-42", entries[0].Data["request_id"])
	assert.Equal(t, "boom", entries[0].Data["panic"])
	assert.Equal(t, http.StatusInternalServerError, entries[1].Data["status_code"])
	assert.Equal(t, "req-42", entries[1].Data["request_id"])
}

func TestHealthRoute(t *testing.T) {
	logger, _ := test.NewNullLogger()

	for _, healthy := range []bool{true, false} {
		r := NewRouter(NewHelloService(), stubHealth{healthy: healthy}, logger)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		want := http.StatusOK
		if !healthy {
			want = http.StatusServiceUnavailable
		}
		assert.Equal(t, want, w.Code)

		var status database.HealthStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		assert.Equal(t, healthy, status.Healthy)
	}
}

func sqliteAppConfig(t *testing.T) *config.Config {
	return &config.Config{
		DBType:     "sqlite",
		DBHost:     "localhost",
		DBPort:     1,
		DBUsername: "unused",
		DBName:     fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		NodeEnv:    "test",
		Port:       3000,
		LogLevel:   "error",
	}
}

func TestApplicationServesAndShutsDown(t *testing.T) {
	app, err := NewApplication(context.Background(), sqliteAppConfig(t), nil)
	require.NoError(t, err)
	assert.True(t, app.DB().IsInitialized())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hello World!", string(body))

	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.False(t, app.DB().IsInitialized())
}

func TestApplicationFailsWithoutDatabase(t *testing.T) {
	cfg := sqliteAppConfig(t)
	cfg.DBType = "oracle"

	app, err := NewApplication(context.Background(), cfg, nil)
	assert.Error(t, err)
	assert.Nil(t, app)
}
