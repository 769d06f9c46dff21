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
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/sprout/utils"
)

const (
	LoggerName      = "HTTP"
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"
)

// RequestLogger emits exactly one info line per completed request, after the
// handler chain has written the response:
//
//	<METHOD> <PATH> <STATUS> - <BYTES>b - IP: <ip> - Agent: <user-agent> - Body: <redacted-json>
//
// It must be installed before gin.Recovery so that recovered panics are
// logged with their 500 status. A nil logger selects the HTTP logger.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = utils.NewLogger(LoggerName)
	}
	return func(c *gin.Context) {
		start := time.Now()
		body := captureBody(c)

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		path := c.Request.URL.RequestURI()
		agent := c.Request.UserAgent()
		if agent == "" {
			agent = "unknown"
		}
		clientIP := c.ClientIP()

		logger.WithFields(logrus.Fields{
			"req_method":   c.Request.Method,
			"req_uri":      path,
			"client_ip":    clientIP,
			"status_code":  status,
			"latency_time": utils.Since(start),
			RequestIDKey:   requestID,
		}).Infof("%s %s %d - %db - IP: %s - Agent: %s - Body: %s",
			c.Request.Method, path, status, responseSize(c), clientIP, agent, Render(body))
	}
}

// MaxLoggedBodySize bounds how much of a JSON or form body is buffered for
// the log line. Larger bodies are passed through and logged as {}.
const MaxLoggedBodySize = 1 << 20

type bodyReader struct {
	io.Reader
	io.Closer
}

// captureBody decodes JSON and form bodies for the log line and leaves the
// body readable for the handlers. Other content types are not read at all.
func captureBody(c *gin.Context) Value {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return Object{}
	}
	ct := c.ContentType()
	if ct != gin.MIMEJSON && ct != gin.MIMEPOSTForm {
		return Object{}
	}

	body := c.Request.Body
	prefix, err := io.ReadAll(io.LimitReader(body, MaxLoggedBodySize+1))
	c.Request.Body = bodyReader{Reader: io.MultiReader(bytes.NewReader(prefix), body), Closer: body}
	if err != nil || len(prefix) > MaxLoggedBodySize || len(bytes.TrimSpace(prefix)) == 0 {
		return Object{}
	}

	if ct == gin.MIMEPOSTForm {
		values, err := url.ParseQuery(string(prefix))
		if err != nil {
			return Object{}
		}
		return Parse(map[string][]string(values))
	}
	dec := json.NewDecoder(bytes.NewReader(prefix))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return Object{}
	}
	return Parse(decoded)
}

// responseSize is the number of body bytes written, falling back to the
// Content-Length header.
func responseSize(c *gin.Context) int {
	if n := c.Writer.Size(); n > 0 {
		return n
	}
	if n, err := strconv.Atoi(c.Writer.Header().Get("Content-Length")); err == nil && n > 0 {
		return n
	}
	return 0
}

// RequestID returns the correlation id assigned by RequestLogger.
func RequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
