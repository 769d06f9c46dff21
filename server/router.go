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
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/sprout/database"
	"github.com/tomoncle/sprout/middleware"
	"github.com/tomoncle/sprout/utils"
)

// HealthChecker reports the state of the database connection.
type HealthChecker interface {
	HealthCheck(ctx context.Context) *database.HealthStatus
}

// NewRouter builds the HTTP engine. The request logger runs before recovery
// so every request, including recovered panics, yields one log line. The
// health route is registered only when health is non-nil. A nil logger
// selects the HTTP logger.
func NewRouter(hello HelloService, health HealthChecker, logger *logrus.Logger) *gin.Engine {
	if logger == nil {
		logger = utils.NewLogger(middleware.LoggerName)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(logger), gin.CustomRecoveryWithWriter(nil, recoverPanic(logger)))

	r.GET("/", helloHandler(hello))
	if health != nil {
		r.GET("/health", healthHandler(health))
	}
	return r
}

// recoverPanic reports a recovered panic with the request id of the failed
// request and answers 500.
func recoverPanic(logger *logrus.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, err any) {
		logger.WithFields(logrus.Fields{
			middleware.RequestIDKey: middleware.RequestID(c),
			"panic":                 fmt.Sprint(err),
		}).Error("panic recovered")
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}

func healthHandler(health HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := health.HealthCheck(c.Request.Context())
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
