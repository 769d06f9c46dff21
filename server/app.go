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
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/sprout/config"
	"github.com/tomoncle/sprout/database"
	"github.com/tomoncle/sprout/utils"
)

const (
	LoggerName      = "SERVER"
	shutdownTimeout = 30 * time.Second
)

// Application owns the process-wide resources: the database connection and
// the HTTP server built on it.
type Application struct {
	cfg    *config.Config
	db     database.AbstractDatabaseManager
	router *gin.Engine
	server *http.Server
	logger *logrus.Logger
}

// NewApplication connects to the database described by cfg, synchronizing
// the tables of registry outside production, and builds the router. It fails
// if the database cannot be reached.
func NewApplication(ctx context.Context, cfg *config.Config, registry database.ModelRegistry) (*Application, error) {
	utils.ConfigureLogLevel(cfg.LogLevel)
	utils.ConfigureConsoleLogFormat(cfg.LogFormat)
	logger := utils.NewLogger(LoggerName)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if registry == nil {
		registry = database.NewModelRegistry()
	}
	db, err := database.Open(ctx, database.NewConnectionConfig(cfg), registry, nil)
	if err != nil {
		logger.WithError(err).Error("database initialization failed")
		return nil, err
	}

	router := NewRouter(NewHelloService(), db, nil)
	return &Application{
		cfg:    cfg,
		db:     db,
		router: router,
		server: &http.Server{
			Addr:              cfg.Address(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}, nil
}

func (a *Application) Handler() http.Handler { return a.router }

func (a *Application) DB() database.AbstractDatabaseManager { return a.db }

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		_ = a.db.Disconnect()
		return fmt.Errorf("listen on %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("address", ln.Addr().String()).
			WithField("environment", a.cfg.Environment().Name()).
			Info("starting HTTP server")
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		_ = a.db.Disconnect()
		if err != nil {
			a.logger.WithError(err).Error("HTTP server failed")
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Shutdown stops the HTTP server and closes the database connection.
func (a *Application) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")
	err := a.server.Shutdown(ctx)
	if dbErr := a.db.Disconnect(); dbErr != nil && err == nil {
		err = dbErr
	}
	if err != nil {
		a.logger.WithError(err).Error("shutdown failed")
		return err
	}
	a.logger.Info("server exited")
	return nil
}
