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

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomoncle/sprout/config"
)

var supportedTypes = []string{"mysql", "postgres", "sqlite"}

// NewConnectionConfig derives the connection settings from the validated
// process configuration. Outside production query logging and schema
// synchronization are on and TLS is off. In production both are off and the
// connection is encrypted without certificate verification unless DB_SSLMODE
// says otherwise.
func NewConnectionConfig(cfg *config.Config) *ConnectionConfig {
	cc := DefaultConnectionConfig()
	cc.Type = cfg.DBType
	cc.Host = cfg.DBHost
	cc.Port = cfg.DBPort
	cc.Username = cfg.DBUsername
	cc.Password = cfg.DBPassword
	cc.DBName = cfg.DBName

	if cfg.IsProduction() {
		cc.EnableQueryLog = false
		cc.Synchronize = false
		cc.SSLMode = "require"
	} else {
		cc.EnableQueryLog = true
		cc.Synchronize = true
		cc.SSLMode = "disable"
	}
	if cfg.DBSSLMode != "" {
		cc.SSLMode = cfg.DBSSLMode
	}

	if cfg.DBMaxOpenConns > 0 {
		cc.MaxOpenConns = cfg.DBMaxOpenConns
	}
	if cfg.DBMaxIdleConns > 0 {
		cc.MaxIdleConns = cfg.DBMaxIdleConns
	}
	if cfg.DBConnMaxLifetime > 0 {
		cc.ConnMaxLifetime = time.Duration(cfg.DBConnMaxLifetime) * time.Second
	}
	return cc
}

// BaseDatabaseFactory creates a configured database manager and initializes it.
type BaseDatabaseFactory struct {
	manager AbstractDatabaseManager
	config  *ConnectionConfig
	logger  Logger
}

// NewDatabaseFactory returns a factory logging through logger, or through the
// DATABASE logger when logger is nil.
func NewDatabaseFactory(logger Logger) *BaseDatabaseFactory {
	if logger == nil {
		logger = NewDefaultLogger(nil)
	}
	return &BaseDatabaseFactory{logger: logger}
}

// CreateFromConfig constructs a database manager from the given connection
// configuration. The connection is not opened.
func (f *BaseDatabaseFactory) CreateFromConfig(cfg *ConnectionConfig) (AbstractDatabaseManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}

	supported := false
	for _, t := range supportedTypes {
		if cfg.Type == t {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("unsupported database type: %s, supported types: %v", cfg.Type, supportedTypes)
	}

	manager := NewDatabaseManager(cfg)
	manager.SetLogger(f.logger)

	f.manager = manager
	f.config = cfg
	return manager, nil
}

// InitializeDatabase connects to the database and, when the connection config
// asks for it, synchronizes the tables of the registered models.
func (f *BaseDatabaseFactory) InitializeDatabase(ctx context.Context, registry ModelRegistry) error {
	if f.manager == nil {
		return fmt.Errorf("database manager not created")
	}

	if err := f.manager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if f.config != nil && f.config.Synchronize && registry != nil {
		if err := f.manager.Synchronize(ctx, registry); err != nil {
			return fmt.Errorf("failed to synchronize database schema: %w", err)
		}
	}
	f.logger.Info("database initialization completed", "synchronize", f.config != nil && f.config.Synchronize)
	return nil
}

// GetManager returns the underlying database manager.
func (f *BaseDatabaseFactory) GetManager() AbstractDatabaseManager {
	return f.manager
}

// Close closes the database connection managed by the factory.
func (f *BaseDatabaseFactory) Close() error {
	if f.manager == nil {
		return nil
	}
	return f.manager.Disconnect()
}

// Open builds a manager for cc, connects it and synchronizes registry when
// cc.Synchronize is set. The returned manager is ready for use.
func Open(ctx context.Context, cc *ConnectionConfig, registry ModelRegistry, logger Logger) (AbstractDatabaseManager, error) {
	factory := NewDatabaseFactory(logger)
	if _, err := factory.CreateFromConfig(cc); err != nil {
		return nil, err
	}
	if err := factory.InitializeDatabase(ctx, registry); err != nil {
		_ = factory.Close()
		return nil, err
	}
	return factory.GetManager(), nil
}
