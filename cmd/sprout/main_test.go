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

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/sprout/config"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for _, k := range []string{"PORT", "LOG_LEVEL", "CONSOLE_LOG_FORMAT", "NODE_ENV", "DB_TYPE", "DB_SSLMODE"} {
		if old, ok := os.LookupEnv(k); ok {
			require.NoError(t, os.Unsetenv(k))
			t.Cleanup(func() { _ = os.Setenv(k, old) })
		}
	}
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USERNAME", "postgres")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "app")
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func parse(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags(args))
	envFile, err := cmd.Flags().GetString("env-file")
	require.NoError(t, err)
	return loadConfig(cmd, envFile)
}

func TestLoadConfigDefaults(t *testing.T) {
	setEnv(t, nil)

	cfg, err := parse(t, "--env-file", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadConfigEnvironment(t *testing.T) {
	setEnv(t, map[string]string{"PORT": "4000", "LOG_LEVEL": "warn", "CONSOLE_LOG_FORMAT": "json"})

	cfg, err := parse(t, "--env-file", "")
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfigFlagsOverrideEnvironment(t *testing.T) {
	setEnv(t, map[string]string{"PORT": "4000", "LOG_LEVEL": "warn", "CONSOLE_LOG_FORMAT": "json"})

	cfg, err := parse(t, "--env-file", "", "--port", "8080", "--log-level", "debug", "--log-format", "text")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadConfigFlagsOverrideEnvFile(t *testing.T) {
	setEnv(t, nil)
	envFile := filepath.Join(t.TempDir(), "app.env")
	require.NoError(t, os.WriteFile(envFile, []byte("PORT=5000\nLOG_LEVEL=error\n"), 0o600))

	cfg, err := parse(t, "--env-file", envFile)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "error", cfg.LogLevel)

	cfg, err = parse(t, "--env-file", envFile, "--port", "6000")
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.Port)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadConfigInvalidFlag(t *testing.T) {
	setEnv(t, nil)

	_, err := parse(t, "--env-file", "", "--log-format", "xml")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
