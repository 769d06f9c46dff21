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

package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const DefaultEnvFile = ".env"

// Config is the validated process configuration. Field tags name the
// environment variable each value is read from.
type Config struct {
	DBType            string `env:"DB_TYPE" validate:"required,oneof=postgres mysql sqlite"`
	DBHost            string `env:"DB_HOST" validate:"required,hostname_rfc1123|ip"`
	DBPort            int    `env:"DB_PORT" validate:"required,min=1,max=65535"`
	DBUsername        string `env:"DB_USERNAME" validate:"required"`
	DBPassword        string `env:"DB_PASSWORD"`
	DBName            string `env:"DB_NAME" validate:"required"`
	DBSSLMode         string `env:"DB_SSLMODE"`
	DBMaxOpenConns    int    `env:"DB_MAX_OPEN_CONNS" validate:"gte=0"`
	DBMaxIdleConns    int    `env:"DB_MAX_IDLE_CONNS" validate:"gte=0"`
	DBConnMaxLifetime int    `env:"DB_CONN_MAX_LIFETIME" validate:"gte=0"`
	NodeEnv           string `env:"NODE_ENV" validate:"required,oneof=development production test"`
	Port              int    `env:"PORT" validate:"min=1,max=65535"`
	LogLevel          string `env:"LOG_LEVEL" validate:"oneof=trace debug info warn error"`
	LogFormat         string `env:"CONSOLE_LOG_FORMAT" validate:"omitempty,oneof=text json"`
}

var defaults = map[string]interface{}{
	"DB_TYPE":              "postgres",
	"NODE_ENV":             "development",
	"PORT":                 3000,
	"LOG_LEVEL":            "info",
	"CONSOLE_LOG_FORMAT":   "text",
	"DB_MAX_OPEN_CONNS":    0,
	"DB_MAX_IDLE_CONNS":    0,
	"DB_CONN_MAX_LIFETIME": 0,
}

// NewViper returns a viper instance bound to every configuration key, reading
// the process environment and, when it exists, the dotenv file at envFile.
// Real environment variables take precedence over the file.
func NewViper(envFile string) (*viper.Viper, error) {
	v := viper.New()
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	for _, key := range keys() {
		_ = v.BindEnv(key)
	}
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if envFile == "" {
		return v, nil
	}
	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return v, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: error reading %s: %v", ErrInvalidConfig, envFile, err)
	}
	return v, nil
}

// Load reads and validates the configuration from the environment and the
// default dotenv file.
func Load() (*Config, error) {
	v, err := NewViper(DefaultEnvFile)
	if err != nil {
		return nil, err
	}
	return LoadFrom(v)
}

// LoadFrom validates the configuration held by v. Any missing or malformed
// required value yields an error wrapping ErrInvalidConfig.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var problems []string
	atoi := func(key string) int {
		raw := strings.TrimSpace(v.GetString(key))
		if raw == "" {
			return 0
		}
		n, err := cast.ToIntE(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s must be an integer, got %q", key, raw))
		}
		return n
	}

	cfg := &Config{
		DBType:            strings.ToLower(v.GetString("DB_TYPE")),
		DBHost:            v.GetString("DB_HOST"),
		DBPort:            atoi("DB_PORT"),
		DBUsername:        v.GetString("DB_USERNAME"),
		DBPassword:        v.GetString("DB_PASSWORD"),
		DBName:            v.GetString("DB_NAME"),
		DBSSLMode:         v.GetString("DB_SSLMODE"),
		DBMaxOpenConns:    atoi("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns:    atoi("DB_MAX_IDLE_CONNS"),
		DBConnMaxLifetime: atoi("DB_CONN_MAX_LIFETIME"),
		NodeEnv:           v.GetString("NODE_ENV"),
		Port:              atoi("PORT"),
		LogLevel:          strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:         strings.ToLower(v.GetString("CONSOLE_LOG_FORMAT")),
	}
	if !v.IsSet("DB_PASSWORD") {
		problems = append(problems, "DB_PASSWORD is required")
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})
	return val
}

// Validate checks the field constraints declared on Config.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s (got %q)", fe.Field(), fe.Tag(), fmt.Sprint(fe.Value())))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// Environment returns the parsed NODE_ENV tag.
func (c *Config) Environment() Environment {
	env, ok := ParseEnvironment(c.NodeEnv)
	if !ok {
		return Development
	}
	return env
}

func (c *Config) IsProduction() bool { return c.Environment() == Production }

// Address is the HTTP listen address.
func (c *Config) Address() string { return fmt.Sprintf(":%d", c.Port) }

func keys() []string {
	t := reflect.TypeOf(Config{})
	out := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if name := t.Field(i).Tag.Get("env"); name != "" {
			out = append(out, name)
		}
	}
	return out
}
