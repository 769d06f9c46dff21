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
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tomoncle/sprout/config"
	"github.com/tomoncle/sprout/server"
	"github.com/tomoncle/sprout/utils"
)

func newRootCmd() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:           "sprout",
		Short:         "Run the sprout HTTP service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, envFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", utils.EnvDefaultString("ENV_FILE", config.DefaultEnvFile), "dotenv file read before the process environment")
	cmd.Flags().Int("port", 0, "HTTP listen port (overrides PORT)")
	cmd.Flags().String("log-level", "", "log level: trace, debug, info, warn, error (overrides LOG_LEVEL)")
	cmd.Flags().String("log-format", "", "console log format: text or json (overrides CONSOLE_LOG_FORMAT)")
	return cmd
}

// loadConfig reads envFile and the environment, with explicitly set flags
// taking precedence over both.
func loadConfig(cmd *cobra.Command, envFile string) (*config.Config, error) {
	v, err := config.NewViper(envFile)
	if err != nil {
		return nil, err
	}
	_ = v.BindPFlag("PORT", cmd.Flags().Lookup("port"))
	_ = v.BindPFlag("LOG_LEVEL", cmd.Flags().Lookup("log-level"))
	_ = v.BindPFlag("CONSOLE_LOG_FORMAT", cmd.Flags().Lookup("log-format"))
	return config.LoadFrom(v)
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := server.NewApplication(ctx, cfg, nil)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		utils.NewLogger(server.LoggerName).WithError(err).Error("sprout failed to start")
		os.Exit(1)
	}
}
