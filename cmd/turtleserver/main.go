/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Command turtleserver runs the program gallery API on its own, configured
// only through the config file and TURTLE_* environment variables.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"goturtle/internal/backend"
	"goturtle/internal/config"
	"goturtle/internal/crash"
	"goturtle/internal/export"
	applog "goturtle/internal/log"
	"goturtle/internal/version"
)

func main() {
	defer crash.Recover(nil, nil)

	cfg, _, cerr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("turtleserver")
	if cerr != nil {
		l.Warn("config", slog.Any("err", cerr))
	}
	l.Info("starting", slog.String("version", version.String()))

	ro, err := export.FromConfig(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := backend.Run(ctx, cfg.Server, ro); err != nil {
		l.Error("server stopped", slog.Any("err", err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
