/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Command goturtle checks, renders, traces and edits turtle programs, and
// talks to the program gallery server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"goturtle/internal/config"
	"goturtle/internal/crash"
	"goturtle/internal/diagfmt"
	"goturtle/internal/export"
	applog "goturtle/internal/log"
	"goturtle/internal/version"
)

// errMalformed is returned after the diagnostics have been printed, so main
// only sets the exit status.
var errMalformed = errors.New("program has syntax errors")

// app carries what every subcommand needs once the root has loaded it.
type app struct {
	cfg      config.AppConfig
	token    string
	color    string
	maxDiags int
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "goturtle",
		Short:         "Turtle graphics line language toolkit",
		Long:          `goturtle checks and draws turtle programs: one statement per line, a pen that moves, turns and draws.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.color, "color", "auto", "colorize output (auto|on|off)")
	root.PersistentFlags().IntVar(&a.maxDiags, "max-diagnostics", 100, "maximum number of diagnostics to show (0 = all)")

	root.AddCommand(
		newCheckCmd(a),
		newRenderCmd(a),
		newTraceCmd(a),
		newReplayCmd(a),
		newInitCmd(a),
		newHistoryCmd(a),
		newEditCmd(a),
		newServeCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newPublishCmd(a),
		newGalleryCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	if _, err := diagfmt.ParseColorMode(a.color); err != nil {
		return err
	}
	cfg, tok, err := config.Load()
	if err != nil {
		// defaults are still usable
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
	a.cfg, a.token = cfg, tok
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	return nil
}

func (a *app) colorFor(w io.Writer) bool {
	m, _ := diagfmt.ParseColorMode(a.color)
	return m.Enabled(w)
}

func (a *app) renderOptions() (export.Options, error) {
	return export.FromConfig(a.cfg)
}

// workspaceDir resolves the workspace argument, falling back to the
// configured workspace and then the current directory.
func (a *app) workspaceDir(args []string) string {
	dir := "."
	switch {
	case len(args) > 0 && args[0] != "":
		dir = args[0]
	case a.cfg.Editor.Workspace != "":
		dir = a.cfg.Editor.Workspace
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

// readProgram reads path, or stdin when path is "" or "-".
func readProgram(cmd *cobra.Command, path string) (string, string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "<stdin>", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), "<stdin>", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", path, err
	}
	return string(b), path, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errMalformed):
		return 1
	default:
		red := color.New(color.FgRed, color.Bold)
		if !diagfmt.ColorAuto.Enabled(stderr) {
			red.DisableColor()
		}
		fmt.Fprintf(stderr, "%s %s\n", red.Sprint("error:"), strings.TrimSpace(err.Error()))
		return 2
	}
}

func main() {
	defer crash.Recover(nil, nil)
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
