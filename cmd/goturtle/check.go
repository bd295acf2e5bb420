/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"goturtle/internal/backend"
	"goturtle/internal/diagfmt"
	"goturtle/internal/domain"
	applog "goturtle/internal/log"
	"goturtle/internal/script"
)

func newCheckCmd(a *app) *cobra.Command {
	var (
		format string
		remote bool
	)
	cmd := &cobra.Command{
		Use:   "check [file|-]",
		Short: "Report syntax errors in a turtle program",
		Long: `Check parses every line of the program and prints one diagnostic per
malformed line. With --format ops a well-formed program is printed as its
operation list in JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			switch format {
			case "pretty", "json", "ops":
			default:
				return fmt.Errorf("unsupported format %q (must be pretty, json or ops)", format)
			}
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			text, name, err := readProgram(cmd, path)
			if err != nil {
				return err
			}

			var (
				ops   []domain.Op
				diags []script.Diagnostic
			)
			ctx := applog.ContextWithProgram(cmd.Context(), name)
			start := time.Now()
			if remote {
				c := backend.NewClientFromConfig(a.cfg.Backend, a.token)
				ops, diags, err = c.Check(ctx, text)
				if err != nil {
					return fmt.Errorf("remote check: %w", err)
				}
			} else {
				p := script.Parser{Jobs: runtime.GOMAXPROCS(0)}
				res, err := p.Parse(ctx, text)
				if err != nil {
					return err
				}
				ops, diags = script.Gate(res)
			}
			applog.WithOperation(applog.WithComponent("cli"), "check").DebugContext(ctx, "checked",
				slog.Int("diagnostics", len(diags)), slog.Duration("took", time.Since(start)))

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				if err := diagfmt.JSON(out, diags); err != nil {
					return err
				}
			case "pretty", "ops":
				if diags != nil {
					errw := cmd.ErrOrStderr()
					opts := diagfmt.PrettyOpts{Color: a.colorFor(errw), Max: a.maxDiags, Summary: true}
					if err := diagfmt.Pretty(errw, name, text, diags, opts); err != nil {
						return err
					}
					break
				}
				if format == "ops" {
					b, err := domain.MarshalOps(ops)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, string(b))
				} else {
					fmt.Fprintf(out, "%s: ok (%d line(s))\n", name, len(ops))
				}
			}
			if diags != nil {
				return errMalformed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "pretty", "output format (pretty|json|ops)")
	cmd.Flags().BoolVar(&remote, "remote", false, "check through the configured gallery server")
	return cmd
}
