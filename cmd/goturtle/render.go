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

	"github.com/spf13/cobra"

	"goturtle/internal/diagfmt"
	"goturtle/internal/domain"
	"goturtle/internal/export"
	applog "goturtle/internal/log"
	"goturtle/internal/script"
)

// loadOps reads and validates a program, printing diagnostics on failure.
func (a *app) loadOps(cmd *cobra.Command, path string) ([]domain.Op, error) {
	text, name, err := readProgram(cmd, path)
	if err != nil {
		return nil, err
	}
	ops, diags := script.Validate(text)
	if diags != nil {
		errw := cmd.ErrOrStderr()
		if err := diagfmt.Pretty(errw, name, text, diags, diagfmt.PrettyOpts{Color: a.colorFor(errw), Max: a.maxDiags, Summary: true}); err != nil {
			return nil, err
		}
		return nil, errMalformed
	}
	return ops, nil
}

type surfaceFlags struct {
	width, height int
	grid, scale   float64
	title         string
	noMarker      bool
}

func (f *surfaceFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.width, "width", 0, "canvas width (default from config)")
	cmd.Flags().IntVar(&f.height, "height", 0, "canvas height (default from config)")
	cmd.Flags().Float64Var(&f.grid, "grid", 0, "draw a coordinate grid with this spacing")
	cmd.Flags().Float64Var(&f.scale, "scale", 0, "raster resolution multiplier (png only)")
	cmd.Flags().StringVar(&f.title, "title", "", "document title")
	cmd.Flags().BoolVar(&f.noMarker, "no-marker", false, "do not draw the turtle marker")
}

func (f *surfaceFlags) apply(o export.Options) export.Options {
	if f.width > 0 {
		o.Width = f.width
	}
	if f.height > 0 {
		o.Height = f.height
	}
	if f.grid > 0 {
		o.Grid = f.grid
	}
	if f.scale > 0 {
		o.Scale = f.scale
	}
	if f.title != "" {
		o.Title = f.title
	}
	if f.noMarker {
		o.Marker = false
	}
	return o
}

func newRenderCmd(a *app) *cobra.Command {
	var (
		sf      surfaceFlags
		output  string
		format  string
		preset  string
		outDir  string
		base    string
		formats []string
	)
	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Draw a turtle program to SVG, PNG or PDF",
		Example: `  goturtle render square.turtle -o square.svg
  goturtle render square.turtle --format png > square.png
  goturtle render square.turtle --preset print --out-dir exports`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			ops, err := a.loadOps(cmd, path)
			if err != nil {
				return err
			}
			ro, err := a.renderOptions()
			if err != nil {
				return err
			}
			ro = sf.apply(ro)
			l := applog.WithOperation(applog.WithComponent("cli"), "render")
			ctx := applog.ContextWithProgram(cmd.Context(), path)

			if preset != "" {
				paths, err := export.BatchExport(ops, export.BatchOptions{
					Preset:   export.PresetName(preset),
					Formats:  formats,
					OutDir:   outDir,
					BaseName: base,
				}, ro)
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
				l.InfoContext(ctx, "batch export done", slog.String("preset", preset), slog.Int("files", len(paths)))
				return nil
			}

			if output != "" && output != "-" {
				st, err := export.RenderFile(ops, output, ro)
				if err != nil {
					return err
				}
				l.InfoContext(ctx, "rendered", slog.String("out", output),
					slog.Float64("x", st.Position.X), slog.Float64("y", st.Position.Y), slog.Float64("heading", st.Heading))
				return nil
			}
			if format == "" {
				return fmt.Errorf("either --output or --format is required")
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			_, err = export.Render(ops, f, cmd.OutOrStdout(), ro)
			return err
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file; the extension picks the format")
	cmd.Flags().StringVar(&format, "format", "", "output format when writing to stdout (svg|png|pdf)")
	cmd.Flags().StringVar(&preset, "preset", "", "batch export preset (web|print|all)")
	cmd.Flags().StringVar(&outDir, "out-dir", "exports", "batch export directory")
	cmd.Flags().StringVar(&base, "name", "", "batch export base file name")
	cmd.Flags().StringSliceVar(&formats, "formats", nil, "batch export formats, overriding the preset")
	return cmd
}
