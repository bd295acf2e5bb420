/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"goturtle/internal/export"
	"goturtle/internal/trace"
)

// traceFormat picks json, msgpack or text from an explicit flag or the
// output file extension.
func traceFormat(flag, output string) (string, error) {
	f := strings.ToLower(flag)
	if f == "" {
		switch strings.ToLower(filepath.Ext(output)) {
		case ".json":
			f = "json"
		case ".msgpack", ".mp":
			f = "msgpack"
		default:
			f = "text"
		}
	}
	switch f {
	case "json", "msgpack", "text":
		return f, nil
	}
	return "", fmt.Errorf("unsupported trace format %q (must be text, json or msgpack)", flag)
}

func writeOutput(cmd *cobra.Command, output string, write func(io.Writer) error) error {
	if output == "" || output == "-" {
		return write(cmd.OutOrStdout())
	}
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(output, buf.Bytes(), 0o644)
}

func newTraceCmd(a *app) *cobra.Command {
	var (
		sf     surfaceFlags
		output string
		format string
	)
	cmd := &cobra.Command{
		Use:   "trace [file|-]",
		Short: "Record the drawing commands a program issues",
		Long: `Trace interprets the program against a recording surface and writes the
command stream as text, as schema-checked JSON, or as msgpack.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := traceFormat(format, output)
			if err != nil {
				return err
			}
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
			rec := trace.Record(ops, float64(ro.Width), float64(ro.Height), ro.TurtleOptions())
			return writeOutput(cmd, output, func(w io.Writer) error {
				switch f {
				case "json":
					return trace.EncodeJSON(w, rec)
				case "msgpack":
					return trace.EncodeMsgpack(w, rec)
				}
				for _, c := range rec.Commands {
					if _, err := fmt.Fprintln(w, c.String()); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&format, "format", "", "text|json|msgpack (default from the output extension)")
	return cmd
}

func newReplayCmd(a *app) *cobra.Command {
	var (
		output   string
		validate bool
		title    string
	)
	cmd := &cobra.Command{
		Use:   "replay recording -o out.svg",
		Short: "Draw a recorded command stream onto an SVG, PNG or PDF surface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			rec, err := trace.Decode(data)
			if err != nil {
				return err
			}
			if validate {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d command(s))\n", args[0], len(rec.Commands))
				return nil
			}
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			f, err := export.ParseFormat(output)
			if err != nil {
				return err
			}
			ro, err := a.renderOptions()
			if err != nil {
				return err
			}
			if rec.Width > 0 && rec.Height > 0 {
				ro.Width, ro.Height = int(rec.Width), int(rec.Height)
			}
			ro.Title = title
			s, err := export.NewSurface(f, ro)
			if err != nil {
				return err
			}
			if err := trace.Replay(rec, s); err != nil {
				return err
			}
			return writeOutput(cmd, output, func(w io.Writer) error {
				_, err := s.WriteTo(w)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file; the extension picks the format")
	cmd.Flags().BoolVar(&validate, "validate", false, "only decode and validate the recording")
	cmd.Flags().StringVar(&title, "title", "", "document title")
	return cmd
}
