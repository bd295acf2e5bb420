/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package diagfmt renders parse diagnostics for terminals and for tools.
package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"goturtle/internal/script"
)

// ColorMode selects when Pretty emits ANSI colors.
type ColorMode uint8

const (
	ColorAuto ColorMode = iota
	ColorOn
	ColorOff
)

// ParseColorMode accepts auto, on/always and off/never.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorAuto, nil
	case "on", "always", "true":
		return ColorOn, nil
	case "off", "never", "false":
		return ColorOff, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q (want auto|on|off)", s)
	}
}

// Enabled resolves the mode for output going to w. Auto means color only on
// a terminal and only when NO_COLOR is unset.
func (m ColorMode) Enabled(w io.Writer) bool {
	switch m {
	case ColorOn:
		return true
	case ColorOff:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// PrettyOpts configures Pretty.
type PrettyOpts struct {
	Color bool
	// Max limits the number of diagnostics printed; 0 means all.
	Max int
	// Summary appends a "N error(s)" line.
	Summary bool
}

// Pretty prints each diagnostic as
//
//	path:line:col: error: message
//	  <source line>
//	  ^~~~~
//
// with the underline running from StartColumn to EndColumn. Columns count
// runes; the underline is aligned by display width.
func Pretty(w io.Writer, path, text string, diags []script.Diagnostic, opts PrettyOpts) error {
	pos := color.New(color.Bold)
	sev := color.New(color.FgRed, color.Bold)
	mark := color.New(color.FgGreen, color.Bold)
	for _, c := range []*color.Color{pos, sev, mark} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	lines := script.SplitLines(text)
	shown := diags
	if opts.Max > 0 && len(shown) > opts.Max {
		shown = shown[:opts.Max]
	}
	var b strings.Builder
	for _, d := range shown {
		b.WriteString(pos.Sprintf("%s:%d:%d:", path, d.StartLine, d.StartColumn))
		b.WriteByte(' ')
		b.WriteString(sev.Sprintf("%s:", d.Severity))
		b.WriteByte(' ')
		b.WriteString(d.Message)
		b.WriteByte('\n')
		if d.StartLine >= 1 && d.StartLine <= len(lines) {
			src := lines[d.StartLine-1]
			b.WriteString("  ")
			b.WriteString(src)
			b.WriteByte('\n')
			b.WriteString("  ")
			b.WriteString(mark.Sprint(Underline(src, d.StartColumn, d.EndColumn)))
			b.WriteByte('\n')
		}
	}
	if rest := len(diags) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "... and %d more\n", rest)
	}
	if opts.Summary && len(diags) > 0 {
		noun := "errors"
		if len(diags) == 1 {
			noun = "error"
		}
		fmt.Fprintf(&b, "%d %s\n", len(diags), noun)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Underline returns the marker line for src covering columns [start, end).
// Tabs before the start are kept so the caret lines up in any tab width.
func Underline(src string, start, end int) string {
	var b strings.Builder
	col := 1
	width := 0
	for _, r := range src {
		switch {
		case col < start:
			if r == '\t' {
				b.WriteByte('\t')
			} else {
				b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
			}
		case col < end:
			w := runewidth.RuneWidth(r)
			if r == '\t' {
				w = 1
			}
			width += w
		}
		col++
	}
	if width < 1 {
		width = 1
	}
	return "^" + strings.Repeat("~", width-1)
}

// JSON writes diags as a JSON array of editor markers. No diagnostics gives [].
func JSON(w io.Writer, diags []script.Diagnostic) error {
	if diags == nil {
		diags = []script.Diagnostic{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diags)
}
