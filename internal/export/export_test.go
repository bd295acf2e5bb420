/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"goturtle/internal/domain"
	"goturtle/internal/script"
	"goturtle/internal/turtle"
)

func sampleOps(t *testing.T) []domain.Op {
	t.Helper()
	ops, diags := script.Validate("pendown\npencolor 255, 0, 0\npenwidth 6\nforward 100\nturnright 90\nforward 100\n")
	if diags != nil {
		t.Fatalf("sample program invalid: %+v", diags)
	}
	return ops
}

func smallOptions() Options {
	o := DefaultOptions()
	o.Width, o.Height = 300, 300
	return o
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"svg": FormatSVG, " PNG ": FormatPNG, "out/drawing.pdf": FormatPDF} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Fatalf("expected error for gif")
	}
	if FormatPNG.ContentType() != "image/png" {
		t.Fatalf("unexpected content type")
	}
}

func TestRenderSVG(t *testing.T) {
	var buf bytes.Buffer
	opt := smallOptions()
	opt.Title = "square <1>"
	st, err := Render(sampleOps(t), FormatSVG, &buf, opt)
	if err != nil {
		t.Fatalf("render svg: %v", err)
	}
	out := buf.String()
	// Origin is the center (150,150); heading 0 is up.
	for _, want := range []string{
		`viewBox="0 0 300 300"`,
		`<title>square &lt;1&gt;</title>`,
		`d="M150 150 L150 50 L250 50"`,
		`stroke="#ff0000"`,
		`stroke-width="6"`,
		`<polygon points=`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("svg missing %q:\n%s", want, out)
		}
	}
	if st.Heading != 90 {
		t.Fatalf("final heading %v", st.Heading)
	}
}

func TestRenderPNGDrawsStrokes(t *testing.T) {
	s := NewRasterSurface(smallOptions())
	_ = renderOn(t, s)
	img := s.Image()
	// A point on the vertical segment from (150,150) to (150,50).
	if got := img.RGBAAt(150, 100); got != (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("expected red stroke pixel, got %+v", got)
	}
	if got := img.RGBAAt(20, 280); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("expected white background, got %+v", got)
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil || !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("png encode failed: %v", err)
	}
}

func TestRenderExtremeGeometry(t *testing.T) {
	for _, src := range []string{
		"penwidth 1e300\npendown\nforward 10\n",
		"pendown\nforward 1e39\n",
		"pendown\nturnright 30\nforward 1e39\n",
	} {
		ops, diags := script.Validate(src)
		if diags != nil {
			t.Fatalf("%q: unexpected diagnostics %+v", src, diags)
		}
		for _, f := range []Format{FormatSVG, FormatPNG, FormatPDF} {
			if _, err := Render(ops, f, io.Discard, smallOptions()); err != nil {
				t.Fatalf("%q as %s: %v", src, f, err)
			}
		}
	}
}

func TestRasterClipsFarStrokes(t *testing.T) {
	opt := smallOptions()
	opt.Marker = false
	black := color.RGBA{A: 255}

	wide := NewRasterSurface(opt)
	turtle.Render(wide, opt.TurtleOptions(), mustOps(t, "penwidth 1e300\npendown\nforward 10\n"))
	if got := wide.Image().RGBAAt(10, 290); got != black {
		t.Fatalf("a huge pen should cover the canvas, got %+v", got)
	}

	long := NewRasterSurface(opt)
	turtle.Render(long, opt.TurtleOptions(), mustOps(t, "pendown\nforward 1e39\n"))
	if got := long.Image().RGBAAt(150, 10); got != black {
		t.Fatalf("expected the long line to reach the top edge, got %+v", got)
	}
	if got := long.Image().RGBAAt(20, 10); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("long line bled sideways, got %+v", got)
	}

	inf := NewRasterSurface(opt)
	turtle.Render(inf, opt.TurtleOptions(), mustOps(t, "pendown\nforward 1e308\nforward 1e308\n"))
}

func mustOps(t *testing.T, src string) []domain.Op {
	t.Helper()
	ops, diags := script.Validate(src)
	if diags != nil {
		t.Fatalf("%q: unexpected diagnostics %+v", src, diags)
	}
	return ops
}

func renderOn(t *testing.T, s Surface) Surface {
	t.Helper()
	st := turtle.Render(s, smallOptions().TurtleOptions(), sampleOps(t))
	if !st.PenDown {
		t.Fatalf("pen should be down at the end")
	}
	return s
}

func TestRenderPDF(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Render(sampleOps(t), FormatPDF, &buf, smallOptions()); err != nil {
		t.Fatalf("render pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a pdf")
	}
}

func TestRenderFileAndBatchPresets(t *testing.T) {
	dir := t.TempDir()
	ops := sampleOps(t)
	if _, err := RenderFile(ops, filepath.Join(dir, "one", "x.svg"), smallOptions()); err != nil {
		t.Fatalf("render file: %v", err)
	}
	written, err := BatchExport(ops, BatchOptions{Preset: PresetPrint, OutDir: dir, BaseName: "square"}, smallOptions())
	if err != nil {
		t.Fatalf("batch export print: %v", err)
	}
	want := []string{
		filepath.Join(dir, "print", "square.pdf"),
		filepath.Join(dir, "print", "square.png"),
	}
	if len(written) != len(want) {
		t.Fatalf("written = %v", written)
	}
	for i, p := range want {
		if written[i] != p {
			t.Fatalf("written[%d] = %s, want %s", i, written[i], p)
		}
		st, err := os.Stat(p)
		if err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
		if st.Size() <= 0 {
			t.Fatalf("empty file: %s", p)
		}
	}
	if _, err := BatchExport(ops, BatchOptions{Formats: []string{"gif"}, OutDir: dir}, smallOptions()); err == nil {
		t.Fatalf("expected unknown format error")
	}
}
