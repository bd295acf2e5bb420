/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders turtle programs to files: SVG, PNG and PDF surfaces
// that all share the canvas model of internal/vector, plus batch presets.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"goturtle/internal/domain"
	"goturtle/internal/turtle"
	"goturtle/internal/vector"
)

// Format names an output format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// Formats lists the supported formats.
var Formats = []Format{FormatSVG, FormatPNG, FormatPDF}

// ParseFormat accepts a format name or a file name with a known extension.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if ext := filepath.Ext(s); ext != "" {
		s = strings.TrimPrefix(ext, ".")
	}
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want svg, png or pdf)", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Options describes the drawing area and the initial pen. Surface units are
// pixels for SVG/PNG and points for PDF.
type Options struct {
	Width, Height int
	Background    vector.Color
	PenColor      domain.RGB
	PenWidth      float64
	Marker        bool
	MarkerSize    float64
	MarkerColor   vector.Color
	// Grid > 0 draws a coordinate grid with that spacing.
	Grid float64
	// Scale multiplies the raster resolution (PNG only); 0 means 1.
	Scale float64
	// Title is written as document metadata, and as a caption on PNGs.
	Title string
}

// DefaultOptions matches the editor canvas: 890x920, white, black pen,
// marker on.
func DefaultOptions() Options {
	return Options{
		Width:       890,
		Height:      920,
		Background:  vector.White,
		PenColor:    domain.Black,
		PenWidth:    turtle.DefaultPenWidth,
		Marker:      true,
		MarkerSize:  40,
		MarkerColor: vector.TurtleGreen,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Background == (vector.Color{}) {
		o.Background = d.Background
	}
	if o.PenWidth <= 0 {
		o.PenWidth = d.PenWidth
	}
	if o.MarkerSize <= 0 {
		o.MarkerSize = d.MarkerSize
	}
	if o.MarkerColor == (vector.Color{}) {
		o.MarkerColor = d.MarkerColor
	}
	if o.Scale <= 0 {
		o.Scale = 1
	}
	return o
}

// TurtleOptions returns interpreter options with the origin at the center of
// the drawing area.
func (o Options) TurtleOptions() turtle.Options {
	o = o.normalized()
	return turtle.Options{
		Origin:   domain.Point{X: float64(o.Width) / 2, Y: float64(o.Height) / 2},
		PenColor: o.PenColor,
		PenWidth: o.PenWidth,
		Marker:   o.Marker,
	}
}

func (o Options) configure(c *vector.Canvas) {
	c.Background = o.Background
	c.MarkerSize = o.MarkerSize
	c.MarkerFill = o.MarkerColor
	c.Grid = o.Grid
	c.Size = vector.Size{W: float64(o.Width), H: float64(o.Height)}
}

// Surface is a turtle surface that can serialize what was drawn on it.
type Surface interface {
	turtle.MarkerSurface
	io.WriterTo
}

// NewSurface returns an empty surface for f.
func NewSurface(f Format, opt Options) (Surface, error) {
	switch f {
	case FormatSVG:
		return NewSVGSurface(opt), nil
	case FormatPNG:
		return NewRasterSurface(opt), nil
	case FormatPDF:
		return NewPDFSurface(opt), nil
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
}

// Render interprets ops on a fresh surface of format f and writes the result to w.
func Render(ops []domain.Op, f Format, w io.Writer, opt Options) (turtle.State, error) {
	s, err := NewSurface(f, opt)
	if err != nil {
		return turtle.State{}, err
	}
	st := turtle.Render(s, opt.TurtleOptions(), ops)
	if _, err := s.WriteTo(w); err != nil {
		return st, fmt.Errorf("write %s: %w", f, err)
	}
	return st, nil
}

// RenderFile renders ops to path, picking the format from its extension.
func RenderFile(ops []domain.Op, path string, opt Options) (turtle.State, error) {
	f, err := ParseFormat(path)
	if err != nil {
		return turtle.State{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return turtle.State{}, fmt.Errorf("ensure out dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return turtle.State{}, fmt.Errorf("create %s: %w", f, err)
	}
	st, err := Render(ops, f, out, opt)
	if err != nil {
		_ = out.Close()
		return st, err
	}
	if err := out.Close(); err != nil {
		return st, fmt.Errorf("close %s: %w", f, err)
	}
	return st, nil
}
