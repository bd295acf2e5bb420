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
	"fmt"
	"io"
	"strconv"
	"strings"

	"goturtle/internal/vector"
)

// SVGSurface records drawing as SVG elements, one <path> per stroke.
type SVGSurface struct {
	*vector.Canvas
	p   *svgPainter
	opt Options
}

// NewSVGSurface returns an empty SVG surface.
func NewSVGSurface(opt Options) *SVGSurface {
	opt = opt.normalized()
	p := &svgPainter{bg: opt.Background}
	c := vector.NewCanvas(p)
	opt.configure(c)
	return &SVGSurface{Canvas: c, p: p, opt: opt}
}

// WriteTo writes the complete SVG document.
func (s *SVGSurface) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}
	wd, ht := s.opt.Width, s.opt.Height
	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%dpx\" height=\"%dpx\" viewBox=\"0 0 %d %d\">\n", wd, ht, wd, ht)
	if s.opt.Title != "" {
		wf("  <title>%s</title>\n", escText(s.opt.Title))
	}
	wf("  <rect x=\"0\" y=\"0\" width=\"%d\" height=\"%d\" fill=\"%s\"%s/>\n", wd, ht, svgColor(s.p.bg), svgOpacity("fill", s.p.bg))
	buf.Write(s.p.body.Bytes())
	wf("</svg>\n")
	if werr != nil {
		return 0, fmt.Errorf("build svg: %w", werr)
	}
	return buf.WriteTo(w)
}

type svgPainter struct {
	bg   vector.Color
	body bytes.Buffer
}

// Clear drops everything drawn so far.
func (p *svgPainter) Clear(bg vector.Color) {
	p.bg = bg
	p.body.Reset()
}

func (p *svgPainter) StrokePolylines(lines [][]vector.Pt, st vector.Stroke) {
	var d strings.Builder
	for _, l := range lines {
		for i, pt := range l {
			if i == 0 {
				d.WriteString("M")
			} else {
				d.WriteString(" L")
			}
			d.WriteString(num(pt.X))
			d.WriteByte(' ')
			d.WriteString(num(pt.Y))
		}
		d.WriteByte(' ')
	}
	fmt.Fprintf(&p.body, "  <path d=\"%s\" fill=\"none\" stroke=\"%s\"%s stroke-width=\"%s\" stroke-linecap=\"%s\" stroke-linejoin=\"%s\"/>\n",
		strings.TrimSpace(d.String()), svgColor(st.Color), svgOpacity("stroke", st.Color), num(st.Width), st.Cap, st.Join)
}

func (p *svgPainter) FillPolygon(poly []vector.Pt, c vector.Color) {
	pts := make([]string, len(poly))
	for i, pt := range poly {
		pts[i] = num(pt.X) + "," + num(pt.Y)
	}
	fmt.Fprintf(&p.body, "  <polygon points=\"%s\" fill=\"%s\"%s/>\n", strings.Join(pts, " "), svgColor(c), svgOpacity("fill", c))
}

// num formats with at most 3 decimals and no trailing zeros.
func num(v float64) string {
	s := strconv.FormatFloat(vector.FloatRound(v, 3), 'f', -1, 64)
	if s == "-0" {
		return "0"
	}
	return s
}

func svgColor(c vector.Color) string { return c.Hex() }

func svgOpacity(attr string, c vector.Color) string {
	if c.A == 255 {
		return ""
	}
	return fmt.Sprintf(" %s-opacity=\"%s\"", attr, num(c.Opacity()))
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
