/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"goturtle/internal/version"
	"goturtle/internal/vector"
)

// PDFSurface draws vector strokes on a single PDF page. One surface unit is
// one point; the page origin is top-left like the canvas.
type PDFSurface struct {
	*vector.Canvas
	p   *pdfPainter
	opt Options
}

// NewPDFSurface returns a surface with one empty page of Width x Height points.
func NewPDFSurface(opt Options) *PDFSurface {
	opt = opt.normalized()
	size := gofpdf.SizeType{Wd: float64(opt.Width), Ht: float64(opt.Height)}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    size,
	})
	title := opt.Title
	if title == "" {
		title = "turtle drawing"
	}
	pdf.SetTitle(title, true)
	pdf.SetAuthor("goturtle", false)
	pdf.SetCreator("goturtle "+version.String(), false)
	pdf.SetCreationDate(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	pdf.SetCatalogSort(true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("P", size)

	p := &pdfPainter{pdf: pdf, w: size.Wd, h: size.Ht}
	c := vector.NewCanvas(p)
	opt.configure(c)
	return &PDFSurface{Canvas: c, p: p, opt: opt}
}

// WriteTo writes the PDF document. The surface cannot be drawn on afterwards.
func (s *PDFSurface) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	if err := s.p.pdf.Output(cw); err != nil {
		return cw.n, fmt.Errorf("write pdf: %w", err)
	}
	return cw.n, nil
}

type pdfPainter struct {
	pdf  *gofpdf.Fpdf
	w, h float64
}

func setDrawColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

// Clear paints the background over the whole page; PDF content cannot be
// removed once written.
func (p *pdfPainter) Clear(bg vector.Color) {
	setFillColor(p.pdf, bg)
	p.pdf.Rect(0, 0, p.w, p.h, "F")
}

func (p *pdfPainter) StrokePolylines(lines [][]vector.Pt, st vector.Stroke) {
	pdf := p.pdf
	setDrawColor(pdf, st.Color)
	pdf.SetAlpha(st.Color.Opacity(), "Normal")
	pdf.SetLineWidth(st.Width)
	pdf.SetLineCapStyle(st.Cap.String())
	pdf.SetLineJoinStyle(st.Join.String())
	for _, l := range lines {
		pdf.MoveTo(l[0].X, l[0].Y)
		for _, pt := range l[1:] {
			pdf.LineTo(pt.X, pt.Y)
		}
	}
	pdf.DrawPath("D")
	pdf.SetAlpha(1, "Normal")
}

func (p *pdfPainter) FillPolygon(poly []vector.Pt, c vector.Color) {
	pts := make([]gofpdf.PointType, len(poly))
	for i, pt := range poly {
		pts[i] = gofpdf.PointType{X: pt.X, Y: pt.Y}
	}
	setFillColor(p.pdf, c)
	p.pdf.Polygon(pts, "F")
}
