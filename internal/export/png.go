/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	xvector "golang.org/x/image/vector"

	"goturtle/internal/vector"
)

// RasterSurface paints into an RGBA image with anti-aliased strokes.
type RasterSurface struct {
	*vector.Canvas
	p   *rasterPainter
	opt Options
}

// NewRasterSurface returns a surface backed by a Width*Scale x Height*Scale image.
func NewRasterSurface(opt Options) *RasterSurface {
	opt = opt.normalized()
	w := int(math.Round(float64(opt.Width) * opt.Scale))
	h := int(math.Round(float64(opt.Height) * opt.Scale))
	p := &rasterPainter{img: image.NewRGBA(image.Rect(0, 0, w, h)), scale: opt.Scale}
	c := vector.NewCanvas(p)
	opt.configure(c)
	return &RasterSurface{Canvas: c, p: p, opt: opt}
}

// Image returns the backing image.
func (s *RasterSurface) Image() *image.RGBA { return s.p.img }

// WriteTo encodes the image as PNG, with the title as a caption if set.
func (s *RasterSurface) WriteTo(w io.Writer) (int64, error) {
	img := s.p.img
	if s.opt.Title != "" {
		img = captioned(img, s.opt.Title)
	}
	cw := &countingWriter{w: w}
	if err := png.Encode(cw, img); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

type rasterPainter struct {
	img   *image.RGBA
	scale float64
}

func toRGBA(c vector.Color) color.RGBA {
	// image/color wants premultiplied alpha.
	a := uint16(c.A)
	return color.RGBA{R: uint8(uint16(c.R) * a / 255), G: uint8(uint16(c.G) * a / 255), B: uint8(uint16(c.B) * a / 255), A: c.A}
}

func (p *rasterPainter) Clear(bg vector.Color) {
	draw.Draw(p.img, p.img.Bounds(), &image.Uniform{C: toRGBA(bg)}, image.Point{}, draw.Src)
}

func (p *rasterPainter) StrokePolylines(lines [][]vector.Pt, st vector.Stroke) {
	var polys [][]vector.Pt
	for _, l := range lines {
		polys = append(polys, vector.Outline(l, st)...)
	}
	p.fill(polys, st.Color)
}

func (p *rasterPainter) FillPolygon(poly []vector.Pt, c vector.Color) {
	p.fill([][]vector.Pt{vector.Clockwise(poly)}, c)
}

// fill rasterizes all polygons in one pass so that overlaps are painted once.
// Polygons are clipped to a band one image size wide around the image, which
// keeps coordinates in the rasterizer's range; polygons with non-finite
// points are skipped.
func (p *rasterPainter) fill(polys [][]vector.Pt, c vector.Color) {
	if len(polys) == 0 {
		return
	}
	b := p.img.Bounds()
	m := float64(max(b.Dx(), b.Dy()))
	band := vector.R(0, 0, float64(b.Dx()), float64(b.Dy())).Inset(-m, -m)
	r := xvector.NewRasterizer(b.Dx(), b.Dy())
	drawn := false
	for _, poly := range polys {
		if len(poly) < 3 {
			continue
		}
		scaled := make([]vector.Pt, len(poly))
		for i, pt := range poly {
			scaled[i] = pt.Mul(p.scale)
		}
		if !finite(scaled) {
			continue
		}
		clipped := vector.ClipPolygon(scaled, band)
		if len(clipped) < 3 || !finite(clipped) {
			continue
		}
		r.MoveTo(px(clipped[0]))
		for _, pt := range clipped[1:] {
			r.LineTo(px(pt))
		}
		r.ClosePath()
		drawn = true
	}
	if drawn {
		r.Draw(p.img, b, image.NewUniform(toRGBA(c)), image.Point{})
	}
}

func px(pt vector.Pt) (float32, float32) { return float32(pt.X), float32(pt.Y) }

func finite(poly []vector.Pt) bool {
	for _, pt := range poly {
		if math.IsNaN(pt.X) || math.IsInf(pt.X, 0) || math.IsNaN(pt.Y) || math.IsInf(pt.Y, 0) {
			return false
		}
	}
	return true
}

// captioned returns a copy of img with a strip of text below it.
func captioned(img *image.RGBA, text string) *image.RGBA {
	face := basicfont.Face7x13
	const pad = 6
	strip := face.Metrics().Height.Ceil() + 2*pad
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()+strip))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(out, b, img, b.Min, draw.Src)
	d := &font.Drawer{Dst: out, Src: image.Black, Face: face}
	width := d.MeasureString(text).Ceil()
	x := (b.Dx() - width) / 2
	if x < pad {
		x = pad
	}
	d.Dot = fixed.P(x, b.Dy()+pad+face.Metrics().Ascent.Ceil())
	d.DrawString(text)
	return out
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}
