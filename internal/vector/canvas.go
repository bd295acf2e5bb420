/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"math"

	"goturtle/internal/domain"
)

// Painter is the output side of a Canvas: something that can wipe itself,
// paint polylines and fill polygons.
type Painter interface {
	Clear(bg Color)
	StrokePolylines(lines [][]Pt, st Stroke)
	FillPolygon(poly []Pt, c Color)
}

// Canvas keeps a current path and a current stroke style and turns drawing
// commands into Painter calls. It satisfies turtle.MarkerSurface.
//
// As on an HTML canvas, Stroke paints the current path with the style in
// effect at that moment and leaves the path in place; only BeginPath and
// Clear discard it.
type Canvas struct {
	p          Painter
	path       Path
	style      Stroke
	Background Color
	MarkerSize float64
	MarkerFill Color
	// Grid > 0 paints a light coordinate grid with that spacing on Clear,
	// covering Size.
	Grid    float64
	Size    Size
	strokes int
}

// GridColor is the color of the coordinate grid.
var GridColor = Color{220, 220, 220, 255}

// NewCanvas returns a canvas painting on p with round joins and butt caps.
func NewCanvas(p Painter) *Canvas {
	return &Canvas{
		p:          p,
		style:      Stroke{Color: Black, Width: 1, Cap: CapButt, Join: JoinRound},
		Background: White,
		MarkerSize: 20,
		MarkerFill: TurtleGreen,
	}
}

func (c *Canvas) Clear() {
	c.path.Reset()
	c.strokes = 0
	c.p.Clear(c.Background)
	if c.Grid > 0 && c.Size.W > 0 && c.Size.H > 0 {
		c.p.StrokePolylines(GridLines(c.Size, c.Grid), Stroke{Color: GridColor, Width: 0.5, Cap: CapButt, Join: JoinRound})
	}
}

// GridLines returns vertical and horizontal lines every step units across size.
func GridLines(size Size, step float64) [][]Pt {
	var lines [][]Pt
	for x := step; x < size.W; x += step {
		lines = append(lines, []Pt{{x, 0}, {x, size.H}})
	}
	for y := step; y < size.H; y += step {
		lines = append(lines, []Pt{{0, y}, {size.W, y}})
	}
	return lines
}

func (c *Canvas) BeginPath()          { c.path.Reset() }
func (c *Canvas) MoveTo(x, y float64) { c.path.MoveTo(x, y) }
func (c *Canvas) LineTo(x, y float64) { c.path.LineTo(x, y) }

func (c *Canvas) Stroke() {
	if c.path.Empty() {
		return
	}
	lines := c.path.Subpaths()
	if len(lines) == 0 {
		return
	}
	c.strokes++
	c.p.StrokePolylines(lines, c.style)
}

// SetLineWidth ignores non-positive and non-finite widths.
func (c *Canvas) SetLineWidth(w float64) {
	if w > 0 && !math.IsInf(w, 1) {
		c.style.Width = w
	}
}

func (c *Canvas) SetStrokeColor(col domain.RGB) { c.style.Color = Opaque(col) }

// DrawMarker fills the turtle glyph. It does not touch the current path.
func (c *Canvas) DrawMarker(x, y, heading float64) {
	if c.MarkerSize <= 0 {
		return
	}
	c.p.FillPolygon(Marker(x, y, heading, c.MarkerSize), c.MarkerFill)
}

// Style returns the current stroke style.
func (c *Canvas) Style() Stroke { return c.style }

// Strokes returns how many non-empty strokes were painted since the last Clear.
func (c *Canvas) Strokes() int { return c.strokes }

// Marker returns the turtle glyph, an arrowhead of the given size centred on
// (x, y) and pointing along heading (degrees, 0 up, clockwise).
func Marker(x, y, heading, size float64) []Pt {
	h := size / 2
	var glyph Path
	glyph.MoveTo(0, -h)
	glyph.LineTo(h*0.7, h)
	glyph.LineTo(0, h*0.5)
	glyph.LineTo(-h*0.7, h)
	glyph.Close()
	placed := glyph.Transform(Translate(x, y).Mul(Rotate(heading * math.Pi / 180)))
	ring := placed.Subpaths()[0]
	// drop the closing point; fills close implicitly
	return ring[:len(ring)-1]
}
