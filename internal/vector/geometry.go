/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Basic 2D geometry and transforms. Coordinates are surface units with y
// growing downward.

import "math"

// Pt is a 2D point.
type Pt struct{ X, Y float64 }

func (p Pt) Add(q Pt) Pt      { return Pt{p.X + q.X, p.Y + q.Y} }
func (p Pt) Sub(q Pt) Pt      { return Pt{p.X - q.X, p.Y - q.Y} }
func (p Pt) Mul(k float64) Pt { return Pt{p.X * k, p.Y * k} }
func (p Pt) Len() float64     { return math.Hypot(p.X, p.Y) }

// Normal returns the unit left normal of p, or the zero point for a zero vector.
func (p Pt) Normal() Pt {
	l := p.Len()
	if l == 0 {
		return Pt{}
	}
	return Pt{-p.Y / l, p.X / l}
}

// Size is a width/height pair.
type Size struct{ W, H float64 }

// Rect is an axis-aligned rectangle defined by min corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Min() Pt { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt { return Pt{r.X + r.W, r.Y + r.H} }

// Inset returns a rectangle inset by dx,dy on all sides (negative grows).
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
}

// ClipPolygon clips a polygon to r with Sutherland-Hodgman. The result keeps
// the winding of poly and is empty when nothing lies inside r.
func ClipPolygon(poly []Pt, r Rect) []Pt {
	lo, hi := r.Min(), r.Max()
	edges := []struct {
		in    func(Pt) bool
		cross func(a, b Pt) Pt
	}{
		{func(p Pt) bool { return p.X >= lo.X }, func(a, b Pt) Pt { return atX(a, b, lo.X) }},
		{func(p Pt) bool { return p.X <= hi.X }, func(a, b Pt) Pt { return atX(a, b, hi.X) }},
		{func(p Pt) bool { return p.Y >= lo.Y }, func(a, b Pt) Pt { return atY(a, b, lo.Y) }},
		{func(p Pt) bool { return p.Y <= hi.Y }, func(a, b Pt) Pt { return atY(a, b, hi.Y) }},
	}
	out := poly
	for _, e := range edges {
		if len(out) == 0 {
			return nil
		}
		src := out
		out = make([]Pt, 0, len(src)+2)
		prev := src[len(src)-1]
		for _, cur := range src {
			switch {
			case e.in(cur):
				if !e.in(prev) {
					out = append(out, e.cross(prev, cur))
				}
				out = append(out, cur)
			case e.in(prev):
				out = append(out, e.cross(prev, cur))
			}
			prev = cur
		}
	}
	return out
}

// atX returns the point of segment ab at abscissa x; a.X != b.X. It
// interpolates from the endpoint nearer to x so that far endpoints do not
// swamp the result.
func atX(a, b Pt, x float64) Pt {
	if math.Abs(a.X-x) > math.Abs(b.X-x) {
		a, b = b, a
	}
	t := (x - a.X) / (b.X - a.X)
	return Pt{x, a.Y + t*(b.Y-a.Y)}
}

func atY(a, b Pt, y float64) Pt {
	if math.Abs(a.Y-y) > math.Abs(b.Y-y) {
		a, b = b, a
	}
	t := (y - a.Y) / (b.Y - a.Y)
	return Pt{a.X + t*(b.X-a.X), y}
}

// Affine2D represents a 2D affine transform as matrix:
// | a c e |
// | b d f |
// | 0 0 1 |
type Affine2D struct{ A, B, C, D, E, F float64 }

var Identity = Affine2D{A: 1, D: 1}

// Mul returns m∘n (n applied first).
func (m Affine2D) Mul(n Affine2D) Affine2D {
	return Affine2D{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

func (m Affine2D) Apply(p Pt) Pt {
	return Pt{
		X: m.A*p.X + m.C*p.Y + m.E,
		Y: m.B*p.X + m.D*p.Y + m.F,
	}
}

func Translate(tx, ty float64) Affine2D { return Affine2D{A: 1, D: 1, E: tx, F: ty} }

// Rotate turns clockwise on screen (y down) by rad.
func Rotate(rad float64) Affine2D {
	c := math.Cos(rad)
	s := math.Sin(rad)
	return Affine2D{A: c, B: s, C: -s, D: c}
}

// FloatRound rounds v to n decimal places deterministically.
func FloatRound(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

// SignedArea is positive for clockwise polygons in y-down coordinates.
func SignedArea(poly []Pt) float64 {
	var a float64
	for i := range poly {
		j := (i + 1) % len(poly)
		a += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return a / 2
}

// Clockwise returns poly, reversed if needed so that SignedArea >= 0.
func Clockwise(poly []Pt) []Pt {
	if SignedArea(poly) >= 0 {
		return poly
	}
	out := make([]Pt, len(poly))
	for i, p := range poly {
		out[len(poly)-1-i] = p
	}
	return out
}
