/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "math"

// Outline converts a stroked polyline into fill polygons for painters that
// can only fill: one quad per segment, a disc at every interior vertex and
// discs at both ends for round caps. All polygons are clockwise so that
// overlapping pieces add up instead of cancelling under a non-zero fill.
func Outline(line []Pt, st Stroke) [][]Pt {
	hw := st.Width / 2
	if hw <= 0 || len(line) < 2 {
		return nil
	}
	var polys [][]Pt
	for i := 0; i+1 < len(line); i++ {
		a, b := line[i], line[i+1]
		d := b.Sub(a)
		if d.Len() == 0 {
			continue
		}
		if st.Cap == CapSquare && (i == 0 || i+2 == len(line)) {
			u := d.Mul(hw / d.Len())
			if i == 0 {
				a = a.Sub(u)
			}
			if i+2 == len(line) {
				b = b.Add(u)
			}
		}
		n := d.Normal().Mul(hw)
		polys = append(polys, Clockwise([]Pt{a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)}))
	}
	// Every join is drawn round, whatever st.Join says.
	for i := 1; i+1 < len(line); i++ {
		polys = append(polys, Disc(line[i], hw))
	}
	if st.Cap == CapRound {
		polys = append(polys, Disc(line[0], hw), Disc(line[len(line)-1], hw))
	}
	return polys
}

// Disc approximates a circle with a clockwise polygon whose edge deviates
// from the true circle by well under a pixel.
func Disc(c Pt, r float64) []Pt {
	n := int(math.Ceil(2 * math.Pi * r / 2))
	if n < 8 {
		n = 8
	}
	if n > 64 {
		n = 64
	}
	out := make([]Pt, n)
	for i := range out {
		a := 2 * math.Pi * float64(i) / float64(n)
		out[i] = Pt{c.X + r*math.Cos(a), c.Y + r*math.Sin(a)}
	}
	return out
}
