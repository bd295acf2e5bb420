/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package turtle

import (
	"math"

	"goturtle/internal/domain"
)

// DefaultPenWidth is the initial stroke width.
const DefaultPenWidth = 2

// Options configures one interpretation pass.
type Options struct {
	// Origin is the start position and the target of "center", in surface
	// coordinates (usually the surface center).
	Origin domain.Point
	// PenColor is the initial stroke color.
	PenColor domain.RGB
	// PenWidth is the initial stroke width; 0 selects DefaultPenWidth.
	PenWidth float64
	// Marker draws the turtle glyph at the end when the surface supports it.
	Marker bool
}

// State is the turtle's pen. A fresh State is built for every pass.
type State struct {
	Heading  float64 // degrees in [0, 360), 0 is up, clockwise
	PenWidth float64
	Position domain.Point
	PenColor domain.RGB
	PenDown  bool
}

// NewState returns the initial state for opts: heading 0, pen up, at the origin.
func NewState(opts Options) State {
	w := opts.PenWidth
	if w <= 0 {
		w = DefaultPenWidth
	}
	return State{
		Heading:  0,
		PenWidth: w,
		Position: opts.Origin,
		PenColor: opts.PenColor,
		PenDown:  false,
	}
}

// NormalizeHeading maps degrees into [0, 360).
func NormalizeHeading(deg float64) float64 {
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}

// step returns the displacement of moving q units along heading.
// y grows downward, so heading 0 moves toward negative y.
func step(heading, q float64) (dx, dy float64) {
	rad := heading * math.Pi / 180
	return math.Sin(rad) * q, -math.Cos(rad) * q
}
