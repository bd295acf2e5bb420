/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package domain holds the data model shared by the parser, the interpreter
// and the drawing surfaces.
package domain

import (
	"fmt"
	"math"
)

// Point is a position in surface coordinates (x grows right, y grows down).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RGB is an opaque stroke color.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// CSS returns the color as "rgb(r,g,b)".
func (c RGB) CSS() string { return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B) }

// Hex returns the color as "#rrggbb".
func (c RGB) Hex() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// Black is the default pen color.
var Black = RGB{}

// ParseHex accepts "#rrggbb" or "rrggbb".
func ParseHex(s string) (RGB, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	var c RGB
	if len(s) != 6 {
		return c, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return RGB{}, fmt.Errorf("color %q: %w", s, err)
	}
	return c, nil
}

// Channel converts a raw pen color value to a channel: rounded, clamped to 0..255.
// NaN maps to 0.
func Channel(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

// Position is a 1-based line/column location in program text. Columns count
// characters (runes), not bytes and not UTF-16 code units: after a character
// outside the Basic Multilingual Plane, such as an emoji, an editor counting
// UTF-16 units reports a column one higher per such character.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Position) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }
