/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package turtle

import "goturtle/internal/domain"

// Surface receives drawing commands. The interpreter only writes to it.
// Semantics follow a 2D canvas: commands build a current path, Stroke paints
// it with the width and color in effect at that moment, BeginPath discards it.
type Surface interface {
	Clear()
	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	Stroke()
	SetLineWidth(w float64)
	SetStrokeColor(c domain.RGB)
}

// MarkerSurface can also draw the turtle glyph. heading is in degrees,
// 0 pointing up, clockwise.
type MarkerSurface interface {
	Surface
	DrawMarker(x, y, heading float64)
}

// Discard is a Surface that ignores every command.
var Discard Surface = discard{}

type discard struct{}

func (discard) Clear()                      {}
func (discard) BeginPath()                  {}
func (discard) MoveTo(x, y float64)         {}
func (discard) LineTo(x, y float64)         {}
func (discard) Stroke()                     {}
func (discard) SetLineWidth(w float64)      {}
func (discard) SetStrokeColor(c domain.RGB) {}
