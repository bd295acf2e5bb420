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

	"goturtle/internal/config"
	"goturtle/internal/domain"
	"goturtle/internal/vector"
)

// FromConfig builds surface options from the canvas, pen and marker
// sections of cfg. Empty colors keep the defaults.
func FromConfig(cfg config.AppConfig) (Options, error) {
	o := DefaultOptions()
	if cfg.Canvas.Width > 0 {
		o.Width = cfg.Canvas.Width
	}
	if cfg.Canvas.Height > 0 {
		o.Height = cfg.Canvas.Height
	}
	if cfg.Canvas.Background != "" {
		bg, err := domain.ParseHex(cfg.Canvas.Background)
		if err != nil {
			return o, fmt.Errorf("canvas.background: %w", err)
		}
		o.Background = vector.Opaque(bg)
	}
	if cfg.Pen.Color != "" {
		pc, err := domain.ParseHex(cfg.Pen.Color)
		if err != nil {
			return o, fmt.Errorf("pen.color: %w", err)
		}
		o.PenColor = pc
	}
	if cfg.Pen.Width > 0 {
		o.PenWidth = cfg.Pen.Width
	}
	o.Grid = cfg.Canvas.Grid
	o.Marker = cfg.Marker.Enabled
	if cfg.Marker.Size > 0 {
		o.MarkerSize = cfg.Marker.Size
	}
	return o, nil
}
