/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"testing"

	"goturtle/internal/config"
	"goturtle/internal/domain"
	"goturtle/internal/vector"
)

func TestFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Canvas.Width = 400
	cfg.Canvas.Background = "#102030"
	cfg.Pen.Color = "#ff0000"
	cfg.Pen.Width = 4
	cfg.Marker.Enabled = false
	o, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if o.Width != 400 || o.Height != 920 {
		t.Fatalf("size = %dx%d", o.Width, o.Height)
	}
	if o.Background != (vector.Color{R: 0x10, G: 0x20, B: 0x30, A: 255}) {
		t.Fatalf("background = %+v", o.Background)
	}
	if o.PenColor != (domain.RGB{R: 255}) || o.PenWidth != 4 || o.Marker {
		t.Fatalf("pen/marker not applied: %+v", o)
	}

	cfg.Pen.Color = "red"
	if _, err := FromConfig(cfg); err == nil {
		t.Fatalf("expected error for bad pen color")
	}
}
