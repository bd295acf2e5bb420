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
	"path/filepath"
	"strings"

	"goturtle/internal/domain"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
	PresetAll   PresetName = "all"
)

// BatchOptions controls exporting one program to several formats at once.
//
// Path semantics: files are written as <OutDir>/<preset>/<BaseName>.<ext>.
// An empty BaseName becomes "drawing".
type BatchOptions struct {
	Preset   PresetName
	Formats  []string // allowed: pdf, png, svg; empty means preset defaults
	OutDir   string
	BaseName string
	// Grid overrides the preset's grid choice when set.
	Grid *bool
}

// BatchExport renders ops once per format and returns the written paths.
func BatchExport(ops []domain.Op, opt BatchOptions, ro Options) ([]string, error) {
	if opt.OutDir == "" {
		return nil, fmt.Errorf("batch export: out dir is empty")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	base := opt.BaseName
	if base == "" {
		base = "drawing"
	}
	preset := opt.Preset
	if preset == "" {
		preset = PresetWeb
	}
	outDir := filepath.Join(opt.OutDir, string(preset))

	grid := presetGrid(preset)
	if opt.Grid != nil {
		grid = *opt.Grid
	}
	if grid && ro.Grid <= 0 {
		ro.Grid = 50
	} else if !grid {
		ro.Grid = 0
	}
	if preset == PresetPrint && ro.Scale <= 0 {
		ro.Scale = 3
	}

	var written []string
	for _, name := range formats {
		f, err := ParseFormat(name)
		if err != nil {
			return written, err
		}
		out := filepath.Join(outDir, base+"."+string(f))
		if _, err := RenderFile(ops, out, ro); err != nil {
			return written, fmt.Errorf("%s: %w", strings.ToUpper(string(f)), err)
		}
		written = append(written, out)
	}
	return written, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetPrint:
		return []string{"pdf", "png"}
	case PresetAll:
		return []string{"svg", "png", "pdf"}
	default:
		return []string{"png", "svg"}
	}
}

func presetGrid(p PresetName) bool {
	return p == PresetPrint
}
