/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package trace records the drawing commands a turtle program emits and
// replays them later. Recordings travel as JSON (validated against an
// embedded schema) or as msgpack.
package trace

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	gojsonschema "github.com/xeipuuv/gojsonschema"

	"goturtle/internal/domain"
	"goturtle/internal/turtle"
)

// FormatVersion is written into every recording.
const FormatVersion = 1

// Command kinds.
const (
	KindClear  = "clear"
	KindBegin  = "begin"
	KindMove   = "move"
	KindLine   = "line"
	KindStroke = "stroke"
	KindWidth  = "width"
	KindColor  = "color"
	KindMarker = "marker"
)

//go:embed recording.schema.json
var schemaJSON []byte

// Command is one surface call.
type Command struct {
	Kind  string    `json:"kind" msgpack:"kind"`
	Args  []float64 `json:"args,omitempty" msgpack:"args,omitempty"`
	Color string    `json:"color,omitempty" msgpack:"color,omitempty"`
}

func (c Command) String() string {
	if c.Color != "" {
		return c.Kind + " " + c.Color
	}
	if len(c.Args) == 0 {
		return c.Kind
	}
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = fmt.Sprint(a)
	}
	return c.Kind + " " + strings.Join(parts, " ")
}

// Recording is a complete command stream together with the surface size it
// was drawn for.
type Recording struct {
	Version  int       `json:"version" msgpack:"version"`
	Width    float64   `json:"width" msgpack:"width"`
	Height   float64   `json:"height" msgpack:"height"`
	Commands []Command `json:"commands" msgpack:"commands"`
}

// Recorder is a turtle.MarkerSurface that keeps every call.
type Recorder struct {
	rec Recording
}

// NewRecorder returns an empty recorder for a width x height surface.
func NewRecorder(width, height float64) *Recorder {
	return &Recorder{rec: Recording{Version: FormatVersion, Width: width, Height: height, Commands: []Command{}}}
}

// Recording returns a copy of what was recorded so far.
func (r *Recorder) Recording() Recording {
	out := r.rec
	out.Commands = append([]Command{}, r.rec.Commands...)
	return out
}

func (r *Recorder) add(kind string, args ...float64) {
	r.rec.Commands = append(r.rec.Commands, Command{Kind: kind, Args: args})
}

// Clear also forgets everything recorded before it.
func (r *Recorder) Clear() {
	r.rec.Commands = r.rec.Commands[:0]
	r.add(KindClear)
}

func (r *Recorder) BeginPath()                 { r.add(KindBegin) }
func (r *Recorder) MoveTo(x, y float64)        { r.add(KindMove, x, y) }
func (r *Recorder) LineTo(x, y float64)        { r.add(KindLine, x, y) }
func (r *Recorder) Stroke()                    { r.add(KindStroke) }
func (r *Recorder) SetLineWidth(w float64)     { r.add(KindWidth, w) }
func (r *Recorder) DrawMarker(x, y, h float64) { r.add(KindMarker, x, y, h) }

func (r *Recorder) SetStrokeColor(c domain.RGB) {
	r.rec.Commands = append(r.rec.Commands, Command{Kind: KindColor, Color: c.Hex()})
}

// Record runs ops on a fresh recorder.
func Record(ops []domain.Op, width, height float64, opts turtle.Options) Recording {
	r := NewRecorder(width, height)
	turtle.Render(r, opts, ops)
	return r.Recording()
}

// Replay re-issues the recorded commands on s. Marker commands are dropped
// when s cannot draw markers.
func Replay(rec Recording, s turtle.Surface) error {
	ms, hasMarker := s.(turtle.MarkerSurface)
	for i, c := range rec.Commands {
		if err := c.check(); err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
		switch c.Kind {
		case KindClear:
			s.Clear()
		case KindBegin:
			s.BeginPath()
		case KindMove:
			s.MoveTo(c.Args[0], c.Args[1])
		case KindLine:
			s.LineTo(c.Args[0], c.Args[1])
		case KindStroke:
			s.Stroke()
		case KindWidth:
			s.SetLineWidth(c.Args[0])
		case KindColor:
			col, err := domain.ParseHex(c.Color)
			if err != nil {
				return fmt.Errorf("command %d: %w", i, err)
			}
			s.SetStrokeColor(col)
		case KindMarker:
			if hasMarker {
				ms.DrawMarker(c.Args[0], c.Args[1], c.Args[2])
			}
		}
	}
	return nil
}

func (c Command) check() error {
	want := 0
	switch c.Kind {
	case KindClear, KindBegin, KindStroke:
	case KindMove, KindLine:
		want = 2
	case KindWidth:
		want = 1
	case KindMarker:
		want = 3
	case KindColor:
		if c.Color == "" {
			return fmt.Errorf("color command without color")
		}
	default:
		return fmt.Errorf("unknown command %q", c.Kind)
	}
	if len(c.Args) != want {
		return fmt.Errorf("%s takes %d arguments, got %d", c.Kind, want, len(c.Args))
	}
	return nil
}

// EncodeJSON writes rec as indented JSON.
func EncodeJSON(w io.Writer, rec Recording) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

// DecodeJSON validates data against the recording schema and decodes it.
func DecodeJSON(data []byte) (Recording, error) {
	if err := Validate(data); err != nil {
		return Recording{}, err
	}
	var rec Recording
	if err := json.Unmarshal(data, &rec); err != nil {
		return Recording{}, fmt.Errorf("decode trace: %w", err)
	}
	return rec, nil
}

// Validate checks data against the embedded JSON schema.
func Validate(data []byte) error {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate trace: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("trace does not match schema: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// EncodeMsgpack writes rec in the compact binary form.
func EncodeMsgpack(w io.Writer, rec Recording) error {
	return msgpack.NewEncoder(w).Encode(&rec)
}

// DecodeMsgpack reads the binary form.
func DecodeMsgpack(data []byte) (Recording, error) {
	var rec Recording
	if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return Recording{}, fmt.Errorf("decode trace: %w", err)
	}
	if rec.Version != FormatVersion {
		return Recording{}, fmt.Errorf("unsupported trace version %d", rec.Version)
	}
	return rec, nil
}

// Decode picks the decoder from the first byte: JSON documents start with '{'.
func Decode(data []byte) (Recording, error) {
	if t := bytes.TrimSpace(data); len(t) > 0 && t[0] == '{' {
		return DecodeJSON(t)
	}
	return DecodeMsgpack(data)
}
