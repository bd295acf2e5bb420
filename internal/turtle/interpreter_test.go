/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package turtle

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"goturtle/internal/domain"
	"goturtle/internal/script"
)

// logSurface records commands as short strings, rounding coordinates.
type logSurface struct {
	cmds []string
}

func r(v float64) float64 {
	v = math.Round(v*1e6) / 1e6
	if v == 0 {
		return 0
	}
	return v
}

func (l *logSurface) Clear()                 { l.cmds = append(l.cmds, "clear") }
func (l *logSurface) BeginPath()             { l.cmds = append(l.cmds, "begin") }
func (l *logSurface) MoveTo(x, y float64)    { l.cmds = append(l.cmds, fmt.Sprintf("M %v %v", r(x), r(y))) }
func (l *logSurface) LineTo(x, y float64)    { l.cmds = append(l.cmds, fmt.Sprintf("L %v %v", r(x), r(y))) }
func (l *logSurface) Stroke()                { l.cmds = append(l.cmds, "stroke") }
func (l *logSurface) SetLineWidth(w float64) { l.cmds = append(l.cmds, fmt.Sprintf("width %v", w)) }
func (l *logSurface) SetStrokeColor(c domain.RGB) {
	l.cmds = append(l.cmds, "color "+c.CSS())
}
func (l *logSurface) DrawMarker(x, y, h float64) {
	l.cmds = append(l.cmds, fmt.Sprintf("marker %v %v %v", r(x), r(y), r(h)))
}

func mustOps(t *testing.T, text string) []domain.Op {
	t.Helper()
	ops, diags := script.Validate(text)
	if diags != nil {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	return ops
}

func TestRunSquareCornerRoundTrip(t *testing.T) {
	var s logSurface
	ops := mustOps(t, "center\npendown\nforward 100\nturnright 90\nforward 100")
	st := Render(&s, Options{}, ops)

	want := []string{
		"clear", "begin", "M 0 0", "width 2", "color rgb(0,0,0)",
		"stroke", "begin", "M 0 0", // center
		"stroke", "begin", "M 0 0", // pendown
		"L 0 -100",
		"L 100 -100",
		"stroke",
	}
	if !reflect.DeepEqual(s.cmds, want) {
		t.Fatalf("commands:\n%s\nwant:\n%s", strings.Join(s.cmds, "\n"), strings.Join(want, "\n"))
	}
	if st.Heading != 90 || r(st.Position.X) != 100 || r(st.Position.Y) != -100 {
		t.Fatalf("final state %+v", st)
	}
}

func TestEmptyProgramOnlyResets(t *testing.T) {
	var s logSurface
	st := Render(&s, Options{Origin: domain.Point{X: 445, Y: 460}, PenColor: domain.RGB{R: 9}}, mustOps(t, ""))
	want := []string{"clear", "begin", "M 445 460", "width 2", "color rgb(9,0,0)", "stroke"}
	if !reflect.DeepEqual(s.cmds, want) {
		t.Fatalf("commands = %q", s.cmds)
	}
	if st.PenDown || st.Heading != 0 || st.PenWidth != 2 {
		t.Fatalf("initial state changed: %+v", st)
	}
}

func TestPenUpMovesWithoutDrawing(t *testing.T) {
	var s logSurface
	Render(&s, Options{}, mustOps(t, "forward 10\npendown\nbackward 20\npenup\nforward 5"))
	joined := strings.Join(s.cmds, ";")
	if !strings.Contains(joined, "M 0 -10;stroke") {
		t.Fatalf("pen-up forward should move: %s", joined)
	}
	if !strings.Contains(joined, "L 0 10") {
		t.Fatalf("pen-down backward should draw: %s", joined)
	}
	if !strings.HasSuffix(joined, "M 0 5;stroke") {
		t.Fatalf("pen-up forward after penup should move: %s", joined)
	}
}

func TestHeadingNormalization(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"turnright 370", 10},
		{"turnright -10", 350},
		{"turnleft 10", 350},
		{"turnleft -370", 10},
		{"direction 720", 0},
		{"direction -90", 270},
		{"turnright 90\ndirection 45", 45},
		{"turnright 360", 0},
	}
	for _, c := range cases {
		st := Render(nil, Options{}, mustOps(t, c.text))
		if math.Abs(st.Heading-c.want) > 1e-9 {
			t.Fatalf("%q: heading %v, want %v", c.text, st.Heading, c.want)
		}
	}
}

func TestRelocationsFlushAndDoNotDraw(t *testing.T) {
	var s logSurface
	origin := domain.Point{X: 50, Y: 50}
	st := Render(&s, Options{Origin: origin}, mustOps(t, "pendown\ngo 10, 20\ngox 30\ngoy 40\ncenter"))
	for _, c := range s.cmds {
		if strings.HasPrefix(c, "L ") {
			t.Fatalf("relocation drew a line: %q", s.cmds)
		}
	}
	joined := strings.Join(s.cmds, ";")
	for _, want := range []string{"stroke;begin;M 10 20", "stroke;begin;M 30 20", "stroke;begin;M 30 40", "stroke;begin;M 50 50"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in %s", want, joined)
		}
	}
	if st.Position != origin || !st.PenDown {
		t.Fatalf("final state %+v", st)
	}
}

func TestStyleChangesFlushFirst(t *testing.T) {
	var s logSurface
	st := Render(&s, Options{}, mustOps(t, "pendown\nforward 10\npenwidth 5\npencolor 300, 127.5, -4\nforward 10\npenwidth -1"))
	joined := strings.Join(s.cmds, ";")
	if !strings.Contains(joined, "L 0 -10;stroke;begin;M 0 -10;width 5") {
		t.Fatalf("width change must flush first: %s", joined)
	}
	if !strings.Contains(joined, "stroke;begin;M 0 -10;color rgb(255,128,0)") {
		t.Fatalf("color change must flush first and clamp: %s", joined)
	}
	if st.PenWidth != 5 {
		t.Fatalf("non-positive width should be ignored, got %v", st.PenWidth)
	}
	if st.PenColor != (domain.RGB{R: 255, G: 128, B: 0}) {
		t.Fatalf("pen color %+v", st.PenColor)
	}
}

func TestMarkerDrawnOnlyWhenEnabled(t *testing.T) {
	var s logSurface
	Render(&s, Options{Marker: true}, mustOps(t, "turnright 45\nforward 0"))
	if last := s.cmds[len(s.cmds)-1]; last != "marker 0 0 45" {
		t.Fatalf("last command %q", last)
	}
	s = logSurface{}
	Render(&s, Options{}, nil)
	for _, c := range s.cmds {
		if strings.HasPrefix(c, "marker") {
			t.Fatalf("marker drawn while disabled")
		}
	}
}

// fakeOp satisfies domain.Op only through embedding, so the interpreter has
// no case for it.
type fakeOp struct{ domain.Pass }

func TestUnknownOpPanics(t *testing.T) {
	defer func() {
		rec := recover()
		ie, ok := rec.(*InternalError)
		if !ok {
			t.Fatalf("expected *InternalError panic, got %#v", rec)
		}
		if !strings.Contains(ie.Error(), "unknown operation") {
			t.Fatalf("unexpected message %q", ie.Error())
		}
	}()
	Render(nil, Options{}, []domain.Op{fakeOp{}})
}

func TestRunsAreIndependent(t *testing.T) {
	ops := mustOps(t, "pendown\nturnright 30\nforward 10\npenwidth 9")
	in := New(&logSurface{}, Options{})
	a := in.Run(ops)
	b := in.Run(ops)
	if a != b {
		t.Fatalf("state carried over between runs: %+v vs %+v", a, b)
	}
}
