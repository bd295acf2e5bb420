/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"reflect"
	"testing"

	"goturtle/internal/domain"
)

func TestParseStatementValid(t *testing.T) {
	cases := []struct {
		in   string
		want domain.Op
	}{
		{"", domain.Pass{}},
		{"   \t ", domain.Pass{}},
		{"center", domain.Center{}},
		{"penup   ", domain.PenUp{}},
		{"\tpendown", domain.PenDown{}},
		{"forward 150", domain.Forward{Length: 150}},
		{"backward 10.5", domain.Backward{Length: 10.5}},
		{"turnleft 90", domain.TurnLeft{Degrees: 90}},
		{"  turnright   -22.5  ", domain.TurnRight{Degrees: -22.5}},
		{"direction .5", domain.SetDirection{Degrees: 0.5}},
		{"gox 100", domain.GoToX{X: 100}},
		{"goy -50", domain.GoToY{Y: -50}},
		{"penwidth 4.", domain.SetPenWidth{Width: 4}},
		{"forward +3", domain.Forward{Length: 3}},
		{"forward 1e3", domain.Forward{Length: 1000}},
		{"go 10, 20", domain.GoTo{X: 10, Y: 20}},
		{"go 10 ,20", domain.GoTo{X: 10, Y: 20}},
		{"pencolor 255, 0, 0", domain.SetPenColor{R: 255, G: 0, B: 0}},
		{"pencolor 1,2,3", domain.SetPenColor{R: 1, G: 2, B: 3}},
	}
	for _, c := range cases {
		op, err := ParseStatement(c.in, 1)
		if err != nil {
			t.Fatalf("ParseStatement(%q) unexpected error: %v", c.in, err)
		}
		if !reflect.DeepEqual(op, c.want) {
			t.Fatalf("ParseStatement(%q) = %#v, want %#v", c.in, op, c.want)
		}
	}
}

func TestParseStatementFailures(t *testing.T) {
	cases := []struct {
		in     string
		column int
		reason string
	}{
		{"jump 10", 1, ReasonUnknownStatement},
		{"   jump", 4, ReasonUnknownStatement},
		{"Forward 10", 1, ReasonUnknownStatement},
		{"forward abc", 9, ReasonNumber},
		{"forward", 8, ReasonNumber},
		{"forward ", 9, ReasonNumber},
		{"forward10", 8, ReasonSeparator},
		{"forward\t10", 8, ReasonSeparator},
		{"forward 1.2.3", 12, ReasonEndOfLine},
		{"forward 1e", 10, ReasonEndOfLine},
		{"forward 1e999", 9, ReasonNumber},
		{"forward -", 9, ReasonNumber},
		{"gox", 4, ReasonNumber},
		{"go5", 3, ReasonSeparator},
		{"go 10 20", 7, ReasonComma},
		{"go 1,2,3", 7, ReasonEndOfLine},
		{"go 1,", 6, ReasonNumber},
		{"penup 5", 7, ReasonEndOfLine},
		{"centerx", 7, ReasonEndOfLine},
		{"pencolor 1, 2", 14, ReasonComma},
		{"pencolor 1, x, 3", 13, ReasonNumber},
	}
	for _, c := range cases {
		op, err := ParseStatement(c.in, 7)
		if err == nil {
			t.Fatalf("ParseStatement(%q) = %#v, want error", c.in, op)
		}
		if op != nil {
			t.Fatalf("ParseStatement(%q) returned op and error", c.in)
		}
		if err.Line != 7 || err.Column != c.column || err.Message != c.reason {
			t.Fatalf("ParseStatement(%q) error = %+v, want column %d %q", c.in, *err, c.column, c.reason)
		}
	}
}

func TestErrorFormatting(t *testing.T) {
	_, err := ParseStatement("go 1 2", 3)
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := err.Error(); got != "3:6: expecting a comma" {
		t.Fatalf("Error() = %q", got)
	}
	if p := err.Position(); p.Line != 3 || p.Column != 6 {
		t.Fatalf("Position() = %v", p)
	}
}

func TestGrammarPrimitivesAreLocal(t *testing.T) {
	line := []rune("  12.5 ,x")
	if got := whitespace(line, 0); got != 2 {
		t.Fatalf("whitespace = %d", got)
	}
	v, next, f := number(line, 2)
	if f != nil || v != 12.5 || next != 7 {
		t.Fatalf("number = %v %d %+v", v, next, f)
	}
	next, f = comma(line, next)
	if f != nil || next != 8 {
		t.Fatalf("comma = %d %+v", next, f)
	}
	if _, _, f = number(line, next); f == nil || f.at != 8 || f.reason != ReasonNumber {
		t.Fatalf("number failure = %+v", f)
	}
	if _, f = keyword(line, 2, "gox"); f == nil || f.reason != "expecting keyword gox" {
		t.Fatalf("keyword failure = %+v", f)
	}
	if at, f := separator(line, len(line)); f != nil || at != len(line) {
		t.Fatalf("separator at end of line should succeed: %d %+v", at, f)
	}
}
