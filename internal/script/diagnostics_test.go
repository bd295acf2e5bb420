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

func TestValidateAllGood(t *testing.T) {
	ops, diags := Validate("center\npendown\n\nforward 100\ngo 1, 2\n")
	if diags != nil {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	want := []domain.Op{domain.Center{}, domain.PenDown{}, domain.Pass{}, domain.Forward{Length: 100}, domain.GoTo{X: 1, Y: 2}}
	if !reflect.DeepEqual(ops, want) {
		t.Fatalf("ops = %#v", ops)
	}
}

func TestValidateEmptyPrograms(t *testing.T) {
	ops, diags := Validate("")
	if ops == nil || len(ops) != 0 || diags != nil {
		t.Fatalf("empty text should yield an empty op list: %#v %#v", ops, diags)
	}
	ops, diags = Validate("\n  \n\t\n")
	if diags != nil || len(ops) != 3 {
		t.Fatalf("blank lines should yield Pass ops: %#v %#v", ops, diags)
	}
	for _, o := range ops {
		if o != (domain.Pass{}) {
			t.Fatalf("expected Pass, got %#v", o)
		}
	}
}

func TestValidateAllOrNothing(t *testing.T) {
	text := "center\npendown\nforward 10\nturnright 90\nforwrd 10\nforward 10\n"
	ops, diags := Validate(text)
	if ops != nil {
		t.Fatalf("ops must be nil when any line fails: %#v", ops)
	}
	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %d", len(diags))
	}
	d := diags[0]
	want := Diagnostic{Severity: SeverityError, Message: ReasonUnknownStatement, StartLine: 5, EndLine: 5, StartColumn: 1, EndColumn: 10}
	if d != want {
		t.Fatalf("diagnostic = %+v, want %+v", d, want)
	}
}

func TestDiagnosticEndColumnCountsRunes(t *testing.T) {
	_, diags := Validate("forward ü")
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %+v", diags)
	}
	if diags[0].StartColumn != 9 || diags[0].EndColumn != 10 {
		t.Fatalf("columns = %d..%d, want 9..10", diags[0].StartColumn, diags[0].EndColumn)
	}

	// two runes outside the BMP: four UTF-16 units, but two columns
	_, diags = Validate("forward \U0001F422\U0001F422")
	if len(diags) != 1 || diags[0].StartColumn != 9 || diags[0].EndColumn != 11 {
		t.Fatalf("astral runes should count once each: %+v", diags)
	}
}

func TestDiagnosticsOnePerFailingLine(t *testing.T) {
	_, diags := Validate("go 1,2,3\nok\npenup\nforward\n")
	if len(diags) != 3 {
		t.Fatalf("expected 3 diagnostics, got %+v", diags)
	}
	lines := []int{diags[0].StartLine, diags[1].StartLine, diags[2].StartLine}
	if !reflect.DeepEqual(lines, []int{1, 2, 4}) {
		t.Fatalf("diagnostic lines = %v", lines)
	}
	for _, d := range diags {
		if d.StartColumn < 1 || d.StartColumn > d.EndColumn || d.StartLine != d.EndLine {
			t.Fatalf("malformed range %+v", d)
		}
	}
}
