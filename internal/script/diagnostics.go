/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"unicode/utf8"

	"goturtle/internal/domain"
)

// Severity of a diagnostic. Syntax errors are the only kind produced.
type Severity string

const SeverityError Severity = "error"

// Diagnostic is an editor-facing marker for one malformed line. The range
// starts at the error column and runs to the end of the line (rune length + 1).
type Diagnostic struct {
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	StartLine   int      `json:"startLine"`
	EndLine     int      `json:"endLine"`
	StartColumn int      `json:"startColumn"`
	EndColumn   int      `json:"endColumn"`
}

// NewDiagnostic converts a syntax error on lineText into a Diagnostic.
func NewDiagnostic(err *Error, lineText string) Diagnostic {
	return Diagnostic{
		Severity:    SeverityError,
		Message:     err.Message,
		StartLine:   err.Line,
		EndLine:     err.Line,
		StartColumn: err.Column,
		EndColumn:   utf8.RuneCountInString(lineText) + 1,
	}
}

// Gate reduces per-line results to either the ordered op list (including
// Pass entries) or one diagnostic per failing line. Exactly one of the two
// results is non-nil; no lines at all yields an empty, non-nil op list.
func Gate(results []LineResult) ([]domain.Op, []Diagnostic) {
	var diags []Diagnostic
	for _, r := range results {
		if r.Err != nil {
			diags = append(diags, NewDiagnostic(r.Err, r.Text))
		}
	}
	if len(diags) > 0 {
		return nil, diags
	}
	ops := make([]domain.Op, len(results))
	for i, r := range results {
		ops[i] = r.Op
	}
	return ops, nil
}

// Validate parses text and applies Gate.
func Validate(text string) ([]domain.Op, []Diagnostic) {
	return Gate(ParseProgram(text))
}
