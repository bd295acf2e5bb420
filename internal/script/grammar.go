/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"strconv"
)

// Failure reasons produced by the grammar primitives.
const (
	ReasonNumber    = "expecting a number"
	ReasonComma     = "expecting a comma"
	ReasonSeparator = "expecting space or newline"
	ReasonEndOfLine = "expecting end of line"
	reasonKeyword   = "expecting keyword "
)

// ReasonUnknownStatement is reported when a line starts with no known keyword.
const ReasonUnknownStatement = "expected one of: center, penup, pendown, forward, backward, turnleft, turnright, direction, gox, goy, penwidth, go, pencolor"

// fail is a primitive failure: the rune offset where the expected pattern was
// not found, and why.
type fail struct {
	at     int
	reason string
}

// The primitives below all take a line (as runes) and a start offset and
// return the offset after what they consumed. They never look past the end of
// the line and keep no state.

func isBlank(r rune) bool { return r == ' ' || r == '\t' }

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// whitespace consumes zero or more blanks.
func whitespace(line []rune, at int) int {
	for at < len(line) && isBlank(line[at]) {
		at++
	}
	return at
}

// keyword matches the literal kw.
func keyword(line []rune, at int, kw string) (int, *fail) {
	i := at
	for _, r := range kw {
		if i >= len(line) || line[i] != r {
			return at, &fail{at: at, reason: reasonKeyword + kw}
		}
		i++
	}
	return i, nil
}

// separator matches a single space or the end of the line, then any blanks.
func separator(line []rune, at int) (int, *fail) {
	switch {
	case at >= len(line):
		return at, nil
	case line[at] == ' ':
		return whitespace(line, at+1), nil
	default:
		return at, &fail{at: at, reason: ReasonSeparator}
	}
}

// comma matches ',' then any blanks.
func comma(line []rune, at int) (int, *fail) {
	if at < len(line) && line[at] == ',' {
		return whitespace(line, at+1), nil
	}
	return at, &fail{at: at, reason: ReasonComma}
}

// endOfLine succeeds only at the end of the line.
func endOfLine(line []rune, at int) *fail {
	if at < len(line) {
		return &fail{at: at, reason: ReasonEndOfLine}
	}
	return nil
}

// number matches a decimal float: optional sign, digits with an optional
// fractional part ("5", "5.", ".5", "-2.25"), an optional exponent when digits
// follow the 'e', then any blanks.
func number(line []rune, at int) (float64, int, *fail) {
	i := at
	if i < len(line) && (line[i] == '+' || line[i] == '-') {
		i++
	}
	digits := 0
	for i < len(line) && isDigit(line[i]) {
		i++
		digits++
	}
	if i < len(line) && line[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(line) && isDigit(line[j]) {
			j++
			frac++
		}
		if digits+frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return 0, at, &fail{at: at, reason: ReasonNumber}
	}
	if i < len(line) && (line[i] == 'e' || line[i] == 'E') {
		j := i + 1
		if j < len(line) && (line[j] == '+' || line[j] == '-') {
			j++
		}
		if j < len(line) && isDigit(line[j]) {
			for j < len(line) && isDigit(line[j]) {
				j++
			}
			i = j
		}
	}
	// Literals beyond float64 range are rejected rather than becoming ±Inf.
	v, err := strconv.ParseFloat(string(line[at:i]), 64)
	if err != nil {
		return 0, at, &fail{at: at, reason: ReasonNumber}
	}
	return v, whitespace(line, i), nil
}

// numbers matches n numbers separated by commas.
func numbers(line []rune, at, n int) ([]float64, int, *fail) {
	out := make([]float64, 0, n)
	for k := 0; k < n; k++ {
		if k > 0 {
			var f *fail
			if at, f = comma(line, at); f != nil {
				return nil, at, f
			}
		}
		v, next, f := number(line, at)
		if f != nil {
			return nil, at, f
		}
		out = append(out, v)
		at = next
	}
	return out, at, nil
}
