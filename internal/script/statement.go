/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"fmt"

	"goturtle/internal/domain"
)

// Error is a syntax error on one line, with a 1-based line and rune column.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message) }

// Position returns where the error starts.
func (e *Error) Position() domain.Position {
	return domain.Position{Line: e.Line, Column: e.Column}
}

// shape groups keywords that share an argument count. Order matters twice:
// shapes are tried top to bottom, and within the one-argument shape gox/goy
// come before the go shape so that "go" never swallows their prefix.
type shape struct {
	arity    int
	keywords []string
}

var shapes = []shape{
	{arity: 0, keywords: []string{domain.KwCenter, domain.KwPenUp, domain.KwPenDown}},
	{arity: 1, keywords: []string{
		domain.KwForward, domain.KwBackward, domain.KwTurnLeft, domain.KwTurnRight,
		domain.KwDirection, domain.KwGoX, domain.KwGoY, domain.KwPenWidth,
	}},
	{arity: 2, keywords: []string{domain.KwGo}},
	{arity: 3, keywords: []string{domain.KwPenColor}},
}

// ParseStatement parses one line of program text. line is the 1-based line
// number reported in the error. Exactly one of the results is non-nil.
//
// A blank line is Pass. Otherwise the first keyword whose literal matches at
// the first non-blank character is committed to; if its arguments are
// malformed the error points at the offending token.
func ParseStatement(text string, line int) (domain.Op, *Error) {
	runes := []rune(text)
	start := whitespace(runes, 0)
	if start == len(runes) {
		return domain.Pass{}, nil
	}
	for _, sh := range shapes {
		for _, kw := range sh.keywords {
			at, f := keyword(runes, start, kw)
			if f != nil {
				continue
			}
			args, f := arguments(runes, at, sh.arity)
			if f != nil {
				return nil, &Error{Line: line, Column: f.at + 1, Message: f.reason}
			}
			op, err := domain.NewOp(kw, args...)
			if err != nil {
				panic(fmt.Sprintf("script: shape table out of sync with domain: %v", err))
			}
			return op, nil
		}
	}
	return nil, &Error{Line: line, Column: start + 1, Message: ReasonUnknownStatement}
}

// arguments parses what follows a keyword up to the end of the line.
// Zero-argument keywords take only trailing blanks.
func arguments(line []rune, at, arity int) ([]float64, *fail) {
	if arity == 0 {
		return nil, endOfLine(line, whitespace(line, at))
	}
	at, f := separator(line, at)
	if f != nil {
		return nil, f
	}
	args, at, f := numbers(line, at, arity)
	if f != nil {
		return nil, f
	}
	if f := endOfLine(line, at); f != nil {
		return nil, f
	}
	return args, nil
}
