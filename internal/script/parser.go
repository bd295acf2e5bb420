/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package script parses turtle programs: one statement per line, each line
// parsed on its own, syntax errors collected per line and never propagated
// across lines.
//
// Supported statements:
//
//	(blank line)
//	center | penup | pendown
//	forward N | backward N | turnleft N | turnright N | direction N
//	gox N | goy N | penwidth N
//	go X, Y
//	pencolor R, G, B
package script

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"goturtle/internal/domain"
)

// LineResult is the outcome of parsing one line: Op on success, Err otherwise.
type LineResult struct {
	Line int
	Text string
	Op   domain.Op
	Err  *Error
}

// OK reports whether the line parsed.
func (r LineResult) OK() bool { return r.Err == nil }

// SplitLines splits program text into lines. A final line terminator does not
// start another line, "\r\n" endings are accepted and empty text has no lines.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// ParseProgram parses every line of text independently. The result has one
// entry per line, in order, whether or not earlier lines failed.
func ParseProgram(text string) []LineResult {
	var p Parser
	res, _ := p.Parse(context.Background(), text)
	return res
}

// Parser parses whole programs. The zero value parses sequentially without
// caching.
type Parser struct {
	// Cache, if set, memoizes statement parses by line text.
	Cache *LineCache
	// Jobs > 1 parses chunks of lines concurrently.
	Jobs int
}

// minChunk keeps tiny programs on the sequential path.
const minChunk = 256

// Parse parses text. The only error is ctx's, when it is cancelled during a
// concurrent parse.
func (p *Parser) Parse(ctx context.Context, text string) ([]LineResult, error) {
	lines := SplitLines(text)
	out := make([]LineResult, len(lines))
	if p.Jobs <= 1 || len(lines) < 2*minChunk {
		for i := range lines {
			out[i] = p.parseLine(lines[i], i+1)
		}
		return out, nil
	}

	chunk := (len(lines) + p.Jobs - 1) / p.Jobs
	if chunk < minChunk {
		chunk = minChunk
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Jobs)
	for lo := 0; lo < len(lines); lo += chunk {
		hi := min(lo+chunk, len(lines))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if (i-lo)%minChunk == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				out[i] = p.parseLine(lines[i], i+1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Parser) parseLine(text string, line int) LineResult {
	var (
		op  domain.Op
		err *Error
	)
	if p.Cache != nil {
		op, err = p.Cache.Parse(text, line)
	} else {
		op, err = ParseStatement(text, line)
	}
	return LineResult{Line: line, Text: text, Op: op, Err: err}
}
