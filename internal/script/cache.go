/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"sync"

	"goturtle/internal/domain"
)

// LineCache memoizes ParseStatement by line text. Parsing is pure, so a cached
// result differs from a fresh one only in the line number, which is filled in
// per call. It is safe for concurrent use.
type LineCache struct {
	mu      sync.Mutex
	max     int
	entries map[string]cached
	hits    uint64
	misses  uint64
}

type cached struct {
	op     domain.Op
	column int
	reason string
}

// NewLineCache returns a cache holding at most size distinct lines. When full
// it is emptied and starts over. size <= 0 selects 4096.
func NewLineCache(size int) *LineCache {
	if size <= 0 {
		size = 4096
	}
	return &LineCache{max: size, entries: make(map[string]cached)}
}

// Parse is ParseStatement with memoization.
func (c *LineCache) Parse(text string, line int) (domain.Op, *Error) {
	c.mu.Lock()
	e, ok := c.entries[text]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()

	if !ok {
		op, err := ParseStatement(text, line)
		e = cached{op: op}
		if err != nil {
			e.column, e.reason = err.Column, err.Message
		}
		c.mu.Lock()
		if len(c.entries) >= c.max {
			clear(c.entries)
		}
		c.entries[text] = e
		c.mu.Unlock()
	}
	if e.reason != "" {
		return nil, &Error{Line: line, Column: e.column, Message: e.reason}
	}
	return e.op, nil
}

// Stats returns hit and miss counts.
func (c *LineCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the number of cached lines.
func (c *LineCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
