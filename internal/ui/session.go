/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"goturtle/internal/export"
	applog "goturtle/internal/log"
	"goturtle/internal/script"
	"goturtle/internal/storage"
	"goturtle/internal/turtle"
)

// ErrStale is returned by Update when a later call has already committed its
// result. The caller should discard the outcome.
var ErrStale = errors.New("superseded by a newer update")

// Outcome is the result of running the editor pipeline on one version of the
// program text.
type Outcome struct {
	// Image is the picture to show. On malformed input it is the last good
	// picture, unchanged.
	Image       *image.RGBA
	Diagnostics []script.Diagnostic
	State       turtle.State
	// Fresh is true when Image was drawn from this text.
	Fresh bool
}

// Session owns the editor state that does not depend on a toolkit: the
// workspace, the last good picture and the parse cache.
type Session struct {
	ws       *storage.Workspace
	opts     export.Options
	keepLast int
	parser   script.Parser
	log      *slog.Logger
	issued   atomic.Uint64

	mu        sync.Mutex
	committed uint64
	text      string
	last      *image.RGBA
	diags     []script.Diagnostic
}

// NewSession returns a session over ws. ws may be nil, in which case nothing
// is persisted.
func NewSession(ws *storage.Workspace, opts export.Options, keepLast int) *Session {
	return &Session{
		ws:       ws,
		opts:     opts,
		keepLast: keepLast,
		parser:   script.Parser{Cache: script.NewLineCache(4096), Jobs: 4},
		log:      applog.WithComponent("ui.session"),
	}
}

// Workspace returns the session's workspace, or nil.
func (s *Session) Workspace() *storage.Workspace { return s.ws }

// Text returns the text of the last Update.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Diagnostics returns the diagnostics of the last Update.
func (s *Session) Diagnostics() []script.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diags
}

// Update parses text and, when every line is well formed, redraws the whole
// picture from a cleared canvas. Calls may overlap; a call that finishes after
// a later one has committed returns ErrStale and changes nothing.
func (s *Session) Update(ctx context.Context, text string) (Outcome, error) {
	return s.update(ctx, s.issued.Add(1), text)
}

func (s *Session) update(ctx context.Context, gen uint64, text string) (Outcome, error) {
	res, err := s.parser.Parse(ctx, text)
	if err != nil {
		return Outcome{}, err
	}
	ops, diags := script.Gate(res)
	var out Outcome
	if diags == nil {
		surf := export.NewRasterSurface(s.opts)
		st := turtle.Render(surf, s.opts.TurtleOptions(), ops)
		out = Outcome{Image: surf.Image(), State: st, Fresh: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen < s.committed {
		s.log.Debug("dropping stale update", slog.Uint64("gen", gen), slog.Uint64("committed", s.committed))
		return Outcome{}, ErrStale
	}
	s.committed = gen
	s.text = text
	s.diags = diags
	if diags != nil {
		if s.last == nil {
			s.last = s.blank()
		}
		return Outcome{Image: s.last, Diagnostics: diags}, nil
	}
	s.last = out.Image
	return out, nil
}

func (s *Session) blank() *image.RGBA {
	surf := export.NewRasterSurface(s.opts)
	surf.Clear()
	return surf.Image()
}

// Persist writes the current text to the workspace program file and records
// a snapshot of kind k, then prunes old snapshots.
func (s *Session) Persist(ctx context.Context, k storage.SnapshotKind) error {
	if s.ws == nil {
		return errors.New("no workspace open")
	}
	s.mu.Lock()
	text, nerr := s.text, len(s.diags)
	s.mu.Unlock()

	if err := storage.WriteProgram(s.ws, text); err != nil {
		return err
	}
	if k == storage.KindAutosave {
		// skip autosaves that would only repeat the newest snapshot
		if latest, ok, err := storage.LatestSnapshot(ctx, s.ws); err == nil && ok && latest.Text == text {
			return nil
		}
	}
	if _, err := storage.SaveSnapshot(ctx, s.ws, storage.Snapshot{Kind: k, Text: text, Errors: nerr}); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	n, err := storage.PruneSnapshots(ctx, s.ws, s.keepLast)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	if n > 0 {
		s.log.Debug("pruned snapshots", slog.Int64("count", n))
	}
	return nil
}

// Export renders the current text to path. Malformed programs are refused.
func (s *Session) Export(path string) error {
	ops, diags := script.Validate(s.Text())
	if diags != nil {
		return fmt.Errorf("program has %d syntax error(s)", len(diags))
	}
	_, err := export.RenderFile(ops, path, s.opts)
	return err
}

// DiagnosticLabel formats d for a one-line list entry.
func DiagnosticLabel(d script.Diagnostic) string {
	return fmt.Sprintf("%d:%d  %s", d.StartLine, d.StartColumn, d.Message)
}
