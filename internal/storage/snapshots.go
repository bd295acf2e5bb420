/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// language=SQL
// dialect=SQLite
const insertSnapshotSQL = `INSERT INTO snapshots(ts, text, kind, errors) VALUES (?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestSnapshotSQL = `SELECT id, ts, text, kind, errors FROM snapshots ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT id, ts, text, kind, errors FROM snapshots ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldSnapshotsSQL = `DELETE FROM snapshots WHERE id NOT IN (
	SELECT id FROM snapshots ORDER BY ts DESC, id DESC LIMIT ?
)`

const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SaveSnapshot stores s in the workspace history and returns its id. A zero
// TS means now and an empty Kind means KindSave.
func SaveSnapshot(ctx context.Context, ws *Workspace, s Snapshot) (int64, error) {
	if ws == nil {
		return 0, errors.New("nil Workspace")
	}
	return saveSnapshot(ctx, ws.Root, s)
}

func saveSnapshot(ctx context.Context, root string, s Snapshot) (int64, error) {
	if s.TS.IsZero() {
		s.TS = time.Now()
	}
	if s.Kind == "" {
		s.Kind = KindSave
	}
	db, err := OpenHistory(root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	// fixed-width timestamps keep ORDER BY ts chronological
	res, err := db.ExecContext(ctx, insertSnapshotSQL, s.TS.UTC().Format(tsLayout), s.Text, string(s.Kind), s.Errors)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	return res.LastInsertId()
}

// LatestSnapshot returns the newest snapshot. ok is false when the history is empty.
func LatestSnapshot(ctx context.Context, ws *Workspace) (s Snapshot, ok bool, err error) {
	if ws == nil {
		return Snapshot{}, false, errors.New("nil Workspace")
	}
	db, err := OpenHistory(ws.Root)
	if err != nil {
		return Snapshot{}, false, err
	}
	defer func() { _ = db.Close() }()
	s, err = scanSnapshot(db.QueryRowContext(ctx, selectLatestSnapshotSQL))
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	return s, true, nil
}

// ListSnapshots returns up to limit snapshots, newest first. limit <= 0 means 50.
func ListSnapshots(ctx context.Context, ws *Workspace, limit int) ([]Snapshot, error) {
	if ws == nil {
		return nil, errors.New("nil Workspace")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := OpenHistory(ws.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listSnapshotsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// PruneSnapshots keeps the keepLast newest snapshots and deletes the rest.
// keepLast <= 0 keeps everything.
func PruneSnapshots(ctx context.Context, ws *Workspace, keepLast int) (int64, error) {
	if ws == nil {
		return 0, errors.New("nil Workspace")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := OpenHistory(ws.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneOldSnapshotsSQL, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AutosaveCrashSnapshot records text as a crash snapshot under root. It is
// meant for panic handlers and so bounds itself to a short timeout.
func AutosaveCrashSnapshot(root, text string) error {
	if root == "" {
		return errors.New("workspace root is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := saveSnapshot(ctx, root, Snapshot{Kind: KindCrash, Text: text})
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(r rowScanner) (Snapshot, error) {
	var (
		s    Snapshot
		ts   string
		kind string
	)
	if err := r.Scan(&s.ID, &ts, &s.Text, &kind, &s.Errors); err != nil {
		return Snapshot{}, err
	}
	s.Kind = SnapshotKind(kind)
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		s.TS = t
	}
	return s, nil
}
