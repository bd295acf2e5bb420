/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	applog "goturtle/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned by stores for unknown program ids.
var ErrNotFound = errors.New("program not found")

// Program is a published turtle program.
type Program struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Author    string    `json:"author"`
	Source    string    `json:"source,omitempty"`
	Ops       int       `json:"ops"`
	CreatedAt time.Time `json:"created_at"`
}

// ProgramStore persists published programs.
type ProgramStore interface {
	Create(ctx context.Context, p Program) (Program, error)
	// List returns the newest programs first, without their source.
	List(ctx context.Context, limit int) ([]Program, error)
	Get(ctx context.Context, id int64) (Program, error)
	Ping(ctx context.Context) error
}

// MemoryStore is a ProgramStore for development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	next  int64
	items []Program
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{next: 1} }

func (m *MemoryStore) Create(_ context.Context, p Program) (Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.next
	m.next++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.items = append(m.items, p)
	return p, nil
}

func (m *MemoryStore) List(_ context.Context, limit int) ([]Program, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Program, 0, len(m.items))
	for i := len(m.items) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		p := m.items[i]
		p.Source = ""
		out = append(out, p)
	}
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, id int64) (Program, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.items {
		if p.ID == id {
			return p, nil
		}
	}
	return Program{}, ErrNotFound
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

// PGStore keeps programs in PostgreSQL through the pgx driver.
type PGStore struct {
	db *sql.DB
}

// OpenPG connects to dsn, pings it and applies the embedded migrations.
func OpenPG(ctx context.Context, dsn string) (*PGStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &PGStore{db: db}, nil
}

// Close closes the underlying pool.
func (s *PGStore) Close() error { return s.db.Close() }

func (s *PGStore) Create(ctx context.Context, p Program) (Program, error) {
	// dialect=PostgreSQL
	row := s.db.QueryRowContext(ctx, `INSERT INTO programs(name, author, source, ops) VALUES($1,$2,$3,$4) RETURNING id, created_at`,
		p.Name, p.Author, p.Source, p.Ops)
	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		return Program{}, fmt.Errorf("insert program: %w", err)
	}
	return p, nil
}

func (s *PGStore) List(ctx context.Context, limit int) ([]Program, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, author, ops, created_at FROM programs ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()
	list := []Program{}
	for rows.Next() {
		var p Program
		if err := rows.Scan(&p.ID, &p.Name, &p.Author, &p.Ops, &p.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (s *PGStore) Get(ctx context.Context, id int64) (Program, error) {
	var p Program
	err := s.db.QueryRowContext(ctx, `SELECT id, name, author, source, ops, created_at FROM programs WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Author, &p.Source, &p.Ops, &p.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Program{}, ErrNotFound
	case err != nil:
		return Program{}, fmt.Errorf("get program: %w", err)
	}
	return p, nil
}

func (s *PGStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// applyMigrations applies embedded SQL migrations in filename order and
// records each in schema_migrations.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	l := applog.WithOperation(applog.WithComponent("backend"), "migrate")
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name := e.Name(); strings.HasSuffix(strings.ToLower(name), ".sql") {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	// dialect=PostgreSQL
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin %s: %w", fname, err)
		}
		l.Info("applying migration", slog.String("file", fname))
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES($1, $2)`, version, fname); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", fname, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	prefix, _, ok := strings.Cut(base, "_")
	if !ok {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}
