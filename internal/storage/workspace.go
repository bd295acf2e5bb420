/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	ProgramFileName  = "program.turtle"
	ManifestFileName = "workspace.json"
	BackupsDirName   = "backups"
	ExportsDirName   = "exports"

	manifestVersion = 1
)

var standardSubDirs = []string{
	ExportsDirName,
	BackupsDirName,
}

// Manifest describes a workspace.
type Manifest struct {
	Version   int       `json:"version"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	// Published is the gallery id assigned by the backend, if any.
	Published string `json:"published,omitempty"`
}

// Workspace keeps track of a workspace loaded from disk.
type Workspace struct {
	Root         string
	ProgramPath  string
	ManifestPath string
	Manifest     Manifest
}

// ExportsDir is where rendered drawings go by default.
func (w *Workspace) ExportsDir() string { return filepath.Join(w.Root, ExportsDirName) }

// InitWorkspace creates a workspace at root (creating it if needed), scaffolds
// the standard subfolders and writes the manifest. An existing program file is
// left alone; otherwise an empty one is created.
func InitWorkspace(root, name string) (*Workspace, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	if strings.TrimSpace(name) == "" {
		name = filepath.Base(root)
	}
	ws := newWorkspace(root)
	ws.Manifest = Manifest{Version: manifestVersion, Name: name, CreatedAt: time.Now().UTC().Truncate(time.Second)}
	if err := SaveManifest(ws); err != nil {
		return nil, err
	}
	if _, err := os.Stat(ws.ProgramPath); errors.Is(err, os.ErrNotExist) {
		if err := writeFileSync(ws.ProgramPath, nil); err != nil {
			return nil, fmt.Errorf("create program: %w", err)
		}
	}
	return ws, nil
}

func newWorkspace(root string) *Workspace {
	return &Workspace{
		Root:         root,
		ProgramPath:  filepath.Join(root, ProgramFileName),
		ManifestPath: filepath.Join(root, ManifestFileName),
	}
}

// OpenWorkspace loads an existing workspace. A missing or unreadable manifest
// is recovered from the latest backup.
func OpenWorkspace(root string) (*Workspace, error) {
	ws := newWorkspace(root)
	b, err := os.ReadFile(ws.ManifestPath)
	if err != nil {
		m, berr := latestManifestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("open manifest: %w; backup attempt: %v", err, berr)
		}
		ws.Manifest = *m
		return ws, nil
	}
	if uerr := json.Unmarshal(b, &ws.Manifest); uerr != nil {
		m, berr := latestManifestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("parse manifest: %w; backup attempt: %v", uerr, berr)
		}
		ws.Manifest = *m
	}
	return ws, nil
}

// OpenOrInitWorkspace opens root, creating a workspace there first if it has
// no manifest.
func OpenOrInitWorkspace(root string) (*Workspace, error) {
	if _, err := os.Stat(filepath.Join(root, ManifestFileName)); err == nil {
		return OpenWorkspace(root)
	}
	if bs, _ := manifestBackups(root); len(bs) > 0 {
		return OpenWorkspace(root)
	}
	return InitWorkspace(root, "")
}

// SaveManifest writes ws.Manifest transactionally, backing up the previous one.
func SaveManifest(ws *Workspace) error {
	if ws == nil {
		return errors.New("nil Workspace")
	}
	data, err := json.MarshalIndent(ws.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')
	return replaceWithBackup(ws.Root, ws.ManifestPath, data)
}

// ReadProgram returns the program text. When the program file is missing the
// latest program backup is used.
func ReadProgram(ws *Workspace) (string, error) {
	if ws == nil {
		return "", errors.New("nil Workspace")
	}
	b, err := os.ReadFile(ws.ProgramPath)
	if err == nil {
		return string(b), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read program: %w", err)
	}
	latest, berr := latestBackup(ws.Root, ProgramFileName)
	if berr != nil {
		return "", fmt.Errorf("read program: %w", err)
	}
	b, err = os.ReadFile(latest)
	if err != nil {
		return "", fmt.Errorf("read program backup: %w", err)
	}
	return string(b), nil
}

// WriteProgram replaces the program text. The previous text is kept as a
// timestamped backup unless it is identical.
func WriteProgram(ws *Workspace, text string) error {
	if ws == nil {
		return errors.New("nil Workspace")
	}
	if cur, err := os.ReadFile(ws.ProgramPath); err == nil && string(cur) == text {
		return nil
	}
	return replaceWithBackup(ws.Root, ws.ProgramPath, []byte(text))
}

// replaceWithBackup copies target into backups/ (if present) and then writes
// data to a temp file in the same directory which is renamed over target.
func replaceWithBackup(root, target string, data []byte) error {
	bdir := filepath.Join(root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	name := filepath.Base(target)
	if st, statErr := os.Stat(target); statErr == nil && st.Size() > 0 {
		stamp := time.Now().Format("20060102-150405.000")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", name, stamp))
		if cerr := copyFile(target, bpath); cerr != nil {
			return fmt.Errorf("backup %s: %w", name, cerr)
		}
	}

	temp := filepath.Join(filepath.Dir(target), fmt.Sprintf(".%s.tmp-%d-%d", name, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp %s: %w", name, werr)
	}
	// Windows cannot rename over an existing file.
	if _, err := os.Stat(target); err == nil {
		_ = os.Remove(target)
	}
	if rerr := os.Rename(temp, target); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace %s: %w", name, rerr)
	}
	return nil
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies src to dst, overwriting dst.
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// Backups lists the backups of the named workspace file, oldest first.
func Backups(root, name string) ([]string, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var out []string
	for _, e := range ents {
		n := e.Name()
		if strings.HasPrefix(n, name+".") && strings.HasSuffix(n, ".bak") {
			out = append(out, filepath.Join(bdir, n))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

func manifestBackups(root string) ([]string, error) { return Backups(root, ManifestFileName) }

func latestBackup(root, name string) (string, error) {
	bs, err := Backups(root, name)
	if err != nil {
		return "", err
	}
	if len(bs) == 0 {
		return "", errors.New("no backups found")
	}
	return bs[len(bs)-1], nil
}

func latestManifestBackup(root string) (*Manifest, error) {
	latest, err := latestBackup(root, ManifestFileName)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(latest)
	if err != nil {
		return nil, fmt.Errorf("read latest backup: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse latest backup: %w", err)
	}
	return &m, nil
}
