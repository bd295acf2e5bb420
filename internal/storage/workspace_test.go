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
	"os"
	"path/filepath"
	"strings"
	"testing"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

func TestInitWorkspaceCreatesStructure(t *testing.T) {
	root := t.TempDir()
	ws, err := InitWorkspace(root, "Spiral")
	if err != nil {
		t.Fatalf("InitWorkspace error: %v", err)
	}
	b, err := os.ReadFile(ws.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var got Manifest
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if got.Name != "Spiral" || got.Version != manifestVersion {
		t.Fatalf("manifest mismatch: %+v", got)
	}
	for _, d := range []string{ExportsDirName, BackupsDirName} {
		if fi, err := os.Stat(filepath.Join(root, d)); err != nil || !fi.IsDir() {
			t.Fatalf("expected directory %s to exist", d)
		}
	}
	text, err := ReadProgram(ws)
	if err != nil || text != "" {
		t.Fatalf("new workspace should have an empty program: %q, %v", text, err)
	}
}

func TestInitWorkspaceKeepsExistingProgram(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ProgramFileName), []byte("center\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ws, err := InitWorkspace(root, "")
	if err != nil {
		t.Fatalf("InitWorkspace: %v", err)
	}
	if ws.Manifest.Name != filepath.Base(root) {
		t.Fatalf("default name should be the dir name, got %q", ws.Manifest.Name)
	}
	if text, _ := ReadProgram(ws); text != "center\n" {
		t.Fatalf("program overwritten: %q", text)
	}
}

func TestWriteProgramKeepsBackups(t *testing.T) {
	ws, err := InitWorkspace(t.TempDir(), "b")
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteProgram(ws, "pendown\n"); err != nil {
		t.Fatalf("write 1: %v", err)
	}
	// identical text does not produce a backup
	if err := WriteProgram(ws, "pendown\n"); err != nil {
		t.Fatalf("write 2: %v", err)
	}
	if err := WriteProgram(ws, "pendown\nforward 10\n"); err != nil {
		t.Fatalf("write 3: %v", err)
	}
	bs, err := Backups(ws.Root, ProgramFileName)
	if err != nil {
		t.Fatalf("list backups: %v", err)
	}
	if len(bs) != 1 {
		t.Fatalf("expected 1 program backup, got %v", bs)
	}
	b, _ := os.ReadFile(bs[0])
	if string(b) != "pendown\n" {
		t.Fatalf("backup content %q", b)
	}
	entries, _ := os.ReadDir(ws.Root)
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestReadProgramFallsBackToBackup(t *testing.T) {
	ws, err := InitWorkspace(t.TempDir(), "r")
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteProgram(ws, "center\n"); err != nil {
		t.Fatal(err)
	}
	if err := WriteProgram(ws, "penup\n"); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(ws.ProgramPath); err != nil {
		t.Fatal(err)
	}
	text, err := ReadProgram(ws)
	if err != nil || text != "center\n" {
		t.Fatalf("fallback read = %q, %v", text, err)
	}
}

func TestOpenWorkspaceRecoversManifest(t *testing.T) {
	root := t.TempDir()
	ws, err := InitWorkspace(root, "first")
	if err != nil {
		t.Fatal(err)
	}
	ws.Manifest.Name = "second"
	if err := SaveManifest(ws); err != nil {
		t.Fatalf("save manifest: %v", err)
	}
	if err := os.WriteFile(ws.ManifestPath, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := OpenWorkspace(root)
	if err != nil {
		t.Fatalf("OpenWorkspace: %v", err)
	}
	if got.Manifest.Name != "first" {
		t.Fatalf("expected manifest from latest backup, got %q", got.Manifest.Name)
	}
	if _, err := OpenWorkspace(t.TempDir()); err == nil {
		t.Fatalf("expected error for an empty dir")
	}
}

func TestOpenOrInitWorkspace(t *testing.T) {
	root := filepath.Join(t.TempDir(), "new")
	ws, err := OpenOrInitWorkspace(root)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	ws2, err := OpenOrInitWorkspace(root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !ws.Manifest.CreatedAt.Equal(ws2.Manifest.CreatedAt) {
		t.Fatalf("second call should open, not re-init")
	}
}

func TestManifestConformsToSchema(t *testing.T) {
	ws, err := InitWorkspace(t.TempDir(), "Schema Test")
	if err != nil {
		t.Fatalf("InitWorkspace error: %v", err)
	}
	data, err := os.ReadFile(ws.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	schemaBytes, err := os.ReadFile("workspace.schema.json")
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaBytes), gojsonschema.NewBytesLoader(data))
	if err != nil {
		t.Fatalf("schema validate error: %v", err)
	}
	if !result.Valid() {
		for _, e := range result.Errors() {
			t.Logf("schema error: %s", e)
		}
		t.Fatalf("manifest does not conform to schema")
	}
}
