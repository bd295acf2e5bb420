/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"goturtle/internal/backend"
	"goturtle/internal/config"
)

type result struct {
	code           int
	stdout, stderr string
}

func setup(t *testing.T) string {
	t.Helper()
	keyring.MockInit()
	dir := t.TempDir()
	t.Setenv(config.EnvConfigPath, filepath.Join(dir, "config.yaml"))
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv("NO_COLOR", "1")
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errb bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &out, &errb)
	return result{code: code, stdout: out.String(), stderr: errb.String()}
}

func writeProgram(t *testing.T, dir, name, text string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestCheck(t *testing.T) {
	dir := setup(t)
	good := writeProgram(t, dir, "good.turtle", "pendown\nforward 10\n")
	bad := writeProgram(t, dir, "bad.turtle", "pendown\nforwad 10\nturnright\n")

	r := runCLI(t, "", "check", good)
	if r.code != 0 || !strings.Contains(r.stdout, "ok (2 line(s))") {
		t.Fatalf("check good: %+v", r)
	}

	r = runCLI(t, "", "check", bad)
	if r.code != 1 {
		t.Fatalf("check bad exit = %d", r.code)
	}
	if !strings.Contains(r.stderr, "bad.turtle:2:1: error:") || !strings.Contains(r.stderr, "2 errors") {
		t.Fatalf("unexpected diagnostics:\n%s", r.stderr)
	}

	r = runCLI(t, "", "check", "--format", "json", bad)
	if r.code != 1 || !strings.Contains(r.stdout, `"startLine": 3`) {
		t.Fatalf("json diagnostics: %+v", r)
	}

	r = runCLI(t, "go 1, 2\n", "check", "--format", "ops", "-")
	if r.code != 0 || strings.TrimSpace(r.stdout) != `[{"op":"go","args":[1,2]}]` {
		t.Fatalf("ops output: %+v", r)
	}

	r = runCLI(t, "", "check", "--format", "xml", good)
	if r.code != 2 || !strings.Contains(r.stderr, "error:") {
		t.Fatalf("bad format flag: %+v", r)
	}
}

func TestRender(t *testing.T) {
	dir := setup(t)
	prog := writeProgram(t, dir, "sq.turtle", "pendown\nforward 50\nturnright 90\nforward 50\n")
	out := filepath.Join(dir, "out", "sq.svg")

	if r := runCLI(t, "", "render", prog, "-o", out, "--width", "200", "--height", "200"); r.code != 0 {
		t.Fatalf("render: %+v", r)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `d="M100 100 L100 50 L150 50"`) {
		t.Fatalf("unexpected svg:\n%s", b)
	}

	r := runCLI(t, "", "render", prog, "--format", "png")
	if r.code != 0 || !strings.HasPrefix(r.stdout, "\x89PNG") {
		t.Fatalf("png to stdout failed: code=%d stderr=%s", r.code, r.stderr)
	}

	r = runCLI(t, "", "render", prog, "--preset", "web", "--out-dir", filepath.Join(dir, "exp"))
	if r.code != 0 || len(strings.Fields(r.stdout)) != 2 {
		t.Fatalf("preset export: %+v", r)
	}

	if r := runCLI(t, "", "render", prog); r.code != 2 {
		t.Fatalf("render without destination should fail: %+v", r)
	}
	bad := writeProgram(t, dir, "bad.turtle", "forward\n")
	if r := runCLI(t, "", "render", bad, "-o", out); r.code != 1 {
		t.Fatalf("render of malformed program: %+v", r)
	}
}

func TestTraceAndReplay(t *testing.T) {
	dir := setup(t)
	prog := writeProgram(t, dir, "line.turtle", "pendown\nforward 20\n")

	r := runCLI(t, "", "trace", prog, "--no-marker")
	if r.code != 0 {
		t.Fatalf("trace: %+v", r)
	}
	lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
	if lines[0] != "clear" || lines[len(lines)-1] != "stroke" {
		t.Fatalf("unexpected trace:\n%s", r.stdout)
	}

	rec := filepath.Join(dir, "line.json")
	if r := runCLI(t, "", "trace", prog, "-o", rec); r.code != 0 {
		t.Fatalf("trace json: %+v", r)
	}
	if r := runCLI(t, "", "replay", rec, "--validate"); r.code != 0 || !strings.Contains(r.stdout, "ok") {
		t.Fatalf("validate: %+v", r)
	}
	png := filepath.Join(dir, "line.png")
	if r := runCLI(t, "", "replay", rec, "-o", png); r.code != 0 {
		t.Fatalf("replay: %+v", r)
	}
	if b, err := os.ReadFile(png); err != nil || !bytes.HasPrefix(b, []byte("\x89PNG")) {
		t.Fatalf("replay output is not a png: %v", err)
	}

	mp := filepath.Join(dir, "line.msgpack")
	if r := runCLI(t, "", "trace", prog, "-o", mp); r.code != 0 {
		t.Fatalf("trace msgpack: %+v", r)
	}
	if r := runCLI(t, "", "replay", mp, "--validate"); r.code != 0 {
		t.Fatalf("validate msgpack: %+v", r)
	}
}

func TestWorkspaceAndHistory(t *testing.T) {
	dir := setup(t)
	ws := filepath.Join(dir, "ws")
	if r := runCLI(t, "", "init", ws, "--name", "demo"); r.code != 0 {
		t.Fatalf("init: %+v", r)
	}
	if r := runCLI(t, "", "history", ws); r.code != 0 || !strings.Contains(r.stdout, "No snapshots.") {
		t.Fatalf("history: %+v", r)
	}
	if r := runCLI(t, "", "history", ws, "--restore", "42"); r.code != 2 || !strings.Contains(r.stderr, "not found") {
		t.Fatalf("restore missing: %+v", r)
	}
	if r := runCLI(t, "", "history", ws, "--rebuild"); r.code != 0 || !strings.Contains(r.stdout, "healthy") {
		t.Fatalf("rebuild: %+v", r)
	}
}

func TestVersion(t *testing.T) {
	setup(t)
	r := runCLI(t, "", "version", "--format", "json")
	if r.code != 0 || !strings.Contains(r.stdout, `"tool": "goturtle"`) {
		t.Fatalf("version: %+v", r)
	}
}

func TestGalleryRoundTrip(t *testing.T) {
	dir := setup(t)
	srv := httptest.NewServer(backend.NewServer(backend.NewMemoryStore(), "cli-secret").Handler())
	defer srv.Close()
	t.Setenv(config.EnvBackendURL, srv.URL)

	prog := writeProgram(t, dir, "zigzag.turtle", "pendown\nforward 10\nturnright 120\nforward 10\n")
	if r := runCLI(t, "", "publish", prog); r.code != 2 || !strings.Contains(r.stderr, "not logged in") {
		t.Fatalf("publish without login: %+v", r)
	}
	if r := runCLI(t, "", "login", "--as", "ada"); r.code != 0 || !strings.Contains(r.stdout, "as ada") {
		t.Fatalf("login: %+v", r)
	}
	r := runCLI(t, "", "publish", prog)
	if r.code != 0 || !strings.Contains(r.stdout, `"zigzag" as #1 (4 op(s))`) {
		t.Fatalf("publish: %+v", r)
	}
	bad := writeProgram(t, dir, "bad.turtle", "forward x\n")
	if r := runCLI(t, "", "publish", bad); r.code != 1 || !strings.Contains(r.stderr, "bad.turtle:1:9") {
		t.Fatalf("publish malformed: %+v", r)
	}
	if r := runCLI(t, "", "gallery"); r.code != 0 || !strings.Contains(r.stdout, "zigzag") || !strings.Contains(r.stdout, "ada") {
		t.Fatalf("gallery: %+v", r)
	}
	if r := runCLI(t, "", "gallery", "1"); r.code != 0 || !strings.HasPrefix(r.stdout, "pendown\n") {
		t.Fatalf("gallery get: %+v", r)
	}
	if r := runCLI(t, "forwad\n", "check", "--remote", "-"); r.code != 1 {
		t.Fatalf("remote check: %+v", r)
	}
	if r := runCLI(t, "", "logout"); r.code != 0 {
		t.Fatalf("logout: %+v", r)
	}
}
