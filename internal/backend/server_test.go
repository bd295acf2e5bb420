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
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"goturtle/internal/domain"
	"goturtle/internal/export"
)

func newTestServer(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	s := NewServer(NewMemoryStore(), "test-secret")
	s.Render = export.Options{Width: 200, Height: 200}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, NewClient(ts.URL+"/", "")
}

func getBody(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func TestProbes(t *testing.T) {
	ts, _ := newTestServer(t)
	if code, body := getBody(t, ts.URL+"/healthz"); code != http.StatusOK || body != "ok" {
		t.Fatalf("healthz: %d %q", code, body)
	}
	if code, body := getBody(t, ts.URL+"/readyz"); code != http.StatusOK || body != "ready" {
		t.Fatalf("readyz: %d %q", code, body)
	}
	if code, body := getBody(t, ts.URL+"/version"); code != http.StatusOK || body == "" {
		t.Fatalf("version: %d %q", code, body)
	}
}

func TestCheck(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()

	ops, diags, err := c.Check(ctx, "pendown\n\nforward 100\n")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if diags != nil || len(ops) != 3 {
		t.Fatalf("ops=%v diags=%v", ops, diags)
	}
	if ops[2] != (domain.Forward{Length: 100}) {
		t.Fatalf("ops[2] = %v", ops[2])
	}

	ops, diags, err = c.Check(ctx, "center\nforwad 10\n")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if ops != nil || len(diags) != 1 || diags[0].StartLine != 2 || diags[0].StartColumn != 1 {
		t.Fatalf("want one diagnostic on line 2, got ops=%v diags=%+v", ops, diags)
	}
}

func TestCheckAcceptsPlainText(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/check", "text/plain", strings.NewReader("penup\n"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(b), `"ok":true`) {
		t.Fatalf("got %d %s", resp.StatusCode, b)
	}
}

func TestRender(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()

	svg, err := c.Render(ctx, "pendown\nforward 50\n", export.FormatSVG)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") || !strings.Contains(string(svg), `d="M100 100 L100 50"`) {
		t.Fatalf("unexpected svg:\n%s", svg)
	}

	png, err := c.Render(ctx, "pendown\nforward 50\n", export.FormatPNG)
	if err != nil {
		t.Fatalf("render png: %v", err)
	}
	if !strings.HasPrefix(string(png), "\x89PNG") {
		t.Fatalf("not a png")
	}

	_, err = c.Render(ctx, "forward x\n", export.FormatSVG)
	var de *DiagnosticsError
	if !errors.As(err, &de) || len(de.Diagnostics) != 1 {
		t.Fatalf("expected diagnostics error, got %v", err)
	}

	_, err = c.Render(ctx, "center\n", export.Format("gif"))
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestPublishRequiresToken(t *testing.T) {
	_, c := newTestServer(t)
	_, err := c.Publish(context.Background(), "square", "center\n")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestPublishListGet(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()

	tr, err := c.RequestToken(ctx, "ada")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if tr.Token == "" || !tr.ExpiresAt.After(time.Now()) {
		t.Fatalf("bad token response: %+v", tr)
	}
	c.Token = tr.Token

	src := "pendown\n\nforward 100\nturnright 90\nforward 100\n"
	p, err := c.Publish(ctx, "  corner ", src)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if p.ID == 0 || p.Name != "corner" || p.Author != "ada" || p.Ops != 4 {
		t.Fatalf("unexpected program: %+v", p)
	}
	if _, err := c.Publish(ctx, "second", "center\n"); err != nil {
		t.Fatalf("publish second: %v", err)
	}

	list, err := c.ListPrograms(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Name != "second" || list[1].Source != "" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if list, _ := c.ListPrograms(ctx, 1); len(list) != 1 {
		t.Fatalf("limit not applied: %d", len(list))
	}

	got, err := c.GetProgram(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Source != src {
		t.Fatalf("source = %q", got.Source)
	}

	_, err = c.GetProgram(ctx, 999)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestPublishRejectsBadPrograms(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()
	tr, err := c.RequestToken(ctx, "ada")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	c.Token = tr.Token

	_, err = c.Publish(ctx, "broken", "forward\npenwidth 3 4\n")
	var de *DiagnosticsError
	if !errors.As(err, &de) || len(de.Diagnostics) != 2 {
		t.Fatalf("expected two diagnostics, got %v", err)
	}
	_, err = c.Publish(ctx, " ", "center\n")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty name, got %v", err)
	}
}

func TestVerifyToken(t *testing.T) {
	tok, err := signToken("k", "bob", time.Now().Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if sub, err := verifyToken("k", tok); err != nil || sub != "bob" {
		t.Fatalf("verify: %q %v", sub, err)
	}
	if _, err := verifyToken("other", tok); err == nil {
		t.Fatalf("wrong secret accepted")
	}
	expired, _ := signToken("k", "bob", time.Now().Add(-time.Minute))
	if _, err := verifyToken("k", expired); err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("expired token accepted: %v", err)
	}
	if _, err := verifyToken("k", "garbage"); err == nil {
		t.Fatalf("garbage accepted")
	}
}

func TestNewServerFallsBackToDevSecret(t *testing.T) {
	if s := NewServer(NewMemoryStore(), ""); s.Secret != devSecret {
		t.Fatalf("secret = %q", s.Secret)
	}
}
