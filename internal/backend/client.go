/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"goturtle/internal/config"
	"goturtle/internal/domain"
	"goturtle/internal/export"
	"goturtle/internal/script"
)

// Client is a minimal HTTP client for the program gallery API.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new backend client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	b := strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientFromConfig applies the configured timeout and TLS settings.
func NewClientFromConfig(cfg config.BackendConfig, token string) *Client {
	c := NewClient(cfg.BaseURL, token)
	c.client.Timeout = cfg.Timeout()
	if cfg.TLSInsecure {
		c.client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // opt-in for self-signed dev servers
		}
	}
	return c
}

// DiagnosticsError is returned when the server rejects a program as malformed.
type DiagnosticsError struct {
	Diagnostics []script.Diagnostic
}

func (e *DiagnosticsError) Error() string {
	return fmt.Sprintf("program has %d syntax error(s)", len(e.Diagnostics))
}

// StatusError is any other non-2xx response.
type StatusError struct {
	Method, Path string
	Status       string
	Code         int
	Message      string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server %s %s: %s: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("server %s %s: %s", e.Method, e.Path, e.Status)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte) (*http.Response, error) {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, err
	}
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if resp.StatusCode == http.StatusUnprocessableEntity {
		var cr CheckResult
		if json.Unmarshal(b, &cr) == nil && len(cr.Diagnostics) > 0 {
			return nil, &DiagnosticsError{Diagnostics: cr.Diagnostics}
		}
	}
	var e struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(b, &e)
	return nil, &StatusError{Method: method, Path: u.Path, Status: resp.Status, Code: resp.StatusCode, Message: e.Error}
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, dest any) error {
	var body []byte
	ct := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body, ct = b, "application/json"
	}
	resp, err := c.do(ctx, method, path, ct, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// RequestToken asks the server for a bearer token for subject.
func (c *Client) RequestToken(ctx context.Context, subject string) (TokenResponse, error) {
	var tr TokenResponse
	in := map[string]any{"subject": subject}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/token", in, &tr); err != nil {
		return TokenResponse{}, err
	}
	return tr, nil
}

// Check validates source remotely. Malformed programs yield their
// diagnostics and a nil error.
func (c *Client) Check(ctx context.Context, source string) ([]domain.Op, []script.Diagnostic, error) {
	var cr CheckResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/check", map[string]string{"source": source}, &cr); err != nil {
		return nil, nil, err
	}
	if !cr.OK {
		return nil, cr.Diagnostics, nil
	}
	ops, err := domain.UnmarshalOps(cr.Ops)
	if err != nil {
		return nil, nil, fmt.Errorf("decode ops: %w", err)
	}
	return ops, nil, nil
}

// Render returns source rendered by the server in format f.
func (c *Client) Render(ctx context.Context, source string, f export.Format) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/render?format="+url.QueryEscape(string(f)), "text/plain; charset=utf-8", []byte(source))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// Publish uploads a program under name. Requires a token.
func (c *Client) Publish(ctx context.Context, name, source string) (Program, error) {
	var p Program
	if err := c.doJSON(ctx, http.MethodPost, "/api/programs", PublishRequest{Name: name, Source: source}, &p); err != nil {
		return Program{}, err
	}
	return p, nil
}

// ListPrograms returns published programs, newest first.
func (c *Client) ListPrograms(ctx context.Context, limit int) ([]Program, error) {
	path := "/api/programs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var list []Program
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetProgram fetches one program including its source.
func (c *Client) GetProgram(ctx context.Context, id int64) (Program, error) {
	var p Program
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/programs/%d", id), nil, &p); err != nil {
		return Program{}, err
	}
	return p, nil
}
