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
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"goturtle/internal/config"
	"goturtle/internal/domain"
	"goturtle/internal/export"
	applog "goturtle/internal/log"
	"goturtle/internal/script"
	"goturtle/internal/version"
)

const (
	devSecret = "dev-secret-change-me"
	maxBody   = 1 << 20
)

// Server serves the program gallery API:
//
//	GET  /healthz, /readyz, /version
//	POST /api/auth/token            -> {token, expires_at}
//	POST /api/check                 -> {ok, ops | diagnostics}
//	POST /api/render?format=svg     -> image bytes or 422 {diagnostics}
//	POST /api/programs     (auth)   -> 201 Program
//	GET  /api/programs[?limit=N]    -> []Program
//	GET  /api/programs/{id}         -> Program
//
// Program text is accepted as text/plain or as JSON {"source": "..."}.
type Server struct {
	Store  ProgramStore
	Secret string
	// Render configures the surfaces used by /api/render.
	Render export.Options

	log *slog.Logger
}

// NewServer returns a server over store. An empty secret falls back to an
// insecure development secret.
func NewServer(store ProgramStore, secret string) *Server {
	l := applog.WithComponent("backend")
	if secret == "" {
		secret = devSecret
		l.Warn("TURTLE_SERVER_SECRET not set; using insecure dev secret")
	}
	return &Server{Store: store, Secret: secret, Render: export.DefaultOptions(), log: l}
}

// Handler returns the routed, logged HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.Store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(version.String()))
	})
	mux.HandleFunc("POST /api/auth/token", s.handleToken)
	mux.HandleFunc("POST /api/check", s.handleCheck)
	mux.HandleFunc("POST /api/render", s.handleRender)
	mux.HandleFunc("POST /api/programs", withAuth(s.Secret, s.handlePublish))
	mux.HandleFunc("GET /api/programs", s.handleList)
	mux.HandleFunc("GET /api/programs/{id}", s.handleGet)
	return s.logRequests(mux)
}

// TokenResponse is returned by /api/auth/token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	// Optional JSON body: { "subject": "name", "ttl_seconds": 3600 }
	var req struct {
		Subject    string `json:"subject"`
		TTLSeconds int64  `json:"ttl_seconds"`
	}
	b, _ := io.ReadAll(io.LimitReader(r.Body, maxBody))
	_ = json.Unmarshal(b, &req)
	if req.Subject == "" {
		req.Subject = "dev"
	}
	if req.TTLSeconds <= 0 || req.TTLSeconds > 24*3600 {
		req.TTLSeconds = 3600
	}
	exp := time.Now().Add(time.Duration(req.TTLSeconds) * time.Second)
	tok, err := signToken(s.Secret, req.Subject, exp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: tok, ExpiresAt: exp.UTC().Truncate(time.Second)})
}

// CheckResult is returned by /api/check. Exactly one of Ops and Diagnostics
// is set.
type CheckResult struct {
	OK          bool                `json:"ok"`
	Ops         json.RawMessage     `json:"ops,omitempty"`
	Diagnostics []script.Diagnostic `json:"diagnostics,omitempty"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	src, err := readSource(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ops, diags := script.Validate(src)
	if diags != nil {
		writeJSON(w, http.StatusOK, CheckResult{Diagnostics: diags})
		return
	}
	raw, err := domain.MarshalOps(ops)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, CheckResult{OK: true, Ops: raw})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = string(export.FormatSVG)
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	src, err := readSource(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ops, diags := script.Validate(src)
	if diags != nil {
		writeJSON(w, http.StatusUnprocessableEntity, CheckResult{Diagnostics: diags})
		return
	}
	var buf bytes.Buffer
	if _, err := export.Render(ops, f, &buf, s.Render); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// PublishRequest is the body of POST /api/programs.
type PublishRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request, sub string) {
	var req PublishRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}
	ops, diags := script.Validate(req.Source)
	if diags != nil {
		writeJSON(w, http.StatusUnprocessableEntity, CheckResult{Diagnostics: diags})
		return
	}
	p, err := s.Store.Create(r.Context(), Program{Name: req.Name, Author: sub, Source: req.Source, Ops: countOps(ops)})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.log.Info("program published", slog.Int64("id", p.ID), slog.String("author", sub), slog.Int("ops", p.Ops))
	writeJSON(w, http.StatusCreated, p)
}

func countOps(ops []domain.Op) int {
	n := 0
	for _, op := range ops {
		if _, blank := op.(domain.Pass); !blank {
			n++
		}
	}
	return n
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = min(n, 1000)
	}
	list, err := s.Store.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid program id"))
		return
	}
	p, err := s.Store.Get(r.Context(), id)
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, p)
	}
}

// readSource returns the program text from a text/plain or JSON body.
func readSource(r *http.Request) (string, error) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if len(b) > maxBody {
		return "", errors.New("program too large")
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Source string `json:"source"`
		}
		if err := json.Unmarshal(b, &req); err != nil {
			return "", fmt.Errorf("invalid json: %w", err)
		}
		return req.Source, nil
	}
	return string(b), nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("took", time.Since(start)))
	})
}

// Run serves the API on cfg.Addr until ctx is cancelled. Programs go to
// PostgreSQL when cfg.DSN is set and to memory otherwise.
func Run(ctx context.Context, cfg config.ServerConfig, ro export.Options) error {
	l := applog.WithOperation(applog.WithComponent("backend"), "run")
	var store ProgramStore
	if cfg.DSN != "" {
		octx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pg, err := OpenPG(octx, cfg.DSN)
		cancel()
		if err != nil {
			return err
		}
		defer func() {
			if err := pg.Close(); err != nil {
				l.Warn("db close", slog.Any("err", err))
			}
		}()
		store = pg
	} else {
		l.Warn("no database configured; programs are kept in memory")
		store = NewMemoryStore()
	}
	s := NewServer(store, cfg.Secret)
	s.Render = ro
	srv := &http.Server{Addr: cfg.Addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	l.Info("turtleserver listening", slog.String("addr", cfg.Addr))
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// --- Helpers: auth and JSON ---

type tokenClaims struct {
	Sub string `json:"sub"`
	Exp int64  `json:"exp"` // unix seconds
}

func signToken(secret, subject string, exp time.Time) (string, error) {
	b, err := json.Marshal(tokenClaims{Sub: subject, Exp: exp.Unix()})
	if err != nil {
		return "", err
	}
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write(b)
	payload := base64.RawURLEncoding.EncodeToString(b)
	signature := base64.RawURLEncoding.EncodeToString(h.Sum(nil))
	return payload + "." + signature, nil
}

func verifyToken(secret, token string) (string, error) {
	payload, sig, ok := strings.Cut(token, ".")
	if !ok {
		return "", fmt.Errorf("invalid token format")
	}
	payloadB, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("invalid token payload")
	}
	sigB, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", fmt.Errorf("invalid token signature")
	}
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write(payloadB)
	if !hmac.Equal(h.Sum(nil), sigB) {
		return "", fmt.Errorf("bad signature")
	}
	var claims tokenClaims
	if err := json.Unmarshal(payloadB, &claims); err != nil {
		return "", fmt.Errorf("bad claims")
	}
	if claims.Exp < time.Now().Unix() {
		return "", fmt.Errorf("token expired")
	}
	if claims.Sub == "" {
		claims.Sub = "dev"
	}
	return claims.Sub, nil
}

func withAuth(secret string, next func(w http.ResponseWriter, r *http.Request, subject string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if len(auth) < len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}
		sub, err := verifyToken(secret, strings.TrimSpace(auth[len(prefix):]))
		if err != nil {
			writeError(w, http.StatusUnauthorized, fmt.Errorf("invalid token: %w", err))
			return
		}
		next(w, r, sub)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
