package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jmylchreest/gazeta/pkg/fetcher"
)

func TestFlareSolverr_Solve(t *testing.T) {
	var got flareRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q, want application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"message": "",
			"solution": map[string]any{
				"url":      "https://www.lemonde.fr/article",
				"status":   200,
				"response": "<html><head><title>Un article</title></head></html>",
				"cookies": []map[string]string{
					{"name": "cf_clearance", "value": "tok123", "domain": ".lemonde.fr"},
				},
				"userAgent": "Mozilla/5.0",
			},
			"startTimestamp": 1000.0,
			"endTimestamp":   3500.0,
		})
	}))
	defer srv.Close()

	sol, err := NewFlareSolverr(srv.URL).Solve(context.Background(), "https://www.lemonde.fr/article", "www-lemonde-fr")
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	if got.Cmd != "request.get" {
		t.Errorf("cmd = %q, want request.get", got.Cmd)
	}
	if got.Session != "www-lemonde-fr" {
		t.Errorf("session = %q, want www-lemonde-fr", got.Session)
	}
	if got.MaxTimeout != 60000 {
		t.Errorf("maxTimeout = %d, want 60000", got.MaxTimeout)
	}

	if sol.Status != 200 {
		t.Errorf("solution status = %d, want 200", sol.Status)
	}
	if !strings.Contains(sol.Response, "Un article") {
		t.Errorf("solution response = %q", sol.Response)
	}
	cookies := sol.cookies()
	if len(cookies) != 1 || cookies[0].Name != "cf_clearance" || cookies[0].Domain != ".lemonde.fr" {
		t.Errorf("cookies = %+v", cookies)
	}
}

func TestFlareSolverr_SolveFailures(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    error
	}{
		{"solve timeout", "Maximum timeout reached while solving the challenge", fetcher.ErrChallengeTimeout},
		{"unsolved challenge", "Challenge could not be solved", fetcher.ErrCaptchaChallenge},
		{"turnstile", "Cloudflare Turnstile detected", fetcher.ErrCaptchaChallenge},
		{"generic block", "Error: the request was refused", fetcher.ErrAntiBot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"status": "error", "message": tt.message})
			}))
			defer srv.Close()

			_, err := NewFlareSolverr(srv.URL).Solve(context.Background(), "https://www.blocked.fr/a", "")
			if !errors.Is(err, tt.want) {
				t.Errorf("Solve() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFlareSolverr_SolveNoSolution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "ok", "message": ""})
	}))
	defer srv.Close()

	_, err := NewFlareSolverr(srv.URL).Solve(context.Background(), "https://www.blocked.fr/a", "")
	if !errors.Is(err, fetcher.ErrAntiBot) {
		t.Errorf("Solve() error = %v, want %v", err, fetcher.ErrAntiBot)
	}
}

func TestFlareSolverr_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewFlareSolverr(url).Solve(context.Background(), "https://www.x.fr/a", "")
	if !errors.Is(err, ErrFlareSolverrUnavailable) {
		t.Errorf("Solve() error = %v, want %v", err, ErrFlareSolverrUnavailable)
	}
}

func TestFlareSolverr_Sessions(t *testing.T) {
	var cmds []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req flareRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		cmds = append(cmds, req.Cmd)
		if req.Session != "www-bzi-ro" {
			t.Errorf("session = %q, want www-bzi-ro", req.Session)
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "ok", "session": req.Session})
	}))
	defer srv.Close()

	fs := NewFlareSolverr(srv.URL)
	if err := fs.CreateSession(context.Background(), "www-bzi-ro"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	fs.DestroySession(context.Background(), "www-bzi-ro")

	want := []string{"sessions.create", "sessions.destroy"}
	if len(cmds) != 2 || cmds[0] != want[0] || cmds[1] != want[1] {
		t.Errorf("commands = %v, want %v", cmds, want)
	}
}

func TestFlareSolverr_CreateSessionRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "error", "message": "session limit reached"})
	}))
	defer srv.Close()

	err := NewFlareSolverr(srv.URL).CreateSession(context.Background(), "s1")
	if err == nil || !strings.Contains(err.Error(), "session limit reached") {
		t.Errorf("CreateSession() error = %v, want session limit message", err)
	}
}
