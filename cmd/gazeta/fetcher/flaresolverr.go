package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jmylchreest/gazeta/internal/logger"
	"github.com/jmylchreest/gazeta/pkg/fetcher"
)

// ErrFlareSolverrUnavailable means the FlareSolverr service could not
// be reached at all.
var ErrFlareSolverrUnavailable = errors.New("FlareSolverr service unavailable")

// FlareSolverr is a client for the FlareSolverr API, a proxy that
// drives a real browser to pass Cloudflare challenges.
type FlareSolverr struct {
	baseURL    string
	httpClient *http.Client
	maxTimeout int // milliseconds, challenge solve budget
}

// NewFlareSolverr creates a client for the service at baseURL.
func NewFlareSolverr(baseURL string) *FlareSolverr {
	return &FlareSolverr{
		baseURL: baseURL,
		httpClient: &http.Client{
			// Challenge solving regularly takes tens of seconds.
			Timeout: 120 * time.Second,
		},
		maxTimeout: 60000,
	}
}

type flareRequest struct {
	Cmd        string `json:"cmd"`
	URL        string `json:"url,omitempty"`
	Session    string `json:"session,omitempty"`
	MaxTimeout int    `json:"maxTimeout,omitempty"`
}

type SolutionCookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
}

type Solution struct {
	URL       string           `json:"url"`
	Status    int              `json:"status"`
	Response  string           `json:"response"`
	Cookies   []SolutionCookie `json:"cookies"`
	UserAgent string           `json:"userAgent"`
}

type flareResponse struct {
	Status   string    `json:"status"`
	Message  string    `json:"message"`
	Solution *Solution `json:"solution,omitempty"`
	StartTS  float64   `json:"startTimestamp"`
	EndTS    float64   `json:"endTimestamp"`
}

// post sends one API command and decodes the reply into out.
// FlareSolverr answers errors with a JSON body on non-200 statuses, so
// the body is decoded regardless of status code.
func (f *FlareSolverr) post(ctx context.Context, req flareRequest, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling FlareSolverr request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building FlareSolverr request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFlareSolverrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading FlareSolverr response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing FlareSolverr response (HTTP %d): %w", resp.StatusCode, err)
	}
	return nil
}

// Solve fetches targetURL through FlareSolverr. With a sessionID the
// request reuses a persistent browser instance, so one domain solves
// its challenge once.
func (f *FlareSolverr) Solve(ctx context.Context, targetURL, sessionID string) (*Solution, error) {
	var resp flareResponse
	err := f.post(ctx, flareRequest{
		Cmd:        "request.get",
		URL:        targetURL,
		Session:    sessionID,
		MaxTimeout: f.maxTimeout,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Status != "ok" {
		return nil, classifyFlareError(targetURL, resp.Message)
	}
	if resp.Solution == nil {
		return nil, fmt.Errorf("%w: no solution returned", fetcher.ErrAntiBot)
	}

	logger.Debug("FlareSolverr solved",
		"url", targetURL,
		"session", sessionID,
		"status_code", resp.Solution.Status,
		"cookies", len(resp.Solution.Cookies),
		"response_size", len(resp.Solution.Response),
		"duration_s", fmt.Sprintf("%.2f", (resp.EndTS-resp.StartTS)/1000))
	return resp.Solution, nil
}

type sessionResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Session string `json:"session,omitempty"`
}

// CreateSession starts a persistent browser session in FlareSolverr.
func (f *FlareSolverr) CreateSession(ctx context.Context, sessionID string) error {
	var resp sessionResponse
	if err := f.post(ctx, flareRequest{Cmd: "sessions.create", Session: sessionID}, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("session create failed: %s", resp.Message)
	}
	logger.Debug("FlareSolverr session created", "session", sessionID)
	return nil
}

// DestroySession tears a session down. Cleanup failures are logged,
// not returned; an orphaned session only costs FlareSolverr memory.
func (f *FlareSolverr) DestroySession(ctx context.Context, sessionID string) {
	var resp sessionResponse
	if err := f.post(ctx, flareRequest{Cmd: "sessions.destroy", Session: sessionID}, &resp); err != nil {
		logger.Debug("FlareSolverr session destroy failed", "session", sessionID, "error", err)
		return
	}
	if resp.Status != "ok" {
		logger.Debug("FlareSolverr session destroy rejected", "session", sessionID, "message", resp.Message)
	}
}

// classifyFlareError maps a FlareSolverr failure message onto the
// fetcher sentinel errors so callers can tell a solvable timeout from
// a CAPTCHA that needs a human.
func classifyFlareError(url, message string) error {
	msg := strings.ToLower(message)

	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		logger.Warn("FlareSolverr timed out", "url", url, "message", message)
		return fmt.Errorf("%w: %s", fetcher.ErrChallengeTimeout, message)

	case strings.Contains(msg, "could not be solved") ||
		strings.Contains(msg, "unable to solve") ||
		strings.Contains(msg, "failed to solve") ||
		strings.Contains(msg, "captcha") ||
		strings.Contains(msg, "turnstile") ||
		strings.Contains(msg, "hcaptcha") ||
		strings.Contains(msg, "recaptcha") ||
		strings.Contains(msg, "cloudflare") ||
		strings.Contains(msg, "challenge"):
		logger.Warn("FlareSolverr could not pass challenge", "url", url, "message", message)
		return fmt.Errorf("%w: %s", fetcher.ErrCaptchaChallenge, message)

	case strings.Contains(msg, "browser") || strings.Contains(msg, "crashed"):
		logger.Warn("FlareSolverr browser error", "url", url, "message", message)
		return fmt.Errorf("FlareSolverr internal error: %s", message)

	default:
		logger.Warn("FlareSolverr request blocked", "url", url, "message", message)
		return fmt.Errorf("%w: %s", fetcher.ErrAntiBot, message)
	}
}

// cookies converts the solution cookies for handoff to the browser.
func (s *Solution) cookies() []fetcher.Cookie {
	out := make([]fetcher.Cookie, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		out = append(out, fetcher.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain})
	}
	return out
}
