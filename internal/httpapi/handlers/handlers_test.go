package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"gitreel/internal/github"
	"gitreel/internal/pkg/errors"
	"gitreel/internal/pkg/logger"
	"gitreel/internal/render"
)

func newTestLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json", Output: io.Discard})
}

// closeRecorder tracks whether the result stream was closed after serving.
type closeRecorder struct {
	io.Reader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

// fakePipeline returns a canned result or error.
type fakePipeline struct {
	result *render.Result
	err    error

	gotLogin string
}

func (p *fakePipeline) Run(ctx context.Context, login string) (*render.Result, error) {
	p.gotLogin = login
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

// fakeResolver accepts a fixed set of logins and fails everything else.
type fakeResolver struct {
	known       map[string]github.Profile
	rateLimited bool
}

func (f *fakeResolver) Resolve(ctx context.Context, login string) (github.Profile, error) {
	if f.rateLimited {
		return github.Profile{}, errors.RateLimited()
	}
	if p, ok := f.known[login]; ok {
		return p, nil
	}
	return github.Profile{}, errors.UserNotFound(login)
}

func newTestHandler(p VideoRenderer, templateDir string) *Handler {
	resolver := &fakeResolver{known: map[string]github.Profile{
		"mjackson": {Login: "mjackson", Followers: 7200},
		"octocat":  {Login: "octocat", Followers: 4242},
	}}
	return New(Deps{Log: newTestLogger(), Pipeline: p, Resolver: resolver, TemplateDir: templateDir})
}

// videoRequest builds a request carrying the chi URL param the handler reads.
func videoRequest(login string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/video/"+login, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("username", login)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestGetVideo(t *testing.T) {
	stream := &closeRecorder{Reader: strings.NewReader("mp4-bytes")}
	p := &fakePipeline{result: &render.Result{
		Stream:      stream,
		Size:        9,
		ContentType: "video/mp4",
	}}

	h := newTestHandler(p, "")
	rec := httptest.NewRecorder()
	h.GetVideo(rec, videoRequest("mjackson"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if p.gotLogin != "mjackson" {
		t.Errorf("expected pipeline to run for mjackson, got %q", p.gotLogin)
	}
	if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("expected Content-Type video/mp4, got %q", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "9" {
		t.Errorf("expected Content-Length 9, got %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "private, max-age=3600" {
		t.Errorf("expected private cache header, got %q", got)
	}
	if rec.Body.String() != "mp4-bytes" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
	if !stream.closed {
		t.Error("expected result stream to be closed after serving")
	}
}

func TestGetVideoFailures(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "unknown user",
			err:         errors.UserNotFound("nobody-here"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: `could not find GitHub user "nobody-here", make sure the name in the URL is right`,
		},
		{
			name:        "rate limited",
			err:         errors.RateLimited(),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "GitHub API rate limit exceeded, please try again later",
		},
		{
			name:        "missing composition",
			err:         errors.CompositionNotFound("GitHub"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: `no composition called "GitHub" in the template bundle`,
		},
		{
			name:        "stitch failure",
			err:         errors.StitchFailed(io.ErrUnexpectedEOF),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "video stitching failed",
		},
		{
			name:        "stage timeout",
			err:         errors.Timeout("pipeline.render"),
			wantStatus:  http.StatusGatewayTimeout,
			wantMessage: "operation timed out: pipeline.render",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&fakePipeline{err: tt.err}, "")
			rec := httptest.NewRecorder()
			h.GetVideo(rec, videoRequest("nobody-here"))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
				t.Errorf("expected text/plain error body, got %q", ct)
			}
			if rec.Body.String() != tt.wantMessage {
				t.Errorf("expected body %q, got %q", tt.wantMessage, rec.Body.String())
			}
		})
	}
}

func TestPostUsername(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		wantKey string
		wantVal string
	}{
		{
			name:    "valid username",
			form:    url.Values{"githubUsername": {"mjackson"}},
			wantKey: "username",
			wantVal: "mjackson",
		},
		{
			name:    "whitespace trimmed",
			form:    url.Values{"githubUsername": {"  octocat  "}},
			wantKey: "username",
			wantVal: "octocat",
		},
		{
			name:    "missing username",
			form:    url.Values{},
			wantKey: "error",
			wantVal: "please enter a GitHub username",
		},
		{
			name:    "blank username",
			form:    url.Values{"githubUsername": {"   "}},
			wantKey: "error",
			wantVal: "please enter a GitHub username",
		},
		{
			name:    "unknown username",
			form:    url.Values{"githubUsername": {"nobody-here"}},
			wantKey: "error",
			wantVal: "not a valid GitHub username",
		},
	}

	h := newTestHandler(&fakePipeline{}, "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/username", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()

			h.PostUsername(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("parsing response: %v", err)
			}
			if body[tt.wantKey] != tt.wantVal {
				t.Errorf("expected %s=%q, got %v", tt.wantKey, tt.wantVal, body)
			}
		})
	}
}

func TestPostUsernameRateLimited(t *testing.T) {
	resolver := &fakeResolver{rateLimited: true}
	h := New(Deps{Log: newTestLogger(), Pipeline: &fakePipeline{}, Resolver: resolver})

	form := url.Values{"githubUsername": {"anyone"}}
	req := httptest.NewRequest(http.MethodPost, "/api/username", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.PostUsername(rec, req)

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if !strings.Contains(strings.ToLower(body["error"]), "rate limit") {
		t.Errorf("expected rate limit error, got %v", body)
	}
}

func TestHealth(t *testing.T) {
	h := newTestHandler(&fakePipeline{}, t.TempDir())
	rec := httptest.NewRecorder()

	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}

func TestHealthDeepMissingTemplate(t *testing.T) {
	h := newTestHandler(&fakePipeline{}, t.TempDir())
	rec := httptest.NewRecorder()

	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health?deep=true", nil))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	// The temp dir has no template.json, so a deep check must degrade.
	if body["status"] != "degraded" {
		t.Errorf("expected degraded status, got %v", body["status"])
	}
}
