package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gitreel/internal/pkg/errors"
	"gitreel/internal/pkg/logger"
)

// DefaultAPIBase is the public GitHub REST API endpoint.
const DefaultAPIBase = "https://api.github.com"

// Resolver turns a login into a Profile, consulting the static cache before
// calling the GitHub API. A resolve makes at most one network request.
type Resolver struct {
	cache   *Cache
	client  *http.Client
	apiBase string
	log     *logger.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) { r.client = c }
}

// WithAPIBase overrides the GitHub API base URL.
func WithAPIBase(base string) ResolverOption {
	return func(r *Resolver) { r.apiBase = base }
}

// NewResolver builds a Resolver over the given cache.
func NewResolver(cache *Cache, log *logger.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		cache:   cache,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiBase: DefaultAPIBase,
		log:     log.WithComponent("github"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the profile for login. Cached logins never touch the
// network. A 403 from the API maps to a rate-limit error, any other non-200
// to a user-not-found error.
func (r *Resolver) Resolve(ctx context.Context, login string) (Profile, error) {
	const op = "github.Resolve"

	if login == "" {
		return Profile{}, errors.ValidationField("login", "login must not be empty")
	}

	if p, ok := r.cache.Find(login); ok {
		r.log.FromContext(ctx).Debug("profile served from cache", "login", login)
		return p, nil
	}

	url := fmt.Sprintf("%s/users/%s", r.apiBase, login)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Profile{}, errors.Wrap(err, op, "building GitHub API request")
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Profile{}, errors.Wrap(err, op, "calling GitHub API")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return Profile{}, errors.RateLimited()
	case resp.StatusCode != http.StatusOK:
		r.log.FromContext(ctx).Warn("GitHub API lookup failed",
			"login", login, "status", resp.StatusCode)
		return Profile{}, errors.UserNotFound(login)
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Profile{}, errors.Wrap(err, op, "decoding GitHub API response")
	}

	r.log.FromContext(ctx).Info("profile resolved from GitHub API",
		"login", p.Login, "followers", p.Followers)
	return p, nil
}
