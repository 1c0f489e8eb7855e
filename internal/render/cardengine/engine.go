// Package cardengine renders the GitHub profile card video. It rasterizes
// composition frames with gg and muxes them into MP4 with ffmpeg.
package cardengine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"gitreel/internal/pkg/errors"
	"gitreel/internal/pkg/logger"
	"gitreel/internal/render"
)

// manifestFileName is the template descriptor inside a template bundle dir.
const manifestFileName = "template.json"

// manifest is the parsed template.json.
type manifest struct {
	Compositions []render.Composition `json:"compositions"`
	// Font is an optional TTF path relative to the bundle dir.
	Font string `json:"font,omitempty"`
	// Audio is an optional soundtrack path relative to the bundle dir.
	Audio string `json:"audio,omitempty"`
}

// bundle is a validated template dir plus its parsed manifest.
type bundle struct {
	dir      string
	manifest manifest
}

func (b *bundle) Dir() string { return b.dir }

// Engine implements render.Engine for profile card templates.
type Engine struct {
	log     *logger.Logger
	bundles *gocache.Cache
}

// Option configures an Engine.
type Option func(*Engine)

// WithBundleTTL overrides how long prepared bundles stay cached.
func WithBundleTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.bundles = gocache.New(ttl, 2*ttl)
	}
}

// New builds an Engine. Bundles are cached for five minutes so repeated
// renders skip re-reading the template from disk.
func New(log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		log:     log.WithComponent("cardengine"),
		bundles: gocache.New(5*time.Minute, 10*time.Minute),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Bundle validates the template dir and parses its manifest. Results are
// cached by directory path.
func (e *Engine) Bundle(ctx context.Context, templateDir string) (render.Bundle, error) {
	const op = "cardengine.Bundle"

	if cached, ok := e.bundles.Get(templateDir); ok {
		return cached.(*bundle), nil
	}

	info, err := os.Stat(templateDir)
	if err != nil {
		return nil, errors.Wrap(err, op, fmt.Sprintf("template directory %q is not readable", templateDir))
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.CodeInternal, "template path %q is not a directory", templateDir)
	}

	raw, err := os.ReadFile(filepath.Join(templateDir, manifestFileName))
	if err != nil {
		return nil, errors.Wrap(err, op, "reading template manifest")
	}

	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrap(err, op, "parsing template manifest")
	}
	if len(m.Compositions) == 0 {
		return nil, errors.New(errors.CodeInternal, "template manifest defines no compositions")
	}
	for _, c := range m.Compositions {
		if c.Width <= 0 || c.Height <= 0 || c.FPS <= 0 || c.DurationInFrames <= 0 {
			return nil, errors.Newf(errors.CodeInternal,
				"composition %q has invalid dimensions or timing", c.ID)
		}
	}

	b := &bundle{dir: templateDir, manifest: m}
	e.bundles.Set(templateDir, b, gocache.DefaultExpiration)

	e.log.FromContext(ctx).Debug("template bundled",
		"dir", templateDir, "compositions", len(m.Compositions))
	return b, nil
}

// Compositions lists the compositions the bundle defines. Input props do not
// affect the card template's composition list.
func (e *Engine) Compositions(ctx context.Context, b render.Bundle, props render.InputProps) ([]render.Composition, error) {
	cb, ok := b.(*bundle)
	if !ok {
		return nil, errors.New(errors.CodeInternal, "bundle was not produced by this engine")
	}
	return cb.manifest.Compositions, nil
}
