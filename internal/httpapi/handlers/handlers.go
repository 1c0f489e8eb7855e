// Package handlers implements the HTTP endpoints of the gitreel service.
package handlers

import (
	"context"

	"gitreel/internal/github"
	"gitreel/internal/pkg/logger"
	"gitreel/internal/render"
)

// VideoRenderer runs the full render pipeline for one login.
type VideoRenderer interface {
	Run(ctx context.Context, login string) (*render.Result, error)
}

// ProfileResolver checks a login against the cache and the GitHub API.
type ProfileResolver interface {
	Resolve(ctx context.Context, login string) (github.Profile, error)
}

type Deps struct {
	Log      *logger.Logger
	Pipeline VideoRenderer
	Resolver ProfileResolver
	// TemplateDir is checked by the health endpoint.
	TemplateDir string
}

type Handler struct {
	log         *logger.Logger
	pipeline    VideoRenderer
	resolver    ProfileResolver
	templateDir string
}

func New(d Deps) *Handler {
	return &Handler{
		log:         d.Log.WithComponent("http"),
		pipeline:    d.Pipeline,
		resolver:    d.Resolver,
		templateDir: d.TemplateDir,
	}
}
