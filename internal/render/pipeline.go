package render

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"gitreel/internal/github"
	"gitreel/internal/history"
	"gitreel/internal/pkg/errors"
	"gitreel/internal/pkg/logger"
)

// outputFileName is the fixed name of the stitched video inside the workdir.
const outputFileName = "out.mp4"

// Config holds pipeline settings.
type Config struct {
	// TemplateDir is the template bundle directory.
	TemplateDir string
	// CompositionID selects which composition in the bundle to render.
	CompositionID string
	// StageTimeout bounds each pipeline stage. Zero disables the bound.
	StageTimeout time.Duration
	// Parallelism limits concurrent frame rasterization, zero lets the
	// engine decide.
	Parallelism int
}

// Pipeline runs the full render for one login.
type Pipeline struct {
	resolver *github.Resolver
	engine   Engine
	recorder history.Recorder
	log      *logger.Logger
	cfg      Config
}

// NewPipeline wires a pipeline. A nil recorder disables history recording.
func NewPipeline(resolver *github.Resolver, engine Engine, recorder history.Recorder, log *logger.Logger, cfg Config) *Pipeline {
	if recorder == nil {
		recorder = history.NopRecorder{}
	}
	if cfg.CompositionID == "" {
		cfg.CompositionID = "GitHub"
	}
	return &Pipeline{
		resolver: resolver,
		engine:   engine,
		recorder: recorder,
		log:      log.WithComponent("pipeline"),
		cfg:      cfg,
	}
}

// Result is a finished render ready to stream. The caller owns the stream
// and must call Cleanup after draining it.
type Result struct {
	Stream      io.ReadCloser
	Size        int64
	ContentType string
	WorkDir     string

	log *logger.Logger
}

// Cleanup closes the stream and removes the work directory. Safe to call
// more than once.
func (r *Result) Cleanup() {
	if r.Stream != nil {
		_ = r.Stream.Close()
		r.Stream = nil
	}
	if r.WorkDir != "" {
		if err := os.RemoveAll(r.WorkDir); err != nil && r.log != nil {
			r.log.Warn("failed to remove work directory", "dir", r.WorkDir, "error", err.Error())
		}
		r.WorkDir = ""
	}
}

// Run renders the video for login. On any failure the work directory is
// removed before the error is returned, so failed jobs never leak disk.
func (p *Pipeline) Run(ctx context.Context, login string) (*Result, error) {
	jobID := uuid.NewString()
	ctx = logger.ContextWithJobID(ctx, jobID)
	log := p.log.FromContext(ctx).WithLogin(login)

	start := time.Now()
	p.recorder.Started(ctx, jobID, login)
	log.Info("render job started")

	var profile github.Profile
	err := p.stage(ctx, "pipeline.resolve", func(ctx context.Context) error {
		var err error
		profile, err = p.resolver.Resolve(ctx, login)
		return err
	})
	if err != nil {
		return nil, p.fail(ctx, log, jobID, "", err)
	}

	props := InputProps{Data: profile}

	var bundle Bundle
	err = p.stage(ctx, "pipeline.bundle", func(ctx context.Context) error {
		var err error
		bundle, err = p.engine.Bundle(ctx, p.cfg.TemplateDir)
		return err
	})
	if err != nil {
		return nil, p.fail(ctx, log, jobID, "", err)
	}

	var comp Composition
	err = p.stage(ctx, "pipeline.locate", func(ctx context.Context) error {
		comps, err := p.engine.Compositions(ctx, bundle, props)
		if err != nil {
			return err
		}
		comp, err = FindComposition(comps, p.cfg.CompositionID)
		return err
	})
	if err != nil {
		return nil, p.fail(ctx, log, jobID, "", err)
	}

	workDir, err := os.MkdirTemp("", "gitreel-")
	if err != nil {
		return nil, p.fail(ctx, log, jobID, "", errors.IOFailure(err))
	}

	var assets *AssetsInfo
	err = p.stage(ctx, "pipeline.render", func(ctx context.Context) error {
		log.Info("rendering frames", "frames", comp.DurationInFrames,
			"width", comp.Width, "height", comp.Height)
		var err error
		assets, err = p.engine.RenderFrames(ctx, FrameRequest{
			Composition: comp,
			Bundle:      bundle,
			InputProps:  props,
			OutputDir:   workDir,
			Parallelism: p.cfg.Parallelism,
			OnFrame: func(frame int) {
				if frame%10 == 0 {
					log.Debug("rendered frame", "frame", frame)
				}
			},
		})
		return err
	})
	if err != nil {
		return nil, p.fail(ctx, log, jobID, workDir, err)
	}

	outputPath := filepath.Join(workDir, outputFileName)
	err = p.stage(ctx, "pipeline.stitch", func(ctx context.Context) error {
		return p.engine.Stitch(ctx, StitchRequest{
			Dir:        workDir,
			FPS:        comp.FPS,
			Width:      comp.Width,
			Height:     comp.Height,
			OutputPath: outputPath,
			Assets:     assets,
			Force:      true,
		})
	})
	if err != nil {
		return nil, p.fail(ctx, log, jobID, workDir, err)
	}

	stream, size, err := openVideo(outputPath)
	if err != nil {
		return nil, p.fail(ctx, log, jobID, workDir, err)
	}

	took := time.Since(start)
	p.recorder.Completed(ctx, jobID, size, took)
	log.Info("render job completed", "size_bytes", size, "took_ms", took.Milliseconds())

	return &Result{
		Stream:      stream,
		Size:        size,
		ContentType: "video/mp4",
		WorkDir:     workDir,
		log:         log,
	}, nil
}

// stage runs fn under the configured stage timeout and maps a deadline hit
// to a timeout error carrying the stage name.
func (p *Pipeline) stage(ctx context.Context, op string, fn func(context.Context) error) error {
	if p.cfg.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.StageTimeout)
		defer cancel()
	}

	err := fn(ctx)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return errors.Timeout(op)
	}
	return err
}

// fail records the failure and removes the work directory, keeping the
// original error intact.
func (p *Pipeline) fail(ctx context.Context, log *logger.Logger, jobID, workDir string, err error) error {
	if workDir != "" {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			log.Warn("failed to remove work directory", "dir", workDir, "error", rmErr.Error())
		}
	}
	p.recorder.Failed(ctx, jobID, errors.GetMessage(err))
	log.LogError(ctx, "render job failed", err)
	return err
}
