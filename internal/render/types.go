// Package render orchestrates the video pipeline: bundle the template,
// locate the composition, rasterize frames into a temp dir, stitch them to
// MP4 and hand the result back as a stream.
package render

import (
	"gitreel/internal/github"
)

// Composition describes a renderable video defined by a template bundle.
type Composition struct {
	ID               string `json:"id"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	FPS              int    `json:"fps"`
	DurationInFrames int    `json:"durationInFrames"`
}

// InputProps carries the data the composition renders.
type InputProps struct {
	Data github.Profile `json:"data"`
}

// Bundle is an opaque handle to a prepared template bundle. Engines return
// their own bundle type from Bundle and receive it back in later calls.
type Bundle interface {
	// Dir returns the directory the bundle was prepared from.
	Dir() string
}

// FrameAsset records one rasterized frame on disk, in render order.
type FrameAsset struct {
	Index int
	Path  string
}

// AssetsInfo collects everything the stitcher needs about rendered frames.
type AssetsInfo struct {
	Frames []FrameAsset
	// AudioPath is the optional soundtrack materialized next to the frames.
	AudioPath string
}

// FrameRequest asks an engine to rasterize every frame of a composition.
type FrameRequest struct {
	Composition Composition
	Bundle      Bundle
	InputProps  InputProps
	// OutputDir is the per-job temp dir frames are written into.
	OutputDir string
	// Parallelism limits concurrent frame rasterization. Zero means the
	// engine picks based on available cores.
	Parallelism int
	// OnFrame is called after each frame completes, with its index.
	OnFrame func(frame int)
}

// StitchRequest asks an engine to mux rendered frames into a video file.
type StitchRequest struct {
	Dir        string
	FPS        int
	Width      int
	Height     int
	OutputPath string
	Assets     *AssetsInfo
	// Force overwrites OutputPath if it already exists.
	Force bool
}
