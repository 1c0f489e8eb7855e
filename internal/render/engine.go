package render

import "context"

// Engine is the rendering backend the pipeline drives. The production
// implementation lives in the cardengine package; tests substitute fakes.
type Engine interface {
	// Bundle prepares the template at templateDir for rendering.
	Bundle(ctx context.Context, templateDir string) (Bundle, error)

	// Compositions lists the compositions the bundle defines, evaluated
	// against the given input props.
	Compositions(ctx context.Context, b Bundle, props InputProps) ([]Composition, error)

	// RenderFrames rasterizes every frame of the composition into
	// req.OutputDir as sequentially numbered JPEG files.
	RenderFrames(ctx context.Context, req FrameRequest) (*AssetsInfo, error)

	// Stitch muxes the rendered frames into an MP4 at req.OutputPath.
	Stitch(ctx context.Context, req StitchRequest) error
}
