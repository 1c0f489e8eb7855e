package cardengine

import (
	"context"
	"fmt"
	"path/filepath"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"gitreel/internal/pkg/errors"
	"gitreel/internal/render"
)

// framePattern matches the files RenderFrames writes.
const framePattern = "frame-%05d.jpeg"

// Stitch muxes the rendered frames (and optional soundtrack) into an MP4.
func (e *Engine) Stitch(ctx context.Context, req render.StitchRequest) error {
	if err := ctx.Err(); err != nil {
		return errors.StitchFailed(err)
	}

	video := ffmpeg.Input(filepath.Join(req.Dir, framePattern), ffmpeg.KwArgs{
		"framerate": req.FPS,
	})

	streams := []*ffmpeg.Stream{video}
	outputKwargs := ffmpeg.KwArgs{
		"c:v":      "libx264",
		"pix_fmt":  "yuv420p",
		"movflags": "+faststart",
		"r":        req.FPS,
		"s":        fmt.Sprintf("%dx%d", req.Width, req.Height),
		"threads":  optimalThreadCount(),
	}

	if req.Assets != nil && req.Assets.AudioPath != "" {
		streams = append(streams, ffmpeg.Input(req.Assets.AudioPath))
		outputKwargs["c:a"] = "aac"
		outputKwargs["shortest"] = ""
	}

	cmd := ffmpeg.Output(streams, req.OutputPath, outputKwargs).Silent(true)
	if req.Force {
		cmd = cmd.OverWriteOutput()
	}

	e.log.FromContext(ctx).Debug("stitching frames",
		"dir", req.Dir, "fps", req.FPS, "output", req.OutputPath)

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.StitchFailed(ctxErr)
		}
		return errors.StitchFailed(err)
	}
	return nil
}
