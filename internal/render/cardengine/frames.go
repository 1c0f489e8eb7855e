package cardengine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"gitreel/internal/github"
	"gitreel/internal/pkg/errors"
	"gitreel/internal/render"
)

// jpegQuality matches the intermediate frame quality of the stitch step.
const jpegQuality = 90

// avatarClient fetches profile avatars during frame rendering.
var avatarClient = &http.Client{Timeout: 15 * time.Second}

// RenderFrames rasterizes every frame of the composition into
// req.OutputDir as frame-%05d.jpeg files.
func (e *Engine) RenderFrames(ctx context.Context, req render.FrameRequest) (*render.AssetsInfo, error) {
	cb, ok := req.Bundle.(*bundle)
	if !ok {
		return nil, errors.New(errors.CodeInternal, "bundle was not produced by this engine")
	}

	scene, err := e.prepareScene(ctx, cb, req)
	if err != nil {
		return nil, errors.RenderFailed(err)
	}

	workers := req.Parallelism
	if workers <= 0 {
		workers = optimalThreadCount()
	}

	total := req.Composition.DurationInFrames
	assets := &render.AssetsInfo{Frames: make([]render.FrameAsset, total)}

	// Buffered and pre-filled so workers that bail out early never leave
	// a blocked producer behind.
	frames := make(chan int, total)
	for frame := 0; frame < total; frame++ {
		frames <- frame
	}
	close(frames)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for frame := range frames {
				if ctx.Err() != nil {
					setErr(ctx.Err())
					return
				}

				path := filepath.Join(req.OutputDir, fmt.Sprintf("frame-%05d.jpeg", frame))
				if err := scene.renderFrame(frame, path); err != nil {
					setErr(err)
					return
				}
				assets.Frames[frame] = render.FrameAsset{Index: frame, Path: path}

				if req.OnFrame != nil {
					mu.Lock()
					req.OnFrame(frame)
					mu.Unlock()
				}
			}
		}()
	}

	wg.Wait()

	if firstErr != nil {
		return nil, errors.RenderFailed(firstErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.RenderFailed(err)
	}

	if cb.manifest.Audio != "" {
		assets.AudioPath = filepath.Join(cb.dir, cb.manifest.Audio)
	}
	return assets, nil
}

// cardScene holds everything needed to draw any frame of the card.
type cardScene struct {
	comp    render.Composition
	profile github.Profile
	avatar  image.Image
	face    font.Face
}

// prepareScene materializes external inputs (the avatar) into the work dir
// and loads the template font once, before any frame is drawn.
func (e *Engine) prepareScene(ctx context.Context, cb *bundle, req render.FrameRequest) (*cardScene, error) {
	scene := &cardScene{
		comp:    req.Composition,
		profile: req.InputProps.Data,
		face:    basicfont.Face7x13,
	}

	if cb.manifest.Font != "" {
		points := float64(req.Composition.Height) / 12
		face, err := gg.LoadFontFace(filepath.Join(cb.dir, cb.manifest.Font), points)
		if err != nil {
			return nil, fmt.Errorf("loading template font: %w", err)
		}
		scene.face = face
	}

	if url := req.InputProps.Data.AvatarURL; url != "" {
		avatar, err := fetchAvatar(ctx, url, req.OutputDir)
		if err != nil {
			return nil, err
		}
		scene.avatar = avatar
	}

	return scene, nil
}

// fetchAvatar downloads the avatar, keeps a copy in the work dir's inputs
// directory and decodes it.
func fetchAvatar(ctx context.Context, url, workDir string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building avatar request: %w", err)
	}

	resp, err := avatarClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("avatar download returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("downloading avatar: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding avatar: %w", err)
	}

	inputsDir := filepath.Join(workDir, "inputs")
	if err := os.MkdirAll(inputsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating inputs dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(inputsDir, "avatar."+format), raw, 0o644); err != nil {
		return nil, fmt.Errorf("materializing avatar: %w", err)
	}

	return img, nil
}

// renderFrame draws one frame of the card animation and writes it as JPEG.
func (s *cardScene) renderFrame(frame int, path string) error {
	w, h := s.comp.Width, s.comp.Height
	dc := gg.NewContext(w, h)

	// Background.
	dc.SetHexColor("#0d1117")
	dc.Clear()

	progress := easeOutCubic(float64(frame) / float64(max(s.comp.DurationInFrames-1, 1)))

	// Avatar slides in from the left and settles at a fixed anchor.
	avatarSize := float64(h) / 2
	avatarX := float64(w)*0.28 - (1-progress)*avatarSize
	avatarY := float64(h) / 2

	if s.avatar != nil {
		dc.Push()
		dc.DrawCircle(avatarX, avatarY, avatarSize/2)
		dc.Clip()
		scaled := avatarSize / float64(s.avatar.Bounds().Dx())
		dc.Translate(avatarX-avatarSize/2, avatarY-avatarSize/2)
		dc.Scale(scaled, scaled)
		dc.DrawImage(s.avatar, 0, 0)
		dc.Pop()
	} else {
		dc.SetHexColor("#30363d")
		dc.DrawCircle(avatarX, avatarY, avatarSize/2)
		dc.Fill()
	}

	// Avatar ring.
	dc.SetHexColor("#58a6ff")
	dc.SetLineWidth(float64(h) / 90)
	dc.DrawCircle(avatarX, avatarY, avatarSize/2)
	dc.Stroke()

	dc.SetFontFace(s.face)

	// Login fades in with the slide.
	textX := float64(w) * 0.52
	dc.SetRGBA(1, 1, 1, progress)
	dc.DrawStringAnchored(s.profile.Login, textX, float64(h)*0.42, 0, 0.5)

	// Follower count counts up from zero.
	followers := int(math.Round(progress * float64(s.profile.Followers)))
	dc.SetRGBA255(139, 148, 158, int(255*progress))
	dc.DrawStringAnchored(fmt.Sprintf("%d followers", followers), textX, float64(h)*0.58, 0, 0.5)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return jpeg.Encode(f, dc.Image(), &jpeg.Options{Quality: jpegQuality})
}

// easeOutCubic maps linear progress to a decelerating curve.
func easeOutCubic(t float64) float64 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return 1 - math.Pow(1-t, 3)
}

// optimalThreadCount leaves a quarter of the cores for the rest of the
// service.
func optimalThreadCount() int {
	n := runtime.NumCPU() * 3 / 4
	if n < 1 {
		n = 1
	}
	return n
}
