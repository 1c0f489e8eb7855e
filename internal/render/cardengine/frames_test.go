package cardengine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"gitreel/internal/github"
	"gitreel/internal/render"
)

// avatarServer serves a small solid PNG like a real avatar endpoint.
func avatarServer(t *testing.T) *httptest.Server {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test avatar: %v", err)
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
}

func testFrameRequest(t *testing.T, engine *Engine, avatarURL string) render.FrameRequest {
	t.Helper()

	dir := writeTemplate(t, validManifest)
	b, err := engine.Bundle(context.Background(), dir)
	if err != nil {
		t.Fatalf("Bundle() error: %v", err)
	}

	return render.FrameRequest{
		Composition: render.Composition{ID: "GitHub", Width: 96, Height: 54, FPS: 24, DurationInFrames: 12},
		Bundle:      b,
		InputProps: render.InputProps{
			Data: github.Profile{AvatarURL: avatarURL, Login: "octocat", Followers: 4242},
		},
		OutputDir: t.TempDir(),
	}
}

func TestRenderFrames(t *testing.T) {
	srv := avatarServer(t)
	defer srv.Close()

	engine := New(newTestLogger())
	req := testFrameRequest(t, engine, srv.URL+"/avatar.png")

	assets, err := engine.RenderFrames(context.Background(), req)
	if err != nil {
		t.Fatalf("RenderFrames() error: %v", err)
	}

	if len(assets.Frames) != 12 {
		t.Fatalf("expected 12 frame assets, got %d", len(assets.Frames))
	}

	for i := 0; i < 12; i++ {
		path := filepath.Join(req.OutputDir, fmt.Sprintf("frame-%05d.jpeg", i))
		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("frame %d missing: %v", i, err)
		}
		img, err := jpeg.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("frame %d is not a valid JPEG: %v", i, err)
		}
		if b := img.Bounds(); b.Dx() != 96 || b.Dy() != 54 {
			t.Errorf("frame %d has size %dx%d, want 96x54", i, b.Dx(), b.Dy())
		}
	}
}

func TestRenderFramesMaterializesAvatar(t *testing.T) {
	srv := avatarServer(t)
	defer srv.Close()

	engine := New(newTestLogger())
	req := testFrameRequest(t, engine, srv.URL+"/avatar.png")

	if _, err := engine.RenderFrames(context.Background(), req); err != nil {
		t.Fatalf("RenderFrames() error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(req.OutputDir, "inputs", "avatar.png")); err != nil {
		t.Errorf("expected materialized avatar in inputs dir: %v", err)
	}
}

func TestRenderFramesWithoutAvatar(t *testing.T) {
	engine := New(newTestLogger())
	req := testFrameRequest(t, engine, "")

	assets, err := engine.RenderFrames(context.Background(), req)
	if err != nil {
		t.Fatalf("RenderFrames() error: %v", err)
	}
	if len(assets.Frames) != 12 {
		t.Errorf("expected 12 frame assets, got %d", len(assets.Frames))
	}
}

func TestRenderFramesAvatarDownloadFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	engine := New(newTestLogger())
	req := testFrameRequest(t, engine, srv.URL+"/missing.png")

	if _, err := engine.RenderFrames(context.Background(), req); err == nil {
		t.Error("expected error when avatar download fails")
	}
}

func TestRenderFramesOnFrameCallback(t *testing.T) {
	engine := New(newTestLogger())
	req := testFrameRequest(t, engine, "")

	var seen []int
	req.OnFrame = func(frame int) { seen = append(seen, frame) }

	if _, err := engine.RenderFrames(context.Background(), req); err != nil {
		t.Fatalf("RenderFrames() error: %v", err)
	}

	if len(seen) != 12 {
		t.Fatalf("expected 12 callbacks, got %d", len(seen))
	}
	sort.Ints(seen)
	for i, frame := range seen {
		if frame != i {
			t.Fatalf("expected each frame reported once, got %v", seen)
		}
	}
}

func TestRenderFramesCancelledContext(t *testing.T) {
	engine := New(newTestLogger())
	req := testFrameRequest(t, engine, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.RenderFrames(ctx, req); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestEaseOutCubic(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{1, 1},
		{-0.5, 0},
		{1.5, 1},
	}
	for _, tt := range tests {
		if got := easeOutCubic(tt.in); got != tt.want {
			t.Errorf("easeOutCubic(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if mid := easeOutCubic(0.5); mid <= 0.5 || mid >= 1 {
		t.Errorf("easeOutCubic(0.5) = %v, want decelerating curve above linear", mid)
	}
}
