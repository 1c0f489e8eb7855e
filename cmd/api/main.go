package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"gitreel/internal/github"
	"gitreel/internal/history"
	"gitreel/internal/httpapi"
	"gitreel/internal/pkg/logger"
	"gitreel/internal/pkg/shutdown"
	"gitreel/internal/render"
	"gitreel/internal/render/cardengine"
)

func main() {
	// .env is optional, real deployments set the environment directly.
	_ = godotenv.Load()

	log := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Format:      getEnv("LOG_FORMAT", "json"),
		ServiceName: "gitreel-api",
		AddSource:   getEnv("LOG_SOURCE", "false") == "true",
	})

	log.Info("starting gitreel API",
		"version", "0.1.0",
	)

	httpPort := getEnv("HTTP_PORT", "8080")
	templateDir := getEnv("TEMPLATE_DIR", "./templates/github-card")
	compositionID := getEnv("COMPOSITION_ID", "GitHub")
	apiBase := getEnv("GITHUB_API_BASE", github.DefaultAPIBase)
	stageTimeout := getDuration(log, "RENDER_TIMEOUT", 2*time.Minute)
	maxRenders := getInt(log, "MAX_CONCURRENT_RENDERS", 2)

	ctx := context.Background()

	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	// Render history is optional. Without a database the service still
	// renders, it just keeps no job records.
	var recorder history.Recorder = history.NopRecorder{}
	if dbURL := getEnv("DATABASE_URL", ""); dbURL != "" {
		log.Info("connecting to PostgreSQL")
		pg, err := history.NewPostgresRecorder(ctx, dbURL, log)
		if err != nil {
			log.LogFatal("failed to connect to PostgreSQL", err)
		}
		shutdownMgr.Register("postgres", func(ctx context.Context) error {
			pg.Close()
			return nil
		})
		recorder = pg
		log.Info("render history enabled")
	}

	resolver := github.NewResolver(github.NewStaticCache(), log,
		github.WithAPIBase(apiBase))

	engine := cardengine.New(log)

	pipeline := render.NewPipeline(resolver, engine, recorder, log, render.Config{
		TemplateDir:   templateDir,
		CompositionID: compositionID,
		StageTimeout:  stageTimeout,
	})

	router := httpapi.NewRouter(httpapi.Deps{
		Log:                  log,
		Pipeline:             pipeline,
		Resolver:             resolver,
		TemplateDir:          templateDir,
		MaxConcurrentRenders: maxRenders,
	})

	server := &http.Server{
		Addr:        "0.0.0.0:" + httpPort,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// A render plus the streamed download has to fit in the write
		// window, so it is much longer than usual.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening",
			"addr", server.Addr,
			"template_dir", templateDir,
			"composition", compositionID,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	shutdownMgr.Wait()
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	return v
}

// getDuration parses a duration environment variable or exits on garbage.
func getDuration(log *logger.Logger, key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.LogFatal("invalid duration in environment", err, "key", key, "value", v)
	}
	return d
}

// getInt parses an integer environment variable or exits on garbage.
func getInt(log *logger.Logger, key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.LogFatal("invalid integer in environment", err, "key", key, "value", v)
	}
	return n
}
