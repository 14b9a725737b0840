package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/goldenstatedata/gr237/config"
	"github.com/goldenstatedata/gr237/internal/datasets"
	"github.com/goldenstatedata/gr237/internal/files"
	"github.com/goldenstatedata/gr237/internal/pipeline"
	"github.com/goldenstatedata/gr237/internal/registry"
	"github.com/goldenstatedata/gr237/internal/runtime"
	"github.com/goldenstatedata/gr237/internal/telemetry"
	"github.com/goldenstatedata/gr237/pkg/version"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var (
		useStdio        bool
		shutdownTimeout time.Duration
	)

	flag.BoolVar(&useStdio, "stdio", false, "Run server over stdio transport")
	flag.DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "Graceful shutdown timeout")
	flag.Parse()

	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	logger := zlog.With().Str("service", "gr237-server").Logger()
	ctx := logger.WithContext(context.Background())

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error().Err(err).Msg("config: failed to load from env")
		fmt.Fprintln(os.Stderr, "invalid configuration; check GR237_* environment variables")
		os.Exit(1)
	}

	locator, err := files.NewLocator(cfg.DataDir)
	if err != nil {
		logger.Error().Err(err).Str("data_dir", cfg.DataDir).Msg("files: invalid data directory")
		fmt.Fprintln(os.Stderr, "invalid data directory; set GR237_DATA_DIR to an existing directory")
		os.Exit(1)
	}
	logger.Info().Str("data_dir", locator.DataDir()).Msg("report file locator configured")

	limits := runtime.NewLimits(cfg.MaxConcurrentRequests, cfg.MaxOpenDatasets)
	runtimeController := runtime.NewController(limits)
	runtimeMW := runtime.NewMiddleware(runtimeController)

	loader := pipeline.NewCachedLoader(&pipeline.Loader{
		Source:             locator,
		Tuning:             cfg.Tuning,
		MaxConcurrentFiles: cfg.MaxConcurrentFiles,
		Logger:             logger,
	})

	store := datasets.NewStore(config.DefaultDatasetIdleTTL, config.DefaultDatasetCleanupPeriod, runtimeController, time.Now)
	store.Start()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn().Err(err).Msg("dataset store shutdown incomplete")
		}
	}()

	toolRegistry := registry.New()

	srv := server.NewMCPServer(
		"CA 237-GR Normalization Server",
		version.Version(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(telemetry.BuildHooks(logger)),
		server.WithToolHandlerMiddleware(runtimeMW.ToolMiddleware),
	)

	registry.RegisterDatasetTools(srv, toolRegistry, runtimeController.LimitsSnapshot(), store, loader)

	logger.Info().
		Ctx(ctx).
		Str("version", version.Version()).
		Int("max_concurrent_requests", limits.MaxConcurrentRequests).
		Int("max_concurrent_files", cfg.MaxConcurrentFiles).
		Int("max_open_datasets", limits.MaxOpenDatasets).
		Bool("stdio", useStdio).
		Msg("server bootstrap configured")

	if useStdio {
		if err := server.ServeStdio(srv); err != nil {
			// Use stderr for transport errors so clients don't misinterpret output
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintln(os.Stderr, "no transport selected; use --stdio to run over stdio")
	os.Exit(2)
}
