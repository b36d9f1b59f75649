package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aaronzipp/you-are-officially-mafia/internal/archive"
	"github.com/aaronzipp/you-are-officially-mafia/internal/config"
	"github.com/aaronzipp/you-are-officially-mafia/internal/game"
	"github.com/aaronzipp/you-are-officially-mafia/internal/handlers"
	"github.com/aaronzipp/you-are-officially-mafia/internal/loop"
	"github.com/aaronzipp/you-are-officially-mafia/internal/sse"
	"github.com/aaronzipp/you-are-officially-mafia/internal/store"
)

const (
	loopBuffer      = 256
	shutdownTimeout = 5 * time.Second
)

var rootCmd = &cobra.Command{
	Use:          "mafia",
	Short:        "Five-player Mafia game server",
	SilenceUsage: true,
	RunE:         runServer,
}

var (
	flagAddr       string
	flagLogLevel   string
	flagArchiveDir string
	flagEnvFile    string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagAddr, "addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	flags.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	flags.StringVar(&flagArchiveDir, "archive-dir", "", "directory for the finished-game archive (overrides ARCHIVE_DIR)")
	flags.StringVar(&flagEnvFile, "env-file", ".env", "optional dotenv file to load before reading the environment")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("execute mafia command")
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagEnvFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.HTTPAddr = flagAddr
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("archive-dir") {
		cfg.ArchiveDir = flagArchiveDir
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	games, err := archive.Open(cfg.ArchiveDir)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer func() {
		if err := games.Close(); err != nil {
			logger.Error().Err(err).Msg("closing archive")
		}
	}()

	events := loop.New(loopBuffer, logger)
	app := &handlers.Context{
		Loop:    events,
		Hub:     sse.NewHub(logger),
		Archive: games,
		BaseURL: cfg.BaseURL,
		Logger:  logger,
	}
	opts := []store.Option{
		store.WithOnChange(func(s *game.Session) { app.Publish(s) }),
	}
	if games != nil {
		opts = append(opts, store.WithArchive(games))
		logger.Info().Str("dir", cfg.ArchiveDir).Msg("archiving finished games")
	}
	app.Registry = store.NewSessionRegistry(cfg.GameSettings(), events, logger, opts...)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// The loop outlives the HTTP server so sessions can be closed on it.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return events.Run(loopCtx)
	})

	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		defer stopLoop()
		// Closing sessions first ends the open event streams.
		if err := events.Call(shutdownCtx, func() error {
			app.Registry.Close()
			return nil
		}); err != nil {
			logger.Warn().Err(err).Msg("closing sessions")
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parsing log level %q: %w", level, err)
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).Level(lvl).With().Timestamp().Logger()
	log.Logger = logger
	return logger, nil
}
