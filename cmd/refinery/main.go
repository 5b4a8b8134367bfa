package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/refinery-ai/refinery/cmd/refinery/internal/assets"
	"github.com/refinery-ai/refinery/pkg/appdir"
	"github.com/refinery-ai/refinery/pkg/config"
	"github.com/refinery-ai/refinery/pkg/mcptools"
	"github.com/refinery-ai/refinery/pkg/prompts"
	"github.com/refinery-ai/refinery/pkg/registry"
	"github.com/refinery-ai/refinery/pkg/tools/mcpserver"
	"github.com/refinery-ai/refinery/pkg/workflow"
	"github.com/rs/zerolog"
)

const (
	serverName = "refinery"
	version    = "0.1.0"
)

func main() {
	// Handle subcommands before flag parsing.
	if len(os.Args) > 1 && os.Args[1] == "init" {
		initCmd := flag.NewFlagSet("init", flag.ExitOnError)
		initCmd.Usage = func() {
			fmt.Fprintf(os.Stderr, "Usage: refinery init [flags]\n\nInitialize the application directory with a default config and prompt templates.\n\nFlags:\n")
			initCmd.PrintDefaults()
		}
		dir := initCmd.String("dir", "", "path to the application directory (default: ~/.refinery)")
		_ = initCmd.Parse(os.Args[2:])

		if err := runInit(*dir); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

		return
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: refinery [flags]\n       refinery <command> [flags]\n\nServes the prompt refinement tools over MCP on stdio.\n\nFlags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nCommands:\n  init    Initialize the application directory with a default config and prompt templates\n")
	}

	configPath := flag.String("config", "", "path to configuration file (default: ~/.refinery/config.yaml)")
	dirPath := flag.String("dir", "", "path to the application directory (default: ~/.refinery)")
	envFile := flag.String("env", ".env", "path to .env file (ignored if missing)")
	logFile := flag.String("log-file", "", "path to log file (default: log_file from config, then ~/.refinery/logs/server.log)")
	flag.Parse()

	if err := loadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := run(*configPath, *dirPath, *logFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runInit(dirPath string) error {
	dir, err := resolveDir(dirPath)
	if err != nil {
		return err
	}

	written, err := assets.Seed(dir)
	if err != nil {
		return err
	}

	if len(written) == 0 {
		fmt.Printf("%s already initialized, nothing written\n", dir.Root())
		return nil
	}

	fmt.Printf("initialized %s:\n", dir.Root())
	for _, path := range written {
		fmt.Printf("  %s\n", path)
	}

	return nil
}

func run(configPath, dirPath, logFile string) error {
	dir, err := resolveDir(dirPath)
	if err != nil {
		return err
	}

	if configPath == "" {
		configPath = dir.ConfigPath()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if logFile == "" {
		logFile = cfg.LogFile
	}
	if logFile == "" {
		logFile = dir.ServerLogPath()
	}

	logger, closeLog, err := openLogger(logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	reg, err := registry.New(cfg.RegistryProviders())
	if err != nil {
		return err
	}

	wf := &workflow.Workflow{
		Registry: reg,
		Loader: prompts.Loader{
			Dir:            cfg.PromptsDirectory,
			RefinementFile: cfg.RefinementPromptFilename,
			CodingFile:     cfg.RefinementCodingPromptFilename,
			BreakdownFile:  cfg.BreakdownPromptFilename,
			IdeaFile:       cfg.IdeaPromptFilename,
			TopicFile:      cfg.TopicPromptFilename,
		},
		Log: logger,
	}

	srv := mcpserver.New(serverName, version)
	srv.Register(mcptools.New(wf).Tools()...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("version", version).Str("config", configPath).Int("providers", len(cfg.Providers)).Msg("serving MCP on stdio")

	err = srv.Serve(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("server stopped")
		return err
	}

	logger.Info().Msg("server shut down")

	return nil
}

func resolveDir(dirPath string) (appdir.Dir, error) {
	if dirPath != "" {
		return appdir.New(dirPath), nil
	}

	return appdir.Default()
}

// openLogger opens the log file for appending and returns a zerolog logger
// writing to it. stdout carries the MCP transport, so it must stay clean.
func openLogger(path string) (zerolog.Logger, func(), error) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // path is caller-provided configuration
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("open log file: %w", err)
	}

	logger := zerolog.New(f).With().Timestamp().Logger()

	return logger, func() { _ = f.Close() }, nil
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
