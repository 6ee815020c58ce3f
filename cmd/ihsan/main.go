package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"ihsan/internal/config"
	"ihsan/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	version  = "dev"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ihsan",
		Short:         "Sharia compliance screening for stocks, ETFs and crypto",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $"+config.EnvPath+" or "+config.DefaultPath+")")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override app.log_level (debug, info, warn, error)")

	root.AddCommand(serveCmd())
	root.AddCommand(screenCmd())
	root.AddCommand(versionCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves the config and sets up logging from it. The returned
// cleanup closes any log files that were opened.
func loadConfig() (*config.Config, func(), error) {
	cfg, path, err := config.Resolve(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config failed: %w", err)
	}
	if logLevel != "" {
		cfg.App.LogLevel = logLevel
	}
	var closers []io.Closer
	cleanup := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}
	logger.SetFormat(cfg.App.LogFormat)
	logger.SetLevel(cfg.App.LogLevel)
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file failed: %w", err)
	}
	if logFile != nil {
		closers = append(closers, logFile)
	}
	logger.SetProviderWriter(nil)
	if cfg.Provider.DumpPayload {
		f, err := openLogFile(cfg.App.ProviderLogPath)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("opening provider log failed: %w", err)
		}
		if f != nil {
			closers = append(closers, f)
			logger.SetProviderWriter(f)
		}
	}
	logger.EnableProviderPayloadDump(cfg.Provider.DumpPayload)
	if path == "" {
		path = "built-in defaults"
	}
	logger.Infof("✓ config loaded (env=%s, source=%s)", cfg.App.Env, path)
	return cfg, cleanup, nil
}

func setupLogOutput(path string) (*os.File, error) {
	file, err := openLogFile(path)
	if err != nil || file == nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}

func openLogFile(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
