// Command previewd runs the document preview service.
//
// Usage:
//
//	previewd serve --config config.yaml
//	previewd serve --port 8085
//	previewd validate --config config.yaml
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ameerarsath/publicdocsafe-sub000/pkg/config"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/logger"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/runtime"
	"github.com/ameerarsath/publicdocsafe-sub000/pkg/server"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" help:"Start the preview server."`
	Validate ValidateCmd `cmd:"" help:"Validate configuration file."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple, verbose)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("previewd version %s\n", version)
	return nil
}

// ValidateCmd checks a configuration file without starting the server.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	if cli.Config == "" {
		return fmt.Errorf("--config is required for validate")
	}
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	fmt.Printf("Configuration OK: server %s:%d, dispatch timeout %s\n",
		cfg.Server.Host, cfg.Server.Port, cfg.Dispatch.Timeout.AsDuration())
	return nil
}

// ServeCmd starts the preview server.
type ServeCmd struct {
	Port int `help:"Port to listen on (overrides config)."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	rt, err := runtime.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create runtime: %w", err)
	}

	srv := server.New(rt)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.GetLogger().Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.GetLogger().Error("shutdown error", "error", err)
		}
	}()

	fmt.Printf("previewd ready on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("   Preview:  POST /v1/preview\n")
	fmt.Printf("   Handlers: GET  /v1/handlers\n")
	fmt.Printf("   Health:   GET  /healthz\n")
	fmt.Printf("   Metrics:  GET  /metrics\n")

	return srv.Start()
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("previewd"),
		kong.Description("previewd - document preview dispatch service"),
		kong.UsageOnError(),
	)

	level, err := logger.ParseLevel(cli.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	output := os.Stderr
	var cleanup func()
	if cli.LogFile != "" {
		file, closeFile, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		output = file
		cleanup = closeFile
	}
	logger.Init(level, output, cli.LogFormat)
	if cleanup != nil {
		defer cleanup()
	}

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
