// Package servecmder provides the serve command for running the screens API server.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/screens/api"
	"github.com/papercomputeco/screens/pkg/bootstrap"
	"github.com/papercomputeco/screens/pkg/cliui"
	"github.com/papercomputeco/screens/pkg/config"
	"github.com/papercomputeco/screens/pkg/logger"
)

type ServeCommander struct {
	flags struct {
		listen       string
		storage      string
		sqlitePath   string
		postgresDSN  string
		eventStream  string
		kafkaBrokers string
		kafkaTopic   string
		attempts     uint
		initialDelay string
		maxDelay     string
		logFile      string
	}

	cfg       *config.Config
	configDir string
	debug     bool
	logger    *slog.Logger
}

// flagKeys are the registry flags serve binds into the config chain.
var flagKeys = []string{
	config.FlagListen,
	config.FlagStorage,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagEventStream,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
	config.FlagAttempts,
	config.FlagInitialDelay,
	config.FlagMaxDelay,
}

const serveLongDesc string = `Run the screens API server.

The server streams generations as server-sent events, serves stored screens
and generations, refines screens, and exposes the same operations as MCP
tools on /mcp.

Configuration is read from .screens/config.toml, SCREENS_* environment
variables, and the flags below, in increasing order of precedence.

Examples:
  screens serve
  screens serve --listen :9000 --storage sqlite
  screens serve --eventstream kafka --kafka-brokers localhost:9092
  screens serve --log-file .screens/serve.log`

const serveShortDesc string = "Run the screens API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cmder.cfg, err = config.Load(cmd, cmder.configDir, flagKeys)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.flags.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorage, &cmder.flags.storage)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.flags.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.flags.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventStream, &cmder.flags.eventStream)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.flags.kafkaBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &cmder.flags.kafkaTopic)
	config.AddUintFlag(cmd, config.Flags, config.FlagAttempts, &cmder.flags.attempts)
	config.AddStringFlag(cmd, config.Flags, config.FlagInitialDelay, &cmder.flags.initialDelay)
	config.AddStringFlag(cmd, config.Flags, config.FlagMaxDelay, &cmder.flags.maxDelay)
	cmd.Flags().StringVar(&cmder.flags.logFile, "log-file", "", "Also append JSON logs to this file")

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(cliui.IsTerminal(os.Stderr)),
		logger.WithJSON(true),
		logger.WithWriter(os.Stderr),
	)

	if c.flags.logFile != "" {
		logFile, err := os.OpenFile(c.flags.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer logFile.Close()

		c.logger = logger.Multi(c.logger, logger.New(
			logger.WithDebug(c.debug),
			logger.WithJSON(true),
			logger.WithWriter(logFile),
		))
	}

	c.logger.Info("starting screens",
		"storage", c.cfg.Storage.Provider,
		"eventstream", c.cfg.EventStream.Provider,
		"endpoints", len(c.cfg.Endpoints),
	)

	stack, err := bootstrap.New(ctx, c.cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Close(); err != nil {
			c.logger.Error("closing runtime", "error", err)
		}
	}()

	server, err := api.NewServer(api.Config{ListenAddr: c.cfg.API.Listen}, stack.Service, stack.Driver, c.logger)
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}

	c.logger.Info("starting api server", "api_addr", c.cfg.API.Listen)

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
		c.logger.Info("context cancelled, shutting down")
	}

	if err := server.Shutdown(); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return nil
}
