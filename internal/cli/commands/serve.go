package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChangJoo-Park/json-api/internal/config"
	"github.com/ChangJoo-Park/json-api/internal/logging"
	"github.com/ChangJoo-Park/json-api/internal/server"
)

var (
	servePort int
	serveHost string
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON:API server",
		Long: `Load the schema file, connect the configured store and serve every
model as a JSON:API resource type.

Examples:
  jsonapi serve
  jsonapi serve --port 8080
  JSONAPI_STORE_BACKEND=redis jsonapi serve`,
		RunE: runServe,
	}

	cmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides config)")
	cmd.Flags().StringVar(&serveHost, "host", "", "Host to bind (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	ctx, stop := signal.NotifyContext(base, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.close(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}()

	serverConfig := server.DefaultConfig()
	serverConfig.BasePath = cfg.Server.BasePath
	serverConfig.MaxPageSize = cfg.Server.MaxPageSize

	color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(),
		"Serving %d resource types on http://%s%s\n",
		len(app.adapter.Registry().Types()), cfg.Server.Addr(), cfg.Server.BasePath)

	return server.New(app.adapter, serverConfig, logger).ListenAndServe(ctx, cfg.Server.Addr())
}
