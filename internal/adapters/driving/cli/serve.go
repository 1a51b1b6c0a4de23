package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Januuus/chatbot/internal/adapters/driving/httpapi"
	"github.com/Januuus/chatbot/internal/config"
	"github.com/Januuus/chatbot/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the HTTP API and serves the static web client. The server stops
gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveMemory bool

func init() {
	serveCmd.Flags().BoolVar(&serveMemory, "memory", false, "keep documents and conversations in memory instead of the database")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := config.ServeRequirements
	if serveMemory {
		req.Database = false
	}

	rt, err := openRuntime(ctx, req)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.llm != nil {
		if err := rt.llm.Ping(ctx); err != nil {
			logger.Warn("Model connectivity check failed: %v", err)
		}
	}

	server := newServer(rt)
	return server.Run(ctx)
}

func newServer(rt *runtime) *httpapi.Server {
	cfg := rt.cfg
	svcs := httpapi.Services{
		Documents: rt.documents,
		Chat:      rt.chat,
		Training:  rt.training,
	}
	if rt.metrics != nil {
		svcs.Recorder = rt.metrics
		svcs.MetricsHandler = rt.metrics.Handler()
	}

	return httpapi.New(httpapi.Config{
		Addr:            cfg.Server.Addr(),
		PublicDir:       cfg.Server.PublicDir,
		CORSOrigin:      cfg.Server.CORSOrigin,
		APIKey:          cfg.Server.RequiredAPIKey,
		RateLimitWindow: cfg.Server.RateLimitWindow.Std(),
		RateLimitMax:    cfg.Server.RateLimitMax,
		MaxFileSize:     cfg.Documents.MaxFileSize,
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Std(),
		TrainingDir:     cfg.Documents.TrainingDir,
	}, svcs)
}

// commandContext returns the command's context or a background context.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
