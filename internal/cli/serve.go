package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abduss/filegate/internal/config"
	"github.com/abduss/filegate/internal/file"
	"github.com/abduss/filegate/internal/logger"
	"github.com/abduss/filegate/internal/server"
	"github.com/abduss/filegate/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// ServeOptions holds the flags of the serve command.
type ServeOptions struct {
	EnvFile string
	Port    int

	cfg config.Config
}

func NewServeOptions() *ServeOptions {
	return &ServeOptions{}
}

func NewServeCommand(o *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the filegate HTTP server",
		Example: `  # Start with settings from ./.env and the environment
  filegate serve

  # Use a specific env file and port
  filegate serve --env-file deploy/prod.env --port 8080`,
		RunE: o.Execute,
	}
	o.AddFlags(cmd)
	return cmd
}

// AddFlags binds the serve flags to cmd.
func (o *ServeOptions) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.EnvFile, "env-file", "e", "", "dotenv file to load before reading the environment (default .env if present)")
	cmd.Flags().IntVarP(&o.Port, "port", "p", 0, "port to listen on, overrides FILEGATE_PORT")
}

// Execute runs the Complete, Validate, Run sequence.
func (o *ServeOptions) Execute(cmd *cobra.Command, args []string) error {
	if err := o.Complete(cmd, args); err != nil {
		return err
	}
	if err := o.Validate(); err != nil {
		return err
	}
	return o.Run(cmd.Context())
}

// Complete loads the env file and the resulting configuration.
func (o *ServeOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnvFile(o.EnvFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = o.Port
	}
	o.cfg = cfg
	return nil
}

func (o *ServeOptions) Validate() error {
	if o.cfg.Server.Port < 1 || o.cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", o.cfg.Server.Port)
	}
	return nil
}

// Run serves until the context is cancelled or SIGINT/SIGTERM arrives.
func (o *ServeOptions) Run(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, err := logger.New(o.cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	gin.SetMode(gin.ReleaseMode)

	store, err := storage.Open(ctx, o.cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	router := server.NewRouter(server.Dependencies{
		Config:      o.cfg,
		Logger:      log,
		ObjectStore: store,
		FileService: file.NewService(store, log.Named("file"), o.cfg.Server.MaxUploadBytes),
	})

	httpServer := &http.Server{
		Addr:         o.cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  o.cfg.Server.ReadTimeout,
		WriteTimeout: o.cfg.Server.WriteTimeout,
		IdleTimeout:  o.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("filegate listening",
			zap.String("addr", httpServer.Addr),
			zap.String("driver", o.cfg.Storage.Driver),
			zap.String("bucket", o.cfg.Storage.Bucket),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
