package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/jmcleod/cvdrop/identity"
	"github.com/jmcleod/cvdrop/internal/config"
	"github.com/jmcleod/cvdrop/server"
	"github.com/jmcleod/cvdrop/storage"
	"github.com/jmcleod/cvdrop/storage/bboltindex"
	"github.com/jmcleod/cvdrop/storage/local"
	s3store "github.com/jmcleod/cvdrop/storage/s3"
)

var (
	configFile string
	port       int
	uploadDir  string
	dataDir    string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the cvdrop web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		// Flags win over file and environment.
		if cmd.Flags().Changed("port") {
			cfg.ListenPort = port
		}
		if cmd.Flags().Changed("upload-dir") {
			cfg.UploadDir = uploadDir
		}
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir = dataDir
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		index, err := bboltindex.NewFromFile(filepath.Join(cfg.DataDir, "cvdrop.db"), nil)
		if err != nil {
			return fmt.Errorf("failed to open upload index: %w", err)
		}
		defer index.Close()

		var store storage.Store
		switch cfg.StorageBackend {
		case config.BackendS3:
			store, err = s3store.New(cmd.Context(), s3store.Config{
				Bucket:    cfg.S3Bucket,
				Region:    cfg.S3Region,
				Endpoint:  cfg.S3Endpoint,
				AccessKey: cfg.S3AccessKey,
				SecretKey: cfg.S3SecretKey,
			}, index)
			if err != nil {
				return fmt.Errorf("failed to configure s3 storage: %w", err)
			}
		default:
			store, err = local.New(cfg.UploadDir, index)
			if err != nil {
				return fmt.Errorf("failed to open upload root: %w", err)
			}
		}

		admin, err := server.NewAdminCredential(cfg.AdminPassword)
		if err != nil {
			return err
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
		opts := []server.Option{
			server.WithLogger(logger),
			server.WithSessionTTL(cfg.SessionTTL),
		}
		if cfg.PersistSessions {
			sessions, err := server.NewBoltSessionStore(index.DB(), cfg.SessionSecret, cfg.SessionIdleTimeout)
			if err != nil {
				return fmt.Errorf("failed to open session store: %w", err)
			}
			defer sessions.Close()
			opts = append(opts, server.WithSessionStore(sessions))
		} else {
			opts = append(opts, server.WithSessionStore(server.NewMemorySessionStore(cfg.SessionIdleTimeout)))
		}
		if cfg.OAuthConfigured() {
			opts = append(opts, server.WithIdentity(identity.NewLinkedIn(
				cfg.LinkedInClientID,
				cfg.LinkedInClientSecret,
				cfg.LinkedInCallbackURL,
			)))
		}

		srv, err := server.New(store, admin, opts...)
		if err != nil {
			return err
		}

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Mount("/", srv.Router())

		httpServer := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.ListenPort),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner()
		fmt.Printf("Starting server on port %d (uploads: %s)...\n", cfg.ListenPort, cfg.UploadDir)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			fmt.Printf("\nReceived %s, shutting down...\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().StringVar(&configFile, "config", "", "Path to TOML config file")
	serverCmd.Flags().IntVarP(&port, "port", "p", 3000, "Port to listen on")
	serverCmd.Flags().StringVar(&uploadDir, "upload-dir", "uploads", "Directory uploads are written to")
	serverCmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Directory for the upload index database")
}
