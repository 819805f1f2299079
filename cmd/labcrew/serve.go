package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcrossley/labcrew/internal/config"
	"github.com/mcrossley/labcrew/internal/pipeline"
	"github.com/mcrossley/labcrew/internal/store"
	"github.com/mcrossley/labcrew/internal/web"
	"github.com/mcrossley/labcrew/pkg/models"
)

var (
	serveAddr       string
	serveConfigFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the blood test analyser HTTP API",
	Long: `Serve the analyser API.

Endpoints:
  POST /analyze           Full analysis pipeline
  POST /verify            Document verification only
  POST /medical-analysis  Verification plus medical interpretation
  GET  /runs              List persisted runs
  GET  /runs/{id}         Fetch a persisted run report
  GET  /health            Health check

When --config points at a file, the file is watched and the pipeline is
rebuilt on change without restarting the server.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveConfigFile, "config", "", "Config file to load and watch for changes")
}

// swappableRunner lets config reloads replace the pipeline under live
// traffic.
type swappableRunner struct {
	current atomic.Pointer[pipeline.Runner]
}

func (s *swappableRunner) Run(ctx context.Context, mode pipeline.Mode, documentRef, query string) (*models.RunReport, error) {
	return s.current.Load().Run(ctx, mode, documentRef, query)
}

func runServe(cmd *cobra.Command, args []string) error {
	var cfg *config.Config
	var err error
	if serveConfigFile != "" {
		cfg, err = config.LoadFromPath(serveConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	runner, _, err := buildRunner(cfg)
	if err != nil {
		return err
	}
	swappable := &swappableRunner{}
	swappable.current.Store(runner)

	if serveConfigFile != "" {
		err := config.Watch(serveConfigFile, func(next *config.Config) {
			fresh, _, err := buildRunner(next)
			if err != nil {
				log.Printf("[serve] rebuilding pipeline failed, keeping old one: %v", err)
				return
			}
			swappable.current.Store(fresh)
			log.Printf("[serve] pipeline rebuilt from %s", serveConfigFile)
		})
		if err != nil {
			return err
		}
	}

	db, err := store.Open(cfg.Server.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	srv, err := web.NewServer(web.ServerConfig{
		Runner:         swappable,
		Reports:        db,
		DataDir:        cfg.Server.DataDir,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[serve] listening on %s", cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("[serve] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
