package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"sip_call_diagnoser_go/internal/api"
	"sip_call_diagnoser_go/internal/engine"
	"sip_call_diagnoser_go/internal/explain"
	"sip_call_diagnoser_go/internal/export"
	"sip_call_diagnoser_go/internal/store"
	"sip_call_diagnoser_go/internal/tshark"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP analysis service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runner := tshark.NewRunner(cfg.Tshark.Binary, cfg.Tshark.Timeout)

		blobs, err := store.NewBlobStore(cfg.S3.URI, cfg.S3.Region)
		if err != nil {
			return err
		}

		db, err := store.Open(&cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		var exporter engine.SubcaptureExporter
		if cfg.Analysis.ExportFailing {
			exporter = export.NewExporter(runner, cfg.Analysis.OutputDir, blobs)
		}
		analyzer := engine.NewAnalyzer(runner, exporter, cfg.Analysis.Workers)

		ai := explain.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
		if ai == nil {
			logrus.Info("no OpenAI API key configured, AI features disabled")
		}

		server := api.New(analyzer, db, blobs, ai, cfg.Server.CORSOrigins)
		httpServer := &http.Server{
			Addr:              cfg.Server.Listen,
			Handler:           server.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logrus.Infof("listening on %s", cfg.Server.Listen)
			errCh <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			logrus.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
