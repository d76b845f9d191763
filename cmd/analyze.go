package cmd

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"sip_call_diagnoser_go/internal/engine"
	"sip_call_diagnoser_go/internal/export"
	"sip_call_diagnoser_go/internal/report"
	"sip_call_diagnoser_go/internal/store"
	"sip_call_diagnoser_go/internal/tshark"
)

var csvPath string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <capture.pcap>",
	Short: "Analyze a capture file and print the diagnosis as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runner := tshark.NewRunner(cfg.Tshark.Binary, cfg.Tshark.Timeout)

		var exporter engine.SubcaptureExporter
		if cfg.Analysis.ExportFailing {
			blobs, err := store.NewBlobStore(cfg.S3.URI, cfg.S3.Region)
			if err != nil {
				return err
			}
			exporter = export.NewExporter(runner, cfg.Analysis.OutputDir, blobs)
		}

		analyzer := engine.NewAnalyzer(runner, exporter, cfg.Analysis.Workers)
		result, err := analyzer.AnalyzeCapture(ctx, args[0])
		if err != nil {
			return err
		}

		if csvPath != "" {
			if err := report.WriteCallsCSV(csvPath, result); err != nil {
				return err
			}
			logrus.Infof("wrote call report to %s", csvPath)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&csvPath, "csv", "", "also write a per-call CSV report to this path")
	rootCmd.AddCommand(analyzeCmd)
}
