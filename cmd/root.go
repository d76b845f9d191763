// Package cmd defines the command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sip_call_diagnoser_go/internal/config"
	"sip_call_diagnoser_go/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sip-call-diagnoser",
	Short: "Correlate SIP signaling and RTP media from packet captures into per-call verdicts",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		return logging.Init(cfg.Log)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
