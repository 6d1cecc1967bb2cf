package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dnx-plataformas/crm-leads/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "dnx-crm",
	Short: "Bulk lead extraction and import service",
	Long:  "Tracks data-provider extraction jobs, downloads finished archives and imports companies, partners and people as tenant-scoped CRM leads.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
