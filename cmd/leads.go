package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dnx-plataformas/crm-leads/internal/importer"
	"github.com/dnx-plataformas/crm-leads/internal/store"
)

var (
	leadsTenant   string
	leadsFile     string
	leadsCampaign string
	leadsLimit    int
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Import and list leads",
}

var leadsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a lead list from an .xlsx or .csv file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		data, err := os.ReadFile(leadsFile)
		if err != nil {
			return eris.Wrapf(err, "read %s", leadsFile)
		}

		e, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer e.Close()

		summary, err := e.Importer.ImportSpreadsheet(ctx, importer.Request{
			TenantID: leadsTenant,
			Campaign: leadsCampaign,
		}, filepath.Base(leadsFile), data)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), summary)
	},
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tenant's leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		e, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer e.Close()

		leads, err := e.Store.ListLeads(ctx, store.LeadFilter{
			TenantID: leadsTenant,
			Campaign: leadsCampaign,
			Limit:    leadsLimit,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), leads)
	},
}

func init() {
	leadsCmd.PersistentFlags().StringVar(&leadsTenant, "tenant", "", "tenant id (required)")
	_ = leadsCmd.MarkPersistentFlagRequired("tenant")
	leadsCmd.PersistentFlags().StringVar(&leadsCampaign, "campaign", "", "campaign label")

	leadsImportCmd.Flags().StringVar(&leadsFile, "file", "", "path to the .xlsx or .csv file (required)")
	_ = leadsImportCmd.MarkFlagRequired("file")
	leadsListCmd.Flags().IntVar(&leadsLimit, "limit", 100, "maximum leads to list")

	leadsCmd.AddCommand(leadsImportCmd, leadsListCmd)
	rootCmd.AddCommand(leadsCmd)
}
