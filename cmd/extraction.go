package main

import (
	"encoding/json"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dnx-plataformas/crm-leads/internal/extraction"
	"github.com/dnx-plataformas/crm-leads/internal/model"
	"github.com/dnx-plataformas/crm-leads/internal/store"
)

var (
	extTenant      string
	extAPIKey      string
	extCampaign    string
	extArchiveName string
	extQuantity    int
	extAutoImport  bool
	extStatus      string
	extLimit       int
)

var extractionCmd = &cobra.Command{
	Use:   "extraction",
	Short: "Track and import provider extraction jobs",
}

var extractionRegisterCmd = &cobra.Command{
	Use:   "register <provider-id>",
	Short: "Record an extraction placed with the provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer e.Close()

		job, err := e.Extraction.Register(ctx, extraction.RegisterRequest{
			ProviderID:        args[0],
			TenantID:          extTenant,
			ArchiveName:       extArchiveName,
			QuantityRequested: extQuantity,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), job)
	},
}

var extractionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tenant's extraction jobs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		e, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer e.Close()

		jobs, err := e.Store.ListJobs(ctx, store.JobFilter{
			TenantID: extTenant,
			Status:   model.JobStatus(extStatus),
			Limit:    extLimit,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), jobs)
	},
}

var extractionStatusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Check a job's status once and store it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := initEnv(ctx, "extraction")
		if err != nil {
			return err
		}
		defer e.Close()

		report, err := e.Extraction.CheckStatus(ctx, extraction.StatusRequest{
			JobID:    args[0],
			TenantID: extTenant,
			APIKey:   extAPIKey,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

var extractionWatchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "Poll a job until it finishes, optionally importing its archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx, "extraction")
		if err != nil {
			return err
		}
		defer e.Close()

		req := extraction.StatusRequest{JobID: args[0], TenantID: extTenant, APIKey: extAPIKey}
		res, err := e.Extraction.Watch(ctx, req)
		if err != nil {
			return err
		}
		if res.Outcome == extraction.OutcomeTimedOut {
			zap.L().Warn("job still running after the last poll, check it manually", zap.String("job_id", req.JobID))
		}
		if res.Outcome != extraction.OutcomeCompleted || !extAutoImport {
			return printJSON(cmd.OutOrStdout(), res)
		}

		job, err := e.Extraction.Job(ctx, extTenant, req.JobID)
		if err != nil {
			return err
		}
		summary, err := e.Extraction.Import(ctx, extraction.ImportRequest{
			ProviderID: job.ProviderID,
			TenantID:   extTenant,
			APIKey:     extAPIKey,
			Campaign:   extCampaign,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), summary)
	},
}

var extractionImportCmd = &cobra.Command{
	Use:   "import <provider-id>",
	Short: "Download a finished extraction archive and import its leads",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := initEnv(ctx, "extraction")
		if err != nil {
			return err
		}
		defer e.Close()

		summary, err := e.Extraction.Import(ctx, extraction.ImportRequest{
			ProviderID: args[0],
			TenantID:   extTenant,
			APIKey:     extAPIKey,
			Campaign:   extCampaign,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), summary)
	},
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	extractionCmd.PersistentFlags().StringVar(&extTenant, "tenant", "", "tenant id (required)")
	_ = extractionCmd.MarkPersistentFlagRequired("tenant")

	for _, c := range []*cobra.Command{extractionStatusCmd, extractionWatchCmd, extractionImportCmd} {
		c.Flags().StringVar(&extAPIKey, "api-key", "", "provider API key (default from config)")
	}
	for _, c := range []*cobra.Command{extractionWatchCmd, extractionImportCmd} {
		c.Flags().StringVar(&extCampaign, "campaign", "", "campaign label for imported leads")
	}
	extractionWatchCmd.Flags().BoolVar(&extAutoImport, "import", false, "import the archive when the job finishes")

	extractionRegisterCmd.Flags().StringVar(&extArchiveName, "archive-name", "", "name given to the extraction")
	extractionRegisterCmd.Flags().IntVar(&extQuantity, "quantity", 0, "number of records requested")

	extractionListCmd.Flags().StringVar(&extStatus, "status", "", "filter by status")
	extractionListCmd.Flags().IntVar(&extLimit, "limit", 100, "maximum jobs to list")

	extractionCmd.AddCommand(extractionRegisterCmd, extractionListCmd, extractionStatusCmd, extractionWatchCmd, extractionImportCmd)
	rootCmd.AddCommand(extractionCmd)
}
