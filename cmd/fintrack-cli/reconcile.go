package main

import (
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func reconcileCmd() *cobra.Command {
	var owners []string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Make the spreadsheet mirror match the ledger",
		Long: `reconcile appends rows missing from the Google Sheet and clears rows
whose entries were deleted, for every --owner given. Use it after the
worker was down or the sheet was edited by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			res := cli.OpenStore(ctx, logger, cfg)
			defer res.Cleanup()

			mirror, err := gsheet.New(ctx, gsheet.Config{
				SpreadsheetID:   cfg.GoogleSpreadsheetID,
				CredentialsJSON: cfg.GoogleServiceAccountJSON,
				CredentialsFile: cfg.GoogleServiceAccountFile,
			}, logger.WithComponent(log.ComponentSheets).Slog())
			if err != nil {
				return fmt.Errorf("open spreadsheet: %w", err)
			}
			w := worker.NewSyncWorker(res.Store, mirror, logger.WithComponent(log.ComponentWorker).Slog())

			out := cmd.ErrOrStderr()
			bar := progressbar.NewOptions(len(owners),
				progressbar.OptionSetWriter(out),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Reconciling owners"),
				progressbar.OptionOnCompletion(func() { fmt.Fprintln(out) }),
			)

			var (
				total worker.ReconcileResult
				errs  []error
			)
			for _, owner := range owners {
				r, err := w.Reconcile(ctx, owner)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", owner, err))
				}
				total.Appended += r.Appended
				total.Removed += r.Removed
				_ = bar.Add(1)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render(
				fmt.Sprintf("Appended %d rows, cleared %d rows", total.Appended, total.Removed)))
			return errors.Join(errs...)
		},
	}
	cmd.Flags().StringSliceVar(&owners, "owner", nil, "owner id to reconcile (repeatable)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
