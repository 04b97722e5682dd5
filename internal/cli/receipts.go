package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fjod/fitstore/internal/receipt"
	"github.com/fjod/fitstore/internal/repository"
)

func NewReceiptsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipts",
		Short: "Inspect the local receipt history",
	}
	cmd.AddCommand(newReceiptsListCommand(rootOpts))
	cmd.AddCommand(newReceiptsExportCommand(rootOpts))
	return cmd
}

func newReceiptsListCommand(opts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List past receipts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return WrapExitError(ExitCommandError, "invalid limit", fmt.Errorf("limit must be positive, got %d", limit))
			}
			repo, err := openRepository(opts.cfg.DBPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			receipts, err := repo.ListReceipts(commandContext(cmd), limit)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list receipts", err)
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), receipts)
			}
			return writeReceipts(cmd.OutOrStdout(), receipts)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of receipts")
	return cmd
}

func newReceiptsExportCommand(opts *RootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export <transaction-id>",
		Short: "Write the PDF ticket of a past receipt",
		Long: `Write the PDF ticket of a past receipt. The id is the server transaction id
or, for receipts without one, the checkout request id.

Example:
  fitstore receipts export 9f1c2e4a --dir ./tickets`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepository(opts.cfg.DBPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			ctx := commandContext(cmd)
			issued, err := repo.GetReceipt(ctx, args[0])
			if errors.Is(err, repository.ErrReceiptNotFound) {
				return WrapExitError(ExitFailure, "receipt not found", err)
			}
			if err != nil {
				return WrapExitError(ExitFailure, "failed to load receipt", err)
			}

			if dir == "" {
				dir = opts.cfg.ReceiptDir
			}
			path, err := receipt.NewExporter(dir, receipt.NewRenderer(time.Local)).Export(ctx, *issued)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to export receipt", err)
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"path": path})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "output directory (overrides RECEIPT_DIR)")
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
