package cli

import (
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/numbering"
	"github.com/spf13/cobra"
)

func newNextNumberCommand(opts *options) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "next-number SEQUENCE_TYPE",
		Short: "Draw the next document number of a sequence",
		Long: `Draw the next number of a sequence (journal_entry, sales_order, sales_invoice,
sales_payment, purchase_order, purchase_bill, purchase_payment). Numbers are
never reused; a drawn number that is not used leaves a gap.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			return withLedger(opts, func(l *ledger) error {
				n, err := l.numbers.NextNumber(cmd.Context(), tenantID, numbering.SequenceType(args[0]), prefix)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Override the configured prefix")
	return cmd
}

func newOverdueCommand(opts *options) *cobra.Command {
	var today string
	cmd := &cobra.Command{
		Use:   "refresh-overdue",
		Short: "Mark open invoices and bills past their due date as overdue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			day := time.Now().UTC()
			if d, err := parseOptionalDate(today); err != nil {
				return err
			} else if d != nil {
				day = *d
			}
			return withLedger(opts, func(l *ledger) error {
				result, err := l.documents.RefreshOverdue(cmd.Context(), tenantID, day)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), result)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Checked %d documents, %d marked overdue\n",
					result.Checked, len(result.MarkedOverdue))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&today, "today", "", "Reference date YYYY-MM-DD (default: today)")
	return cmd
}
