package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newBalanceCommand(opts *options) *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "balance ACCOUNT_ID",
		Short: "Show an account balance, optionally as of a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			accountID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid account id: %w", err)
			}
			at, err := parseOptionalDate(asOf)
			if err != nil {
				return err
			}
			f, err := newFormatter(opts.lang)
			if err != nil {
				return err
			}
			return withLedger(opts, func(l *ledger) error {
				balance, err := l.balances.GetAccountBalance(cmd.Context(), tenantID, accountID, at)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), map[string]any{
						"account_id": accountID,
						"as_of":      asOf,
						"balance":    balance,
						"currency":   l.currency,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), f.Amount(balance))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "Only count entries dated on or before YYYY-MM-DD")
	return cmd
}

func newTrialBalanceCommand(opts *options) *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Print the trial balance of all accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			at, err := parseOptionalDate(asOf)
			if err != nil {
				return err
			}
			f, err := newFormatter(opts.lang)
			if err != nil {
				return err
			}
			return withLedger(opts, func(l *ledger) error {
				tb, err := l.balances.TrialBalance(cmd.Context(), tenantID, at)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), tb)
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintf(tw, "CODE\tACCOUNT\tTYPE\t%s\t%s\n", currencyHeader("DEBIT", l.currency), currencyHeader("CREDIT", l.currency))
				for _, line := range tb.Lines {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", line.AccountCode, line.AccountName,
						f.Label(line.AccountType), f.Amount(line.Debit), f.Amount(line.Credit))
				}
				fmt.Fprintf(tw, "\tTOTAL\t\t%s\t%s\n", f.Amount(tb.TotalDebit), f.Amount(tb.TotalCredit))
				if err := tw.Flush(); err != nil {
					return err
				}
				if !tb.Balanced {
					return fmt.Errorf("trial balance does not balance: debit %s, credit %s",
						tb.TotalDebit.StringFixed(2), tb.TotalCredit.StringFixed(2))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "Only count entries dated on or before YYYY-MM-DD")
	return cmd
}
