package cli

import (
	"fmt"
	"strings"

	appaccounting "github.com/erp/ledger/internal/application/accounting"
	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newAccountsCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List and create accounts in the chart of accounts",
	}
	cmd.AddCommand(newAccountsListCommand(opts), newAccountsCreateCommand(opts))
	return cmd
}

func newAccountsListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tenant's accounts with their cached balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			f, err := newFormatter(opts.lang)
			if err != nil {
				return err
			}
			return withLedger(opts, func(l *ledger) error {
				accounts, err := l.chart.ListAccounts(cmd.Context(), tenantID)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), accounts)
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "CODE\tNAME\tTYPE\tBALANCE\tID")
				for _, a := range accounts {
					name := strings.Repeat("  ", max(a.Level-1, 0)) + a.Name
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.Code, name, f.Label(a.Type), f.Amount(a.Balance), a.ID)
				}
				return tw.Flush()
			})
		},
	}
}

func newAccountsCreateCommand(opts *options) *cobra.Command {
	var (
		code, name, accountType, parent, description string
		header, control                              bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add an account to the chart",
		Example: `  ledgerctl accounts create --code 1000 --name Cash --type asset
  ledgerctl accounts create --code 1100 --name Receivables --type asset --control`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			req := appaccounting.CreateAccountRequest{
				Code:        code,
				Name:        name,
				Type:        accounting.AccountType(strings.ToUpper(accountType)),
				IsHeader:    header,
				IsControl:   control,
				Description: description,
			}
			if parent != "" {
				id, err := uuid.Parse(parent)
				if err != nil {
					return fmt.Errorf("invalid --parent: %w", err)
				}
				req.ParentID = &id
			}
			return withLedger(opts, func(l *ledger) error {
				account, err := l.chart.CreateAccount(cmd.Context(), tenantID, req)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), account)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created account %s %s (%s)\n", account.Code, account.Name, account.ID)
				return nil
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&code, "code", "", "Account code, unique per tenant")
	fl.StringVar(&name, "name", "", "Account name")
	fl.StringVar(&accountType, "type", "", "asset, liability, equity, income or expense")
	fl.StringVar(&parent, "parent", "", "Parent account ID")
	fl.StringVar(&description, "description", "", "Free-form description")
	fl.BoolVar(&header, "header", false, "Header account (groups children, cannot be posted to)")
	fl.BoolVar(&control, "control", false, "Control account (receivables/payables)")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
