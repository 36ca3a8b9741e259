package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	appaccounting "github.com/erp/ledger/internal/application/accounting"
	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newJournalCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Create, post and reverse journal entries",
	}
	cmd.AddCommand(
		newJournalCreateCommand(opts),
		newJournalPostCommand(opts),
		newJournalReverseCommand(opts),
	)
	return cmd
}

// parseLine reads ACCOUNT_ID:DEBIT|CREDIT:AMOUNT[:DESCRIPTION]
func parseLine(s string) (appaccounting.JournalLineInput, error) {
	parts := strings.SplitN(s, ":", 4)
	if len(parts) < 3 {
		return appaccounting.JournalLineInput{}, fmt.Errorf("line %q must be ACCOUNT_ID:DEBIT|CREDIT:AMOUNT[:DESCRIPTION]", s)
	}
	accountID, err := uuid.Parse(parts[0])
	if err != nil {
		return appaccounting.JournalLineInput{}, fmt.Errorf("line %q: invalid account id: %w", s, err)
	}
	amount, err := decimal.NewFromString(parts[2])
	if err != nil {
		return appaccounting.JournalLineInput{}, fmt.Errorf("line %q: invalid amount: %w", s, err)
	}
	in := appaccounting.JournalLineInput{
		AccountID: accountID,
		EntryType: accounting.EntryType(strings.ToUpper(parts[1])),
		Amount:    amount,
	}
	if len(parts) == 4 {
		in.Description = parts[3]
	}
	return in, nil
}

func newJournalCreateCommand(opts *options) *cobra.Command {
	var (
		date, description, reference string
		lines                        []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft journal entry",
		Example: `  ledgerctl journal create --description "Cash sale" \
    --line 6f1c...:DEBIT:150.00 --line 9a2e...:CREDIT:150.00`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			entryDate := time.Now().UTC().Truncate(24 * time.Hour)
			if d, err := parseOptionalDate(date); err != nil {
				return err
			} else if d != nil {
				entryDate = *d
			}
			req := appaccounting.CreateJournalEntryRequest{
				EntryDate:   entryDate,
				Description: description,
				Reference:   reference,
			}
			for _, s := range lines {
				in, err := parseLine(s)
				if err != nil {
					return err
				}
				req.Lines = append(req.Lines, in)
			}
			return withLedger(opts, func(l *ledger) error {
				entry, err := l.journal.CreateJournalEntry(cmd.Context(), tenantID, req)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), entry)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created draft %s (%s)\n", entry.EntryNumber, entry.ID)
				return nil
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&date, "date", "", "Entry date YYYY-MM-DD (default: today)")
	fl.StringVar(&description, "description", "", "Entry description")
	fl.StringVar(&reference, "reference", "", "External reference")
	fl.StringArrayVar(&lines, "line", nil, "Line as ACCOUNT_ID:DEBIT|CREDIT:AMOUNT[:DESCRIPTION], repeatable")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func postingCommand(opts *options, use, short string, run func(l *ledger, cmd *cobra.Command, tenantID, entryID, actorID uuid.UUID) (*appaccounting.PostingResult, error)) *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   use + " ENTRY_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			entryID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid entry id: %w", err)
			}
			actorID, err := uuid.Parse(actor)
			if err != nil {
				return fmt.Errorf("invalid --actor: %w", err)
			}
			f, err := newFormatter(opts.lang)
			if err != nil {
				return err
			}
			return withLedger(opts, func(l *ledger) error {
				result, err := run(l, cmd, tenantID, entryID, actorID)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), result)
				}
				return printPosting(cmd.OutOrStdout(), f, result)
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "ID of the user performing the action")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func newJournalPostCommand(opts *options) *cobra.Command {
	return postingCommand(opts, "post", "Post a balanced draft entry to the ledger",
		func(l *ledger, cmd *cobra.Command, tenantID, entryID, actorID uuid.UUID) (*appaccounting.PostingResult, error) {
			return l.journal.PostJournalEntry(cmd.Context(), tenantID, entryID, actorID)
		})
}

func newJournalReverseCommand(opts *options) *cobra.Command {
	return postingCommand(opts, "reverse", "Reverse a posted entry with a mirror entry",
		func(l *ledger, cmd *cobra.Command, tenantID, entryID, actorID uuid.UUID) (*appaccounting.PostingResult, error) {
			return l.journal.ReverseJournalEntry(cmd.Context(), tenantID, entryID, actorID)
		})
}

func printPosting(w io.Writer, f *formatter, result *appaccounting.PostingResult) error {
	if result.Reversal != nil {
		fmt.Fprintf(w, "Reversed %s with %s\n", result.Entry.EntryNumber, result.Reversal.EntryNumber)
	} else {
		fmt.Fprintf(w, "Posted %s\n", result.Entry.EntryNumber)
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ACCOUNT\tBEFORE\tAFTER")
	for _, b := range result.Balances {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.AccountCode, f.Amount(b.Previous), f.Amount(b.Balance))
	}
	return tw.Flush()
}
