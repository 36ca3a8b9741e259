// Package cli implements ledgerctl, the operator command line for the
// ledger: chart of accounts, journal posting, balances and numbering run
// directly against the database without the HTTP server.
package cli

import (
	"fmt"
	"os"

	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every command
type options struct {
	tenant     string
	sqlitePath string
	lang       string
	jsonOutput bool
	configFile string
	loadConfig func(path string) (*config.Config, error)
}

func (o *options) tenantID() (uuid.UUID, error) {
	if o.tenant == "" {
		return uuid.Nil, fmt.Errorf("--tenant is required")
	}
	id, err := uuid.Parse(o.tenant)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("--tenant must be a non-nil UUID, got %q", o.tenant)
	}
	return id, nil
}

// NewRootCommand builds the ledgerctl command tree
func NewRootCommand(version string) *cobra.Command {
	opts := &options{loadConfig: config.LoadFile}
	return newRootCommand(version, opts)
}

func newRootCommand(version string, opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the double-entry ledger from the command line",
		Long: `ledgerctl works directly on the ledger database configured in config.toml
(or ERP_* environment variables). Pass --sqlite to work on a local ledger file
instead; its schema is created on first use.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.tenant, "tenant", "t", os.Getenv("ERP_TENANT_ID"), "Tenant ID (default: $ERP_TENANT_ID)")
	pf.StringVar(&opts.configFile, "config", "", "Config file (default: ./config.toml or /app/config.toml)")
	pf.StringVar(&opts.sqlitePath, "sqlite", "", "Use a local SQLite ledger file instead of the configured database")
	pf.StringVar(&opts.lang, "lang", "en", "Language tag used to format amounts (e.g. en, de, fr)")
	pf.BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON")

	root.AddCommand(
		newAccountsCommand(opts),
		newJournalCommand(opts),
		newBalanceCommand(opts),
		newTrialBalanceCommand(opts),
		newNextNumberCommand(opts),
		newOverdueCommand(opts),
	)
	return root
}

// Execute runs ledgerctl and exits non-zero on failure
func Execute(version string) {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
