// Command migrate applies the ledger's PostgreSQL schema migrations.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var errUsage = errors.New("usage")

// command is one migrate subcommand operating on an open migrator
type command struct {
	usage string
	exec  func(m *migration.Migrator, args []string, log *zap.Logger) error
}

var commands = map[string]command{
	"up": {"up", func(m *migration.Migrator, _ []string, _ *zap.Logger) error {
		return m.Up()
	}},
	"down": {"down", func(m *migration.Migrator, _ []string, _ *zap.Logger) error {
		return m.Down()
	}},
	"step": {"step <n>", func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := intArg(args, "step count")
		if err != nil {
			return err
		}
		return m.Steps(n)
	}},
	"goto": {"goto <version>", func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		v, err := intArg(args, "version")
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("version must not be negative: %d", v)
		}
		return m.GoTo(uint(v))
	}},
	"version": {"version", func(m *migration.Migrator, _ []string, log *zap.Logger) error {
		s, err := m.Status()
		if err != nil {
			return err
		}
		log.Info("Schema version",
			zap.Uint("version", s.Version),
			zap.Bool("dirty", s.Dirty),
			zap.Uint("latest", s.Latest),
			zap.Int("pending", s.Pending))
		return nil
	}},
	"force": {"force <version>", func(m *migration.Migrator, args []string, log *zap.Logger) error {
		v, err := intArg(args, "version")
		if err != nil {
			return err
		}
		log.Warn("Forcing schema version without running migrations", zap.Int("version", v))
		return m.Force(v)
	}},
	"drop": {"drop -confirm", func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		if len(args) == 0 || (args[0] != "-confirm" && args[0] != "--confirm") {
			return fmt.Errorf("%w: drop deletes every ledger table; pass -confirm", errUsage)
		}
		return m.Drop()
	}},
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(argv []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	path := fs.String("path", "", "directory of migration files (default: schema embedded in the binary)")
	level := fs.String("log-level", "info", "log level (debug, info, warn, error)")
	if err := fs.Parse(argv); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	args := fs.Args()
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	source := *path
	if source != "" {
		abs, err := filepath.Abs(source)
		if err != nil {
			return err
		}
		source = abs
	}

	// list only reads the migration source
	if args[0] == "list" {
		return listVersions(source, out)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("migrations target postgres, configured driver is %q; sqlite schemas are created by the server", cfg.Database.Driver)
	}

	log, err := logger.New(config.LogConfig{Level: *level, Format: "console", Output: "stdout"}, cfg.App)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("command", args[0]))

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	// Closing the migrator also closes db
	m, err := migration.New(db, source, log)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer m.Close()

	if err := cmd.exec(m, args[1:], log); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	return nil
}

func listVersions(source string, out io.Writer) error {
	versions, err := migration.AvailableVersions(source)
	if err != nil {
		return err
	}
	for _, v := range versions {
		fmt.Fprintf(out, "%06d\n", v)
	}
	return nil
}

func intArg(args []string, name string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: %s required", errUsage, name)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errUsage, name, args[0])
	}
	return n, nil
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: migrate [-path dir] [-log-level level] <command>

Commands:
  up                Apply all pending migrations
  down              Roll back all migrations
  step <n>          Apply n migrations (negative rolls back)
  goto <version>    Migrate to a version
  version           Show the applied version
  force <version>   Set the version without migrating
  drop -confirm     Drop every table
  list              List the migrations in the source

Database settings come from config.toml and ERP_DATABASE_* variables.
`)
}
