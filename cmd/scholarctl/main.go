package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"scholarhub/internal/config"
	"scholarhub/internal/database"
	"scholarhub/internal/models"
	"scholarhub/internal/sequence"
	"scholarhub/internal/services"
	"scholarhub/internal/utils/appinfo"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// env holds what every subcommand needs once configuration is loaded.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand(os.Stdout)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "scholarctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	e := &env{out: out}
	cmd := &cobra.Command{
		Use:          "scholarctl",
		Short:        "ScholarHub operations CLI",
		Long:         `scholarctl runs schema migrations, bootstraps administrators and inspects identifier sequences.`,
		SilenceUsage: true,
		Version:      appinfo.Version(),
	}
	cmd.SetOut(out)
	cmd.AddCommand(
		newMigrateCmd(e),
		newCreateAdminCmd(e),
		newSequenceCmd(e),
	)
	return cmd
}

// load reads configuration and builds a quiet logger. It runs lazily so
// argument errors surface before any connection attempt.
func (e *env) load() error {
	if e.cfg != nil {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logCfg := cfg.Logging
	if logCfg.Level == "" || logCfg.Level == "debug" {
		logCfg.Level = "warn"
	}
	logger, err := appinfo.NewLogger(logCfg, cfg.Server.Environment)
	if err != nil {
		return err
	}
	e.cfg, e.logger = cfg, logger
	return nil
}

func (e *env) withDatabase(ctx context.Context, fn func(*database.Manager) error) error {
	if err := e.load(); err != nil {
		return err
	}
	manager, err := database.NewManager(ctx, &e.cfg.Database, e.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer manager.Close()
	return fn(manager)
}

func (e *env) withServices(ctx context.Context, fn func(*services.ServiceCollection) error) error {
	return e.withDatabase(ctx, func(manager *database.Manager) error {
		sc, err := services.NewServiceCollection(ctx, manager, e.cfg, e.logger)
		if err != nil {
			return err
		}
		defer sc.Shutdown(context.Background())
		return fn(sc)
	})
}

// ===============================
// MIGRATIONS
// ===============================

func newMigrateCmd(e *env) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "Migrations directory (defaults to DB_MIGRATIONS_PATH)")

	migrationsPath := func() string {
		if path != "" {
			return path
		}
		return e.cfg.Database.MigrationsPath
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withDatabase(cmd.Context(), func(m *database.Manager) error {
				if err := m.MigrateUp(migrationsPath()); err != nil {
					return err
				}
				return printVersion(e.out, m, migrationsPath())
			})
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive")
			}
			return e.withDatabase(cmd.Context(), func(m *database.Manager) error {
				if err := m.MigrateDown(migrationsPath(), steps); err != nil {
					return err
				}
				return printVersion(e.out, m, migrationsPath())
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withDatabase(cmd.Context(), func(m *database.Manager) error {
				return printVersion(e.out, m, migrationsPath())
			})
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func printVersion(out io.Writer, m *database.Manager, path string) error {
	v, dirty, err := m.MigrationVersion(path)
	if err != nil {
		return err
	}
	if dirty {
		fmt.Fprintf(out, "schema version %d (dirty)\n", v)
		return nil
	}
	fmt.Fprintf(out, "schema version %d\n", v)
	return nil
}

// ===============================
// ADMIN BOOTSTRAP
// ===============================

func newCreateAdminCmd(e *env) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long:  "Creates an administrator. The password may come from --password or SCHOLARHUB_ADMIN_PASSWORD.",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("SCHOLARHUB_ADMIN_PASSWORD")
			}
			if strings.TrimSpace(email) == "" {
				return fmt.Errorf("--email is required")
			}
			if password == "" {
				return fmt.Errorf("--password or SCHOLARHUB_ADMIN_PASSWORD is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withServices(cmd.Context(), func(sc *services.ServiceCollection) error {
				user, err := sc.UserService.CreateAdmin(cmd.Context(), email, password)
				if err != nil {
					return describe(err)
				}
				fmt.Fprintf(e.out, "created admin %s with id %d\n", user.Email, user.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Administrator email")
	cmd.Flags().StringVar(&password, "password", "", "Administrator password")
	return cmd
}

// describe flattens field validation errors into one line.
func describe(err error) error {
	var fields models.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return err
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return fmt.Errorf("%s: %s", services.GetServiceError(err).Message, strings.Join(parts, "; "))
}

// ===============================
// SEQUENCES
// ===============================

func newSequenceCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sequence",
		Short: "Inspect or advance identifier counters",
		Long:  "Counters: " + strings.Join(sequence.Names, ", "),
	}

	counterArg := func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(1)(cmd, args); err != nil {
			return err
		}
		if !sequence.IsKnown(args[0]) {
			return fmt.Errorf("%w %q (known: %s)", sequence.ErrUnknownCounter, args[0], strings.Join(sequence.Names, ", "))
		}
		return nil
	}

	run := func(op func(context.Context, sequence.Generator, string) (int64, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return e.withServices(cmd.Context(), func(sc *services.ServiceCollection) error {
				v, err := op(cmd.Context(), sc.Sequence, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(e.out, "%s %d\n", args[0], v)
				return nil
			})
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "next <counter>",
			Short: "Consume and print the next value",
			Args:  counterArg,
			RunE: run(func(ctx context.Context, g sequence.Generator, name string) (int64, error) {
				return g.Next(ctx, name)
			}),
		},
		&cobra.Command{
			Use:   "current <counter>",
			Short: "Print the last issued value",
			Args:  counterArg,
			RunE: run(func(ctx context.Context, g sequence.Generator, name string) (int64, error) {
				return g.Current(ctx, name)
			}),
		},
	)
	return cmd
}
