// Package admin implements the operator command line: schema migrations,
// superuser bootstrap and build information.
package admin

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/dmitrijs2005/usersvc/internal/dbx"
	"github.com/dmitrijs2005/usersvc/internal/server/config"
	"github.com/dmitrijs2005/usersvc/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Build information, set with -ldflags "-X".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Env is everything the commands reach outside the process.
type Env struct {
	LoadConfig   func() (*config.Config, error)
	OpenDB       func(ctx context.Context, cfg *config.Config) (*sql.DB, error)
	Manager      repomanager.RepositoryManager
	ReadPassword func(fd int) ([]byte, error)
	StdinFd      int
}

// DefaultEnv talks to PostgreSQL and the controlling terminal.
func DefaultEnv() Env {
	return Env{
		LoadConfig: config.LoadConfig,
		OpenDB: func(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
			return dbx.Open(ctx, dbx.DriverPostgres, cfg.DatabaseDSN, dbx.PoolOptions{MaxOpenConns: 2, MaxIdleConns: 1})
		},
		Manager:      repomanager.NewPostgresRepositoryManager(),
		ReadPassword: term.ReadPassword,
		StdinFd:      int(os.Stdin.Fd()),
	}
}

type cli struct {
	env Env
	cfg *config.Config

	dsn string
}

// NewRootCommand assembles the command tree.
func NewRootCommand(env Env) *cobra.Command {
	c := &cli{env: env}

	root := &cobra.Command{
		Use:           "usersvc-cli",
		Short:         "usersvc administration",
		Long:          `Administrative commands for the user service: database migrations and superuser bootstrap.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// -c is read by config.LoadConfig straight from the command line;
	// it is declared here so cobra accepts it.
	root.PersistentFlags().StringP("config", "c", "", "path to JSON config file")
	root.PersistentFlags().StringVar(&c.dsn, "dsn", "", "database DSN (overrides config)")

	root.AddCommand(
		c.migrateCommand(),
		c.createSuperuserCommand(),
		versionCommand(),
	)
	return root
}

func (c *cli) loadConfig(cmd *cobra.Command) error {
	cfg, err := c.env.LoadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("dsn") {
		cfg.DatabaseDSN = c.dsn
	}
	c.cfg = cfg
	return nil
}

// withDB runs fn with an open database that is closed afterwards.
func (c *cli) withDB(cmd *cobra.Command, fn func(ctx context.Context, db *sql.DB) error) error {
	if err := c.loadConfig(cmd); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := c.env.OpenDB(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, db)
}

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withDB(cmd, func(ctx context.Context, db *sql.DB) error {
				if err := c.env.Manager.RunMigrations(ctx, db); err != nil {
					return fmt.Errorf("migrations error: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
				return nil
			})
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "usersvc %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}
