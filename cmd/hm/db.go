package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gorm.io/gorm"

	"github.com/pwolcott/huntmaster/internal/config"
	"github.com/pwolcott/huntmaster/internal/db"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBMigrateCmd())
	cmd.AddCommand(newDBResetCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the Huntmaster database and config",
		Long: `Creates the database and migrates all tables.

If the config file does not exist yet, prompts for the Discord bot token
and writes a starter huntmaster.yaml first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "huntmaster.yaml", "path to Huntmaster config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := writeStarterConfig(cmd, configPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote starter config to %s\n", configPath)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := connectFromConfig(cfg, true)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s database\n", cfg.Database.Driver)

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	fmt.Fprintln(out, "\nHuntmaster database initialized successfully.")
	return nil
}

func newDBMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations to an existing database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			gormDB, err := connectFromConfig(cfg, false)
			if err != nil {
				return err
			}
			if err := db.AutoMigrate(gormDB); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d tables\n", len(db.AllModels()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "huntmaster.yaml", "path to Huntmaster config file")
	return cmd
}

func newDBResetCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and re-initialize the Huntmaster database",
		Long:  "Drops all hunt data and recreates the schema. Asks for confirmation unless --yes is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBReset(cmd, configPath, yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "huntmaster.yaml", "path to Huntmaster config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func runDBReset(cmd *cobra.Command, configPath string, yes bool) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if !yes {
		fmt.Fprintf(out, "This drops ALL hunt data in %q. Type the database name to confirm: ", databaseLabel(cfg))
		reader := bufio.NewReader(cmd.InOrStdin())
		line, _ := reader.ReadString('\n')
		if strings.TrimSpace(line) != databaseLabel(cfg) {
			return fmt.Errorf("confirmation did not match, aborting")
		}
	}

	switch cfg.Database.Driver {
	case "sqlite":
		if err := os.Remove(cfg.Database.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", cfg.Database.Path, err)
		}
	case "mysql":
		adminDB, err := db.ConnectAdmin(cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password)
		if err != nil {
			return err
		}
		if err := db.DropDatabase(adminDB, cfg.Database.Database); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "Dropped database %q\n", databaseLabel(cfg))

	gormDB, err := connectFromConfig(cfg, true)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintln(out, "Database re-initialized.")
	return nil
}

// connectFromConfig opens the configured database. With create set, a
// missing MySQL database is created first; SQLite files appear on open.
func connectFromConfig(cfg *config.Config, create bool) (*gorm.DB, error) {
	if cfg.Database.Driver == "sqlite" {
		return db.ConnectSQLite(cfg.Database.Path)
	}
	if create {
		adminDB, err := db.ConnectAdmin(cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password)
		if err != nil {
			return nil, err
		}
		if err := db.CreateDatabase(adminDB, cfg.Database.Database); err != nil {
			return nil, err
		}
	}
	return db.Connect(cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Database)
}

func databaseLabel(cfg *config.Config) string {
	if cfg.Database.Driver == "sqlite" {
		return cfg.Database.Path
	}
	return cfg.Database.Database
}

// writeStarterConfig prompts for the bot token and writes a minimal config.
// The token is read without echo when stdin is a terminal.
func writeStarterConfig(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()

	fmt.Fprint(out, "Discord bot token: ")
	token, err := readSecret(cmd)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	fmt.Fprintln(out)
	if token == "" {
		return fmt.Errorf("a Discord bot token is required")
	}

	starter := fmt.Sprintf(`discord:
  token: %q

database:
  driver: sqlite
  path: huntmaster.db

# Uncomment to enable Google Drive/Sheets integration:
# drive:
#   credentials_file: service-account.json

reconcile:
  tick_seconds: 30
  delete_grace_minutes: 5
  nexus_seconds: 60
  hunt_sweep_schedule: "0 4 * * *"

dashboard:
  port: 8080
`, token)

	return os.WriteFile(path, []byte(starter), 0o600)
}

func readSecret(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
