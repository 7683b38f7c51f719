package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
)

var (
	v       = viper.New()
	rootCmd = &cobra.Command{
		Use:   "fintrack-cli",
		Short: "Administer a fintrack ledger from the terminal",
		Long: `fintrack-cli runs maintenance tasks against the same storage and
Gemini settings as the web server: schema migrations, one-off
classifications, assistant questions, yearly summaries and
spreadsheet reconciliation.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}

	cfg    *config.Config
	logger *log.Logger
)

func init() {
	rootCmd.PersistentFlags().String("backend", "", "storage backend (memory, sqlite, postgres)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	_ = v.BindPFlag("DATA_BACKEND", rootCmd.PersistentFlags().Lookup("backend"))
	_ = v.BindPFlag("SQLITE_DB_PATH", rootCmd.PersistentFlags().Lookup("db"))
	_ = v.BindPFlag("LOG_LEVEL", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(reconcileCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

// initConfig layers flags over the environment. Unset flags fall through to
// the environment and then to the defaults.
func initConfig(_ *cobra.Command, _ []string) error {
	cli.LoadEnvFile()
	v.AutomaticEnv()
	config.SetDefaults(v)

	cfg = config.FromViper(v)
	logger = cli.SetupLogger(cfg.LogLevel, log.ComponentApp)
	if err := cfg.Validate(); err != nil {
		return err
	}
	return nil
}

// ownerFlag registers the required --owner flag on cmd.
func ownerFlag(cmd *cobra.Command, owner *string) {
	cmd.Flags().StringVar(owner, "owner", "", "owner id, for example dev-me@example.com or google-1234")
	_ = cmd.MarkFlagRequired("owner")
}
