// Package cli provides the tutorctl command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/set-night/tutorme/internal/completion"
	"github.com/set-night/tutorme/internal/config"
	"github.com/set-night/tutorme/internal/session"
	"github.com/set-night/tutorme/internal/storage"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	configPath string
	serverURL  string

	cfg      *config.CLIConfig
	app      *App
	store    *session.Store
	closeKV  func() error
	closeLog func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tutorctl",
	Short: "Terminal client for the TutorMe tutor",
	Long: `tutorctl keeps tutoring tabs on this machine and sends questions to a
TutorMe completion server.

Each tab is an independent conversation for one education level and subject.
Tabs and saved dashboard chats live in the local data directory.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.LoadCLI(configPath)
		if err != nil {
			return err
		}
		if serverURL != "" {
			cfg.ServerURL = serverURL
		}

		var logger *slog.Logger
		logger, closeLog = config.SetupLogger(cfg.LogFile, config.ParseLogLevel(cfg.LogLevel))
		slog.SetDefault(logger)

		kv, err := openKV(cfg)
		if err != nil {
			return err
		}

		store = session.New(storage.NewTabAdapter(kv))
		store.Init(cmd.Context())
		dashboard := session.NewDashboard(storage.NewSummaryAdapter(kv), cfg.MaxChats)
		app = NewApp(store, dashboard, completion.NewClient(cfg.ServerURL), cfg.UserID, cmd.OutOrStdout())
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return shutdown()
	},
}

func openKV(cfg *config.CLIConfig) (storage.KV, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		kv, err := storage.OpenSQLiteKV(filepath.Join(cfg.DataDir, "tutorme.db"))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		closeKV = kv.Close
		return kv, nil
	default:
		kv, err := storage.NewFileKV(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		closeKV = func() error { return nil }
		return kv, nil
	}
}

// shutdown waits for pending tab writes and releases the store.
func shutdown() error {
	var err error
	if store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), config.PersistTimeout)
		defer cancel()
		if ferr := store.Flush(ctx); ferr != nil {
			err = fmt.Errorf("save tabs: %w", ferr)
		}
		store = nil
	}
	if closeKV != nil {
		if cerr := closeKV(); cerr != nil && err == nil {
			err = fmt.Errorf("close store: %w", cerr)
		}
		closeKV = nil
	}
	if closeLog != nil {
		closeLog()
		closeLog = nil
	}
	return err
}

// Execute adds all child commands to the root command and runs it.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		// PersistentPostRunE is skipped when a command fails
		if serr := shutdown(); serr != nil {
			slog.Warn("shutdown", "error", serr)
		}
	}
	return err
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/tutorme/config.toml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "completion server URL (overrides TUTORME_SERVER_URL)")

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(tabsCmd)
	rootCmd.AddCommand(dashboardCmd)
}

// Fatal prints err and exits with code 1.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("Error:"), err)
	os.Exit(1)
}
