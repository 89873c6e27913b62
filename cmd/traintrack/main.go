package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/meltforce/traintrack/internal/config"
	"github.com/meltforce/traintrack/internal/program"
	"github.com/meltforce/traintrack/internal/storage"
	"github.com/meltforce/traintrack/internal/store"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// app wires the shared dependencies behind every command.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	catalog *program.Catalog
	db      *storage.DB
	store   *store.Store
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var configPath string

	root := &cobra.Command{
		Use:           "traintrack",
		Short:         "Offline training-program tracker",
		Long:          "traintrack presents a prescribed multi-week training program, logs actual per-set performance, and keeps everything in a local database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.bootstrap(cmd, configPath)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.db != nil {
				a.db.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to config file")

	root.AddCommand(
		newTodayCmd(a),
		newLogCmd(a),
		newHistoryCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newResetCmd(a),
		newSettingsCmd(a),
		newUserCmd(a),
		newMCPCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) bootstrap(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return err
	}
	a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	catalog, err := program.Load(a.log)
	if err != nil {
		return fmt.Errorf("loading program catalog: %w", err)
	}
	a.catalog = catalog

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	a.db = db

	defaultUser := cfg.User.Default
	if defaultUser == "" {
		defaultUser = catalog.DefaultUserID()
	}
	if err := db.UpgradeLegacyData(cmd.Context(), defaultUser, a.log); err != nil {
		return fmt.Errorf("upgrading legacy data: %w", err)
	}

	a.store = store.New(db, catalog, a.log)
	if err := a.store.Init(cmd.Context()); err != nil {
		// The store degrades to an empty partition; warn and keep going so
		// export or reset can still run.
		a.log.Warn("continuing with empty data", "error", err)
	}
	return nil
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "traintrack.yaml"
	}
	return filepath.Join(dir, "traintrack", "config.yaml")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		// No database needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "traintrack", Version)
		},
	}
}
