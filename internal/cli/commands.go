// Package cli implements the vionactl operator commands.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"viona/internal/config"
	"viona/internal/export"
	"viona/internal/logging"
	"viona/internal/models"
	"viona/internal/repository"
	"viona/internal/service"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Env is what a command needs to talk to the booking store.
type Env struct {
	Store     *service.BookingStore
	ExportDir string
	// Backups is nil unless the sqlite driver is configured.
	Backups *repository.BackupService
	Close   func()
}

// EnvLoader opens the store for a command run.
type EnvLoader func(cmd *cobra.Command) (*Env, error)

// NewRootCmd wires all subcommands to the given loader.
func NewRootCmd(load EnvLoader) *cobra.Command {
	root := &cobra.Command{
		Use:           "vionactl",
		Short:         "Viona Hotel booking administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "path to config.yaml (defaults to $CONFIG_PATH or configs/config.yaml)")

	root.AddCommand(
		availabilityCmd(load),
		bookingsCmd(load),
		configCmd(load),
		statsCmd(load),
		backupCmd(load),
	)
	return root
}

// ConfigLoader opens the store described by the --config file.
func ConfigLoader(cmd *cobra.Command) (*Env, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	storage, err := repository.Open(cmd.Context(), cfg.Storage, logging.Component(logger, "storage"))
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	env := &Env{
		Store:     service.NewBookingStore(storage.Docs, nil, logging.Component(logger, "booking-store")),
		ExportDir: cfg.Exports.Path,
		Close: func() {
			_ = storage.Close()
			_ = closer.Close()
		},
	}
	if storage.SQLite != nil {
		env.Backups = repository.NewBackupService(storage.SQLite, cfg.Backup, logging.Component(logger, "backup"))
	}
	return env, nil
}

func withEnv(load EnvLoader, fn func(cmd *cobra.Command, args []string, env *Env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		env, err := load(cmd)
		if err != nil {
			return err
		}
		if env.Close != nil {
			defer env.Close()
		}
		return fn(cmd, args, env)
	}
}

func availabilityCmd(load EnvLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Show remaining rooms per category for a stay",
		RunE: withEnv(load, func(cmd *cobra.Command, _ []string, env *Env) error {
			inStr, _ := cmd.Flags().GetString("check-in")
			outStr, _ := cmd.Flags().GetString("check-out")

			checkIn, err := models.ParseDate(inStr)
			if err != nil {
				return fmt.Errorf("invalid --check-in %q: expected YYYY-MM-DD", inStr)
			}
			checkOut, err := models.ParseDate(outStr)
			if err != nil {
				return fmt.Errorf("invalid --check-out %q: expected YYYY-MM-DD", outStr)
			}
			if !models.ValidStay(checkIn, checkOut) {
				return service.ErrInvalidDateRange
			}

			report := env.Store.AvailabilityReport(cmd.Context(), checkIn, checkOut)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tTOTAL\tBOOKED\tREMAINING\tOVERBOOKED")
			for _, c := range models.Categories() {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", c, c.Total(), report.Overlaps[c], report.Remaining[c], report.Overbooked[c])
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().String("check-in", "", "check-in date (YYYY-MM-DD)")
	cmd.Flags().String("check-out", "", "check-out date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("check-in")
	_ = cmd.MarkFlagRequired("check-out")
	return cmd
}

func bookingsCmd(load EnvLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "Inspect and export bookings",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all bookings",
		RunE: withEnv(load, func(cmd *cobra.Command, _ []string, env *Env) error {
			bookings := env.Store.GetAllBookings(cmd.Context())

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tROOM\tGUEST\tCHECK-IN\tCHECK-OUT\tTOTAL")
			for _, b := range bookings {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s%d\n",
					b.ID, b.RoomName, b.CustomerName,
					b.CheckIn.Format(models.DateLayout), b.CheckOut.Format(models.DateLayout),
					models.Currency, b.TotalPrice)
			}
			return tw.Flush()
		}),
	}

	exp := &cobra.Command{
		Use:   "export",
		Short: "Export bookings as CSV or XLSX",
		RunE: withEnv(load, func(cmd *cobra.Command, _ []string, env *Env) error {
			formatFlag, _ := cmd.Flags().GetString("format")
			out, _ := cmd.Flags().GetString("out")

			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(env.ExportDir, export.FileName(format, time.Now()))
			}

			bookings := env.Store.GetAllBookings(cmd.Context())
			if err := export.SaveFile(out, format, bookings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d bookings to %s\n", len(bookings), out)
			return nil
		}),
	}
	exp.Flags().String("format", export.FormatCSV, "csv or xlsx")
	exp.Flags().String("out", "", "output file (defaults to the exports directory)")

	cmd.AddCommand(list, exp)
	return cmd
}

func configCmd(load EnvLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the site configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the active site configuration as JSON",
		RunE: withEnv(load, func(cmd *cobra.Command, _ []string, env *Env) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(env.Store.GetSiteConfig(cmd.Context()))
		}),
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the site configuration from a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(load, func(cmd *cobra.Command, args []string, env *Env) error {
			cfg, err := readSiteConfig(args[0])
			if err != nil {
				return err
			}
			if err := env.Store.UpdateSiteConfig(cmd.Context(), cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported site config with %d rooms\n", len(cfg.Rooms))
			return nil
		}),
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Drop the stored site configuration and fall back to defaults",
		RunE: withEnv(load, func(cmd *cobra.Command, _ []string, env *Env) error {
			if err := env.Store.ResetSiteConfig(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "site config reset to defaults")
			return nil
		}),
	}

	cmd.AddCommand(show, importCmd, reset)
	return cmd
}

func statsCmd(load EnvLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show order count and revenue",
		RunE: withEnv(load, func(cmd *cobra.Command, _ []string, env *Env) error {
			stats := env.Store.Stats(cmd.Context())
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "orders:  %d\n", stats.TotalOrders)
			fmt.Fprintf(w, "revenue: %s%d\n", models.Currency, stats.TotalRevenue)
			for _, c := range models.Categories() {
				fmt.Fprintf(w, "  %-7s %d\n", c, stats.ByCategory[c])
			}
			return nil
		}),
	}
}

func backupCmd(load EnvLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Copy the sqlite database and prune old copies",
		RunE: withEnv(load, func(cmd *cobra.Command, _ []string, env *Env) error {
			if env.Backups == nil {
				return errors.New("backup requires the sqlite storage driver")
			}
			path, err := env.Backups.PerformBackup(cmd.Context())
			if err != nil {
				return err
			}
			removed := env.Backups.CleanupOldBackups()
			fmt.Fprintf(cmd.OutOrStdout(), "backup written to %s (%d old backups removed)\n", path, removed)
			return nil
		}),
	}
	return cmd
}

// readSiteConfig accepts the JSON document shape for both formats; YAML is
// decoded generically and re-encoded so the json field names apply.
func readSiteConfig(path string) (models.SiteConfig, error) {
	var cfg models.SiteConfig

	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return cfg, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc interface{}
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		if raw, err = json.Marshal(doc); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
