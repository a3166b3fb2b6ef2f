// Daybook serves a merged calendar of tasks, reminders, notes and events.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hray3182/daybook/internal/api"
	"github.com/hray3182/daybook/internal/calendar"
	"github.com/hray3182/daybook/internal/config"
	"github.com/hray3182/daybook/internal/database"
	appLog "github.com/hray3182/daybook/internal/log"
	"github.com/hray3182/daybook/internal/repository"
	"github.com/hray3182/daybook/internal/scheduler"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "daybook",
		Short:         "Daybook - reminders and calendar aggregation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(agendaCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration, applies the log level and connects to the
// database.
func setup(ctx context.Context) (*config.Config, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	if cfg.DatabaseURI == "" {
		return nil, nil, errors.New("DATABASE_URI is required")
	}
	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, db, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations, then serve the HTTP API and refresh reminder triggers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, db, err := setup(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			appLog.Info("connected to database")

			if err := db.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			store := repository.NewCalendarStore(db)
			sched, err := scheduler.New(store.TaskRepo, store.ReminderRepo, cfg.RefreshCron)
			if err != nil {
				return err
			}
			go sched.Start(ctx)

			srv := api.New(api.Config{
				Addr:        cfg.ListenAddr,
				CORSOrigins: cfg.CORSOrigins,
				Service:     calendar.NewService(store, cfg.DefaultTimezone),
				Actions:     store,
				Notifier:    sched,
			})

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			appLog.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Stop(shutdownCtx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			appLog.Info("database migrations completed")
			return nil
		},
	}
}

func agendaCmd() *cobra.Command {
	var (
		q    calendar.Query
		flat bool
	)

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Print a user's calendar as JSON",
		Example: `  daybook agenda --user 42 --from 2024-06-01 --to 2024-06-07 --timezone Europe/Berlin
  daybook agenda --user 42 --flat --scope shared`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			svc := calendar.NewService(repository.NewCalendarStore(db), cfg.DefaultTimezone)

			var out any
			if flat {
				out, err = svc.Calendar(cmd.Context(), q)
			} else {
				out, err = svc.Aggregate(cmd.Context(), q)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&q.UserID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&q.From, "from", "", "range start, YYYY-MM-DD or RFC 3339 (default today)")
	cmd.Flags().StringVar(&q.To, "to", "", "range end, YYYY-MM-DD or RFC 3339 (default 30 days)")
	cmd.Flags().StringVar(&q.Timezone, "timezone", "", "IANA timezone (default from config)")
	cmd.Flags().StringVar(&q.Scope, "scope", "", "all, personal or shared")
	cmd.Flags().BoolVar(&flat, "flat", false, "print a single event list instead of day buckets")
	cmd.MarkFlagRequired("user")

	return cmd
}
