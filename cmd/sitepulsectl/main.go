// main.go - Admin control tool for sitepulse
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sitepulse/internal"
	"sitepulse/internal/jobs"
	"sitepulse/internal/settings"
	"sitepulse/internal/stats"
	"sitepulse/internal/users"
)

const defaultShutdownTimeout = 30 * time.Second

// Command defines the interface for all command implementations
type Command interface {
	// Name returns the command name
	Name() string
	// Description returns the command description
	Description() string
	// Execute runs the command with the given app and args
	Execute(ctx context.Context, app *internal.Application, args []string) error
}

// The set of available commands
var commands = []Command{
	&AggregateCommand{},
	&CleanupCommand{},
	&CreateAdminUserCommand{},
	&MigrateCommand{},
	&StatusCommand{},
	&HelpCommand{},
}

func main() {
	flag.Parse()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, initiating cleanup...", sig)
		cancel()
	}()

	cmdName, args := parseArgs()

	cmd := findCommand(cmdName)
	if cmd == nil {
		showUsageAndExit()
	}

	app, err := internal.NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Printf("Warning: Cleanup error: %v", err)
		}
	}()

	if err := cmd.Execute(ctx, app, args); err != nil {
		log.Fatalf("Command failed: %v", err)
	}

	log.Printf("Command %s completed successfully", cmd.Name())
}

// AggregateCommand rolls one day of raw events into daily stats.
type AggregateCommand struct{}

func (c *AggregateCommand) Name() string { return "aggregate" }

func (c *AggregateCommand) Description() string {
	return "Aggregates a day of pageviews into daily stats (defaults to yesterday)"
}

func (c *AggregateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("aggregate", flag.ContinueOnError)
	backfill := fs.Bool("backfill", false, "also fill missing days before the target date")
	if err := fs.Parse(args); err != nil {
		return err
	}

	date := ""
	if fs.NArg() > 0 {
		date = fs.Arg(0)
		if !stats.ValidDate(date) {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
		}
	}

	job := jobs.NewAggregateJob(app.DBManager.GetConnection(), app.Logger)
	return job.Run(date, *backfill)
}

// CleanupCommand deletes data past the retention window.
type CleanupCommand struct{}

func (c *CleanupCommand) Name() string { return "cleanup" }

func (c *CleanupCommand) Description() string {
	return "Deletes raw data and stats past their retention windows"
}

func (c *CleanupCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	db := app.DBManager.GetConnection()
	retention := settings.GetRetentionDays(db)

	report, err := jobs.NewCleanupJob(db, app.Logger, retention).Run()
	if err != nil {
		return err
	}

	log.Printf("Deleted %d pageviews, %d visits, %d daily stats",
		report.DeletedPageviews, report.DeletedVisits, report.DeletedStats)
	return nil
}

// CreateAdminUserCommand creates an initial admin user.
type CreateAdminUserCommand struct{}

func (c *CreateAdminUserCommand) Name() string { return "create-admin-user" }

func (c *CreateAdminUserCommand) Description() string {
	return "Creates an initial admin user"
}

func (c *CreateAdminUserCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: %s <email> <password>", c.Name())
	}

	email := args[0]
	password := args[1]

	log.Printf("Setting up admin user with email: %s", email)

	db := app.DBManager.GetConnection()
	if err := users.CreateAdminUser(db, email, password); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// MigrateCommand runs database migrations.
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	log.Println("Running database migrations...")
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Println("Migrations completed")
	return nil
}

// StatusCommand reports database connectivity and row counts.
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Shows the current system status" }

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	db := app.DBManager.GetConnection()

	userCount, err := users.CountUsers(db)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	var eventCount, statCount int64
	db.Raw("SELECT COUNT(*) FROM pageview_events").Scan(&eventCount)
	db.Raw("SELECT COUNT(*) FROM daily_stats").Scan(&statCount)

	log.Println("System Status:")
	log.Println("- Database: Connected")
	log.Printf("- Users: %d", userCount)
	log.Printf("- Pageview events: %d", eventCount)
	log.Printf("- Daily stats: %d", statCount)
	log.Printf("- Retention: %d days", settings.GetRetentionDays(db))

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB: %w", err)
	}
	log.Printf("- Open Connections: %d", sqlDB.Stats().OpenConnections)
	return nil
}

// HelpCommand shows usage information.
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fmt.Println("Usage: sitepulsectl [command] [args...]")
	fmt.Println("Available commands:")

	for _, cmd := range commands {
		fmt.Printf("  %s: %s\n", cmd.Name(), cmd.Description())
	}
	return nil
}

// Helper functions

func parseArgs() (string, []string) {
	args := os.Args[1:]
	if len(args) == 0 {
		return "help", []string{}
	}
	return args[0], args[1:]
}

func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func showUsageAndExit() {
	fmt.Println("Usage: sitepulsectl [command] [args...]")
	fmt.Println("Available commands:")

	for _, cmd := range commands {
		fmt.Printf("  %s: %s\n", cmd.Name(), cmd.Description())
	}

	os.Exit(1)
}
