package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"timeguard/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cfg is filled before any subcommand runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "timeguard",
	Short: "Task duration estimates that learn from your history",
	Long: `timeguard keeps your tasks, estimates how long each one will take and
retrains a personal model every time you report how long a task really took.
Run "timeguard bot" to serve the Telegram bot.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		level, err := log.ParseLevel(loaded.LogLevel)
		if err != nil {
			return fmt.Errorf("config: LOG_LEVEL: %w", err)
		}
		log.SetLevel(level)
		cfg = loaded
		return nil
	},
}

// withApp wires the application before running fn and closes it afterwards.
func withApp(fn func(*cobra.Command, []string, *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(retrainCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(versionCmd)
}
