package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"timeguard/internal/service"
)

var analyticsUser uint

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Print completion statistics for a user",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
		user, err := a.users.FindByID(cmd.Context(), analyticsUser)
		if err != nil {
			return fmt.Errorf("user #%d: %w", analyticsUser, err)
		}
		stats, err := a.analytics.UserAnalytics(cmd.Context(), user.ID)
		if err != nil {
			return err
		}
		week, err := a.analytics.WeeklyActivity(cmd.Context(), user.ID)
		if err != nil {
			return err
		}
		printAnalytics(cmd.OutOrStdout(), stats, week)
		return nil
	}),
}

func printAnalytics(out io.Writer, stats service.UserAnalytics, week []service.DayActivity) {
	fmt.Fprintf(out, "Completed tasks: %d\n", stats.TotalCompleted)
	if stats.TotalCompleted == 0 {
		return
	}
	fmt.Fprintf(out, "Average duration: %.2fh\n", stats.AvgCompletionHours)
	fmt.Fprintf(out, "Within estimate: %.0f%%\n", stats.AccuracyRate*100)

	names := make([]string, 0, len(stats.Categories))
	for name := range stats.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(out, "\nBy category:")
	for _, name := range names {
		cs := stats.Categories[name]
		fmt.Fprintf(out, "  %-12s %3d tasks  avg %.2fh\n", name, cs.Count, cs.AvgHours)
	}

	fmt.Fprintln(out, "\nBy weekday:")
	for _, day := range week {
		fmt.Fprintf(out, "  %-9s %3d tasks  %.2fh\n", day.Day, day.TaskCount, day.TotalHours)
	}
}

func init() {
	analyticsCmd.Flags().UintVar(&analyticsUser, "user", 0, "internal user ID")
	_ = analyticsCmd.MarkFlagRequired("user")
}
