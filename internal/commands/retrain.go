package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var retrainUser uint

var retrainCmd = &cobra.Command{
	Use:   "retrain",
	Short: "Retrain duration models for one user or for everyone",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
		out := cmd.OutOrStdout()
		if retrainUser != 0 {
			trained, err := a.training.RetrainUser(cmd.Context(), retrainUser)
			if err != nil {
				return err
			}
			if !trained {
				fmt.Fprintf(out, "User #%d has too few completed tasks; model left unchanged\n", retrainUser)
				return nil
			}
			fmt.Fprintf(out, "🧠 Retrained model for user #%d\n", retrainUser)
			return nil
		}

		summary, err := a.training.RetrainAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Trained: %d  Skipped: %d  Failed: %d\n", summary.Trained, summary.Skipped, summary.Failed)
		if summary.Failed > 0 {
			return fmt.Errorf("%d user(s) failed to retrain", summary.Failed)
		}
		return nil
	}),
}

func init() {
	retrainCmd.Flags().UintVar(&retrainUser, "user", 0, "internal user ID to retrain (default: all users)")
}
