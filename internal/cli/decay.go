package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var decayApply bool

var decayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Run the forgetting sweep",
	Long:  "Scans the timeline for low-importance events whose retention has collapsed and flags them forgotten. Without --apply this is a dry run that only reports candidates.",
	RunE:  runDecay,
}

func init() {
	decayCmd.Flags().BoolVar(&decayApply, "apply", false, "flag candidates instead of reporting them")
}

func runDecay(cmd *cobra.Command, args []string) error {
	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := env.reviews.Sweep(ctx, !decayApply)
	if err != nil {
		return err
	}

	fmt.Printf("scanned %d events, %d candidate(s)\n", report.Scanned, len(report.Candidates))
	for _, id := range report.Candidates {
		fmt.Printf("  event %d\n", id)
	}
	if report.DryRun {
		if len(report.Candidates) > 0 {
			fmt.Println("dry run; re-run with --apply to flag them forgotten")
		}
		return nil
	}
	fmt.Printf("flagged %d event(s) forgotten\n", report.Forgotten)
	return nil
}
