package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mnemoslab/mnemos/internal/domain"
	"github.com/mnemoslab/mnemos/internal/service"
)

var (
	reviewDue     bool
	reviewItem    string
	reviewQuality int
	reviewLimit   int
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "List due items or register a review outcome",
	Long:  "With --due, prints the merged queue of events and lessons whose next review has come. With --item and --quality, registers one recall outcome and reschedules the item.",
	RunE:  runReview,
}

func init() {
	reviewCmd.Flags().BoolVar(&reviewDue, "due", false, "list items due for review")
	reviewCmd.Flags().StringVar(&reviewItem, "item", "", "item to review, as source:id (e.g. events:12)")
	reviewCmd.Flags().IntVar(&reviewQuality, "quality", -1, "recall quality 0-5")
	reviewCmd.Flags().IntVar(&reviewLimit, "limit", 25, "maximum due items to list")
}

func parseItemRef(s string) (service.ItemRef, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return service.ItemRef{}, fmt.Errorf("item must be source:id, got %q", s)
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return service.ItemRef{}, fmt.Errorf("invalid item id %q", parts[1])
	}
	return service.ItemRef{Source: domain.EmbedSource(parts[0]), ID: id}, nil
}

func runReview(cmd *cobra.Command, args []string) error {
	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if reviewDue {
		items, err := env.reviews.Due(ctx, reviewLimit)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("nothing due for review")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ITEM\tURGENCY\tRETENTION\tREPS\tSUMMARY")
		for _, item := range items {
			fmt.Fprintf(w, "%s:%d\t%s\t%.2f\t%d\t%s\n",
				item.Source, item.ID, item.Urgency, item.Retention, item.Repetitions, item.Summary)
		}
		return w.Flush()
	}

	if reviewItem == "" {
		return fmt.Errorf("either --due or --item is required")
	}
	if reviewQuality < 0 {
		return fmt.Errorf("--quality is required with --item")
	}

	ref, err := parseItemRef(reviewItem)
	if err != nil {
		return err
	}

	result, err := env.reviews.RegisterReview(ctx, ref, reviewQuality)
	if err != nil {
		return err
	}

	fmt.Printf("reviewed %s:%d quality=%d\n", result.Source, result.ID, result.Quality)
	fmt.Printf("  retention before: %.2f\n", result.RetentionBefore)
	fmt.Printf("  strength: %.2f -> %.2f\n", result.StrengthBefore, result.StrengthAfter)
	fmt.Printf("  repetition count: %d\n", result.RepetitionCount)
	fmt.Printf("  next review: %s\n", result.NextReviewAt.Format(time.RFC3339))
	return nil
}
