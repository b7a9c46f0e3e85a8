package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mnemoslab/mnemos/internal/service"
)

var ingestDryRun bool

var ingestCmd = &cobra.Command{
	Use:   "ingest <manifest.yaml>",
	Short: "Apply a reviewed YAML manifest",
	Long:  "Commits a reviewed manifest: observations become facts, insights become lessons, meta-preferences become values, each per its disposition.",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "validate and report without writing")
}

func runIngest(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	manifest, err := service.ParseManifest(data)
	if err != nil {
		return err
	}

	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	report, err := env.manifest.Apply(ctx, manifest, ingestDryRun)
	if err != nil {
		return err
	}

	if report.DryRun {
		fmt.Println("dry run; no changes written")
	}
	fmt.Printf("applied %d, skipped %d, failed %d\n", report.Applied, report.Skipped, report.Failed)
	for _, item := range report.Items {
		switch {
		case item.Error != "":
			fmt.Printf("  %s[%d] %s: FAILED: %s\n", item.Section, item.Index, item.Disposition, item.Error)
		case item.Applied && item.ID != 0:
			fmt.Printf("  %s[%d] %s: id %d\n", item.Section, item.Index, item.Disposition, item.ID)
		case item.Applied:
			fmt.Printf("  %s[%d] %s: ok\n", item.Section, item.Index, item.Disposition)
		default:
			fmt.Printf("  %s[%d] %s: skipped\n", item.Section, item.Index, item.Disposition)
		}
	}
	return nil
}
