package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mnemoslab/mnemos/internal/service"
)

var (
	exportFrom          string
	exportTo            string
	exportMinImportance float64
	exportMinSalience   float64
	exportOut           string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a bulk export document for archival",
	Long:  "Collects the window's qualifying events and facts into one JSON document and writes it to stdout or --out.",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "window start (RFC 3339; default: beginning of time)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "window end (RFC 3339; default: now)")
	exportCmd.Flags().Float64Var(&exportMinImportance, "min-importance", 0, "minimum event importance")
	exportCmd.Flags().Float64Var(&exportMinSalience, "min-salience", 0, "minimum emotional salience")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default: stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	window := service.ExportWindow{
		MinImportance: exportMinImportance,
		MinSalience:   exportMinSalience,
		To:            time.Now().UTC(),
	}
	var err error
	if exportFrom != "" {
		window.From, err = time.Parse(time.RFC3339, exportFrom)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
	}
	if exportTo != "" {
		window.To, err = time.Parse(time.RFC3339, exportTo)
		if err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}
	}

	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	doc, err := env.export.Export(ctx, window)
	if err != nil {
		return err
	}

	out := os.Stdout
	if exportOut != "" {
		out, err = os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer out.Close()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	if exportOut != "" {
		fmt.Fprintf(os.Stderr, "exported %d event(s), %d fact(s) to %s\n", len(doc.Events), len(doc.Facts), exportOut)
	}
	return nil
}
