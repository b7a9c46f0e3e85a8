package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mnemoslab/mnemos/internal/buildconfig"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mnemos %s\n", buildconfig.String())
	},
}
