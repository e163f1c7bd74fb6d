package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/homeforge/homeforge/pkg/platform"
)

func newDetectCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Print the detected platform",
		Long: `Detect and print the host environment: operating system, distribution,
architecture, display server, and available package manager. Detection has
no side effects.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			plat := platform.Detect()

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(plat)
			}

			fmt.Printf("OS:              %s\n", plat.OS)
			fmt.Printf("Distribution:    %s\n", plat.Distro)
			fmt.Printf("Architecture:    %s\n", plat.Arch)
			fmt.Printf("Display server:  %s\n", plat.DisplayServer)
			fmt.Printf("Package manager: %s\n", plat.PackageManager)
			fmt.Printf("WSL:             %v\n", plat.WSL)
			fmt.Printf("Environment:     %s\n", environmentLabel(plat))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	return cmd
}

func environmentLabel(plat platform.Platform) string {
	if plat.Desktop() {
		return "desktop"
	}
	return "server"
}
