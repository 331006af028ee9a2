package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/glueforge/xsgen/cmd/xsgen/commands"
	"github.com/glueforge/xsgen/logger"
)

var rootCmd = &cobra.Command{
	Use:   "xsgen",
	Short: "xsgen - XS binding glue-code generator",
	Long: `xsgen compiles XS binding specifications into native glue code.

An XS file describes subroutines callable from a dynamic host runtime and
the native functions they wrap; xsgen parses each subroutine's signature,
resolves marshalling templates through the typemap dictionary, and emits
the C glue that moves values across the boundary.

Examples:
  xsgen generate Frob.xs            # Compile Frob.xs to Frob.c
  xsgen generate -t maps.toml *.xs  # With an extra typemap layer
  xsgen watch Frob.xs               # Regenerate on change
  xsgen version                     # Show build information`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.InitializeWithLevel(false, logger.LevelForVerbosity(verbosity)); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v",
		"Increase output verbosity (repeat for more detail: -v, -vv)")

	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
