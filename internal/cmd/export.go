package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gid-sh/gid/internal/config"
	"github.com/gid-sh/gid/internal/style"
)

var exportCmd = &cobra.Command{
	Use:     "export [file]",
	GroupID: GroupConfig,
	Short:   "Export identities and rules",
	Long: `Serialize the full configuration (identities, rules, settings) as
TOML. With a file argument the output is written there; otherwise it
goes to stdout.

Example:
  gid export identities.toml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadStore()
	if err != nil {
		return err
	}

	data, err := config.EncodeConfig(cfg)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		_, err := os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(args[0], data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", args[0], err)
	}
	fmt.Printf("%s Exported %d identities and %d rules to %s\n",
		style.SuccessPrefix, len(cfg.Identities), len(cfg.Rules), args[0])
	return nil
}
