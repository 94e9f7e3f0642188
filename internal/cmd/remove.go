package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gid-sh/gid/internal/style"
)

var removeCmd = &cobra.Command{
	Use:     "remove <id>",
	GroupID: GroupIdentity,
	Short:   "Remove an identity",
	Long: `Delete an identity from the configuration.

Rules referencing the removed identity are kept but will no longer
resolve; they are listed as a warning so they can be cleaned up with
'gid rule remove'.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	store, cfg, err := loadStore()
	if err != nil {
		return err
	}

	removed, err := cfg.RemoveIdentity(args[0])
	if err != nil {
		return err
	}
	if err := store.Save(cfg); err != nil {
		return err
	}

	fmt.Printf("%s Removed identity %s %s <%s>\n", style.SuccessPrefix, style.ID(removed.ID), removed.Name, removed.Email)

	orphans := 0
	for _, r := range cfg.Rules {
		if r.Identity == removed.ID {
			orphans++
		}
	}
	if orphans > 0 {
		fmt.Printf("%s %d rule(s) still reference %s and will no longer match; see 'gid rule list'\n",
			style.WarningPrefix, orphans, style.ID(removed.ID))
	}
	return nil
}
