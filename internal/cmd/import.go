package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gid-sh/gid/internal/config"
	"github.com/gid-sh/gid/internal/style"
)

var importCmd = &cobra.Command{
	Use:     "import <file>",
	GroupID: GroupConfig,
	Short:   "Import identities and rules",
	Long: `Read identities and rules from an exported TOML file.

The default merge mode adds everything new and skips identities whose
id already exists. With --replace the whole configuration is swapped
for the imported one; the previous config.toml is kept next to it as
config.toml.backup.

Examples:
  gid import identities.toml
  gid import identities.toml --replace`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var importReplace bool

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "Replace the existing configuration instead of merging")
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	imported, err := config.DecodeConfig(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	store, cfg, err := loadStore()
	if err != nil {
		return err
	}

	if importReplace {
		if err := backupConfig(store.Path()); err != nil {
			return err
		}
		if err := store.Save(imported); err != nil {
			return err
		}
		fmt.Printf("%s Replaced configuration with %d identities and %d rules\n",
			style.SuccessPrefix, len(imported.Identities), len(imported.Rules))
		return nil
	}

	added, skipped := 0, 0
	for _, id := range imported.Identities {
		err := cfg.AddIdentity(id)
		switch {
		case err == nil:
			added++
		case errors.Is(err, config.ErrIdentityExists):
			skipped++
			fmt.Printf("%s Skipping %s: id already exists\n", style.WarningPrefix, style.ID(id.ID))
		default:
			return err
		}
	}
	for _, r := range imported.Rules {
		cfg.AddRule(r)
	}
	if err := store.Save(cfg); err != nil {
		return err
	}

	fmt.Printf("%s Imported %d identities (%d skipped) and %d rules\n",
		style.SuccessPrefix, added, skipped, len(imported.Rules))
	return nil
}

// backupConfig copies the current config file aside before a replace.
// A missing file needs no backup.
func backupConfig(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	backup := path + ".backup"
	if err := os.WriteFile(backup, data, 0644); err != nil {
		return fmt.Errorf("write backup %s: %w", backup, err)
	}
	fmt.Printf("%s Previous configuration saved to %s\n", style.ArrowPrefix, backup)
	return nil
}
