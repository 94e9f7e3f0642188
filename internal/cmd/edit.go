package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/gid-sh/gid/internal/style"
)

var editCmd = &cobra.Command{
	Use:     "edit",
	GroupID: GroupConfig,
	Short:   "Open the configuration file in an editor",
	Long: `Open config.toml in an editor and re-validate it afterwards.

The editor is taken from the 'editor' setting, then $VISUAL, then
$EDITOR, falling back to vi. A file that no longer parses after the
edit is reported as an error; the broken file is left in place for
another editing round.`,
	Args: cobra.NoArgs,
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	store, cfg, err := loadStore()
	if err != nil {
		return err
	}

	// Materialize defaults so a first edit starts from a real file.
	if _, err := os.Stat(store.Path()); os.IsNotExist(err) {
		if err := store.Save(cfg); err != nil {
			return err
		}
	}

	editor := cfg.Settings.Editor
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	edit := exec.Command(editor, store.Path())
	edit.Stdin = os.Stdin
	edit.Stdout = os.Stdout
	edit.Stderr = os.Stderr
	if err := edit.Run(); err != nil {
		return fmt.Errorf("editor %s: %w", editor, err)
	}

	if _, err := store.Load(); err != nil {
		return fmt.Errorf("configuration is invalid after edit: %w", err)
	}
	fmt.Printf("%s Configuration saved: %s\n", style.SuccessPrefix, store.Path())
	return nil
}
