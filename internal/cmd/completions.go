package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var completionsCmd = &cobra.Command{
	Use:     "completions <shell>",
	GroupID: GroupConfig,
	Short:   "Generate shell completions",
	Long: `Generate a completion script for the given shell.

Examples:
  gid completions bash > /etc/bash_completion.d/gid
  gid completions zsh > "${fpath[1]}/_gid"
  gid completions fish > ~/.config/fish/completions/gid.fish`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	RunE:      runCompletions,
}

func init() {
	rootCmd.AddCommand(completionsCmd)
}

func runCompletions(cmd *cobra.Command, args []string) error {
	switch args[0] {
	case "bash":
		return rootCmd.GenBashCompletionV2(os.Stdout, true)
	case "zsh":
		return rootCmd.GenZshCompletion(os.Stdout)
	case "fish":
		return rootCmd.GenFishCompletion(os.Stdout, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
	}
	return fmt.Errorf("unsupported shell %q (bash, zsh, fish, powershell)", args[0])
}
