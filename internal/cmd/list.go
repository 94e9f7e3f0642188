package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gid-sh/gid/internal/git"
	"github.com/gid-sh/gid/internal/style"
)

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: GroupIdentity,
	Short:   "Show all configured identities",
	Long: `List every configured identity.

The identity whose email matches the effective git config (local value
preferred, global fallback) is marked with an asterisk (*).`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadStore()
	if err != nil {
		return err
	}
	if len(cfg.Identities) == 0 {
		fmt.Println("No identities configured. Run 'gid add' to create one.")
		return nil
	}

	activeEmail := effectiveEmail()

	fmt.Printf("Identities (%d):\n", len(cfg.Identities))
	for _, id := range cfg.Identities {
		marker := "  "
		if activeEmail != "" && id.Email == activeEmail {
			marker = "* "
		}
		fmt.Printf("  %s%s %s <%s>\n", marker, style.ID(id.ID), id.Name, style.Accent.Render(id.Email))
		if id.Description != "" {
			fmt.Printf("      %s\n", style.Dim.Render(id.Description))
		}
		var extras []string
		if id.SSHKey != "" {
			extras = append(extras, "ssh:"+id.SSHKey)
		}
		if id.GPGKey != "" {
			extras = append(extras, "gpg:"+id.GPGKey)
		}
		if len(extras) > 0 {
			fmt.Printf("      %s\n", style.Dim.Render(joinExtras(extras)))
		}
	}
	return nil
}

func joinExtras(extras []string) string {
	out := extras[0]
	for _, e := range extras[1:] {
		out += "  " + e
	}
	return out
}

// effectiveEmail returns the effective user.email for the current
// directory, or the global one when outside a repository.
func effectiveEmail() string {
	svc := git.GlobalOnly()
	if cwd, err := os.Getwd(); err == nil {
		if s, err := git.Open(cwd); err == nil {
			svc = s
		}
	}
	email, _ := svc.EffectiveUserEmail()
	return email
}
