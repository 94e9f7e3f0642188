package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gid-sh/gid/internal/git"
	"github.com/gid-sh/gid/internal/resolve"
	"github.com/gid-sh/gid/internal/style"
)

var currentCmd = &cobra.Command{
	Use:     "current",
	GroupID: GroupIdentity,
	Short:   "Show the effective git identity here",
	Long: `Show the git identity in effect for the current directory.

Each field is resolved independently: the repository-local value wins
when present, otherwise the global value applies. If a configured
identity matches the effective email it is named; the resolver's
opinion (project marker or matching rule) is shown alongside for
comparison.`,
	Args: cobra.NoArgs,
	RunE: runCurrent,
}

func init() {
	rootCmd.AddCommand(currentCmd)
}

func runCurrent(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadStore()
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	svc := git.GlobalOnly()
	inRepo := false
	if s, err := git.Open(cwd); err == nil {
		svc = s
		inRepo = true
	}

	name, nameOK := svc.EffectiveUserName()
	email, emailOK := svc.EffectiveUserEmail()

	if !nameOK && !emailOK {
		fmt.Println(style.Dim.Render("No git identity configured."))
		fmt.Println("Run 'gid switch <id> --global' to set one.")
		return nil
	}

	fmt.Printf("%s %s <%s>\n", style.Bold.Render("Effective identity:"), name, email)

	if id, ok := cfg.FindByEmail(email); ok {
		fmt.Printf("  Matches %s %s\n", style.ID(id.ID), style.Dim.Render(id.Description))
	} else if email != "" {
		fmt.Printf("  %s\n", style.Warning.Render("No configured identity uses this email."))
	}

	if !inRepo {
		fmt.Printf("  %s\n", style.Dim.Render("Not inside a repository; values come from the global config."))
		return nil
	}

	remote, _ := svc.OriginURL()
	if want, ok := resolve.New(cfg, userHome()).Resolve(svc.Root(), remote); ok {
		if id, found := cfg.FindByEmail(email); found && id.ID == want {
			fmt.Printf("  %s resolution agrees (%s)\n", style.SuccessPrefix, style.ID(want))
		} else {
			fmt.Printf("  %s resolution expects %s here (run 'gid auto' or 'gid switch %s')\n",
				style.WarningPrefix, style.ID(want), want)
		}
	}
	return nil
}
