package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gid-sh/gid/internal/git"
	"github.com/gid-sh/gid/internal/resolve"
	"github.com/gid-sh/gid/internal/style"
)

var autoCmd = &cobra.Command{
	Use:     "auto",
	GroupID: GroupRules,
	Short:   "Switch to the identity the rules resolve to",
	Long: `Resolve the identity for the current repository and switch to it.

Resolution consults the .gid project marker first (it always wins),
then the rules against the repository path and origin URL. When nothing
resolves, or the repository already uses the resolved identity, nothing
is written.

Shell integrations can call this from a directory-change hook when the
auto_switch setting is enabled.`,
	Args: cobra.NoArgs,
	RunE: runAuto,
}

func init() {
	rootCmd.AddCommand(autoCmd)
}

func runAuto(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadStore()
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	svc, err := git.Open(cwd)
	if err != nil {
		return err
	}

	remote, _ := svc.OriginURL()
	want, ok := resolve.New(cfg, userHome()).Resolve(svc.Root(), remote)
	if !ok {
		fmt.Println(style.Dim.Render("No rule or project marker resolves this repository."))
		return nil
	}

	id, found := cfg.FindIdentity(want)
	if !found {
		return fmt.Errorf("resolution picked %q but no such identity is configured", want)
	}

	if email, ok := svc.EffectiveUserEmail(); ok && email == id.Email {
		fmt.Printf("%s Already using %s %s <%s>\n", style.SuccessPrefix, style.ID(id.ID), id.Name, id.Email)
		return nil
	}

	if err := applyIdentity(svc, *id, false); err != nil {
		return err
	}
	fmt.Printf("%s Switched repository to %s %s <%s>\n", style.SuccessPrefix, style.ID(id.ID), id.Name, id.Email)

	for _, w := range sshSideEffects(*id) {
		fmt.Printf("%s %s\n", style.WarningPrefix, w)
	}
	return nil
}
