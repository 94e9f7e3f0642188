package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gid-sh/gid/internal/config"
	"github.com/gid-sh/gid/internal/git"
	"github.com/gid-sh/gid/internal/ssh"
	"github.com/gid-sh/gid/internal/style"
)

var switchCmd = &cobra.Command{
	Use:     "switch <id>",
	GroupID: GroupIdentity,
	Short:   "Switch to a named identity",
	Long: `Write an identity's name, email and signing settings into git config.

By default the repository containing the current directory is updated
(local scope). With --global the user-wide git config is written
instead, so the identity applies everywhere no local value overrides it.

SSH conveniences (agent registration, per-host aliases) are best-effort:
their failures are reported as warnings and never undo the switch.

Examples:
  gid switch work
  gid switch oss --global`,
	Args: cobra.ExactArgs(1),
	RunE: runSwitch,
}

var switchGlobal bool

func init() {
	rootCmd.AddCommand(switchCmd)
	switchCmd.Flags().BoolVar(&switchGlobal, "global", false, "Write the global git config instead of the repository's")
}

func runSwitch(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadStore()
	if err != nil {
		return err
	}
	id, ok := cfg.FindIdentity(args[0])
	if !ok {
		return fmt.Errorf("%w: %q (run 'gid list' to see configured identities)", config.ErrIdentityNotFound, args[0])
	}

	svc, err := openScope(switchGlobal)
	if err != nil {
		return err
	}
	if err := applyIdentity(svc, *id, switchGlobal); err != nil {
		return err
	}

	scope := "repository"
	if switchGlobal {
		scope = "global"
	}
	fmt.Printf("%s Switched %s git identity to %s %s <%s>\n",
		style.SuccessPrefix, scope, style.ID(id.ID), id.Name, id.Email)
	if cfg.Settings.Verbose {
		fmt.Printf("  user.name  = %s\n", id.Name)
		fmt.Printf("  user.email = %s\n", id.Email)
		if id.GPGKey != "" {
			fmt.Printf("  user.signingkey = %s\n", id.GPGKey)
			fmt.Printf("  commit.gpgsign  = %t\n", id.GPGSign)
		}
	}

	for _, w := range sshSideEffects(*id) {
		fmt.Printf("%s %s\n", style.WarningPrefix, w)
	}
	return nil
}

// openScope returns a repository-bound service, or a global-only one
// when the write targets the global config anyway.
func openScope(global bool) (*git.Service, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	svc, err := git.Open(cwd)
	if err == nil {
		return svc, nil
	}
	if global {
		return git.GlobalOnly(), nil
	}
	return nil, fmt.Errorf("%w (use --global to set the user-wide identity)", git.ErrNotARepository)
}

// applyIdentity writes all git config values for an identity in one
// scope.
func applyIdentity(svc *git.Service, id config.Identity, global bool) error {
	if err := svc.SetUserName(id.Name, global); err != nil {
		return err
	}
	if err := svc.SetUserEmail(id.Email, global); err != nil {
		return err
	}
	if id.GPGKey != "" {
		if err := svc.SetSigningKey(id.GPGKey, global); err != nil {
			return err
		}
	}
	if id.GPGKey != "" || id.GPGSign {
		if err := svc.SetGPGSign(id.GPGSign, global); err != nil {
			return err
		}
	}
	return nil
}

// sshSideEffects performs the best-effort SSH conveniences and returns
// warnings for anything that failed. Identities without a key need
// nothing.
func sshSideEffects(id config.Identity) []string {
	if id.SSHKey == "" {
		return nil
	}

	mgr, err := ssh.NewManager()
	if err != nil {
		return []string{fmt.Sprintf("ssh setup skipped: %v", err)}
	}

	var warnings []string
	if !mgr.KeyExists(id.SSHKey) {
		warnings = append(warnings, fmt.Sprintf("ssh key %s does not exist (generate one with ssh-keygen)", id.SSHKey))
		return warnings
	}
	if err := mgr.AddKeyToAgent(id); err != nil {
		warnings = append(warnings, fmt.Sprintf("could not add key to ssh-agent: %v", err))
	}
	if err := mgr.ConfigureForIdentity(id, ssh.DefaultHosts); err != nil {
		warnings = append(warnings, fmt.Sprintf("could not write ssh host aliases: %v", err))
	}
	return warnings
}
