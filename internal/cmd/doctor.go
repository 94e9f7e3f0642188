package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gid-sh/gid/internal/config"
	"github.com/gid-sh/gid/internal/git"
	"github.com/gid-sh/gid/internal/gpg"
	"github.com/gid-sh/gid/internal/resolve"
	"github.com/gid-sh/gid/internal/ssh"
	"github.com/gid-sh/gid/internal/style"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	GroupID: GroupRepo,
	Short:   "Check the identity setup for this repository",
	Long: `Run identity checks against the current repository:

  - the effective git identity maps to a configured identity
  - a .gid project marker, if present, references configured identities
  - the identity the rules resolve to matches the effective one
  - the matched identity's SSH key file exists

With --fix, a detected mismatch is repaired by switching the repository
to the resolved identity.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

var (
	doctorFix       bool
	doctorPreCommit bool
)

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Switch to the resolved identity when it differs")
	doctorCmd.Flags().BoolVar(&doctorPreCommit, "pre-commit", false, "Run as the pre-commit hook check")
	_ = doctorCmd.Flags().MarkHidden("pre-commit")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadStore()
	if err != nil {
		return err
	}
	if doctorPreCommit && !cfg.Settings.PreCommitCheck {
		return nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	svc, err := git.Open(cwd)
	if err != nil {
		return fmt.Errorf("%w (doctor inspects a repository)", git.ErrNotARepository)
	}

	problems := 0
	fail := func(format string, a ...any) {
		problems++
		fmt.Printf("%s %s\n", style.ErrorPrefix, fmt.Sprintf(format, a...))
	}
	pass := func(format string, a ...any) {
		fmt.Printf("%s %s\n", style.SuccessPrefix, fmt.Sprintf(format, a...))
	}

	// Effective identity.
	email, _ := svc.EffectiveUserEmail()
	name, _ := svc.EffectiveUserName()
	current, known := cfg.FindByEmail(email)
	switch {
	case email == "":
		fail("no git identity configured (run 'gid switch <id>')")
	case !known:
		fail("effective identity %s <%s> matches no configured identity", name, email)
	default:
		pass("effective identity %s %s <%s>", style.ID(current.ID), name, email)
	}

	// Project marker.
	project, err := config.LoadProject(svc.Root())
	switch {
	case err != nil:
		fail("project marker %s is unreadable: %v", config.ProjectFileName, err)
	case project == nil:
		fmt.Printf("%s %s\n", style.BulletPrefix, style.Dim.Render("no project marker"))
	default:
		if _, ok := cfg.FindIdentity(project.Identity); !ok {
			fail("project marker names unknown identity %q", project.Identity)
		} else {
			pass("project marker pins %s", style.ID(project.Identity))
		}
		for _, r := range project.Rules {
			if _, ok := cfg.FindIdentity(r.Identity); !ok {
				fail("project marker rule %s references unknown identity %q", r, r.Identity)
			}
		}
	}

	// Resolution vs effective identity.
	remote, _ := svc.OriginURL()
	expected, resolved := resolve.New(cfg, userHome()).Resolve(svc.Root(), remote)
	fixTo := ""
	switch {
	case !resolved:
		fmt.Printf("%s %s\n", style.BulletPrefix, style.Dim.Render("no rule or marker resolves this repository"))
	case known && current.ID == expected:
		pass("resolution agrees: %s", style.ID(expected))
	default:
		fail("resolution expects %s here (run 'gid switch %s')", style.ID(expected), expected)
		fixTo = expected
	}

	// SSH key of the identity in play.
	keyOwner := current
	if !known && resolved {
		keyOwner, _ = cfg.FindIdentity(expected)
	}
	if keyOwner != nil && keyOwner.SSHKey != "" {
		if mgr, err := ssh.NewManager(); err == nil && !mgr.KeyExists(keyOwner.SSHKey) {
			fail("ssh key %s for %s does not exist", keyOwner.SSHKey, style.ID(keyOwner.ID))
		} else if err == nil {
			pass("ssh key %s exists", keyOwner.SSHKey)
		}
	}

	// Signing key, when the identity declares one. The gpg binary
	// being absent is not a finding.
	if keyOwner != nil && keyOwner.GPGKey != "" {
		if found, err := gpg.HasKey(gpg.CLI{}, keyOwner.GPGKey); err == nil {
			if found {
				pass("gpg key %s is in the keyring", keyOwner.GPGKey)
			} else {
				fail("gpg key %s for %s is not in the keyring", keyOwner.GPGKey, style.ID(keyOwner.ID))
			}
		}
	}

	if doctorFix && fixTo != "" {
		id, _ := cfg.FindIdentity(fixTo)
		if err := applyIdentity(svc, *id, false); err != nil {
			return err
		}
		fmt.Printf("%s Switched repository to %s\n", style.SuccessPrefix, style.ID(fixTo))
		problems--
	}

	if problems == 0 {
		return nil
	}
	if doctorPreCommit && !cfg.Settings.StrictMode {
		fmt.Printf("%s %d problem(s) found; not blocking the commit (strict_mode is off)\n",
			style.WarningPrefix, problems)
		return nil
	}
	return fmt.Errorf("%d problem(s) found", problems)
}
