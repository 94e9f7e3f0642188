package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gid-sh/gid/internal/config"
	"github.com/gid-sh/gid/internal/git"
	"github.com/gid-sh/gid/internal/prompt"
	"github.com/gid-sh/gid/internal/style"
)

var fixCommitCmd = &cobra.Command{
	Use:     "fix-commit [commit]",
	GroupID: GroupRepo,
	Short:   "Rewrite the author of the most recent commit",
	Long: `Rewrite HEAD's author to a configured identity.

The new commit keeps the original tree, parents, message and committer;
only the author (and its timestamp) changes. The branch ref moves to
the new commit, so an already-pushed commit will need a force push.
The working tree must be clean.

Only HEAD can be rewritten directly. --range A..B reports how many
commits a range rewrite would touch and what it implies, but performs
no rewrite; use an interactive rebase or git filter-repo for that.

Examples:
  gid fix-commit --identity work
  gid fix-commit --yes
  gid fix-commit --range origin/main..HEAD`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFixCommit,
}

var (
	fixIdentity string
	fixRange    string
	fixYes      bool
)

func init() {
	rootCmd.AddCommand(fixCommitCmd)
	fixCommitCmd.Flags().StringVar(&fixIdentity, "identity", "", "Identity to set as author (default: the one matching the effective email)")
	fixCommitCmd.Flags().StringVar(&fixRange, "range", "", "Report the scope of a range rewrite (A..B) without performing it")
	fixCommitCmd.Flags().BoolVar(&fixYes, "yes", false, "Skip the confirmation prompt")
}

func runFixCommit(cmd *cobra.Command, args []string) error {
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

	dirty, err := svc.IsDirty()
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("uncommitted changes detected; commit or stash them before rewriting history")
	}

	id, err := pickFixIdentity(cfg, svc)
	if err != nil {
		return err
	}

	if fixRange != "" {
		return reportRangeFix(svc, fixRange, id)
	}

	target := "HEAD"
	if len(args) == 1 {
		target = args[0]
	}
	if target != "HEAD" {
		return fmt.Errorf("only HEAD can be fixed directly; use --range %s..HEAD to see the scope of an older fix", target)
	}

	head, err := svc.HeadCommit()
	if err != nil {
		return err
	}

	fmt.Printf("Rewriting %s %s\n", style.Accent.Render(head.Hash.String()[:7]), style.Dim.Render(firstLineOf(head.Message)))
	fmt.Printf("  author: %s <%s> %s %s <%s>\n",
		head.Author.Name, head.Author.Email, style.ArrowPrefix, id.Name, id.Email)
	fmt.Printf("%s This rewrites history; a pushed commit will need a force push.\n", style.WarningPrefix)

	if !fixYes && !prompt.New().Confirm("Rewrite HEAD?", false) {
		fmt.Println("Aborted.")
		return nil
	}

	res, err := svc.AmendHeadAuthor(id.Name, id.Email)
	if err != nil {
		return err
	}
	fmt.Printf("%s HEAD is now %s (was %s), authored by %s\n",
		style.SuccessPrefix,
		style.Accent.Render(res.NewHash.String()[:7]),
		style.Dim.Render(res.OldHash.String()[:7]),
		style.ID(id.ID))
	return nil
}

// pickFixIdentity uses --identity when given, else the identity whose
// email matches the repository's effective email.
func pickFixIdentity(cfg *config.Config, svc *git.Service) (*config.Identity, error) {
	if fixIdentity != "" {
		id, ok := cfg.FindIdentity(fixIdentity)
		if !ok {
			return nil, fmt.Errorf("%w: %q", config.ErrIdentityNotFound, fixIdentity)
		}
		return id, nil
	}
	email, ok := svc.EffectiveUserEmail()
	if !ok {
		return nil, fmt.Errorf("no --identity given and no effective git identity to infer one from")
	}
	id, ok := cfg.FindByEmail(email)
	if !ok {
		return nil, fmt.Errorf("no --identity given and no configured identity uses %s", email)
	}
	return id, nil
}

// reportRangeFix validates the range, shows the plan and asks for
// confirmation like the HEAD path does. The actual multi-commit
// rewrite is deliberately not implemented.
func reportRangeFix(svc *git.Service, rangeStr string, id *config.Identity) error {
	count, err := svc.CountRangeCommits(rangeStr)
	if err != nil {
		return err
	}
	if count == 0 {
		fmt.Printf("%s No commits in range %s.\n", style.WarningPrefix, style.Accent.Render(rangeStr))
		return nil
	}

	fmt.Printf("Range %s covers %d commit(s).\n", style.Accent.Render(rangeStr), count)
	fmt.Printf("  new author: %s <%s> %s\n", id.Name, id.Email, style.ID(id.ID))
	fmt.Printf("%s Rewriting a range changes every hash after it and requires a force push;\n", style.WarningPrefix)
	fmt.Println("  make a backup branch first (git branch backup).")

	if !fixYes && !prompt.New().Confirm("Continue?", false) {
		fmt.Println("Aborted.")
		return nil
	}

	fmt.Printf("%s Range rewriting is not implemented. Use 'git rebase -i' or git filter-repo,\n", style.ErrorPrefix)
	fmt.Println("  or fix the most recent commit with 'gid fix-commit'.")
	fmt.Printf("  %s\n", style.Dim.Render(fmt.Sprintf(
		"git filter-repo --commit-callback 'commit.author_name = b\"%s\"; commit.author_email = b\"%s\"' %s",
		id.Name, id.Email, rangeStr)))
	return nil
}

func firstLineOf(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
