package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gid-sh/gid/internal/audit"
	"github.com/gid-sh/gid/internal/style"
)

var auditCmd = &cobra.Command{
	Use:     "audit",
	GroupID: GroupRepo,
	Short:   "Audit commit authorship against configured identities",
	Long: `Walk recent history (up to 1000 commits) and flag commits whose
author matches no configured identity, commits by the wrong identity
for the repository, and repositories mixing several identities.

By default the repository containing the current directory is audited.
With --path a directory tree is scanned (three levels deep) and every
repository found is audited.

--fix does not rewrite anything: it prints the fix-commit invocations
that would repair the findings, one repository at a time.`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

var (
	auditPath string
	auditFix  bool
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().StringVar(&auditPath, "path", "", "Audit every repository under this directory")
	auditCmd.Flags().BoolVar(&auditFix, "fix", false, "Print the commands that would fix the findings")
}

func runAudit(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadStore()
	if err != nil {
		return err
	}
	auditor := audit.New(cfg, userHome())

	if auditPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		rep, err := auditor.Repo(cwd)
		if err != nil {
			return err
		}
		printReport(rep, true)
		if auditFix {
			printFixAdvice([]*audit.Report{rep})
		}
		return nil
	}

	reports, err := auditor.Directory(auditPath)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Printf("No repositories found under %s\n", auditPath)
		return nil
	}

	dirty := 0
	for _, rep := range reports {
		if rep.Clean() {
			fmt.Printf("%s %s %s\n", style.SuccessPrefix, rep.RepoPath,
				style.Dim.Render(fmt.Sprintf("(%d commits)", rep.Total)))
			continue
		}
		dirty++
		printReport(rep, false)
	}
	fmt.Printf("\nAudited %d repositories, %d with findings.\n", len(reports), dirty)
	if auditFix {
		printFixAdvice(reports)
	}
	return nil
}

func printReport(rep *audit.Report, verbose bool) {
	fmt.Printf("%s %s %s\n", style.Bold.Render("Audit:"), rep.RepoPath,
		style.Dim.Render(fmt.Sprintf("(%d commits)", rep.Total)))
	if rep.Expected != "" {
		fmt.Printf("  Expected identity: %s\n", style.ID(rep.Expected))
	}

	if verbose || !rep.Clean() {
		fmt.Println("  Authors:")
		for _, u := range rep.Usage {
			label := style.Dim.Render("(unknown)")
			if u.IdentityID != "" {
				label = style.ID(u.IdentityID)
			}
			fmt.Printf("    %-45s %4d commits  %s\n", u.Key(), u.Commits, label)
		}
	}

	if rep.Clean() {
		fmt.Printf("  %s No findings.\n", style.SuccessPrefix)
		return
	}

	fmt.Printf("  Findings (%d):\n", len(rep.Issues))
	for _, is := range rep.Issues {
		prefix := style.ErrorPrefix
		detail := ""
		switch is.Kind {
		case audit.IdentityMismatch:
			prefix = style.WarningPrefix
			detail = fmt.Sprintf(" (got %s, expected %s)", style.ID(is.IdentityID), style.ID(is.Expected))
		case audit.MixedIdentities:
			prefix = style.BulletPrefix
			detail = fmt.Sprintf(" (least-used author signature, identity %s)", style.ID(is.IdentityID))
		}
		fmt.Printf("    %s %s %s %s <%s>%s: %s\n",
			prefix, style.Warning.Render(is.Kind.String()), is.Commit.ShortID,
			is.Commit.AuthorName, is.Commit.AuthorEmail, detail,
			style.Dim.Render(is.Commit.Message))
	}
}

// printFixAdvice explains how to repair findings. Rewriting history in
// bulk is deliberately not automated.
func printFixAdvice(reports []*audit.Report) {
	fmt.Println()
	fmt.Printf("%s Automated history rewriting is not implemented.\n", style.WarningPrefix)
	fmt.Println("To fix the most recent commit of a repository, run inside it:")
	for _, rep := range reports {
		if rep.Clean() {
			continue
		}
		target := rep.Expected
		if target == "" {
			target = "<id>"
		}
		fmt.Printf("  cd %s && gid fix-commit --identity %s\n", rep.RepoPath, target)
	}
	fmt.Println("Older commits require an interactive rebase or git filter-repo.")
}
