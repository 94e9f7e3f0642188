// Package audit inspects commit history for authorship problems:
// commits by authors no configured identity covers, commits by the
// wrong identity for a repository, and repositories mixing several
// identities.
package audit

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gid-sh/gid/internal/config"
	"github.com/gid-sh/gid/internal/git"
	"github.com/gid-sh/gid/internal/resolve"
)

// MaxWalkDepth bounds how deep Directory searches for repositories.
const MaxWalkDepth = 3

// IssueKind classifies an audit finding.
type IssueKind int

const (
	// UnknownIdentity marks a commit whose author matches no
	// configured identity, not even by email.
	UnknownIdentity IssueKind = iota

	// IdentityMismatch marks a commit authored by a known identity
	// that is not the one resolution picks for the repository.
	IdentityMismatch

	// MixedIdentities marks commits by the least-used known author
	// signature in a repository where more than one known signature
	// appears. Two signatures covered by the same identity still
	// count as mixed; detection works on the literal name and email.
	MixedIdentities
)

func (k IssueKind) String() string {
	switch k {
	case UnknownIdentity:
		return "unknown identity"
	case IdentityMismatch:
		return "identity mismatch"
	case MixedIdentities:
		return "mixed identities"
	}
	return "unknown"
}

// Issue is a single finding against a single commit. A commit can
// appear more than once: a mismatch finding does not suppress a later
// mixed-identities finding for the same commit.
type Issue struct {
	Kind       IssueKind
	Commit     git.CommitInfo
	IdentityID string // matched identity, empty when the author is unknown
	Expected   string // identity resolution picked for the repo, may be empty
}

// Usage aggregates commits per author signature ("Name <email>").
type Usage struct {
	Name       string
	Email      string
	IdentityID string // empty when no identity covers this author
	Commits    int

	order int // insertion order, breaks minority ties deterministically
}

// Key returns the author signature this usage aggregates.
func (u *Usage) Key() string {
	return fmt.Sprintf("%s <%s>", u.Name, u.Email)
}

// Report is the audit outcome for one repository.
type Report struct {
	RepoPath string
	Expected string // resolved identity, empty when nothing matched
	Total    int    // commits examined, capped at git.MaxHistory
	Issues   []Issue
	Usage    []*Usage // first-encountered order
}

// Clean reports whether the audit found nothing to flag.
func (r *Report) Clean() bool { return len(r.Issues) == 0 }

// Auditor runs history audits against a loaded configuration.
type Auditor struct {
	cfg      *config.Config
	resolver *resolve.Resolver
}

// New builds an auditor resolving identities the same way switching
// does, so expectations and findings agree.
func New(cfg *config.Config, home string) *Auditor {
	return &Auditor{cfg: cfg, resolver: resolve.New(cfg, home)}
}

// Repo audits the repository containing dir.
func (a *Auditor) Repo(dir string) (*Report, error) {
	svc, err := git.Open(dir)
	if err != nil {
		return nil, err
	}

	commits, err := svc.ListCommits(git.MaxHistory)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	remote, _ := svc.OriginURL()
	expected, _ := a.resolver.Resolve(svc.Root(), remote)

	report := &Report{
		RepoPath: svc.Root(),
		Expected: expected,
		Total:    len(commits),
	}

	usage := make(map[string]*Usage)

	for _, c := range commits {
		key := c.AuthorName + " <" + c.AuthorEmail + ">"
		u, seen := usage[key]
		if !seen {
			u = &Usage{
				Name:       c.AuthorName,
				Email:      c.AuthorEmail,
				IdentityID: a.identityFor(c.AuthorName, c.AuthorEmail),
				order:      len(report.Usage),
			}
			usage[key] = u
			report.Usage = append(report.Usage, u)
		}
		u.Commits++

		switch {
		case u.IdentityID == "":
			report.Issues = append(report.Issues, Issue{
				Kind:     UnknownIdentity,
				Commit:   c,
				Expected: expected,
			})
		case expected != "" && u.IdentityID != expected:
			report.Issues = append(report.Issues, Issue{
				Kind:       IdentityMismatch,
				Commit:     c,
				IdentityID: u.IdentityID,
				Expected:   expected,
			})
		}
	}

	if minority := report.minorityUsage(); minority != nil {
		for _, c := range commits {
			if c.AuthorName == minority.Name && c.AuthorEmail == minority.Email {
				report.Issues = append(report.Issues, Issue{
					Kind:       MixedIdentities,
					Commit:     c,
					IdentityID: minority.IdentityID,
					Expected:   expected,
				})
			}
		}
	}

	return report, nil
}

// identityFor matches an author against the configured identities,
// preferring an exact name+email match over an email-only match.
func (a *Auditor) identityFor(name, email string) string {
	for _, id := range a.cfg.Identities {
		if id.Name == name && id.Email == email {
			return id.ID
		}
	}
	for _, id := range a.cfg.Identities {
		if id.Email == email {
			return id.ID
		}
	}
	return ""
}

// minorityUsage returns the known author signature with the fewest
// commits when at least two known signatures appear in the history,
// even when they map to the same identity. Ties go to the signature
// encountered first.
func (r *Report) minorityUsage() *Usage {
	var known []*Usage
	for _, u := range r.Usage {
		if u.IdentityID != "" {
			known = append(known, u)
		}
	}
	if len(known) < 2 {
		return nil
	}
	best := known[0]
	for _, u := range known[1:] {
		if u.Commits < best.Commits ||
			(u.Commits == best.Commits && u.order < best.order) {
			best = u
		}
	}
	return best
}

// Directory audits every repository found under root, descending at
// most MaxWalkDepth levels and not descending into repositories
// themselves. Unreadable directories and broken repositories are
// skipped, not fatal.
func (a *Auditor) Directory(root string) ([]*Report, error) {
	repos, err := findRepos(root, MaxWalkDepth)
	if err != nil {
		return nil, err
	}

	reports := make([]*Report, 0, len(repos))
	for _, dir := range repos {
		rep, err := a.Repo(dir)
		if err != nil {
			slog.Debug("skipping repository", slog.String("dir", dir), slog.Any("error", err))
			continue
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

func findRepos(root string, maxDepth int) ([]string, error) {
	var repos []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if info, statErr := os.Stat(filepath.Join(path, ".git")); statErr == nil && info.IsDir() {
			repos = append(repos, path)
			return filepath.SkipDir
		}
		if depthOf(root, path) >= maxDepth {
			return filepath.SkipDir
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("scan %s: %w", root, walkErr)
	}
	return repos, nil
}

func depthOf(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
