// Package git adapts the underlying repository: per-scope identity
// config, remote lookup, history enumeration and the HEAD rewrite.
package git

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/gopasspw/gitconfig"
)

// MaxHistory caps commit traversal. Truncation, not sampling: commits
// beyond the cap are simply not visited.
const MaxHistory = 1000

// ErrNotARepository indicates the directory is not inside a git
// repository.
var ErrNotARepository = errors.New("not a git repository")

// Git config keys managed by the tool.
const (
	keyUserName   = "user.name"
	keyUserEmail  = "user.email"
	keySigningKey = "user.signingkey"
	keyGPGSign    = "commit.gpgsign"
	keyHooksPath  = "core.hookspath"
)

// CommitInfo is a read-only snapshot of one history entry.
type CommitInfo struct {
	ShortID     string
	Message     string // first line only
	AuthorName  string
	AuthorEmail string
}

// Service wraps one repository (or none, for global-only operations)
// together with its scoped git config files.
type Service struct {
	repo *gitlib.Repository
	root string
	cfgs *gitconfig.Configs
}

// Open discovers the repository containing dir (walking up to the
// nearest .git) and loads its config scopes.
func Open(dir string) (*Service, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gitlib.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotARepository, abs)
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}

	root := abs
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}

	gitDir := ""
	if st, ok := repo.Storer.(*filesystem.Storage); ok {
		gitDir = st.Filesystem().Root()
	}

	return &Service{
		repo: repo,
		root: root,
		cfgs: gitconfig.New().LoadAll(gitDir),
	}, nil
}

// GlobalOnly returns a service bound to no repository. Local-scope
// operations fail with ErrNotARepository; global ones work anywhere.
func GlobalOnly() *Service {
	return &Service{cfgs: gitconfig.New().LoadAll("")}
}

// InRepo reports whether the service is bound to a repository.
func (s *Service) InRepo() bool { return s.repo != nil }

// Root returns the worktree root, or "" when not in a repository.
func (s *Service) Root() string { return s.root }

// GitDir returns the repository metadata directory (.git), or "".
func (s *Service) GitDir() string {
	if s.repo == nil {
		return ""
	}
	if st, ok := s.repo.Storer.(*filesystem.Storage); ok {
		return st.Filesystem().Root()
	}
	return ""
}

func (s *Service) get(key string, global bool) (string, bool) {
	if global {
		v := s.cfgs.GetGlobal(key)
		return v, v != ""
	}
	if s.repo == nil {
		return "", false
	}
	v := s.cfgs.GetLocal(key)
	return v, v != ""
}

func (s *Service) set(key, value string, global bool) error {
	if global {
		if err := s.cfgs.SetGlobal(key, value); err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
		return nil
	}
	if s.repo == nil {
		return ErrNotARepository
	}
	if err := s.cfgs.SetLocal(key, value); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// UserName returns user.name in the requested scope.
func (s *Service) UserName(global bool) (string, bool) { return s.get(keyUserName, global) }

// UserEmail returns user.email in the requested scope.
func (s *Service) UserEmail(global bool) (string, bool) { return s.get(keyUserEmail, global) }

// SetUserName writes user.name in the requested scope.
func (s *Service) SetUserName(name string, global bool) error { return s.set(keyUserName, name, global) }

// SetUserEmail writes user.email in the requested scope.
func (s *Service) SetUserEmail(email string, global bool) error {
	return s.set(keyUserEmail, email, global)
}

// SetSigningKey writes user.signingkey in the requested scope.
func (s *Service) SetSigningKey(key string, global bool) error {
	return s.set(keySigningKey, key, global)
}

// SetGPGSign writes commit.gpgsign in the requested scope.
func (s *Service) SetGPGSign(enabled bool, global bool) error {
	return s.set(keyGPGSign, strconv.FormatBool(enabled), global)
}

// HooksPath returns core.hookspath in the requested scope.
func (s *Service) HooksPath(global bool) (string, bool) { return s.get(keyHooksPath, global) }

// SetHooksPath writes core.hookspath in the requested scope.
func (s *Service) SetHooksPath(path string, global bool) error {
	return s.set(keyHooksPath, path, global)
}

// UnsetHooksPath removes core.hookspath from the requested scope.
func (s *Service) UnsetHooksPath(global bool) error {
	if global {
		return s.cfgs.UnsetGlobal(keyHooksPath)
	}
	if s.repo == nil {
		return ErrNotARepository
	}
	return s.cfgs.UnsetLocal(keyHooksPath)
}

// EffectiveUserName returns the local user.name if present, else the
// global one. Each field falls back independently.
func (s *Service) EffectiveUserName() (string, bool) {
	if v, ok := s.UserName(false); ok {
		return v, true
	}
	return s.UserName(true)
}

// EffectiveUserEmail returns the local user.email if present, else the
// global one.
func (s *Service) EffectiveUserEmail() (string, bool) {
	if v, ok := s.UserEmail(false); ok {
		return v, true
	}
	return s.UserEmail(true)
}

// OriginURL returns the first URL of the "origin" remote.
func (s *Service) OriginURL() (string, bool) {
	if s.repo == nil {
		return "", false
	}
	remote, err := s.repo.Remote("origin")
	if err != nil {
		return "", false
	}
	urls := remote.Config().URLs
	if len(urls) == 0 || urls[0] == "" {
		return "", false
	}
	return urls[0], true
}

// ListCommits walks history from HEAD, most recent first, returning at
// most max entries (MaxHistory when max <= 0). An unborn HEAD yields
// an empty list.
func (s *Service) ListCommits(max int) ([]CommitInfo, error) {
	if s.repo == nil {
		return nil, ErrNotARepository
	}
	if max <= 0 || max > MaxHistory {
		max = MaxHistory
	}

	head, err := s.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}

	iter, err := s.repo.Log(&gitlib.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read commits: %w", err)
	}
	defer iter.Close()

	var commits []CommitInfo
	err = iter.ForEach(func(c *object.Commit) error {
		if len(commits) >= max {
			return storer.ErrStop
		}
		commits = append(commits, CommitInfo{
			ShortID:     shortHash(c.Hash),
			Message:     firstLine(c.Message),
			AuthorName:  c.Author.Name,
			AuthorEmail: c.Author.Email,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate commits: %w", err)
	}

	slog.Debug("listed commits", slog.Int("count", len(commits)), slog.String("root", s.root))
	return commits, nil
}

// IsDirty reports whether the working tree has any uncommitted change,
// untracked files included.
func (s *Service) IsDirty() (bool, error) {
	if s.repo == nil {
		return false, ErrNotARepository
	}
	wt, err := s.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("worktree status: %w", err)
	}
	return !status.IsClean(), nil
}

func shortHash(h plumbing.Hash) string {
	return h.String()[:7]
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
