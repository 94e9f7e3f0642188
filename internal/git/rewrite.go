package git

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

var (
	// ErrDirtyWorktree indicates uncommitted changes block a rewrite.
	ErrDirtyWorktree = errors.New("uncommitted changes present")

	// ErrNotARange indicates a revision argument that is not of the
	// form A..B.
	ErrNotARange = errors.New("not a commit range")
)

// RewriteResult reports a completed HEAD rewrite.
type RewriteResult struct {
	OldHash plumbing.Hash
	NewHash plumbing.Hash
}

// HeadCommit returns the commit HEAD points at.
func (s *Service) HeadCommit() (*object.Commit, error) {
	if s.repo == nil {
		return nil, ErrNotARepository
	}
	head, err := s.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	commit, err := s.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("read HEAD commit: %w", err)
	}
	return commit, nil
}

// AmendHeadAuthor writes a new commit identical to HEAD except for the
// author identity (stamped with the time of the fix) and repoints the
// current branch, or the detached HEAD, at it. The committer, tree
// and parent list are preserved verbatim. The original commit object
// stays in the object store, unreachable; no garbage collection is
// attempted.
//
// The working tree must be completely clean; any uncommitted change
// aborts before a single object is written.
func (s *Service) AmendHeadAuthor(name, email string) (*RewriteResult, error) {
	if s.repo == nil {
		return nil, ErrNotARepository
	}

	dirty, err := s.IsDirty()
	if err != nil {
		return nil, err
	}
	if dirty {
		return nil, ErrDirtyWorktree
	}

	head, err := s.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	orig, err := s.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("read HEAD commit: %w", err)
	}

	// The original GPG signature (if any) signs the old author and
	// must not be carried over.
	amended := &object.Commit{
		Author: object.Signature{
			Name:  name,
			Email: email,
			When:  time.Now(),
		},
		Committer:    orig.Committer,
		Message:      orig.Message,
		TreeHash:     orig.TreeHash,
		ParentHashes: orig.ParentHashes,
	}

	obj := s.repo.Storer.NewEncodedObject()
	if err := amended.Encode(obj); err != nil {
		return nil, fmt.Errorf("encode commit: %w", err)
	}
	newHash, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return nil, fmt.Errorf("write commit: %w", err)
	}

	// Single reference update; atomicity is whatever the object
	// database provides. A failure here orphans the new object.
	var ref *plumbing.Reference
	if head.Name().IsBranch() {
		ref = plumbing.NewHashReference(head.Name(), newHash)
	} else {
		ref = plumbing.NewHashReference(plumbing.HEAD, newHash)
	}
	if err := s.repo.Storer.SetReference(ref); err != nil {
		return nil, fmt.Errorf("update %s: %w", ref.Name(), err)
	}

	slog.Debug("amended HEAD author",
		slog.String("old", shortHash(head.Hash())),
		slog.String("new", shortHash(newHash)))

	return &RewriteResult{OldHash: head.Hash(), NewHash: newHash}, nil
}

// CountRangeCommits resolves a two-endpoint range expression (A..B)
// and returns the number of commits reachable from B but not from A,
// capped at MaxHistory. Single revisions are rejected.
func (s *Service) CountRangeCommits(rangeStr string) (int, error) {
	if s.repo == nil {
		return 0, ErrNotARepository
	}

	from, to, ok := splitRange(rangeStr)
	if !ok {
		return 0, fmt.Errorf("%w: %q (use the form A..B)", ErrNotARange, rangeStr)
	}

	fromHash, err := s.repo.ResolveRevision(plumbing.Revision(from))
	if err != nil {
		return 0, fmt.Errorf("resolve %q: %w", from, err)
	}
	toHash, err := s.repo.ResolveRevision(plumbing.Revision(to))
	if err != nil {
		return 0, fmt.Errorf("resolve %q: %w", to, err)
	}

	toCommit, err := s.repo.CommitObject(*toHash)
	if err != nil {
		return 0, fmt.Errorf("read commit %s: %w", shortHash(*toHash), err)
	}

	iter := object.NewCommitPreorderIter(toCommit, nil, []plumbing.Hash{*fromHash})
	count := 0
	err = iter.ForEach(func(*object.Commit) error {
		count++
		if count >= MaxHistory {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk range: %w", err)
	}
	return count, nil
}

// splitRange splits "A..B" (or "A...B") into its endpoints. Both must
// be non-empty.
func splitRange(s string) (from, to string, ok bool) {
	idx := strings.Index(s, "..")
	if idx < 0 {
		return "", "", false
	}
	from = s[:idx]
	to = strings.TrimPrefix(s[idx+2:], ".")
	if from == "" || to == "" || strings.Contains(to, "..") {
		return "", "", false
	}
	return from, to, true
}
