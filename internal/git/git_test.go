package git

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	gogitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// sandboxEnv points every config scope at temp directories so tests
// never touch the real user or system git config.
func sandboxEnv(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
}

func initRepo(t *testing.T) (string, *gitlib.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gitlib.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	return dir, repo
}

func commitFile(t *testing.T, repo *gitlib.Repository, dir, name, content, authorName, authorEmail string) plumbing.Hash {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("Add %s: %v", name, err)
	}
	hash, err := wt.Commit("add "+name+"\n\nbody text", &gitlib.CommitOptions{
		Author: &object.Signature{Name: authorName, Email: authorEmail, When: time.Now()},
	})
	if err != nil {
		t.Fatalf("Commit %s: %v", name, err)
	}
	return hash
}

func TestOpenNotARepository(t *testing.T) {
	sandboxEnv(t)
	_, err := Open(t.TempDir())
	if !errors.Is(err, ErrNotARepository) {
		t.Errorf("expected ErrNotARepository, got: %v", err)
	}
}

func TestOpenDetectsDotGitFromSubdir(t *testing.T) {
	sandboxEnv(t)
	dir, repo := initRepo(t)
	commitFile(t, repo, dir, "a.txt", "a", "Alice", "alice@example.com")

	sub := filepath.Join(dir, "nested", "deep")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	svc, err := Open(sub)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !svc.InRepo() {
		t.Fatal("expected InRepo")
	}
	got, _ := filepath.EvalSymlinks(svc.Root())
	want, _ := filepath.EvalSymlinks(dir)
	if got != want {
		t.Errorf("Root = %q, want %q", got, want)
	}
}

func TestListCommits(t *testing.T) {
	sandboxEnv(t)
	dir, repo := initRepo(t)
	commitFile(t, repo, dir, "a.txt", "a", "Alice", "alice@example.com")
	commitFile(t, repo, dir, "b.txt", "b", "Bob", "bob@example.com")
	third := commitFile(t, repo, dir, "c.txt", "c", "Alice", "alice@example.com")

	svc, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	commits, err := svc.ListCommits(0)
	if err != nil {
		t.Fatalf("ListCommits: %v", err)
	}
	if len(commits) != 3 {
		t.Fatalf("commits = %d, want 3", len(commits))
	}
	if commits[0].ShortID != third.String()[:7] {
		t.Errorf("newest first: got %s, want %s", commits[0].ShortID, third.String()[:7])
	}
	if commits[0].Message != "add c.txt" {
		t.Errorf("message = %q, want first line only", commits[0].Message)
	}
	if commits[1].AuthorName != "Bob" || commits[1].AuthorEmail != "bob@example.com" {
		t.Errorf("author = %s <%s>", commits[1].AuthorName, commits[1].AuthorEmail)
	}

	// Cap truncates from the newest end.
	capped, err := svc.ListCommits(2)
	if err != nil {
		t.Fatalf("ListCommits capped: %v", err)
	}
	if len(capped) != 2 {
		t.Errorf("capped = %d, want 2", len(capped))
	}
}

func TestListCommitsUnbornHead(t *testing.T) {
	sandboxEnv(t)
	dir, _ := initRepo(t)

	svc, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	commits, err := svc.ListCommits(0)
	if err != nil {
		t.Fatalf("ListCommits: %v", err)
	}
	if len(commits) != 0 {
		t.Errorf("commits = %d, want 0", len(commits))
	}
}

func TestEffectiveConfigFallsBackPerField(t *testing.T) {
	sandboxEnv(t)
	dir, repo := initRepo(t)
	commitFile(t, repo, dir, "a.txt", "a", "Alice", "alice@example.com")

	svc, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Local name, global email: each field falls back independently.
	if err := svc.SetUserName("Local Alice", false); err != nil {
		t.Fatalf("SetUserName local: %v", err)
	}
	if err := svc.SetUserEmail("global@example.com", true); err != nil {
		t.Fatalf("SetUserEmail global: %v", err)
	}

	name, ok := svc.EffectiveUserName()
	if !ok || name != "Local Alice" {
		t.Errorf("effective name = %q, %v", name, ok)
	}
	email, ok := svc.EffectiveUserEmail()
	if !ok || email != "global@example.com" {
		t.Errorf("effective email = %q, %v", email, ok)
	}

	// Local value overrides global once present.
	if err := svc.SetUserEmail("local@example.com", false); err != nil {
		t.Fatalf("SetUserEmail local: %v", err)
	}
	email, _ = svc.EffectiveUserEmail()
	if email != "local@example.com" {
		t.Errorf("effective email = %q, want local override", email)
	}
}

func TestSwitchIdempotence(t *testing.T) {
	sandboxEnv(t)
	dir, repo := initRepo(t)
	commitFile(t, repo, dir, "a.txt", "a", "Alice", "alice@example.com")

	svc, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.SetUserName("Alice Smith", false); err != nil {
			t.Fatalf("SetUserName: %v", err)
		}
		if err := svc.SetUserEmail("alice@example.com", false); err != nil {
			t.Fatalf("SetUserEmail: %v", err)
		}
	}

	// Re-open to read back from disk.
	svc2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	name, _ := svc2.EffectiveUserName()
	email, _ := svc2.EffectiveUserEmail()
	if name != "Alice Smith" || email != "alice@example.com" {
		t.Errorf("effective = %s <%s>", name, email)
	}
}

func TestGlobalOnlyRejectsLocalWrites(t *testing.T) {
	sandboxEnv(t)
	svc := GlobalOnly()
	if err := svc.SetUserName("X", false); !errors.Is(err, ErrNotARepository) {
		t.Errorf("expected ErrNotARepository, got: %v", err)
	}
	if err := svc.SetUserName("Global Name", true); err != nil {
		t.Errorf("global write should work outside a repo: %v", err)
	}
}

func TestOriginURL(t *testing.T) {
	sandboxEnv(t)
	dir, repo := initRepo(t)
	commitFile(t, repo, dir, "a.txt", "a", "Alice", "alice@example.com")

	if _, err := repo.CreateRemote(&gogitcfg.RemoteConfig{
		Name: "origin",
		URLs: []string{"git@github.com:acme/api.git"},
	}); err != nil {
		t.Fatalf("CreateRemote: %v", err)
	}

	svc, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	url, ok := svc.OriginURL()
	if !ok || url != "git@github.com:acme/api.git" {
		t.Errorf("OriginURL = %q, %v", url, ok)
	}
}

func TestIsDirty(t *testing.T) {
	sandboxEnv(t)
	dir, repo := initRepo(t)
	commitFile(t, repo, dir, "a.txt", "a", "Alice", "alice@example.com")

	svc, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	dirty, err := svc.IsDirty()
	if err != nil {
		t.Fatalf("IsDirty: %v", err)
	}
	if dirty {
		t.Error("fresh commit should leave a clean tree")
	}

	// Untracked files count as dirty too.
	if err := os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	dirty, err = svc.IsDirty()
	if err != nil {
		t.Fatalf("IsDirty: %v", err)
	}
	if !dirty {
		t.Error("untracked file should make the tree dirty")
	}
}
