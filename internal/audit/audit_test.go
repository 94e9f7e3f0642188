package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/gid-sh/gid/internal/config"
	"github.com/gid-sh/gid/internal/rules"
)

type author struct {
	name, email string
}

func sandboxEnv(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
}

// repoWith creates a repository under dir with one commit per author,
// oldest first.
func repoWith(t *testing.T, dir string, authors []author) {
	t.Helper()
	repo, err := gitlib.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	for i, a := range authors {
		name := filepath.Join(dir, "f"+string(rune('a'+i))+".txt")
		if err := os.WriteFile(name, []byte(a.email), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := wt.Add(filepath.Base(name)); err != nil {
			t.Fatal(err)
		}
		_, err := wt.Commit("change "+filepath.Base(name), &gitlib.CommitOptions{
			Author: &object.Signature{Name: a.name, Email: a.email, When: time.Now().Add(time.Duration(i) * time.Second)},
		})
		if err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}
}

func testConfig(t *testing.T, repoDir string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Identities: []config.Identity{
			{ID: "work", Name: "Alice Work", Email: "alice@corp.example"},
			{ID: "oss", Name: "Alice OSS", Email: "alice@oss.example"},
		},
		Settings: config.DefaultSettings(),
	}
	if repoDir != "" {
		cfg.Rules = []rules.Rule{rules.Path(repoDir+"/**", "work")}
	}
	return cfg
}

func TestRepoClean(t *testing.T) {
	sandboxEnv(t)
	dir := t.TempDir()
	repoWith(t, dir, []author{
		{"Alice Work", "alice@corp.example"},
		{"Alice Work", "alice@corp.example"},
	})

	rep, err := New(testConfig(t, dir), t.TempDir()).Repo(dir)
	if err != nil {
		t.Fatalf("Repo: %v", err)
	}
	if !rep.Clean() {
		t.Errorf("expected clean report, got issues: %v", rep.Issues)
	}
	if rep.Expected != "work" {
		t.Errorf("Expected = %q, want work", rep.Expected)
	}
	if rep.Total != 2 {
		t.Errorf("Total = %d, want 2", rep.Total)
	}
	if len(rep.Usage) != 1 || rep.Usage[0].Commits != 2 {
		t.Fatalf("usage = %+v", rep.Usage)
	}
	if rep.Usage[0].Key() != "Alice Work <alice@corp.example>" {
		t.Errorf("usage key = %q", rep.Usage[0].Key())
	}
}

func TestRepoUnknownIdentity(t *testing.T) {
	sandboxEnv(t)
	dir := t.TempDir()
	repoWith(t, dir, []author{
		{"Alice Work", "alice@corp.example"},
		{"Stranger", "nobody@example.com"},
	})

	rep, err := New(testConfig(t, dir), t.TempDir()).Repo(dir)
	if err != nil {
		t.Fatalf("Repo: %v", err)
	}
	if len(rep.Issues) != 1 {
		t.Fatalf("issues = %v", rep.Issues)
	}
	is := rep.Issues[0]
	if is.Kind != UnknownIdentity {
		t.Errorf("kind = %v", is.Kind)
	}
	if is.Commit.AuthorEmail != "nobody@example.com" {
		t.Errorf("commit = %+v", is.Commit)
	}
	if is.Expected != "work" {
		t.Errorf("expected = %q", is.Expected)
	}
}

func TestRepoIdentityMismatch(t *testing.T) {
	sandboxEnv(t)
	dir := t.TempDir()
	repoWith(t, dir, []author{
		{"Alice OSS", "alice@oss.example"},
	})

	rep, err := New(testConfig(t, dir), t.TempDir()).Repo(dir)
	if err != nil {
		t.Fatalf("Repo: %v", err)
	}
	if len(rep.Issues) != 1 {
		t.Fatalf("issues = %v", rep.Issues)
	}
	is := rep.Issues[0]
	if is.Kind != IdentityMismatch {
		t.Errorf("kind = %v", is.Kind)
	}
	if is.IdentityID != "oss" || is.Expected != "work" {
		t.Errorf("got %q expected %q", is.IdentityID, is.Expected)
	}
}

func TestRepoNoResolutionMeansNoMismatch(t *testing.T) {
	sandboxEnv(t)
	dir := t.TempDir()
	repoWith(t, dir, []author{
		{"Alice OSS", "alice@oss.example"},
	})

	// No rules: nothing resolves, so a known identity never mismatches.
	rep, err := New(testConfig(t, ""), t.TempDir()).Repo(dir)
	if err != nil {
		t.Fatalf("Repo: %v", err)
	}
	if !rep.Clean() {
		t.Errorf("issues = %v", rep.Issues)
	}
	if rep.Expected != "" {
		t.Errorf("Expected = %q, want empty", rep.Expected)
	}
}

func TestRepoEmailOnlyMatch(t *testing.T) {
	sandboxEnv(t)
	dir := t.TempDir()
	repoWith(t, dir, []author{
		{"A. Work", "alice@corp.example"}, // name differs, email known
	})

	rep, err := New(testConfig(t, dir), t.TempDir()).Repo(dir)
	if err != nil {
		t.Fatalf("Repo: %v", err)
	}
	if len(rep.Usage) != 1 || rep.Usage[0].IdentityID != "work" {
		t.Fatalf("usage = %+v", rep.Usage)
	}
	if !rep.Clean() {
		t.Errorf("email-only match should still count as the expected identity: %v", rep.Issues)
	}
}

func TestRepoMixedIdentities(t *testing.T) {
	sandboxEnv(t)
	dir := t.TempDir()
	repoWith(t, dir, []author{
		{"Alice OSS", "alice@oss.example"},
		{"Alice Work", "alice@corp.example"},
		{"Alice Work", "alice@corp.example"},
	})

	// No rules: mixed detection must not depend on resolution.
	rep, err := New(testConfig(t, ""), t.TempDir()).Repo(dir)
	if err != nil {
		t.Fatalf("Repo: %v", err)
	}

	var mixed []Issue
	for _, is := range rep.Issues {
		if is.Kind == MixedIdentities {
			mixed = append(mixed, is)
		}
	}
	if len(mixed) != 1 {
		t.Fatalf("mixed issues = %v", rep.Issues)
	}
	if mixed[0].IdentityID != "oss" {
		t.Errorf("minority = %q, want oss", mixed[0].IdentityID)
	}
	if mixed[0].Commit.AuthorEmail != "alice@oss.example" {
		t.Errorf("commit = %+v", mixed[0].Commit)
	}
}

func TestRepoMixedSignaturesSameIdentity(t *testing.T) {
	sandboxEnv(t)
	dir := t.TempDir()
	// Both signatures resolve to the work identity (the second by
	// email only), but the literal name differs, so the history still
	// mixes author signatures.
	repoWith(t, dir, []author{
		{"Alice Work", "alice@corp.example"},
		{"Alice Work", "alice@corp.example"},
		{"A. Work", "alice@corp.example"},
	})

	rep, err := New(testConfig(t, ""), t.TempDir()).Repo(dir)
	if err != nil {
		t.Fatalf("Repo: %v", err)
	}
	var mixed []Issue
	for _, is := range rep.Issues {
		if is.Kind == MixedIdentities {
			mixed = append(mixed, is)
		}
	}
	if len(mixed) != 1 {
		t.Fatalf("mixed issues = %v, want 1", rep.Issues)
	}
	if mixed[0].Commit.AuthorName != "A. Work" {
		t.Errorf("commit = %+v, want the minority signature", mixed[0].Commit)
	}
	if mixed[0].IdentityID != "work" {
		t.Errorf("identity = %q, want work", mixed[0].IdentityID)
	}
}

func TestRepoMixedTieBreaksOnFirstEncountered(t *testing.T) {
	sandboxEnv(t)
	dir := t.TempDir()
	// One commit each. History lists newest first, so the work commit
	// is encountered first.
	repoWith(t, dir, []author{
		{"Alice OSS", "alice@oss.example"},
		{"Alice Work", "alice@corp.example"},
	})

	rep, err := New(testConfig(t, ""), t.TempDir()).Repo(dir)
	if err != nil {
		t.Fatalf("Repo: %v", err)
	}
	var mixed []Issue
	for _, is := range rep.Issues {
		if is.Kind == MixedIdentities {
			mixed = append(mixed, is)
		}
	}
	if len(mixed) != 1 || mixed[0].IdentityID != "work" {
		t.Errorf("mixed = %v, want single finding for work", mixed)
	}
}

func TestIssueKindString(t *testing.T) {
	cases := map[IssueKind]string{
		UnknownIdentity:  "unknown identity",
		IdentityMismatch: "identity mismatch",
		MixedIdentities:  "mixed identities",
		IssueKind(99):    "unknown",
	}
	for k, want := range cases {
		if k.String() != want {
			t.Errorf("%d.String() = %q, want %q", k, k.String(), want)
		}
	}
}

func TestDirectoryFindsNestedRepos(t *testing.T) {
	sandboxEnv(t)
	root := t.TempDir()

	shallow := filepath.Join(root, "proj")
	nested := filepath.Join(root, "org", "team", "svc")
	tooDeep := filepath.Join(root, "a", "b", "c", "deep")
	for _, dir := range []string{shallow, nested, tooDeep} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		repoWith(t, dir, []author{{"Alice Work", "alice@corp.example"}})
	}
	// Plain directories without .git are not reported.
	if err := os.MkdirAll(filepath.Join(root, "notes"), 0755); err != nil {
		t.Fatal(err)
	}

	reports, err := New(testConfig(t, ""), t.TempDir()).Directory(root)
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}

	found := make(map[string]bool)
	for _, rep := range reports {
		found[rep.RepoPath] = true
	}
	for _, want := range []string{shallow, nested} {
		resolved, _ := filepath.EvalSymlinks(want)
		if !found[want] && !found[resolved] {
			t.Errorf("missing report for %s (got %v)", want, found)
		}
	}
	if len(reports) != 2 {
		t.Errorf("reports = %d, want 2 (depth cap should exclude %s)", len(reports), tooDeep)
	}
}
