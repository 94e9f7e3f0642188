package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gid-sh/gid/internal/rules"
)

func TestParseProjectBareID(t *testing.T) {
	pc, err := ParseProject("work\n")
	if err != nil {
		t.Fatalf("ParseProject: %v", err)
	}
	if pc.Identity != "work" {
		t.Errorf("identity = %q, want %q", pc.Identity, "work")
	}
	if len(pc.Rules) != 0 {
		t.Errorf("rules = %d, want 0", len(pc.Rules))
	}
}

func TestParseProjectStructured(t *testing.T) {
	content := `
identity = "work"

[[rules]]
type = "path"
pattern = "src/**"
identity = "work"
priority = 100
`
	pc, err := ParseProject(content)
	if err != nil {
		t.Fatalf("ParseProject: %v", err)
	}
	if pc.Identity != "work" {
		t.Errorf("identity = %q, want %q", pc.Identity, "work")
	}
	if len(pc.Rules) != 1 {
		t.Fatalf("rules = %d, want 1", len(pc.Rules))
	}
	if pc.Rules[0].Kind != rules.KindPath || pc.Rules[0].Pattern != "src/**" {
		t.Errorf("rule = %+v", pc.Rules[0])
	}
}

func TestParseProjectEmpty(t *testing.T) {
	pc, err := ParseProject("")
	if err != nil {
		t.Fatalf("ParseProject: %v", err)
	}
	if pc != nil {
		t.Errorf("expected nil config for empty content, got %+v", pc)
	}
}

func TestParseProjectInvalidID(t *testing.T) {
	if _, err := ParseProject("invalid id with spaces"); err == nil {
		t.Fatal("expected error for invalid bare id")
	}
}

func TestLoadProjectAbsent(t *testing.T) {
	pc, err := LoadProject(t.TempDir())
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if pc != nil {
		t.Errorf("expected nil for missing marker file, got %+v", pc)
	}
}

func TestLoadProjectDoesNotSearchUpward(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ProjectFileName), []byte("work\n"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "nested")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	pc, err := LoadProject(sub)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if pc != nil {
		t.Error("LoadProject must only consult the exact directory")
	}

	// The parent-search helper does find it.
	found, path, err := FindProjectInParents(sub)
	if err != nil {
		t.Fatalf("FindProjectInParents: %v", err)
	}
	if found == nil || found.Identity != "work" {
		t.Fatalf("FindProjectInParents = %+v", found)
	}
	if path != filepath.Join(root, ProjectFileName) {
		t.Errorf("path = %q, want %q", path, filepath.Join(root, ProjectFileName))
	}
}

func TestProjectSaveToRoundTrip(t *testing.T) {
	dir := t.TempDir()

	bare := &ProjectConfig{Identity: "personal"}
	if err := bare.SaveTo(dir); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if loaded.Identity != "personal" || len(loaded.Rules) != 0 {
		t.Errorf("bare round-trip = %+v", loaded)
	}

	structured := &ProjectConfig{
		Identity: "work",
		Rules:    []rules.Rule{rules.Remote("github.com/acme/*", "work")},
	}
	if err := structured.SaveTo(dir); err != nil {
		t.Fatalf("SaveTo structured: %v", err)
	}
	loaded, err = LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject structured: %v", err)
	}
	if loaded.Identity != "work" || len(loaded.Rules) != 1 {
		t.Errorf("structured round-trip = %+v", loaded)
	}
}
