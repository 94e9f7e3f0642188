package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gid-sh/gid/internal/rules"
)

// ProjectFileName is the per-directory marker file pinning an identity.
const ProjectFileName = ".gid"

// ProjectConfig is a parsed marker file: a pinned identity id plus an
// optional embedded rule list. Read-only for the tool; rule identity
// references are not validated here.
type ProjectConfig struct {
	Identity string
	Rules    []rules.Rule
}

type fileProject struct {
	Identity string     `toml:"identity"`
	Rules    []fileRule `toml:"rules"`
}

// LoadProject reads the marker file in exactly the given directory.
// Returns (nil, nil) when the file is absent or empty. No upward
// search happens here; resolution only ever consults the target
// directory itself.
func LoadProject(dir string) (*ProjectConfig, error) {
	path := filepath.Join(dir, ProjectFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	pc, err := ParseProject(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pc, nil
}

// FindProjectInParents walks from start upward and returns the first
// marker file found along with its path. Kept for callers that want
// upward search; the resolution path deliberately does not use it.
func FindProjectInParents(start string) (*ProjectConfig, string, error) {
	dir := start
	for {
		pc, err := LoadProject(dir)
		if err != nil {
			return nil, "", err
		}
		if pc != nil {
			return pc, filepath.Join(dir, ProjectFileName), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, "", nil
		}
		dir = parent
	}
}

// ParseProject parses marker file content. Two forms are accepted: a
// structured TOML document with an identity field and optional rules,
// or a bare identity id on the first non-empty line.
func ParseProject(content string) (*ProjectConfig, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, nil
	}

	if strings.Contains(trimmed, "=") || strings.Contains(trimmed, "[") {
		var fp fileProject
		if err := toml.Unmarshal([]byte(trimmed), &fp); err != nil {
			return nil, fmt.Errorf("malformed project config: %w", err)
		}
		pc := &ProjectConfig{Identity: fp.Identity}
		for _, fr := range fp.Rules {
			r, err := fr.toRule()
			if err != nil {
				return nil, fmt.Errorf("malformed project config: %w", err)
			}
			pc.Rules = append(pc.Rules, r)
		}
		return pc, nil
	}

	id := strings.TrimSpace(strings.SplitN(trimmed, "\n", 2)[0])
	if id == "" {
		return nil, nil
	}
	if !ValidID(id) {
		return nil, fmt.Errorf("invalid identity id %q in project config", id)
	}
	return &ProjectConfig{Identity: id}, nil
}

// SaveTo writes the marker file into dir: bare-id form when there are
// no embedded rules, structured TOML otherwise.
func (p *ProjectConfig) SaveTo(dir string) error {
	path := filepath.Join(dir, ProjectFileName)

	if len(p.Rules) == 0 {
		if err := os.WriteFile(path, []byte(p.Identity+"\n"), 0644); err != nil { //nolint:gosec
			return fmt.Errorf("writing %s: %w", path, err)
		}
		return nil
	}

	fp := fileProject{Identity: p.Identity}
	for _, r := range p.Rules {
		fp.Rules = append(fp.Rules, fileRuleFrom(r))
	}
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(fp); err != nil {
		return fmt.Errorf("encoding project config: %w", err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil { //nolint:gosec
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
