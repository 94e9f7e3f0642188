// Package config owns the persisted identity/rule store, tool
// settings and the per-project marker file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gofrs/flock"

	"github.com/gid-sh/gid/internal/rules"
)

// EnvConfigDir overrides the directory holding config.toml.
const EnvConfigDir = "GID_CONFIG_DIR"

// FileName is the store file inside the config directory.
const FileName = "config.toml"

// ErrRuleIndex indicates a rule index outside the current rule list.
var ErrRuleIndex = errors.New("rule index out of range")

// Config is the in-memory form of the store: every configured
// identity, the priority-sorted rule list and the settings.
type Config struct {
	Identities []Identity
	Rules      []rules.Rule
	Settings   Settings
}

// Dir resolves the config directory: the GID_CONFIG_DIR environment
// variable when set, else the per-user config dir.
func Dir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}
	return filepath.Join(base, "gid"), nil
}

// Store reads and writes the config file under a fixed directory. The
// directory is injected at construction so tests can point it at a
// temporary root.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the config file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Load reads the config file. A missing file yields an empty config
// with default settings; a present but malformed file is an error.
func (s *Store) Load() (*Config, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Settings: DefaultSettings()}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return DecodeConfig(data)
}

// Save writes the config file, holding a file lock across the write so
// concurrent invocations do not interleave.
func (s *Store) Save(cfg *Config) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	lock := flock.New(s.Path() + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking config: %w", err)
	}
	defer lock.Unlock() //nolint:errcheck

	data, err := EncodeConfig(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.Path(), data, 0644); err != nil { //nolint:gosec // G306: config is not secret
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// IsEmpty reports whether the config holds no identities and no rules.
func (c *Config) IsEmpty() bool {
	return len(c.Identities) == 0 && len(c.Rules) == 0
}

// FindIdentity returns the identity with the given id.
func (c *Config) FindIdentity(id string) (*Identity, bool) {
	for i := range c.Identities {
		if c.Identities[i].ID == id {
			return &c.Identities[i], true
		}
	}
	return nil, false
}

// FindByEmail returns the first identity with an exactly matching
// email.
func (c *Config) FindByEmail(email string) (*Identity, bool) {
	for i := range c.Identities {
		if c.Identities[i].Email == email {
			return &c.Identities[i], true
		}
	}
	return nil, false
}

// AddIdentity validates the identity and appends it. Ids are unique.
func (c *Config) AddIdentity(identity Identity) error {
	if err := identity.Validate(); err != nil {
		return err
	}
	if _, ok := c.FindIdentity(identity.ID); ok {
		return fmt.Errorf("%w: %s", ErrIdentityExists, identity.ID)
	}
	c.Identities = append(c.Identities, identity)
	return nil
}

// RemoveIdentity removes and returns the identity with the given id.
func (c *Config) RemoveIdentity(id string) (Identity, error) {
	for i := range c.Identities {
		if c.Identities[i].ID == id {
			removed := c.Identities[i]
			c.Identities = append(c.Identities[:i], c.Identities[i+1:]...)
			return removed, nil
		}
	}
	return Identity{}, fmt.Errorf("%w: %s", ErrIdentityNotFound, id)
}

// AddRule appends a rule and re-sorts the list by priority ascending.
// The sort is stable so equal priorities keep insertion order.
func (c *Config) AddRule(r rules.Rule) {
	c.Rules = append(c.Rules, r)
	c.sortRules()
}

// RemoveRule removes and returns the rule at the given index into the
// current sorted list.
func (c *Config) RemoveRule(index int) (rules.Rule, error) {
	if index < 0 || index >= len(c.Rules) {
		return rules.Rule{}, fmt.Errorf("%w: %d (have %d rules)", ErrRuleIndex, index, len(c.Rules))
	}
	removed := c.Rules[index]
	c.Rules = append(c.Rules[:index], c.Rules[index+1:]...)
	return removed, nil
}

func (c *Config) sortRules() {
	sort.SliceStable(c.Rules, func(i, j int) bool {
		return c.Rules[i].Priority < c.Rules[j].Priority
	})
}
