package config

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/gid-sh/gid/internal/rules"
)

// The on-disk TOML schema. Optional booleans and the rule priority use
// pointers so absent fields can take non-zero defaults (priority 100,
// enabled true) without treating explicit zero values as absent.

type fileConfig struct {
	Identities []Identity   `toml:"identities"`
	Rules      []fileRule   `toml:"rules"`
	Settings   fileSettings `toml:"settings"`
}

type fileRule struct {
	Type        string  `toml:"type"`
	Pattern     string  `toml:"pattern"`
	Identity    string  `toml:"identity"`
	Priority    *uint32 `toml:"priority"`
	Description string  `toml:"description,omitempty"`
	Enabled     *bool   `toml:"enabled"`
}

type fileSettings struct {
	Verbose        *bool  `toml:"verbose"`
	Color          *bool  `toml:"color"`
	AutoSwitch     *bool  `toml:"auto_switch"`
	PreCommitCheck *bool  `toml:"pre_commit_check"`
	StrictMode     *bool  `toml:"strict_mode"`
	Editor         string `toml:"editor,omitempty"`
	HooksPath      string `toml:"hooks_path,omitempty"`
}

func (fr fileRule) toRule() (rules.Rule, error) {
	r := rules.Rule{
		Pattern:     fr.Pattern,
		Identity:    fr.Identity,
		Priority:    rules.DefaultPriority,
		Description: fr.Description,
		Enabled:     true,
	}
	switch fr.Type {
	case string(rules.KindPath):
		r.Kind = rules.KindPath
	case string(rules.KindRemote):
		r.Kind = rules.KindRemote
	default:
		return rules.Rule{}, fmt.Errorf("unknown rule type %q", fr.Type)
	}
	if fr.Priority != nil {
		r.Priority = *fr.Priority
	}
	if fr.Enabled != nil {
		r.Enabled = *fr.Enabled
	}
	return r, nil
}

func fileRuleFrom(r rules.Rule) fileRule {
	priority := r.Priority
	enabled := r.Enabled
	return fileRule{
		Type:        string(r.Kind),
		Pattern:     r.Pattern,
		Identity:    r.Identity,
		Priority:    &priority,
		Description: r.Description,
		Enabled:     &enabled,
	}
}

func (fs fileSettings) toSettings() Settings {
	s := DefaultSettings()
	if fs.Verbose != nil {
		s.Verbose = *fs.Verbose
	}
	if fs.Color != nil {
		s.Color = *fs.Color
	}
	if fs.AutoSwitch != nil {
		s.AutoSwitch = *fs.AutoSwitch
	}
	if fs.PreCommitCheck != nil {
		s.PreCommitCheck = *fs.PreCommitCheck
	}
	if fs.StrictMode != nil {
		s.StrictMode = *fs.StrictMode
	}
	s.Editor = fs.Editor
	s.HooksPath = fs.HooksPath
	return s
}

func fileSettingsFrom(s Settings) fileSettings {
	verbose := s.Verbose
	color := s.Color
	autoSwitch := s.AutoSwitch
	preCommit := s.PreCommitCheck
	strict := s.StrictMode
	return fileSettings{
		Verbose:        &verbose,
		Color:          &color,
		AutoSwitch:     &autoSwitch,
		PreCommitCheck: &preCommit,
		StrictMode:     &strict,
		Editor:         s.Editor,
		HooksPath:      s.HooksPath,
	}
}

// DecodeConfig parses TOML config content.
func DecodeConfig(data []byte) (*Config, error) {
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg := &Config{
		Identities: fc.Identities,
		Settings:   fc.Settings.toSettings(),
	}
	for _, fr := range fc.Rules {
		r, err := fr.toRule()
		if err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
		cfg.Rules = append(cfg.Rules, r)
	}
	cfg.sortRules()
	return cfg, nil
}

// EncodeConfig serializes a config to TOML.
func EncodeConfig(cfg *Config) ([]byte, error) {
	fc := fileConfig{
		Identities: cfg.Identities,
		Settings:   fileSettingsFrom(cfg.Settings),
	}
	for _, r := range cfg.Rules {
		fc.Rules = append(fc.Rules, fileRuleFrom(r))
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(fc); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}
