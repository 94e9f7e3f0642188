// Package resolve decides which identity applies to a directory.
package resolve

import (
	"github.com/gid-sh/gid/internal/config"
	"github.com/gid-sh/gid/internal/rules"
)

// ProjectLookup loads the project marker config for a directory.
type ProjectLookup func(dir string) (*config.ProjectConfig, error)

// Resolver composes the three resolution layers: project marker file,
// pattern rules, no opinion. Project config always pre-empts rules; it
// is never merged with or voted against rule output.
type Resolver struct {
	engine  *rules.Engine
	project ProjectLookup
}

// New builds a resolver over the config's rule list. home is the
// directory used for ~ expansion in path patterns; tests pass a
// synthetic root.
func New(cfg *config.Config, home string) *Resolver {
	return &Resolver{
		engine:  rules.NewEngine(cfg.Rules, home),
		project: config.LoadProject,
	}
}

// WithProjectLookup replaces the marker-file loader. Used by tests.
func (r *Resolver) WithProjectLookup(fn ProjectLookup) *Resolver {
	r.project = fn
	return r
}

// Resolve returns the identity id for the given directory and optional
// remote URL (empty string when unknown). ok is false when no layer
// has an opinion; that is not an error condition.
func (r *Resolver) Resolve(dir, remoteURL string) (id string, ok bool) {
	// A project marker pins the identity unconditionally; rules are
	// not consulted at all. An unreadable marker falls through.
	if pc, err := r.project(dir); err == nil && pc != nil {
		return pc.Identity, true
	}

	ctx := rules.Context{Path: dir, RemoteURL: remoteURL}
	if rule, ok := r.engine.MatchFirst(ctx); ok {
		return rule.Identity, true
	}

	return "", false
}
