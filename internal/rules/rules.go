// Package rules implements pattern rules that map directories and
// remote URLs to identity ids.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultPriority is assigned to rules created without an explicit
// priority. Lower values take precedence.
const DefaultPriority = 100

// Kind discriminates what a rule's pattern is tested against.
type Kind string

const (
	// KindPath rules match the working directory path.
	KindPath Kind = "path"

	// KindRemote rules match the repository's origin remote URL.
	KindRemote Kind = "remote"
)

// Rule maps a pattern to an identity id. Rules are kept sorted by
// priority ascending; ties keep insertion order.
type Rule struct {
	// Kind selects which context field the pattern applies to.
	Kind Kind

	// Pattern is a glob for path rules, or a substring/regexp/glob
	// for remote rules (tried in that order).
	Pattern string

	// Identity is the id of the identity selected on match.
	Identity string

	// Priority orders evaluation; lower wins.
	Priority uint32

	// Description is optional free text.
	Description string

	// Enabled rules participate in matching; disabled ones are skipped.
	Enabled bool
}

// Path creates an enabled path rule with the default priority.
func Path(pattern, identity string) Rule {
	return Rule{Kind: KindPath, Pattern: pattern, Identity: identity, Priority: DefaultPriority, Enabled: true}
}

// Remote creates an enabled remote-URL rule with the default priority.
func Remote(pattern, identity string) Rule {
	return Rule{Kind: KindRemote, Pattern: pattern, Identity: identity, Priority: DefaultPriority, Enabled: true}
}

// WithPriority returns a copy of the rule with the given priority.
func (r Rule) WithPriority(p uint32) Rule {
	r.Priority = p
	return r
}

func (r Rule) String() string {
	return fmt.Sprintf("[%s] %s -> %s", r.Kind, r.Pattern, r.Identity)
}

// Context carries the values a resolution request matches against.
// Empty fields are treated as absent. Built fresh per request, never
// persisted.
type Context struct {
	Path      string
	RemoteURL string
}

// Engine evaluates rules in their stored (priority-sorted) order.
type Engine struct {
	rules []Rule
	home  string
}

// NewEngine creates an engine over the given rules. The rules slice is
// expected to be sorted by priority ascending already; the engine does
// not reorder it.
func NewEngine(rules []Rule, home string) *Engine {
	return &Engine{rules: rules, home: home}
}

// MatchFirst returns the first enabled rule whose pattern matches the
// kind-appropriate context field, or false if none does. Within a
// single rule the remote URL is tested before the path, so a remote
// rule is never compared against a path and vice versa.
func (e *Engine) MatchFirst(ctx Context) (Rule, bool) {
	for _, r := range e.rules {
		if !r.Enabled {
			continue
		}
		if ctx.RemoteURL != "" && e.matchesRemote(r, ctx.RemoteURL) {
			return r, true
		}
		if ctx.Path != "" && e.matchesPath(r, ctx.Path) {
			return r, true
		}
	}
	return Rule{}, false
}

// MatchAll returns every enabled rule that matches the context, in
// priority order.
func (e *Engine) MatchAll(ctx Context) []Rule {
	var matched []Rule
	for _, r := range e.rules {
		if !r.Enabled {
			continue
		}
		if ctx.RemoteURL != "" && e.matchesRemote(r, ctx.RemoteURL) {
			matched = append(matched, r)
			continue
		}
		if ctx.Path != "" && e.matchesPath(r, ctx.Path) {
			matched = append(matched, r)
		}
	}
	return matched
}

// matchesPath tests a path rule against a directory path. The pattern
// is tried as a glob over the full path string; a directory-prefix
// check backs it up so "~/work/**" also matches "~/work" itself.
func (e *Engine) matchesPath(r Rule, path string) bool {
	if r.Kind != KindPath {
		return false
	}

	pattern := e.expandHome(r.Pattern)

	if g, err := glob.Compile(pattern, '/'); err == nil && g.Match(path) {
		return true
	}

	prefix := strings.TrimSuffix(pattern, "**")
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix != "" && (path == prefix || strings.HasPrefix(path, prefix+"/")) {
		return true
	}

	return false
}

// matchesRemote tests a remote rule against a remote URL. Strategies
// are tried in order: literal substring, regexp over the raw URL, glob
// over the normalized URL. First hit wins.
func (e *Engine) matchesRemote(r Rule, remoteURL string) bool {
	if r.Kind != KindRemote {
		return false
	}

	if strings.Contains(remoteURL, r.Pattern) {
		return true
	}

	if re, err := regexp.Compile(r.Pattern); err == nil && re.MatchString(remoteURL) {
		return true
	}

	if g, err := glob.Compile(r.Pattern, '/'); err == nil && g.Match(NormalizeURL(remoteURL)) {
		return true
	}

	return false
}

// expandHome replaces a leading "~/" with the engine's home directory.
func (e *Engine) expandHome(pattern string) string {
	if stripped, ok := strings.CutPrefix(pattern, "~/"); ok && e.home != "" {
		return e.home + "/" + stripped
	}
	return pattern
}

// NormalizeURL reduces a git remote URL to "host/path" form:
// git@github.com:user/repo.git and https://github.com/user/repo.git
// both become github.com/user/repo.
func NormalizeURL(url string) string {
	url = strings.TrimSpace(url)

	if rest, ok := strings.CutPrefix(url, "git@"); ok {
		rest = strings.ReplaceAll(rest, ":", "/")
		return strings.TrimSuffix(rest, ".git")
	}

	if rest, ok := strings.CutPrefix(url, "https://"); ok {
		return strings.TrimSuffix(rest, ".git")
	}
	if rest, ok := strings.CutPrefix(url, "http://"); ok {
		return strings.TrimSuffix(rest, ".git")
	}

	return url
}
