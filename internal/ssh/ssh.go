// Package ssh manages per-identity SSH material: agent registration,
// key generation and host blocks in the user's SSH config. Everything
// here is best-effort from the caller's point of view; failures are
// reported as errors and the caller decides whether they abort.
package ssh

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gid-sh/gid/internal/config"
)

// DefaultHosts are the forges a switch writes host aliases for.
var DefaultHosts = []string{"github.com", "gitlab.com", "bitbucket.org"}

// ErrNoKey indicates an identity without an SSH key configured.
var ErrNoKey = errors.New("identity has no ssh key")

// KeyAgent is the capability the switch path needs from a running
// ssh-agent.
type KeyAgent interface {
	// Running reports whether an agent is reachable.
	Running() bool
	// AddKey registers the private key at path with the agent.
	AddKey(path string) error
}

// Manager reads and writes SSH configuration for identities.
type Manager struct {
	sshDir     string
	configPath string
	agent      KeyAgent
}

// NewManager returns a manager over the user's ~/.ssh directory and a
// real ssh-agent.
func NewManager() (*Manager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home: %w", err)
	}
	return NewManagerAt(filepath.Join(home, ".ssh"), &execAgent{}), nil
}

// NewManagerAt returns a manager over an explicit directory and agent.
func NewManagerAt(dir string, agent KeyAgent) *Manager {
	return &Manager{
		sshDir:     dir,
		configPath: filepath.Join(dir, "config"),
		agent:      agent,
	}
}

// KeyExists reports whether the private key file is present.
func (m *Manager) KeyExists(path string) bool {
	info, err := os.Stat(config.ExpandPath(path))
	return err == nil && !info.IsDir()
}

// AddKeyToAgent registers the identity's key with the agent. When no
// agent is running this is a no-op, not an error.
func (m *Manager) AddKeyToAgent(id config.Identity) error {
	if id.SSHKey == "" {
		return ErrNoKey
	}
	if !m.agent.Running() {
		return nil
	}
	return m.agent.AddKey(config.ExpandPath(id.SSHKey))
}

// ConfigureForIdentity writes one host alias block per host, replacing
// any previous block for the same alias. The alias for host h and
// identity i is "h-i", so a remote can be addressed as
// git@github.com-work:org/repo.git.
func (m *Manager) ConfigureForIdentity(id config.Identity, hosts []string) error {
	if id.SSHKey == "" {
		return ErrNoKey
	}
	for _, host := range hosts {
		block := hostBlock(host, id)
		if err := m.writeBlock(HostAlias(host, id.ID), block); err != nil {
			return fmt.Errorf("configure %s: %w", host, err)
		}
	}
	return nil
}

// RemoveHostConfig deletes the block for one alias, if present.
func (m *Manager) RemoveHostConfig(alias string) error {
	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	kept := removeBlock(string(data), alias)
	return os.WriteFile(m.configPath, []byte(kept), 0600)
}

// HostAlias returns the SSH config alias for a host/identity pair.
func HostAlias(host, identityID string) string {
	return host + "-" + identityID
}

func hostBlock(host string, id config.Identity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Host %s\n", HostAlias(host, id.ID))
	fmt.Fprintf(&b, "    HostName %s\n", host)
	fmt.Fprintf(&b, "    User git\n")
	fmt.Fprintf(&b, "    IdentityFile %s\n", id.SSHKey)
	fmt.Fprintf(&b, "    IdentitiesOnly yes\n")
	return b.String()
}

func (m *Manager) writeBlock(alias, block string) error {
	if err := os.MkdirAll(m.sshDir, 0700); err != nil {
		return err
	}
	existing := ""
	if data, err := os.ReadFile(m.configPath); err == nil {
		existing = removeBlock(string(data), alias)
	} else if !os.IsNotExist(err) {
		return err
	}
	if existing != "" && !strings.HasSuffix(existing, "\n") {
		existing += "\n"
	}
	if existing != "" {
		existing += "\n"
	}
	return os.WriteFile(m.configPath, []byte(existing+block), 0600)
}

// removeBlock drops the "Host <alias>" stanza: its Host line and every
// indented line up to the next top-level statement.
func removeBlock(content, alias string) string {
	lines := strings.Split(content, "\n")
	var kept []string
	skipping := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		indented := strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
		switch {
		case strings.HasPrefix(trimmed, "Host "):
			skipping = strings.TrimSpace(strings.TrimPrefix(trimmed, "Host ")) == alias
		case skipping && trimmed != "" && !indented:
			// Top-level statement ends the stanza.
			skipping = false
		}
		if skipping {
			continue
		}
		kept = append(kept, line)
	}
	out := strings.Join(kept, "\n")
	out = strings.TrimRight(out, "\n")
	if out != "" {
		out += "\n"
	}
	return out
}
