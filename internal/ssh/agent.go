package ssh

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/gid-sh/gid/internal/config"
)

// execAgent talks to the host ssh-agent through the ssh-add binary.
type execAgent struct{}

func (execAgent) Running() bool {
	if os.Getenv("SSH_AUTH_SOCK") == "" {
		return false
	}
	_, err := exec.LookPath("ssh-add")
	return err == nil
}

func (execAgent) AddKey(path string) error {
	out, err := exec.Command("ssh-add", path).CombinedOutput()
	if err != nil {
		return fmt.Errorf("ssh-add %s: %s", path, strings.TrimSpace(string(out)))
	}
	return nil
}

// GenerateKey creates a new ed25519 keypair at path with an empty
// passphrase, tagged with the identity's email.
func (m *Manager) GenerateKey(path, email string) error {
	out, err := exec.Command("ssh-keygen",
		"-t", "ed25519",
		"-f", config.ExpandPath(path),
		"-N", "",
		"-C", email,
	).CombinedOutput()
	if err != nil {
		return fmt.Errorf("ssh-keygen: %s", strings.TrimSpace(string(out)))
	}
	return nil
}
