package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrIdentityNotFound indicates the requested identity does not exist.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrIdentityExists indicates an identity with that id already exists.
	ErrIdentityExists = errors.New("identity already exists")

	// ErrInvalidIdentity indicates the identity failed validation.
	ErrInvalidIdentity = errors.New("invalid identity")
)

// Identity is a named git authorship profile: the values written into
// git config when the user switches into it.
type Identity struct {
	// ID is the unique identifier ([A-Za-z0-9_-]+).
	ID string `toml:"id"`

	// Name is the git user.name value.
	Name string `toml:"name"`

	// Email is the git user.email value.
	Email string `toml:"email"`

	// Description is optional free text.
	Description string `toml:"description,omitempty"`

	// SSHKey is the path to the private key used for this identity.
	SSHKey string `toml:"ssh_key,omitempty"`

	// GPGKey is the signing key id written to user.signingkey.
	GPGKey string `toml:"gpg_key,omitempty"`

	// GPGSign enables commit.gpgsign when switching to this identity.
	GPGSign bool `toml:"gpg_sign,omitempty"`
}

// ValidID reports whether id is non-empty and contains only letters,
// digits, underscores and hyphens.
func ValidID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}

// Validate checks the identity before it is persisted.
func (i Identity) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidIdentity)
	}
	if !ValidID(i.ID) {
		return fmt.Errorf("%w: id %q may only contain letters, digits, underscores and hyphens", ErrInvalidIdentity, i.ID)
	}
	if i.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidIdentity)
	}
	if i.Email == "" {
		return fmt.Errorf("%w: email cannot be empty", ErrInvalidIdentity)
	}
	if !strings.Contains(i.Email, "@") || !strings.Contains(i.Email, ".") {
		return fmt.Errorf("%w: email %q is malformed", ErrInvalidIdentity, i.Email)
	}
	if i.SSHKey != "" {
		if _, err := os.Stat(ExpandPath(i.SSHKey)); err != nil {
			return fmt.Errorf("%w: ssh key file does not exist: %s", ErrInvalidIdentity, i.SSHKey)
		}
	}
	return nil
}

func (i Identity) String() string {
	return fmt.Sprintf("[%s] %s <%s>", i.ID, i.Name, i.Email)
}

// ExpandPath replaces a leading "~/" with the user's home directory.
func ExpandPath(path string) string {
	if stripped, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, stripped)
		}
	}
	return path
}
