// Package gpg exposes the host GPG keyring as a narrow capability so
// identity validation never spawns processes directly.
package gpg

import (
	"fmt"
	"os/exec"
	"strings"
)

// Key is one secret key usable for signing.
type Key struct {
	ID     string // long key id
	UserID string // primary uid, "Name <email>"
}

// SigningKeyStore lists the signing keys available on the host.
type SigningKeyStore interface {
	ListSecretKeys() ([]Key, error)
}

// HasKey reports whether the store holds a key whose id ends with the
// given id, so short ids and fingerprints both match.
func HasKey(store SigningKeyStore, id string) (bool, error) {
	keys, err := store.ListSecretKeys()
	if err != nil {
		return false, err
	}
	for _, k := range keys {
		if strings.HasSuffix(k.ID, id) || strings.HasSuffix(id, k.ID) {
			return true, nil
		}
	}
	return false, nil
}

// CLI shells out to the gpg binary.
type CLI struct{}

func (CLI) ListSecretKeys() ([]Key, error) {
	out, err := exec.Command("gpg", "--list-secret-keys", "--with-colons").Output()
	if err != nil {
		return nil, fmt.Errorf("gpg --list-secret-keys: %w", err)
	}
	return parseColons(string(out)), nil
}

// parseColons reads gpg's machine format: a "sec" record opens a key
// (field 5 is the key id) and the first following "uid" record names
// it (field 10).
func parseColons(out string) []Key {
	var keys []Key
	var current *Key
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, ":")
		switch fields[0] {
		case "sec":
			if current != nil {
				keys = append(keys, *current)
			}
			current = &Key{}
			if len(fields) > 4 {
				current.ID = fields[4]
			}
		case "uid":
			if current != nil && current.UserID == "" && len(fields) > 9 {
				current.UserID = fields[9]
			}
		}
	}
	if current != nil {
		keys = append(keys, *current)
	}
	return keys
}

// Fake is an in-memory store for tests.
type Fake struct {
	Keys []Key
	Err  error
}

func (f *Fake) ListSecretKeys() ([]Key, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Keys, nil
}
