// Package hook installs the pre-commit identity check into a hooks
// directory. It only ever touches scripts it wrote itself.
package hook

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the git hook this package manages.
const FileName = "pre-commit"

// marker identifies scripts written by this tool.
const marker = "# installed by gid"

// Script is the pre-commit hook body. GID_SKIP=1 bypasses the check
// for one commit.
const Script = `#!/bin/sh
` + marker + `
if [ "$GID_SKIP" = "1" ]; then
    exit 0
fi
if command -v gid >/dev/null 2>&1; then
    gid doctor --pre-commit || {
        echo "gid: identity check failed (set GID_SKIP=1 to bypass)" >&2
        exit 1
    }
fi
exit 0
`

// ErrForeignHook indicates a pre-commit hook this tool did not write.
var ErrForeignHook = errors.New("existing pre-commit hook was not installed by gid")

// Status describes what occupies the hook slot.
type Status int

const (
	NotInstalled Status = iota
	Installed
	Foreign
)

func (s Status) String() string {
	switch s {
	case Installed:
		return "installed"
	case Foreign:
		return "foreign hook present"
	}
	return "not installed"
}

// Install writes the hook into dir. A foreign hook blocks the install
// unless force is set; reinstalling over our own hook is always fine.
func Install(dir string, force bool) error {
	st, err := Inspect(dir)
	if err != nil {
		return err
	}
	if st == Foreign && !force {
		return fmt.Errorf("%w: %s", ErrForeignHook, filepath.Join(dir, FileName))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create hooks dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(Script), 0755); err != nil {
		return fmt.Errorf("write hook: %w", err)
	}
	return nil
}

// Uninstall removes our hook from dir. A missing hook is a no-op; a
// foreign hook is left alone and reported.
func Uninstall(dir string) error {
	st, err := Inspect(dir)
	if err != nil {
		return err
	}
	switch st {
	case NotInstalled:
		return nil
	case Foreign:
		return fmt.Errorf("%w: %s", ErrForeignHook, filepath.Join(dir, FileName))
	}
	return os.Remove(filepath.Join(dir, FileName))
}

// Inspect reports what currently occupies the hook slot in dir.
func Inspect(dir string) (Status, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if os.IsNotExist(err) {
		return NotInstalled, nil
	}
	if err != nil {
		return NotInstalled, fmt.Errorf("read hook: %w", err)
	}
	if bytes.Contains(data, []byte(marker)) {
		return Installed, nil
	}
	return Foreign, nil
}
