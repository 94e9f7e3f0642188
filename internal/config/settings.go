package config

// Settings holds tool-wide behavior toggles persisted alongside
// identities and rules.
type Settings struct {
	// Verbose prints extended information on switches.
	Verbose bool

	// Color enables styled output.
	Color bool

	// AutoSwitch switches identities automatically on directory entry
	// (consumed by shell integration, not by the tool itself).
	AutoSwitch bool

	// PreCommitCheck runs the identity check from the pre-commit hook.
	PreCommitCheck bool

	// StrictMode makes the pre-commit hook block on identity mismatch.
	StrictMode bool

	// Editor overrides $VISUAL/$EDITOR for the edit command.
	Editor string

	// HooksPath overrides the global hooks directory.
	HooksPath string
}

// DefaultSettings returns the settings applied when no config file
// exists or when fields are absent from it.
func DefaultSettings() Settings {
	return Settings{
		Verbose:        true,
		Color:          true,
		AutoSwitch:     false,
		PreCommitCheck: true,
		StrictMode:     false,
	}
}
