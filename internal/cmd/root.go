// Package cmd implements the gid command line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/gid-sh/gid/internal/config"
)

// Command groups shown in help output.
const (
	GroupIdentity = "identity"
	GroupRules    = "rules"
	GroupRepo     = "repo"
	GroupConfig   = "config"
)

var rootCmd = &cobra.Command{
	Use:   "gid",
	Short: "Manage multiple git identities",
	Long: `gid manages multiple named git identities (name, email, signing keys)
and switches among them per repository or globally.

Identities are selected explicitly ('gid switch'), through path or
remote-URL rules ('gid rule', 'gid auto'), or through a .gid marker
file in the project directory.

Examples:
  gid add --id work --name "Alice Smith" --email alice@corp.example
  gid switch work
  gid rule add --type remote --pattern "github.com/corp/*" --identity work
  gid audit --path ~/src`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          requireSubcommand,
}

var rootVerbose bool

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupIdentity, Title: "Identity Commands:"},
		&cobra.Group{ID: GroupRules, Title: "Rule Commands:"},
		&cobra.Group{ID: GroupRepo, Title: "Repository Commands:"},
		&cobra.Group{ID: GroupConfig, Title: "Configuration Commands:"},
	)
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Enable debug output")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		settings := config.DefaultSettings()
		if _, cfg, err := loadStore(); err == nil {
			settings = cfg.Settings
		}
		if rootVerbose {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})))
		}
		if !settings.Color {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
	}
}

// Execute runs the root command and reports failure via exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// requireSubcommand is the RunE for group commands that do nothing on
// their own.
func requireSubcommand(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}

// loadStore opens the config store and loads its contents.
func loadStore() (*config.Store, *config.Config, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, nil, err
	}
	store := config.NewStore(dir)
	cfg, err := store.Load()
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

// userHome returns the home directory rules and resolution expand
// against. Resolution still works without one; ~ patterns just stop
// matching.
func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
