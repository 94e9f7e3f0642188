package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gid-sh/gid/internal/config"
	"github.com/gid-sh/gid/internal/git"
	"github.com/gid-sh/gid/internal/hook"
	"github.com/gid-sh/gid/internal/style"
)

var hookCmd = &cobra.Command{
	Use:     "hook",
	GroupID: GroupRepo,
	Short:   "Manage the pre-commit identity hook",
	Long: `Install, remove or inspect the pre-commit hook that runs the identity
check before every commit.

Local installs write into the repository's .git/hooks. Global installs
write into a dedicated hooks directory and point core.hookspath at it,
so every repository picks the hook up. Set GID_SKIP=1 to bypass the
check for a single commit.

Examples:
  gid hook install
  gid hook install --global
  gid hook status`,
	RunE: requireSubcommand,
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the pre-commit hook",
	Args:  cobra.NoArgs,
	RunE:  runHookInstall,
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the pre-commit hook",
	Args:  cobra.NoArgs,
	RunE:  runHookUninstall,
}

var hookStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the hook is installed",
	Args:  cobra.NoArgs,
	RunE:  runHookStatus,
}

var (
	hookGlobal bool
	hookForce  bool
)

func init() {
	rootCmd.AddCommand(hookCmd)
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookCmd.AddCommand(hookStatusCmd)

	hookCmd.PersistentFlags().BoolVar(&hookGlobal, "global", false, "Operate on the global hooks directory")
	hookInstallCmd.Flags().BoolVar(&hookForce, "force", false, "Replace a pre-commit hook gid did not write")
}

// hooksDir returns the directory the hook lives in for the selected
// scope, plus the repository service when one is needed.
func hooksDir(cfg *config.Config) (string, *git.Service, error) {
	if hookGlobal {
		dir := cfg.Settings.HooksPath
		if dir == "" {
			base, err := config.Dir()
			if err != nil {
				return "", nil, err
			}
			dir = filepath.Join(base, "hooks")
		}
		return config.ExpandPath(dir), git.GlobalOnly(), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", nil, err
	}
	svc, err := git.Open(cwd)
	if err != nil {
		return "", nil, fmt.Errorf("%w (use --global to install for every repository)", git.ErrNotARepository)
	}
	return filepath.Join(svc.GitDir(), "hooks"), svc, nil
}

func runHookInstall(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadStore()
	if err != nil {
		return err
	}
	dir, svc, err := hooksDir(cfg)
	if err != nil {
		return err
	}

	if err := hook.Install(dir, hookForce); err != nil {
		return err
	}
	if hookGlobal {
		if err := svc.SetHooksPath(dir, true); err != nil {
			return err
		}
	}

	fmt.Printf("%s Installed pre-commit hook in %s\n", style.SuccessPrefix, dir)
	fmt.Printf("  %s\n", style.Dim.Render("Set GID_SKIP=1 to bypass the check for one commit."))
	return nil
}

func runHookUninstall(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadStore()
	if err != nil {
		return err
	}
	dir, svc, err := hooksDir(cfg)
	if err != nil {
		return err
	}

	if err := hook.Uninstall(dir); err != nil {
		return err
	}
	if hookGlobal {
		if current, ok := svc.HooksPath(true); ok && current == dir {
			if err := svc.UnsetHooksPath(true); err != nil {
				return err
			}
		}
	}

	fmt.Printf("%s Removed pre-commit hook from %s\n", style.SuccessPrefix, dir)
	return nil
}

func runHookStatus(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadStore()
	if err != nil {
		return err
	}
	dir, svc, err := hooksDir(cfg)
	if err != nil {
		return err
	}

	st, err := hook.Inspect(dir)
	if err != nil {
		return err
	}

	prefix := style.ErrorPrefix
	if st == hook.Installed {
		prefix = style.SuccessPrefix
	}
	fmt.Printf("%s Pre-commit hook: %s (%s)\n", prefix, st, filepath.Join(dir, hook.FileName))

	if hookGlobal {
		if current, ok := svc.HooksPath(true); !ok {
			fmt.Printf("%s core.hookspath is not set; the global hook is inactive\n", style.WarningPrefix)
		} else if current != dir {
			fmt.Printf("%s core.hookspath points elsewhere: %s\n", style.WarningPrefix, current)
		}
	}
	return nil
}
