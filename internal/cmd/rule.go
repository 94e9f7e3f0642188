package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gid-sh/gid/internal/config"
	"github.com/gid-sh/gid/internal/git"
	"github.com/gid-sh/gid/internal/prompt"
	"github.com/gid-sh/gid/internal/rules"
	"github.com/gid-sh/gid/internal/style"
)

var ruleCmd = &cobra.Command{
	Use:     "rule",
	GroupID: GroupRules,
	Short:   "Manage identity selection rules",
	Long: `Manage the rules that map directories and remote URLs to identities.

Rules are evaluated in priority order (lower number first, ties by
creation order). Path rules are globs matched against the working
directory; remote rules are tried as a substring, then a regular
expression, then a glob over the normalized origin URL.

Examples:
  gid rule add --type path --pattern "~/work/**" --identity work
  gid rule add --type remote --pattern "github.com/corp/*" --identity work --priority 10
  gid rule list
  gid rule test ~/work/api
  gid rule remove 2`,
	RunE: requireSubcommand,
}

var ruleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a rule",
	Args:  cobra.NoArgs,
	RunE:  runRuleAdd,
}

var ruleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in evaluation order",
	Args:  cobra.NoArgs,
	RunE:  runRuleList,
}

var ruleRemoveCmd = &cobra.Command{
	Use:   "remove <index>",
	Short: "Remove a rule by its current list index",
	Long: `Remove one rule.

The index refers to the current 'gid rule list' output. Indices shift
when rules are added or removed, so list immediately before removing.
Asks for confirmation unless --yes is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runRuleRemove,
}

var ruleTestCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "Show which rules match a path or remote",
	Long: `Evaluate the rule set against a path (default: current directory) and
a remote URL (default: the repository's origin, when inside one) and
print every match in order, marking the winner.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuleTest,
}

var (
	ruleAddType        string
	ruleAddPattern     string
	ruleAddIdentity    string
	ruleAddPriority    uint32
	ruleAddDescription string
	ruleRemoveYes      bool
	ruleTestRemote     string
)

func init() {
	rootCmd.AddCommand(ruleCmd)
	ruleCmd.AddCommand(ruleAddCmd)
	ruleCmd.AddCommand(ruleListCmd)
	ruleCmd.AddCommand(ruleRemoveCmd)
	ruleCmd.AddCommand(ruleTestCmd)

	ruleAddCmd.Flags().StringVar(&ruleAddType, "type", "path", "Rule type: path or remote")
	ruleAddCmd.Flags().StringVar(&ruleAddPattern, "pattern", "", "Pattern to match")
	ruleAddCmd.Flags().StringVar(&ruleAddIdentity, "identity", "", "Identity id to select on match")
	ruleAddCmd.Flags().Uint32Var(&ruleAddPriority, "priority", rules.DefaultPriority, "Evaluation priority (lower wins)")
	ruleAddCmd.Flags().StringVar(&ruleAddDescription, "description", "", "Free-form description")

	ruleRemoveCmd.Flags().BoolVar(&ruleRemoveYes, "yes", false, "Skip the confirmation prompt")

	ruleTestCmd.Flags().StringVar(&ruleTestRemote, "remote", "", "Remote URL to test instead of origin")
}

func runRuleAdd(cmd *cobra.Command, args []string) error {
	if ruleAddPattern == "" {
		return fmt.Errorf("--pattern is required")
	}
	if ruleAddIdentity == "" {
		return fmt.Errorf("--identity is required")
	}

	store, cfg, err := loadStore()
	if err != nil {
		return err
	}
	if _, ok := cfg.FindIdentity(ruleAddIdentity); !ok {
		return fmt.Errorf("%w: %q", config.ErrIdentityNotFound, ruleAddIdentity)
	}

	var rule rules.Rule
	switch rules.Kind(ruleAddType) {
	case rules.KindPath:
		rule = rules.Path(ruleAddPattern, ruleAddIdentity)
	case rules.KindRemote:
		rule = rules.Remote(ruleAddPattern, ruleAddIdentity)
	default:
		return fmt.Errorf("unknown rule type %q (use path or remote)", ruleAddType)
	}
	rule = rule.WithPriority(ruleAddPriority)
	rule.Description = ruleAddDescription

	cfg.AddRule(rule)
	if err := store.Save(cfg); err != nil {
		return err
	}

	fmt.Printf("%s Added rule %s (priority %d)\n", style.SuccessPrefix, rule, rule.Priority)
	return nil
}

func runRuleList(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadStore()
	if err != nil {
		return err
	}
	if len(cfg.Rules) == 0 {
		fmt.Println("No rules configured. Run 'gid rule add' to create one.")
		return nil
	}

	fmt.Printf("Rules (%d, evaluation order):\n", len(cfg.Rules))
	for i, r := range cfg.Rules {
		state := ""
		if !r.Enabled {
			state = style.Dim.Render(" (disabled)")
		}
		fmt.Printf("  %2d. [%s] %s %s %s  %s%s\n",
			i, r.Kind, style.Accent.Render(r.Pattern), style.ArrowPrefix, style.ID(r.Identity),
			style.Dim.Render(fmt.Sprintf("priority %d", r.Priority)), state)
		if r.Description != "" {
			fmt.Printf("      %s\n", style.Dim.Render(r.Description))
		}
	}
	return nil
}

func runRuleRemove(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("index must be a number: %q", args[0])
	}

	store, cfg, err := loadStore()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(cfg.Rules) {
		return fmt.Errorf("%w: %d (have %d rules)", config.ErrRuleIndex, index, len(cfg.Rules))
	}

	rule := cfg.Rules[index]
	if !ruleRemoveYes && !prompt.New().Confirm(fmt.Sprintf("Remove rule %s?", rule), false) {
		fmt.Println("Aborted.")
		return nil
	}

	removed, err := cfg.RemoveRule(index)
	if err != nil {
		return err
	}
	if err := store.Save(cfg); err != nil {
		return err
	}

	fmt.Printf("%s Removed rule %s\n", style.SuccessPrefix, removed)
	return nil
}

func runRuleTest(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadStore()
	if err != nil {
		return err
	}

	path := ""
	if len(args) == 1 {
		path = args[0]
	} else if cwd, err := os.Getwd(); err == nil {
		path = cwd
	}

	remote := ruleTestRemote
	if remote == "" {
		if svc, err := git.Open(path); err == nil {
			remote, _ = svc.OriginURL()
		}
	}

	ctx := rules.Context{Path: path, RemoteURL: remote}
	fmt.Printf("Testing path %s", style.Accent.Render(path))
	if remote != "" {
		fmt.Printf(" with remote %s", style.Accent.Render(remote))
	}
	fmt.Println()

	engine := rules.NewEngine(cfg.Rules, userHome())
	matches := engine.MatchAll(ctx)
	if len(matches) == 0 {
		fmt.Println(style.Dim.Render("No rules match."))
		return nil
	}

	for i, r := range matches {
		marker := " "
		if i == 0 {
			marker = style.SuccessPrefix
		}
		fmt.Printf("  %s %s %s\n", marker, r, style.Dim.Render(fmt.Sprintf("priority %d", r.Priority)))
	}
	return nil
}
