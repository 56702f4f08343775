package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AbdelazizMoustafa10m/Stepwise/internal/script"
)

// completionCmd writes a completion script for one shell. The scripts
// complete wizard names for run and plan from the project's wizards
// directory.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for Stepwise.

Wizard arguments of "run" and "plan" complete to the names of the wizards
in the project's wizards directory.

To install completions:

  Bash (Linux):
    stepwise completion bash | sudo tee /etc/bash_completion.d/stepwise > /dev/null

  Zsh:
    stepwise completion zsh > "${fpath[1]}/_stepwise"

  Fish:
    stepwise completion fish > ~/.config/fish/completions/stepwise.fish

  PowerShell:
    stepwise completion powershell > stepwise.ps1`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletionV2(out, true)
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(out)
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

// completeWizardNames completes the single wizard argument of run and plan
// with the names of the wizards under wizards_dir, extension stripped.
// Without a project it falls back to file completion.
func completeWizardNames(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	resolved, _, err := loadAndResolveConfig(nil)
	if err != nil || resolved.Path == "" {
		return nil, cobra.ShellCompDirectiveDefault
	}
	root := resolved.Config.Project.WizardsDir
	files, err := script.Discover(root, resolved.Config.Project.Wizards...)
	if err != nil {
		return nil, cobra.ShellCompDirectiveDefault
	}

	var names []string
	for _, f := range files {
		rel, relErr := filepath.Rel(root, f)
		if relErr != nil {
			continue
		}
		name := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		if strings.HasPrefix(name, toComplete) {
			names = append(names, name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
