package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AbdelazizMoustafa10m/Stepwise/internal/config"
)

var (
	initFlagName  string
	initFlagDelay string
	initFlagForce bool
)

// initCmd implements "stepwise init [template]". It never loads a
// stepwise.toml, so it is safe to run in a fresh directory.
var initCmd = &cobra.Command{
	Use:   "init [template]",
	Short: "Initialize a new Stepwise project from a template",
	Long: `Initialize a new Stepwise project by rendering an embedded template: a
stepwise.toml and one or more sample wizards. Existing files are preserved
unless --force is supplied.

Examples:
  stepwise init                          # basic template in the current directory
  stepwise init pairing --name headsets  # pairing sample with an explicit name
  stepwise init --force                  # overwrite existing files`,
	Args: cobra.MaximumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		names, _ := config.ListTemplates()
		return names, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initFlagName, "name", "n", "", "Project name (defaults to current directory name)")
	initCmd.Flags().StringVar(&initFlagDelay, "step-delay", "500ms", "Default step delay written to [run].step_delay")
	initCmd.Flags().BoolVar(&initFlagForce, "force", false, "Overwrite existing files")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	templateName := config.DefaultTemplate
	if len(args) > 0 {
		templateName = args[0]
	}

	if !config.TemplateExists(templateName) {
		available, listErr := config.ListTemplates()
		if listErr != nil {
			return fmt.Errorf("listing available templates: %w", listErr)
		}
		return fmt.Errorf("template %q not found; available templates: %s",
			templateName, strings.Join(available, ", "))
	}

	destDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	projectName := initFlagName
	if projectName == "" {
		projectName = filepath.Base(destDir)
	}
	if strings.ContainsAny(projectName, `/\`) {
		return fmt.Errorf("invalid project name %q: must not contain path separators", projectName)
	}

	cfgFile := filepath.Join(destDir, config.ConfigFileName)
	if _, statErr := os.Stat(cfgFile); statErr == nil && !initFlagForce {
		return fmt.Errorf("%s already exists in %s; use --force to overwrite", config.ConfigFileName, destDir)
	}

	created, err := config.RenderTemplate(templateName, destDir, config.TemplateVars{
		ProjectName: projectName,
		StepDelay:   initFlagDelay,
	}, initFlagForce)
	if err != nil {
		return fmt.Errorf("rendering template %q: %w", templateName, err)
	}

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "Initialized project %q from template %q\n\n", projectName, templateName)

	if len(created) > 0 {
		fmt.Fprintln(out, "Created files:")
		for _, f := range created {
			rel, relErr := filepath.Rel(destDir, f)
			if relErr != nil {
				rel = f
			}
			fmt.Fprintf(out, "  %s\n", rel)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintf(out, "  1. Edit %s and the wizards it points at\n", config.ConfigFileName)
	fmt.Fprintln(out, "  2. Run: stepwise validate")
	fmt.Fprintln(out, "  3. Run: stepwise run <wizard>")
	return nil
}
