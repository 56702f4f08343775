package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AbdelazizMoustafa10m/Stepwise/internal/config"
	"github.com/AbdelazizMoustafa10m/Stepwise/internal/script"
)

// wizardExtensions are tried, in order, when a wizard is named without one.
var wizardExtensions = []string{".toml", ".yaml", ".yml"}

// resolveWizardPath finds the file a wizard reference names. A reference is
// a path, or a name looked up in the project's wizards directory with or
// without its extension.
func resolveWizardPath(cfg *config.Config, ref string) (string, error) {
	candidates := []string{ref}
	if dir := cfg.Project.WizardsDir; dir != "" && !filepath.IsAbs(ref) {
		base := filepath.Join(dir, ref)
		candidates = append(candidates, base)
		if filepath.Ext(ref) == "" {
			for _, ext := range wizardExtensions {
				candidates = append(candidates, base+ext)
			}
		}
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("wizard %q not found (tried %s)", ref, strings.Join(candidates, ", "))
}

// loadWizard resolves ref and loads the definition it names.
func loadWizard(cfg *config.Config, ref string) (*script.Definition, error) {
	path, err := resolveWizardPath(cfg, ref)
	if err != nil {
		return nil, err
	}
	def, err := script.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading wizard: %w", err)
	}
	return def, nil
}

// stepLabels maps every declared step id, spawned steps included, to its
// display label.
func stepLabels(defs []script.StepDef) map[string]string {
	labels := make(map[string]string)
	var walk func([]script.StepDef)
	walk = func(defs []script.StepDef) {
		for _, d := range defs {
			labels[d.ID] = d.Label()
			walk(d.Spawn)
		}
	}
	walk(defs)
	return labels
}

// isStdinTTY reports whether stdin is attached to a terminal.
func isStdinTTY() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// isStdoutTTY reports whether stdout is attached to a terminal.
func isStdoutTTY() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
