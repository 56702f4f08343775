package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AbdelazizMoustafa10m/Stepwise/internal/script"
)

var planJSON bool

var planCmd = &cobra.Command{
	Use:   "plan <wizard>",
	Short: "Show the resolved step order of a wizard",
	Long: `Resolve the wizard's relative insertions and print the order the engine
would run, whether each step is currently available, the action of its
first and later visits, and the steps it spawns.

The fingerprint identifies the resolved order; two wizards with the same
fingerprint run the same steps in the same order.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Output the plan as JSON")
	planCmd.ValidArgsFunction = completeWizardNames
	rootCmd.AddCommand(planCmd)
}

// planStep is one row of a plan.
type planStep struct {
	Position  int      `json:"position"`
	ID        string   `json:"id"`
	Title     string   `json:"title,omitempty"`
	Action    string   `json:"action"`
	Then      string   `json:"then"`
	Delay     string   `json:"delay,omitempty"`
	Available bool     `json:"available"`
	Spawns    []string `json:"spawns,omitempty"`
}

// wizardPlan is the resolved view of a wizard.
type wizardPlan struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Path        string     `json:"path"`
	Fingerprint string     `json:"fingerprint"`
	Steps       []planStep `json:"steps"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	resolved, _, err := loadAndResolveConfig(nil)
	if err != nil {
		return err
	}
	def, err := loadWizard(resolved.Config, args[0])
	if err != nil {
		return err
	}

	plan, err := buildPlan(def)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if planJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}
	printPlan(out, plan)
	return nil
}

// buildPlan resolves def without running it.
func buildPlan(def *script.Definition) (*wizardPlan, error) {
	steps, err := def.Builder(script.WithLookupEnv(os.LookupEnv)).Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolving wizard %q: %w", def.Name, err)
	}

	plan := &wizardPlan{
		Name:        def.Name,
		Description: def.Description,
		Path:        def.Path,
		Steps:       make([]planStep, 0, len(steps)),
	}
	ids := make([]string, 0, len(steps))
	for i, s := range steps {
		ids = append(ids, s.ID())
		row := planStep{Position: i + 1, ID: s.ID(), Available: s.Available()}
		if ss, ok := s.(*script.ScriptedStep); ok {
			d := ss.Def()
			row.Title = d.Title
			row.Action = string(d.FirstAction())
			row.Then = string(d.RepeatAction())
			if d.Delay.Duration > 0 {
				row.Delay = d.Delay.String()
			}
			for _, child := range d.Spawn {
				row.Spawns = append(row.Spawns, child.ID)
			}
		}
		plan.Steps = append(plan.Steps, row)
	}
	plan.Fingerprint = script.Fingerprint(ids)
	return plan, nil
}

// printPlan renders plan as an aligned list.
//
//	 1  scan     advance → advance
//	 2  pair     prompt  → prompt   spawns: test
//	 3  legacy   advance → advance  (skipped)
func printPlan(out io.Writer, plan *wizardPlan) {
	writeHeader(out, fmt.Sprintf("Plan - %s", plan.Name))
	if plan.Description != "" {
		fmt.Fprintln(out, plan.Description)
	}
	fmt.Fprintf(out, "File:        %s\n", plan.Path)
	fmt.Fprintf(out, "Fingerprint: %s\n", plan.Fingerprint)
	fmt.Fprintf(out, "Steps:       %d\n\n", len(plan.Steps))

	idWidth := len("STEP")
	for _, s := range plan.Steps {
		idWidth = max(idWidth, len(s.ID))
	}

	fmt.Fprintf(out, "%3s  %-*s  %-8s   %-8s  %s\n", "#", idWidth, "STEP", "FIRST", "THEN", "NOTES")
	for _, s := range plan.Steps {
		var notes []string
		if s.Title != "" {
			notes = append(notes, fmt.Sprintf("%q", s.Title))
		}
		if s.Delay != "" {
			notes = append(notes, "delay "+s.Delay)
		}
		if len(s.Spawns) > 0 {
			notes = append(notes, "spawns: "+strings.Join(s.Spawns, ", "))
		}
		if !s.Available {
			notes = append(notes, styleMuted.Render("(skipped)"))
		}
		fmt.Fprintf(out, "%3d  %-*s  %-8s → %-8s  %s\n",
			s.Position, idWidth, s.ID, s.Action, s.Then, strings.Join(notes, "  "))
	}
}
