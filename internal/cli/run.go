package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AbdelazizMoustafa10m/Stepwise/internal/config"
	"github.com/AbdelazizMoustafa10m/Stepwise/internal/logging"
	"github.com/AbdelazizMoustafa10m/Stepwise/internal/script"
	"github.com/AbdelazizMoustafa10m/Stepwise/internal/stepper"
	"github.com/AbdelazizMoustafa10m/Stepwise/internal/tui"
)

// runFlags holds the flag values of the run command.
type runFlags struct {
	Plain      bool
	JSON       bool
	Accessible bool
	StepDelay  string
	Timeout    string
}

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run <wizard>",
	Short: "Run a wizard",
	Long: `Build the wizard's step list and run it to completion.

The wizard is a path to a TOML or YAML definition, or the name of one in the
project's wizards directory. On a terminal the run is shown in an interactive
view; with --plain, or when stdout is not a terminal, every change record is
printed as a line of text (or NDJSON with --json).

The command exits non-zero when the run fails, is aborted, or times out.

Examples:
  stepwise run pair
  stepwise run wizards/pair.yaml --plain
  stepwise run pair --json --step-delay 0s | jq .kind`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runOpts.Plain, "plain", false, "Print change records instead of the interactive view (env: STEPWISE_PLAIN)")
	runCmd.Flags().BoolVar(&runOpts.JSON, "json", false, "Print change records as NDJSON (implies --plain)")
	runCmd.Flags().BoolVar(&runOpts.Accessible, "accessible", false, "Ask prompts line by line in plain mode")
	runCmd.Flags().StringVar(&runOpts.StepDelay, "step-delay", "", "Delay for steps that declare none, e.g. 250ms (env: STEPWISE_STEP_DELAY)")
	runCmd.Flags().StringVar(&runOpts.Timeout, "timeout", "", "Abort the run after this duration (env: STEPWISE_TIMEOUT)")
	runCmd.ValidArgsFunction = completeWizardNames
	rootCmd.AddCommand(runCmd)
}

// runOverrides turns the flags the user actually set into config overrides.
func runOverrides(cmd *cobra.Command) *config.CLIOverrides {
	o := &config.CLIOverrides{}
	if cmd.Flags().Changed("step-delay") {
		o.StepDelay = &runOpts.StepDelay
	}
	if cmd.Flags().Changed("timeout") {
		o.Timeout = &runOpts.Timeout
	}
	if cmd.Flags().Changed("plain") {
		o.Plain = &runOpts.Plain
	}
	return o
}

func runRun(cmd *cobra.Command, args []string) error {
	resolved, _, err := loadAndResolveConfig(runOverrides(cmd))
	if err != nil {
		return err
	}
	cfg := resolved.Config

	if resolved.Sources["run.log_format"] != config.SourceDefault {
		jsonFormat, fmtErr := logging.ParseFormat(cfg.Run.LogFormat)
		if fmtErr != nil {
			return fmt.Errorf("run.log_format: %w", fmtErr)
		}
		logging.Setup(flagVerbose, flagQuiet, jsonFormat)
	}

	delay, err := cfg.Run.StepDelayDuration()
	if err != nil {
		return err
	}
	timeout, err := cfg.Run.TimeoutDuration()
	if err != nil {
		return err
	}

	def, err := loadWizard(cfg, args[0])
	if err != nil {
		return err
	}
	if vr := script.Validate(def); !vr.IsValid() {
		fmt.Fprint(cmd.ErrOrStderr(), vr.String())
		return fmt.Errorf("wizard %q has %d error(s)", def.Name, len(vr.Errors))
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, timeout)
		defer cancelTimeout()
	}

	r := &wizardRun{
		def:    def,
		runID:  uuid.Must(uuid.NewV7()).String(),
		delay:  delay,
		in:     cmd.InOrStdin(),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}

	var final stepper.ChangeRecord
	if cfg.Run.Plain || runOpts.JSON || !isStdoutTTY() {
		final, err = r.runPlain(ctx, runOpts.JSON, runOpts.Accessible || !isStdinTTY())
	} else {
		final, err = r.runInteractive(ctx)
	}
	return outcomeError(def.Name, final, err)
}

// wizardRun carries everything one execution of a wizard needs.
type wizardRun struct {
	def    *script.Definition
	runID  string
	delay  time.Duration
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func (r *wizardRun) logger() *log.Logger {
	return logging.ForWizard(r.def.Name).With("run", r.runID)
}

func (r *wizardRun) build(logger *log.Logger, prompter script.Prompter, opts ...stepper.Option) (*stepper.Engine, error) {
	b := r.def.Builder(
		script.WithPrompter(prompter),
		script.WithDefaultDelay(r.delay),
		script.WithStepLogger(logger),
	)
	engine, err := b.Build(append([]stepper.Option{stepper.WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("building wizard %q: %w", r.def.Name, err)
	}
	return engine, nil
}

// runPlain prints every change record as it happens and asks prompts with
// a standalone form on stderr.
func (r *wizardRun) runPlain(ctx context.Context, asJSON, accessible bool) (stepper.ChangeRecord, error) {
	logger := r.logger()
	prompter := tui.HuhPrompter{Accessible: accessible, Input: r.in, Output: r.errOut}

	printer := textPrinter(r.out)
	if asJSON {
		printer = jsonPrinter(r.out, r.runID, logger)
	}

	engine, err := r.build(logger, prompter, stepper.WithObserver(printer))
	if err != nil {
		return stepper.ChangeRecord{}, err
	}
	return engine.Start(ctx, nil)
}

// runInteractive runs the engine and the terminal view side by side. The
// view follows every change record through a RecordFeed and quits once the
// terminal record has been shown.
func (r *wizardRun) runInteractive(ctx context.Context) (stepper.ChangeRecord, error) {
	restore := logging.Redirect(io.Discard)
	defer restore()

	logger := r.logger()
	broker := tui.NewPromptBroker()
	feed := tui.NewRecordFeed(ctx)
	engine, err := r.build(logger, broker, stepper.WithObserver(feed.Observe))
	if err != nil {
		return stepper.ChangeRecord{}, err
	}

	var (
		final  stepper.ChangeRecord
		runErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		final, runErr = engine.Start(gctx, nil)
		return nil
	})
	g.Go(func() error {
		_, err := tui.RunApp(gctx, tui.AppConfig{
			Title:       r.def.Name,
			Description: r.def.Description,
			Steps:       engine.Steps,
			Labels:      stepLabels(r.def.Steps),
			Records:     feed.Records(),
			Abort:       engine.Abort,
			Prompts:     broker,
		}, tea.WithInput(r.in), tea.WithOutput(r.out))
		if err != nil && gctx.Err() != nil {
			// The engine reports why the context ended.
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return final, err
	}
	return final, runErr
}

// textPrinter prints one line per record.
func textPrinter(out io.Writer) func(stepper.ChangeRecord) {
	return func(rec stepper.ChangeRecord) {
		fmt.Fprintf(out, "%s %s\n", rec.At.Format(time.TimeOnly), rec)
	}
}

// recordJSON is the NDJSON shape of a ChangeRecord.
type recordJSON struct {
	Run           string       `json:"run"`
	Kind          stepper.Kind `json:"kind"`
	Current       string       `json:"current,omitempty"`
	Previous      string       `json:"previous,omitempty"`
	Index         int          `json:"index"`
	Total         int          `json:"total"`
	UserInitiated bool         `json:"user_initiated,omitempty"`
	Error         string       `json:"error,omitempty"`
	At            time.Time    `json:"at"`
}

func newRecordJSON(runID string, rec stepper.ChangeRecord) recordJSON {
	out := recordJSON{
		Run:           runID,
		Kind:          rec.Kind,
		Current:       rec.CurrentID(),
		Previous:      rec.PreviousID(),
		Index:         rec.Index,
		Total:         rec.Total,
		UserInitiated: rec.UserInitiated,
		At:            rec.At,
	}
	if rec.Err != nil {
		out.Error = rec.Err.Error()
	}
	return out
}

// jsonPrinter writes one JSON object per record.
func jsonPrinter(out io.Writer, runID string, logger *log.Logger) func(stepper.ChangeRecord) {
	enc := json.NewEncoder(out)
	return func(rec stepper.ChangeRecord) {
		if err := enc.Encode(newRecordJSON(runID, rec)); err != nil {
			logger.Error("writing record", "error", err)
		}
	}
}

// outcomeError maps the end of a run to the command's error.
func outcomeError(name string, final stepper.ChangeRecord, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("wizard %q timed out", name)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("wizard %q cancelled", name)
	case err != nil:
		return fmt.Errorf("wizard %q failed: %w", name, err)
	case final.Kind == stepper.KindAborted && final.UserInitiated:
		return fmt.Errorf("wizard %q aborted by user", name)
	case final.Kind == stepper.KindAborted:
		return fmt.Errorf("wizard %q aborted", name)
	}
	return nil
}
