package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/AbdelazizMoustafa10m/Stepwise/internal/logging"
)

// Global flag values accessible to all subcommands.
var (
	flagVerbose bool
	flagQuiet   bool
	flagConfig  string
	flagDir     string
	flagNoColor bool
)

// rootCmd is the base command for Stepwise.
var rootCmd = &cobra.Command{
	Use:   "stepwise",
	Short: "Run step-by-step wizards on a sequential step engine",
	Long: `Stepwise runs wizards: ordered lists of steps declared in TOML or YAML,
executed one at a time by a sequential step engine. Steps advance, go back,
abort, fail, ask the user what to do, and splice new steps into the running
list.

Use "stepwise plan" to inspect the resolved order of a wizard, "stepwise
validate" to check every wizard in a project and "stepwise run" to execute one.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: applyGlobalFlags,
}

func init() {
	registerGlobalFlags(rootCmd.PersistentFlags(), true)
}

// registerGlobalFlags adds the persistent flags to fs. When bind is set the
// flags write to the package-level variables; otherwise they are unbound,
// which is what generators that build their own tree need.
func registerGlobalFlags(fs *pflag.FlagSet, bind bool) {
	const (
		verboseUsage = "Enable verbose (debug) output (env: STEPWISE_VERBOSE)"
		quietUsage   = "Suppress all output except errors (env: STEPWISE_QUIET)"
		configUsage  = "Path to stepwise.toml config file"
		dirUsage     = "Override working directory"
		noColorUsage = "Disable colored output (env: STEPWISE_NO_COLOR, NO_COLOR)"
	)
	if bind {
		fs.BoolVarP(&flagVerbose, "verbose", "v", false, verboseUsage)
		fs.BoolVarP(&flagQuiet, "quiet", "q", false, quietUsage)
		fs.StringVar(&flagConfig, "config", "", configUsage)
		fs.StringVar(&flagDir, "dir", "", dirUsage)
		fs.BoolVar(&flagNoColor, "no-color", false, noColorUsage)
		return
	}
	fs.BoolP("verbose", "v", false, verboseUsage)
	fs.BoolP("quiet", "q", false, quietUsage)
	fs.String("config", "", configUsage)
	fs.String("dir", "", dirUsage)
	fs.Bool("no-color", false, noColorUsage)
}

// applyGlobalFlags folds environment fallbacks into the global flags, sets
// up logging and colour, and applies --dir.
func applyGlobalFlags(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()
	if !flags.Changed("verbose") && os.Getenv("STEPWISE_VERBOSE") != "" {
		flagVerbose = true
	}
	if !flags.Changed("quiet") && os.Getenv("STEPWISE_QUIET") != "" {
		flagQuiet = true
	}
	if !flags.Changed("no-color") && (os.Getenv("NO_COLOR") != "" || os.Getenv("STEPWISE_NO_COLOR") != "") {
		flagNoColor = true
	}

	jsonFormat, err := logging.ParseFormat(os.Getenv("STEPWISE_LOG_FORMAT"))
	if err != nil {
		return fmt.Errorf("STEPWISE_LOG_FORMAT: %w", err)
	}
	logging.Setup(flagVerbose, flagQuiet, jsonFormat)

	if flagNoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	if flagDir != "" {
		if err := os.Chdir(flagDir); err != nil {
			return fmt.Errorf("changing directory to %s: %w", flagDir, err)
		}
	}

	return nil
}

// Execute runs the root command and returns the exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

// NewRootCmd returns a fresh root command carrying every registered
// subcommand, for the completion and man page generators.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               rootCmd.Use,
		Short:             rootCmd.Short,
		Long:              rootCmd.Long,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: rootCmd.PersistentPreRunE,
	}
	registerGlobalFlags(cmd.PersistentFlags(), false)

	for _, child := range rootCmd.Commands() {
		cmd.AddCommand(child)
	}
	return cmd
}
