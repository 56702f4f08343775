package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// resetRootCmd resets all global flag values and Cobra's "Changed" tracking
// to pristine state. Tests that call Execute share rootCmd, so none of them
// run in parallel.
func resetRootCmd(t *testing.T) {
	t.Helper()
	flagVerbose = false
	flagQuiet = false
	flagConfig = ""
	flagDir = ""
	flagNoColor = false
	versionJSON = false
	versionShort = false
	planJSON = false
	runOpts = runFlags{}
	initFlagName = ""
	initFlagDelay = "500ms"
	initFlagForce = false

	rootCmd.SetArgs(nil)
	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.SetIn(nil)

	clearChanged(rootCmd)
}

func clearChanged(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) { f.Changed = false }
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		clearChanged(child)
	}
}

// execResult is the captured outcome of one Execute call.
type execResult struct {
	Code   int
	Stdout string
	Stderr string
}

// execute runs the root command with args and captures its output.
func execute(t *testing.T, args ...string) execResult {
	t.Helper()
	resetRootCmd(t)
	t.Cleanup(func() { resetRootCmd(t) })

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(bytes.NewReader(nil))
	rootCmd.SetArgs(args)

	code := Execute()
	return execResult{Code: code, Stdout: stdout.String(), Stderr: stderr.String()}
}

// clearStepwiseEnv blanks every variable the CLI reads so the host
// environment cannot leak into a test.
func clearStepwiseEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STEPWISE_VERBOSE", "STEPWISE_QUIET", "STEPWISE_NO_COLOR", "NO_COLOR",
		"STEPWISE_LOG_FORMAT", "STEPWISE_PROJECT_NAME", "STEPWISE_WIZARDS_DIR",
		"STEPWISE_STEP_DELAY", "STEPWISE_TIMEOUT", "STEPWISE_PLAIN",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

// newProject writes files into a fresh directory, makes it the working
// directory for the rest of the test and returns it.
func newProject(t *testing.T, files map[string]string) string {
	t.Helper()
	clearStepwiseEnv(t)

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	t.Chdir(dir)
	return dir
}

const projectConfig = `[project]
name = "headsets"
wizards_dir = "wizards"

[run]
step_delay = "0s"
`

const threeStepWizard = `name = "three"
description = "Three steps in a row"

[[steps]]
id = "scan"
title = "Scan for devices"

[[steps]]
id = "pair"

[[steps]]
id = "test"
`

const insertingWizard = `name = "inserting"

[[steps]]
id = "scan"

[[steps]]
id = "test"

[[steps]]
id = "pair"
after = "scan"
delay = "10ms"

[[steps]]
id = "legacy"
skip = true

[[steps]]
id = "firmware"

[[steps.spawn]]
id = "reboot"
`

const failingWizard = `name = "failing"

[[steps]]
id = "scan"

[[steps]]
id = "pair"
action = "fail"
message = "no device in range"
`

const abortingWizard = `name = "aborting"

[[steps]]
id = "scan"
action = "abort"
`

const slowWizard = `name = "slow"

[[steps]]
id = "wait"
delay = "10s"
`

const invalidWizard = `name = "invalid"

[[steps]]
id = "scan"
action = "jump"
`
