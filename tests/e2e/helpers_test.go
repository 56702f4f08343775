package e2e_test

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	buildOnce sync.Once
	binPath   string
	buildErr  error
	buildOut  []byte
)

// stepwiseBinary builds the stepwise binary once per test process.
func stepwiseBinary(t *testing.T) string {
	t.Helper()
	buildOnce.Do(func() {
		dir, err := os.MkdirTemp("", "stepwise-e2e-*")
		if err != nil {
			buildErr = err
			return
		}
		binPath = filepath.Join(dir, "stepwise")
		build := exec.Command("go", "build", "-o", binPath, "./cmd/stepwise")
		build.Dir = projectRoot()
		build.Env = append(os.Environ(), "CGO_ENABLED=0")
		buildOut, buildErr = build.CombinedOutput()
	})
	require.NoError(t, buildErr, "building stepwise: %s", string(buildOut))
	return binPath
}

// testProject is an isolated project directory with a stepwise.toml and the
// sample wizards from testdata/wizards.
type testProject struct {
	Dir        string
	BinaryPath string
	t          *testing.T
}

// newTestProject copies the sample wizards into a fresh temp directory and
// writes a stepwise.toml pointing at them.
func newTestProject(t *testing.T) *testProject {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("E2E tests are not supported on Windows")
	}

	tp := &testProject{Dir: t.TempDir(), BinaryPath: stepwiseBinary(t), t: t}
	copyWizards(t, filepath.Join(tp.Dir, "wizards"))
	tp.writeConfig(defaultConfig)
	return tp
}

const defaultConfig = `[project]
name = "e2e"
wizards_dir = "wizards"

[run]
step_delay = "0s"
`

// projectRoot returns the repository root, two directories above this file.
func projectRoot() string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(thisFile), "..", "..")
}

func copyWizards(t *testing.T, destDir string) {
	t.Helper()
	srcDir := filepath.Join(projectRoot(), "tests", "e2e", "testdata", "wizards")
	require.NoError(t, os.MkdirAll(destDir, 0o755))

	entries, err := os.ReadDir(srcDir)
	require.NoError(t, err, "reading wizards dir")
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, readErr := os.ReadFile(filepath.Join(srcDir, entry.Name()))
		require.NoError(t, readErr)
		require.NoError(t, os.WriteFile(filepath.Join(destDir, entry.Name()), data, 0o644))
	}
}

// removeWizard deletes one of the copied sample wizards.
func (tp *testProject) removeWizard(name string) {
	tp.t.Helper()
	require.NoError(tp.t, os.Remove(filepath.Join(tp.Dir, "wizards", name)))
}

// writeConfig writes content to stepwise.toml in tp.Dir.
func (tp *testProject) writeConfig(content string) {
	tp.t.Helper()
	err := os.WriteFile(filepath.Join(tp.Dir, "stepwise.toml"), []byte(content), 0o644)
	require.NoError(tp.t, err)
}

// run creates an exec.Cmd for stepwise in the project directory.
func (tp *testProject) run(env []string, args ...string) *exec.Cmd {
	cmd := exec.Command(tp.BinaryPath, args...)
	cmd.Dir = tp.Dir
	cmd.Env = append(hostEnv(), "NO_COLOR=1", "STEPWISE_LOG_FORMAT=json")
	cmd.Env = append(cmd.Env, env...)
	return cmd
}

// hostEnv returns the environment without any STEPWISE_ variables so the
// host shell cannot leak configuration into a test.
func hostEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, "STEPWISE_") {
			env = append(env, kv)
		}
	}
	return env
}

// runExpectSuccess runs stepwise, asserts exit code 0 and returns stdout.
func (tp *testProject) runExpectSuccess(args ...string) string {
	tp.t.Helper()
	return tp.runEnvExpectSuccess(nil, args...)
}

func (tp *testProject) runEnvExpectSuccess(env []string, args ...string) string {
	tp.t.Helper()
	cmd := tp.run(env, args...)
	var stderr []byte
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr = exitErr.Stderr
	}
	require.NoError(tp.t, err, "stepwise %v failed:\n%s%s", args, out, stderr)
	return string(out)
}

// runExpectFailure runs stepwise and asserts a non-zero exit code. It
// returns combined output and the exit code.
func (tp *testProject) runExpectFailure(args ...string) (string, int) {
	tp.t.Helper()
	out, err := tp.run(nil, args...).CombinedOutput()
	require.Error(tp.t, err, "stepwise %v expected to fail but succeeded:\n%s", args, string(out))
	var exitErr *exec.ExitError
	require.True(tp.t, errors.As(err, &exitErr), "expected *exec.ExitError, got %T: %v", err, err)
	return string(out), exitErr.ExitCode()
}
