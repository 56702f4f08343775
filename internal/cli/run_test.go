package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdelazizMoustafa10m/Stepwise/internal/config"
	"github.com/AbdelazizMoustafa10m/Stepwise/internal/script"
	"github.com/AbdelazizMoustafa10m/Stepwise/internal/stepper"
)

func wizardProject(t *testing.T, wizards map[string]string) string {
	t.Helper()
	files := map[string]string{"stepwise.toml": projectConfig}
	for name, body := range wizards {
		files["wizards/"+name] = body
	}
	return newProject(t, files)
}

func TestRunCmd_PlainText(t *testing.T) {
	wizardProject(t, map[string]string{"three.toml": threeStepWizard})

	res := execute(t, "run", "three", "--plain")
	require.Equal(t, 0, res.Code, res.Stderr)

	lines := strings.Split(strings.TrimSpace(res.Stdout), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], `started -> "scan" [1/3]`)
	assert.Contains(t, lines[1], `forward -> "pair" [2/3]`)
	assert.Contains(t, lines[2], `forward -> "test" [3/3]`)
	assert.Contains(t, lines[3], `completed (from "test")`)
}

func TestRunCmd_JSON(t *testing.T) {
	wizardProject(t, map[string]string{"inserting.toml": insertingWizard})

	res := execute(t, "run", "inserting", "--json", "--step-delay", "0s")
	require.Equal(t, 0, res.Code, res.Stderr)

	var (
		kinds   []string
		current []string
		runIDs  = map[string]bool{}
	)
	sc := bufio.NewScanner(strings.NewReader(res.Stdout))
	for sc.Scan() {
		var rec struct {
			Run     string `json:"run"`
			Kind    string `json:"kind"`
			Current string `json:"current"`
			Total   int    `json:"total"`
		}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec), sc.Text())
		kinds = append(kinds, rec.Kind)
		current = append(current, rec.Current)
		runIDs[rec.Run] = true
	}

	assert.Equal(t, []string{"started", "forward", "forward", "forward", "forward", "completed"}, kinds)
	assert.Equal(t, []string{"scan", "pair", "test", "firmware", "reboot", ""}, current,
		"pair is inserted after scan, legacy is skipped and reboot is spawned")
	assert.Len(t, runIDs, 1, "every record carries the same run id")
}

func TestRunCmd_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		wizard  string
		body    string
		args    []string
		wantErr string
	}{
		{"fail", "failing.toml", failingWizard, nil, `wizard "failing" failed: step failed: no device in range`},
		{"abort", "aborting.toml", abortingWizard, nil, `wizard "aborting" aborted by user`},
		{"timeout", "slow.toml", slowWizard, []string{"--timeout", "50ms"}, `wizard "slow" timed out`},
		{"invalid", "invalid.toml", invalidWizard, nil, `wizard "invalid" has 1 error(s)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wizardProject(t, map[string]string{tt.wizard: tt.body})

			args := append([]string{"run", strings.TrimSuffix(tt.wizard, ".toml"), "--plain"}, tt.args...)
			res := execute(t, args...)
			assert.Equal(t, 1, res.Code)
			assert.Contains(t, res.Stderr, tt.wantErr)
		})
	}
}

func TestRunCmd_InvalidReportsIssues(t *testing.T) {
	wizardProject(t, map[string]string{"invalid.toml": invalidWizard})

	res := execute(t, "run", "invalid", "--plain")
	assert.Equal(t, 1, res.Code)
	assert.Contains(t, res.Stderr, "UNKNOWN_ACTION")
	assert.Empty(t, res.Stdout, "nothing runs")
}

func TestRunCmd_WizardNotFound(t *testing.T) {
	wizardProject(t, nil)

	res := execute(t, "run", "ghost", "--plain")
	assert.Equal(t, 1, res.Code)
	assert.Contains(t, res.Stderr, `wizard "ghost" not found`)
}

func TestRunCmd_BadDurationFlag(t *testing.T) {
	wizardProject(t, map[string]string{"three.toml": threeStepWizard})

	res := execute(t, "run", "three", "--plain", "--step-delay", "later")
	assert.Equal(t, 1, res.Code)
	assert.Contains(t, res.Stderr, "run.step_delay")
}

func TestResolveWizardPath(t *testing.T) {
	dir := wizardProject(t, map[string]string{
		"three.toml":       threeStepWizard,
		"nested/pair.yaml": "name: pair\nsteps:\n  - id: a\n",
	})
	cfg := &config.Config{Project: config.ProjectConfig{WizardsDir: "wizards"}}

	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{ref: "wizards/three.toml", want: "wizards/three.toml"},
		{ref: "three.toml", want: "wizards/three.toml"},
		{ref: "three", want: "wizards/three.toml"},
		{ref: "nested/pair", want: "wizards/nested/pair.yaml"},
		{ref: dir + "/wizards/three.toml", want: dir + "/wizards/three.toml"},
		{ref: "wizards", wantErr: true},
		{ref: "missing", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := resolveWizardPath(cfg, tt.ref)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, filepathToSlash(got))
		})
	}
}

func filepathToSlash(p string) string { return strings.ReplaceAll(p, `\`, "/") }

func TestStepLabels(t *testing.T) {
	t.Parallel()
	defs := []script.StepDef{
		{ID: "scan", Title: "Scan"},
		{ID: "pair", Spawn: []script.StepDef{{ID: "reboot", Title: "Reboot"}}},
	}
	assert.Equal(t, map[string]string{"scan": "Scan", "pair": "pair", "reboot": "Reboot"}, stepLabels(defs))
}

func TestOutcomeError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")

	tests := []struct {
		name  string
		final stepper.ChangeRecord
		err   error
		want  string
	}{
		{"completed", stepper.ChangeRecord{Kind: stepper.KindCompleted}, nil, ""},
		{"failed", stepper.ChangeRecord{Kind: stepper.KindAborted, Err: boom}, boom, `wizard "w" failed: boom`},
		{"user abort", stepper.ChangeRecord{Kind: stepper.KindAborted, UserInitiated: true}, nil, `wizard "w" aborted by user`},
		{"abort", stepper.ChangeRecord{Kind: stepper.KindAborted}, nil, `wizard "w" aborted`},
		{"timeout", stepper.ChangeRecord{Kind: stepper.KindAborted}, context.DeadlineExceeded, `wizard "w" timed out`},
		{"cancelled", stepper.ChangeRecord{Kind: stepper.KindAborted}, context.Canceled, `wizard "w" cancelled`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := outcomeError("w", tt.final, tt.err)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestNewRecordJSON(t *testing.T) {
	t.Parallel()
	rec := stepper.ChangeRecord{
		Kind:     stepper.KindAborted,
		Previous: stepper.NewStepFunc("pair", nil),
		Index:    -1,
		Total:    3,
		Err:      errors.New("boom"),
	}
	raw, err := json.Marshal(newRecordJSON("run-1", rec))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "run-1", got["run"])
	assert.Equal(t, "aborted", got["kind"])
	assert.Equal(t, "pair", got["previous"])
	assert.Equal(t, "boom", got["error"])
	assert.NotContains(t, got, "current")
	assert.NotContains(t, got, "user_initiated")
}
