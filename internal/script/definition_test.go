package script

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// LoadFile
// ---------------------------------------------------------------------------

func TestLoadFile_TOML(t *testing.T) {
	t.Parallel()

	def, err := LoadFile(filepath.Join("testdata", "pair.toml"))
	require.NoError(t, err)

	assert.Equal(t, "pair-headset", def.Name)
	assert.Equal(t, "Pair a bluetooth headset", def.Description)
	assert.Equal(t, filepath.Join("testdata", "pair.toml"), def.Path)
	require.Len(t, def.Steps, 4)

	scan := def.Steps[0]
	assert.Equal(t, "scan", scan.ID)
	assert.Equal(t, "Scan for devices", scan.Label())
	assert.Equal(t, 10*time.Millisecond, scan.Delay.Duration)

	sel := def.Steps[1]
	assert.Equal(t, ActionPrompt, sel.Action)
	require.Len(t, sel.Spawn, 1)
	assert.Equal(t, "firmware", sel.Spawn[0].ID)
	assert.Equal(t, "select", sel.Spawn[0].After)
	assert.Equal(t, "STEPWISE_SKIP_FIRMWARE", sel.Spawn[0].SkipEnv)

	assert.Equal(t, ActionAbort, def.Steps[2].Then)
	assert.Equal(t, "scan", def.Steps[3].Before)
}

func TestLoadFile_YAML(t *testing.T) {
	t.Parallel()

	def, err := LoadFile(filepath.Join("testdata", "pair.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "pair-yaml", def.Name)
	require.Len(t, def.Steps, 3)
	assert.Equal(t, 5*time.Millisecond, def.Steps[0].Delay.Duration)
	assert.Equal(t, ActionBack, def.Steps[1].Action)
	require.Len(t, def.Steps[2].Spawn, 1)
	assert.Equal(t, "report", def.Steps[2].Spawn[0].ID)
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		wantErr []string
	}{
		{"toml unknown keys", "unknown.toml", []string{"unknown keys", "colour", "steps.timeout"}},
		{"yaml unknown keys", "unknown.yaml", []string{"timeout"}},
		{"bad duration", "baddelay.toml", []string{"soon"}},
		{"missing file", "nope.toml", []string{"nope.toml"}},
		{"missing yaml file", "nope.yml", []string{"nope.yml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadFile(filepath.Join("testdata", tt.file))
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestLoadFile_NameFallsBackToFileName(t *testing.T) {
	t.Parallel()

	def, err := LoadFile(filepath.Join("testdata", "unnamed.toml"))
	require.NoError(t, err)
	assert.Equal(t, "unnamed", def.Name)
}

// ---------------------------------------------------------------------------
// Actions
// ---------------------------------------------------------------------------

func TestAction_Valid(t *testing.T) {
	t.Parallel()

	for _, a := range []Action{"", ActionAdvance, ActionBack, ActionAbort, ActionFail, ActionPrompt} {
		assert.True(t, a.Valid(), "action %q", a)
	}
	assert.False(t, Action("jump").Valid())
}

func TestStepDef_Actions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		def        StepDef
		wantFirst  Action
		wantRepeat Action
	}{
		{"defaults", StepDef{}, ActionAdvance, ActionAdvance},
		{"back once", StepDef{Action: ActionBack}, ActionBack, ActionAdvance},
		{"prompt keeps prompting", StepDef{Action: ActionPrompt}, ActionPrompt, ActionPrompt},
		{"explicit then", StepDef{Action: ActionPrompt, Then: ActionFail}, ActionPrompt, ActionFail},
		{"then only", StepDef{Then: ActionAbort}, ActionAdvance, ActionAbort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantFirst, tt.def.FirstAction())
			assert.Equal(t, tt.wantRepeat, tt.def.RepeatAction())
		})
	}
}

func TestDuration_Text(t *testing.T) {
	t.Parallel()

	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration)

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	require.NoError(t, d.UnmarshalText(nil))
	assert.Zero(t, d.Duration)
}

// ---------------------------------------------------------------------------
// Builder
// ---------------------------------------------------------------------------

func TestDefinition_Builder_PlacesAnchoredSteps(t *testing.T) {
	t.Parallel()

	def, err := LoadFile(filepath.Join("testdata", "pair.toml"))
	require.NoError(t, err)

	order, err := def.Builder().Resolve()
	require.NoError(t, err)

	ids := make([]string, len(order))
	for i, s := range order {
		ids[i] = s.ID()
	}
	assert.Equal(t, []string{"intro", "scan", "select", "confirm"}, ids)
}

func TestDefinition_Builder_ReportsMissingAnchor(t *testing.T) {
	t.Parallel()

	def := &Definition{Steps: []StepDef{{ID: "a"}, {ID: "b", After: "ghost"}}}
	_, err := def.Builder().Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}
