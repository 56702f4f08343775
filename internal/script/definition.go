package script

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/AbdelazizMoustafa10m/Stepwise/internal/stepper"
)

// Action is what a scripted step does after its delay has elapsed.
type Action string

const (
	// ActionAdvance moves to the next available step.
	ActionAdvance Action = "advance"
	// ActionBack returns to the previously visited step.
	ActionBack Action = "back"
	// ActionAbort aborts the run as a user gesture.
	ActionAbort Action = "abort"
	// ActionFail fails the run with the step's message.
	ActionFail Action = "fail"
	// ActionPrompt asks the Prompter which of the above to do.
	ActionPrompt Action = "prompt"
)

// Valid reports whether a is a known action. The empty action is valid and
// means advance.
func (a Action) Valid() bool {
	switch a {
	case "", ActionAdvance, ActionBack, ActionAbort, ActionFail, ActionPrompt:
		return true
	}
	return false
}

// Duration is a time.Duration decoded from a Go duration string such as
// "250ms" or "2s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// MarshalText renders the duration in Go syntax.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a Go duration string from a YAML scalar.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// StepDef declares one scripted step.
type StepDef struct {
	ID      string   `toml:"id"       yaml:"id"`
	Title   string   `toml:"title"    yaml:"title"`
	Action  Action   `toml:"action"   yaml:"action"`
	Then    Action   `toml:"then"     yaml:"then"`
	Delay   Duration `toml:"delay"    yaml:"delay"`
	Skip    bool     `toml:"skip"     yaml:"skip"`
	SkipEnv string   `toml:"skip_env" yaml:"skip_env"`
	After   string   `toml:"after"    yaml:"after"`
	Before  string   `toml:"before"   yaml:"before"`
	Message string   `toml:"message"  yaml:"message"`

	// Spawn lists steps inserted into the running engine the first time
	// this step starts.
	Spawn []StepDef `toml:"spawn" yaml:"spawn"`
}

// Label returns the title, or the id when no title is set.
func (s StepDef) Label() string {
	if s.Title != "" {
		return s.Title
	}
	return s.ID
}

// FirstAction returns the action of the first visit. Empty means advance.
func (s StepDef) FirstAction() Action {
	if s.Action == "" {
		return ActionAdvance
	}
	return s.Action
}

// RepeatAction returns the action of every visit after the first. A step
// that prompts keeps prompting; every other step advances unless Then says
// otherwise.
func (s StepDef) RepeatAction() Action {
	switch {
	case s.Then != "":
		return s.Then
	case s.Action == ActionPrompt:
		return ActionPrompt
	default:
		return ActionAdvance
	}
}

// Definition is a named, ordered list of scripted steps.
type Definition struct {
	Name        string    `toml:"name"        yaml:"name"`
	Description string    `toml:"description" yaml:"description"`
	Steps       []StepDef `toml:"steps"       yaml:"steps"`

	// Path is the file the definition was loaded from, if any.
	Path string `toml:"-" yaml:"-"`
}

// Builder returns a stepper.Builder holding one ScriptedStep per declared
// step, placed with AddStepAfter/AddStepBefore when the step names an
// anchor. Resolution problems surface from the builder's Build or Resolve.
func (d *Definition) Builder(opts ...StepOption) *stepper.Builder {
	b := stepper.NewBuilder()
	for _, def := range d.Steps {
		s := NewScriptedStep(def, opts...)
		switch {
		case def.After != "":
			b.AddStepAfter(def.After, s)
		case def.Before != "":
			b.AddStepBefore(def.Before, s)
		default:
			b.AddStep(s)
		}
	}
	return b
}

// LoadFile reads a definition from path. Files ending in .yaml or .yml are
// decoded as YAML; everything else as TOML. Unknown keys are rejected in
// both formats. A definition without a name takes the file's base name.
func LoadFile(path string) (*Definition, error) {
	var (
		def *Definition
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		def, err = loadYAML(path)
	default:
		def, err = loadTOML(path)
	}
	if err != nil {
		return nil, err
	}

	def.Path = path
	if def.Name == "" {
		base := filepath.Base(path)
		def.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return def, nil
}

// ErrUnknownKeys is returned by LoadFile when a TOML definition contains
// keys that map to no field.
var ErrUnknownKeys = errors.New("unknown keys")

func loadTOML(path string) (*Definition, error) {
	var def Definition
	md, err := toml.DecodeFile(path, &def)
	if err != nil {
		return nil, fmt.Errorf("loading definition %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("loading definition %s: %w: %s", path, ErrUnknownKeys, strings.Join(keys, ", "))
	}
	return &def, nil
}

func loadYAML(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading definition %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("loading definition %s: %w", path, err)
	}
	return &def, nil
}
