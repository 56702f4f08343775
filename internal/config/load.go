package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the project file stepwise looks for.
const ConfigFileName = "stepwise.toml"

// FindConfigFile returns the absolute path of the nearest stepwise.toml in
// startDir or one of its parents. A directory named stepwise.toml does not
// count. The result is empty when the filesystem root is reached without a
// match.
func FindConfigFile(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving start directory %q: %w", startDir, err)
	}
	for parent := filepath.Dir(dir); ; dir, parent = parent, filepath.Dir(parent) {
		candidate := filepath.Join(dir, ConfigFileName)
		if info, statErr := os.Stat(candidate); statErr == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
		if parent == dir {
			return "", nil
		}
	}
}

// LoadFromFile decodes the stepwise.toml at path. The returned metadata
// lists keys the Config type does not know (MetaData.Undecoded); Validate
// turns those into warnings. Syntax errors carry the line they occur on.
// run.log_format is lower-cased so "JSON" and "json" mean the same.
func LoadFromFile(path string) (*Config, toml.MetaData, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return nil, md, fmt.Errorf("loading config %s: line %d: %s", path, perr.Position.Line, perr.Message)
		}
		return nil, md, fmt.Errorf("loading config %s: %w", path, err)
	}
	cfg.Run.LogFormat = strings.ToLower(strings.TrimSpace(cfg.Run.LogFormat))
	return &cfg, md, nil
}

// AnchorWizardsDir makes a relative project.wizards_dir that came from the
// config file or the defaults relative to the directory of rc.Path, so a
// project behaves the same from any subdirectory. Values from the
// environment or flags stay relative to the working directory.
func AnchorWizardsDir(rc *ResolvedConfig) {
	dir := rc.Config.Project.WizardsDir
	if rc.Path == "" || dir == "" || filepath.IsAbs(dir) {
		return
	}
	switch rc.Sources["project.wizards_dir"] {
	case SourceFile, SourceDefault, "":
		rc.Config.Project.WizardsDir = filepath.Join(filepath.Dir(rc.Path), dir)
	}
}
