package config

// NewDefaults returns a Config populated with all default values.
func NewDefaults() *Config {
	return &Config{
		Project: ProjectConfig{
			WizardsDir: "wizards",
			Wizards:    []string{"**/*.toml", "**/*.yaml", "**/*.yml"},
		},
		Run: RunConfig{
			StepDelay: "0s",
			LogFormat: "text",
		},
	}
}
