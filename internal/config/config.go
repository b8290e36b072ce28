// Package config loads the optional rules file that supplies extra
// variable-update rules for the sysconfigdata patch, merged over the
// built-in default table.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/bluss/sysconfigpatcher/internal/patcher"
)

// RuleSpec is the on-disk form of one variable-update rule. Exactly one of
// the two shapes must be used: word+to (whole-word substitution) or value
// (unconditional replacement).
type RuleSpec struct {
	Word  string `mapstructure:"word" yaml:"word,omitempty" validate:"required_without=Value,excluded_with=Value"`
	To    string `mapstructure:"to" yaml:"to,omitempty" validate:"required_with=Word,excluded_with=Value"`
	Value string `mapstructure:"value" yaml:"value,omitempty"`
}

// Config is the root of the rules file.
type Config struct {
	VariableUpdates map[string]RuleSpec `mapstructure:"variable_updates" yaml:"variable_updates" validate:"dive"`
}

// InitViper points Viper at the rules file. An explicit path wins;
// otherwise standard locations are searched, and when nothing is found the
// run proceeds with the built-in defaults only.
func InitViper(rulesFile string) {
	if rulesFile != "" {
		viper.SetConfigFile(rulesFile)
	} else if found := findRulesFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		viper.SetConfigName("sysconfigpatcher")
		viper.SetConfigType("yaml")
	}
}

// findRulesFile searches the working directory and ~/.sysconfigpatcher for
// sysconfigpatcher.yaml or .yml. Returns the first match or empty string.
func findRulesFile() string {
	home, _ := os.UserHomeDir()
	for _, dir := range []string{".", filepath.Join(home, ".sysconfigpatcher")} {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "sysconfigpatcher"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// Load reads and validates the rules file. A missing file is not an error;
// it yields an empty Config.
func Load() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read rules file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal rules file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("rules file validation failed: %w", err)
	}
	return &cfg, nil
}

// Rule converts the spec to its runtime form.
func (s RuleSpec) Rule() patcher.Rule {
	if s.Word != "" {
		return patcher.WordReplace{Word: s.Word, To: s.To}
	}
	return patcher.SetValue(s.Value)
}

// SpecFor renders a runtime rule back into its on-disk form, for display.
func SpecFor(r patcher.Rule) RuleSpec {
	switch r := r.(type) {
	case patcher.WordReplace:
		return RuleSpec{Word: r.Word, To: r.To}
	case patcher.SetValue:
		return RuleSpec{Value: string(r)}
	}
	return RuleSpec{}
}

// EffectiveRules merges the config's rules over the default table. With
// useDefaults false the defaults are skipped and only configured rules
// apply.
func (c *Config) EffectiveRules(useDefaults bool) map[string]patcher.Rule {
	rules := make(map[string]patcher.Rule)
	if useDefaults {
		rules = patcher.DefaultUpdates()
	}
	for name, spec := range c.VariableUpdates {
		rules[name] = spec.Rule()
	}
	return rules
}
