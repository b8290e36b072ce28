package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bluss/sysconfigpatcher/internal/config"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the effective variable-update table",
	Long: `Print the variable-update rules a patch run would apply, as YAML:
the built-in defaults (unless --default-variable-updates=false) merged with
any rules file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		rules := cfg.EffectiveRules(defaultUpdates)
		specs := make(map[string]config.RuleSpec, len(rules))
		for name, rule := range rules {
			specs[name] = config.SpecFor(rule)
		}

		out, err := yaml.Marshal(map[string]map[string]config.RuleSpec{
			"variable_updates": specs,
		})
		if err != nil {
			return fmt.Errorf("render rules: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}
