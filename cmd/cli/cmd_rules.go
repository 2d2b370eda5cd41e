package main

import (
	"fmt"

	"github.com/sguter90/agrimaestro/pkg/rules"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the alert rules",
}

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective rule set as YAML",
	RunE:  runRulesShow,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesShowCmd)
}

func runRulesShow(cmd *cobra.Command, args []string) error {
	modes, err := appFromContext(cmd.Context()).Config.RuleModes()
	if err != nil {
		return err
	}

	engine, err := rules.NewEngine(modes)
	if err != nil {
		return err
	}

	out, err := renderRules(engine.Rules())
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func renderRules(infos []rules.RuleInfo) (string, error) {
	out, err := yaml.Marshal(map[string][]rules.RuleInfo{"rules": infos})
	if err != nil {
		return "", fmt.Errorf("failed to encode rules: %w", err)
	}
	return string(out), nil
}
