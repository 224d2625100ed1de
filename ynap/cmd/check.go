package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/cassava/ynap"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed, color.Bold)
)

var ErrCheckFailed = errors.New("one or more files failed validation")

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Args:  cobra.MinimumNArgs(1),
	Short: "Validate bank format and rule files",
	Long: `check compiles every regular expression, date pattern, and replacement
template in the given bank format and rule files, so configuration
errors surface before a conversion run.`,
	RunE: func(_ *cobra.Command, args []string) error {
		failures := 0
		for _, path := range args {
			if err := checkFile(path); err != nil {
				failColor.Fprintf(os.Stdout, "FAIL")
				fmt.Printf(" %s: %s\n", path, err)
				failures++
				continue
			}
			okColor.Fprintf(os.Stdout, "ok")
			fmt.Printf("   %s\n", path)
		}
		if failures > 0 {
			return ErrCheckFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

func checkFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Bank format files have a columns list; everything else is checked
	// as a rule file.
	var probe struct {
		Columns []yaml.Node `yaml:"columns"`
	}
	if err := yaml.Unmarshal(raw, &probe); err != nil {
		return err
	}
	if len(probe.Columns) > 0 {
		_, err := ynap.LoadBankFormat(path)
		return err
	}
	return checkRules(path)
}

func checkRules(path string) error {
	rules, err := ynap.LoadRules(path)
	if err != nil {
		return err
	}
	if _, err := rules.Chain(); err != nil {
		return err
	}
	for _, section := range [][]ynap.RuleConfig{rules.PreTransform, rules.PostTransform} {
		for _, rc := range section {
			for field, tmpl := range rc.Replace {
				if err := ynap.ValidateTemplate(tmpl); err != nil {
					return fmt.Errorf("replace template for field %q: %w", field, err)
				}
			}
		}
	}
	return nil
}
