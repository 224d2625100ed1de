package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cassava/ynap"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	bankPath    string
	rulesPath   string
	outputPath  string
	learnPath   string
	showSummary bool
)

var ErrNoBankFormat = errors.New("no bank format given and no file_pattern matches the input")

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <csv-file>",
	Args:  cobra.ExactArgs(1),
	Short: "Convert a bank CSV export to the YNAB format",
	RunE: func(_ *cobra.Command, args []string) error {
		inputPath := args[0]

		format, err := resolveBankFormat(inputPath)
		if err != nil {
			return err
		}

		records, err := format.ReadFile(inputPath)
		if err != nil {
			return err
		}

		if path := fallback(rulesPath, conf.Rules); path != "" {
			rules, err := ynap.LoadRules(path)
			if err != nil {
				return err
			}
			chain, err := rules.Chain()
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			for _, r := range records {
				if _, err := chain.Transform(r); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
		}

		if path := fallback(learnPath, conf.Learn); path != "" {
			if err := suggestCategories(path, records); err != nil {
				return err
			}
		}

		out := os.Stdout
		if outputPath != "" {
			f, err := os.Create(outputPath)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		if err := ynap.WriteRecords(out, records); err != nil {
			return err
		}

		if showSummary {
			printSummary(records)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&bankPath, "bank", "b", "", "Bank format file. May be omitted when the configured banks\ndirectory has a format whose file_pattern matches the input.")
	convertCmd.Flags().StringVarP(&rulesPath, "rules", "r", "", "Rule file with record transformations.")
	convertCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write output CSV to a file instead of standard output.")
	convertCmd.Flags().StringVar(&learnPath, "learn", "", "Previously converted CSV used to suggest categories for\nrecords the rules left uncategorized.")
	convertCmd.Flags().BoolVar(&showSummary, "summary", false, "Print per-run totals to standard error.")
}

func fallback(value, def string) string {
	if value != "" {
		return value
	}
	return def
}

// resolveBankFormat loads the format named by --bank, or scans the
// configured banks directory for a format whose file_pattern matches the
// input filename.
func resolveBankFormat(inputPath string) (*ynap.BankFormat, error) {
	if bankPath != "" {
		return ynap.LoadBankFormat(bankPath)
	}
	if conf.BanksDir == "" {
		return nil, ErrNoBankFormat
	}

	paths, err := bankFormatFiles(conf.BanksDir)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(inputPath)
	for _, path := range paths {
		format, err := ynap.LoadBankFormat(path)
		if err != nil {
			return nil, err
		}
		if format.Matches(base) {
			return format, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoBankFormat, base)
}

func bankFormatFiles(dir string) ([]string, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	return paths, nil
}

func suggestCategories(trainPath string, records []*ynap.Record) error {
	f, err := os.Open(trainPath)
	if err != nil {
		return err
	}
	defer f.Close()

	classifier, err := ynap.TrainClassifier(f)
	if err != nil {
		return fmt.Errorf("%s: %w", trainPath, err)
	}
	filled := classifier.FillCategories(records)
	if showSummary {
		fmt.Fprintf(os.Stderr, "suggested categories for %d records\n", filled)
	}
	return nil
}

// printSummary totals the converted amounts so the run can be eyeballed
// against the bank statement before importing.
func printSummary(records []*ynap.Record) {
	inflow, outflow := decimal.Zero, decimal.Zero
	transformed := 0
	for _, r := range records {
		if r.Transformed {
			transformed++
		}
		amount, err := decimal.NewFromString(r.Amount)
		if err != nil {
			continue
		}
		if amount.Sign() < 0 {
			outflow = outflow.Add(amount)
		} else {
			inflow = inflow.Add(amount)
		}
	}
	net := inflow.Add(outflow)
	fmt.Fprintf(os.Stderr, "%d records (%d transformed): inflow %s, outflow %s, net %s\n",
		len(records), transformed, inflow.StringFixedBank(2), outflow.StringFixedBank(2), net.StringFixedBank(2))
}
