package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/pelletier/go-toml"
	"github.com/spf13/cobra"
)

var confPath string

// appConfig holds the optional TOML configuration with per-user
// defaults for the command-line flags.
type appConfig struct {
	// BanksDir is a directory of bank format YAML files used to select
	// a format by matching file_pattern against the input filename.
	BanksDir string `toml:"banks_dir"`
	// Rules is the default rule file.
	Rules string `toml:"rules"`
	// Learn is the default training CSV for category suggestions.
	Learn string `toml:"learn"`
}

var conf appConfig

var rootCmd = &cobra.Command{
	Use:   "ynap",
	Short: "Preprocess bank CSV exports for YNAB",
	Long: `ynap converts bank-exported CSV transaction files into the five-column
format YNAB imports (Date, Payee, Category, Memo, Amount), applying a
declarative rule file to clean up payees and relabel records on the way.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return loadConfig()
	},
}

// Execute runs the root command, printing any error to stderr.
func Execute() {
	cc.Init(&cc.Config{
		RootCmd:  rootCmd,
		Headings: cc.HiCyan + cc.Bold + cc.Underline,
		Commands: cc.HiYellow + cc.Bold,
		Example:  cc.Italic,
		ExecName: cc.Bold,
		Flags:    cc.Bold,
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&confPath, "conf", "c", "", "Configuration file (TOML).")
}

func loadConfig() error {
	path := confPath
	if path == "" {
		home, err := os.UserConfigDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, "ynap", "config.toml")
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := toml.Unmarshal(raw, &conf); err != nil {
		return fmt.Errorf("%s: unable to parse configuration: %w", path, err)
	}
	return nil
}
