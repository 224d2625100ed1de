package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cassava/ynap"
	"github.com/spf13/cobra"
)

// banksCmd represents the banks command
var banksCmd = &cobra.Command{
	Use:   "banks",
	Short: "List bank formats in the configured banks directory",
	RunE: func(_ *cobra.Command, _ []string) error {
		if conf.BanksDir == "" {
			return fmt.Errorf("no banks_dir configured (see --conf)")
		}
		paths, err := bankFormatFiles(conf.BanksDir)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tFILE PATTERN\tCOLUMNS\tFILE")
		for _, path := range paths {
			format, err := ynap.LoadBankFormat(path)
			if err != nil {
				return err
			}
			pattern := ""
			if format.FilePattern != nil {
				pattern = format.FilePattern.String()
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", format.Name, pattern, len(format.Columns), path)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(banksCmd)
}
