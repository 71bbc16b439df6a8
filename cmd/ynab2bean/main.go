package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"

	"github.com/beantools/ynab2bean/pkg/budget"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "ynab2bean",
	Short:         "Convert YNAB4 budgets to beancount journal entries",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
}

var locateCmd = &cobra.Command{
	Use:   "locate <ynab-root>",
	Short: "Print the path of the authoritative Budget.yfull snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _, err := budget.Locate(args[0])
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert [flags] <ynab-root> <beancount-file>",
	Short: "Emit entries for reconciled transactions not yet in the ledger",
	Args:  cobra.ExactArgs(2),
	RunE:  runConvert,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is config.yaml)")

	convertCmd.Flags().String("since", "", "Only convert transactions on or after this date (YYYY-MM-DD)")

	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(convertCmd)
}

func main() {
	_ = gotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
