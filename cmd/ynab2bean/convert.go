package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/beantools/ynab2bean/pkg/bean"
	"github.com/beantools/ynab2bean/pkg/budget"
	"github.com/beantools/ynab2bean/pkg/config"
	"github.com/beantools/ynab2bean/pkg/convert"
)

var (
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
)

// runConvert writes the produced journal entries to stdout and everything
// else (logs, counts, warnings, error dumps) to stderr, so the output can be
// appended straight to the ledger file.
func runConvert(cmd *cobra.Command, args []string) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "ynab2bean",
	})

	cfg, err := config.Build(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	root, ledgerPath := args[0], args[1]

	snapshot, device, err := budget.LocateAndLoad(root)
	if err != nil {
		return err
	}
	logger.Info("loaded authoritative snapshot",
		"device", device.ShortDeviceID,
		"name", device.FriendlyName,
		"fullKnowledge", device.HasFullKnowledge,
	)

	ledger, err := bean.Load(ledgerPath)
	if err != nil {
		return err
	}
	mapping, err := bean.BuildMapping(ledger)
	if err != nil {
		return err
	}
	logger.Info("built account mapping", "accounts", mapping.Len(), "currency", mapping.Currency)

	converter := convert.New(logger, snapshot, mapping, incomeAccounts(cfg))
	result, err := converter.Run(ledger.ImportedIDs(), convert.Options{Since: cfg.Since})
	if err != nil {
		return err
	}

	for _, entry := range result.Entries {
		fmt.Printf("%s\n\n", entry)
	}

	logger.Info("conversion finished",
		"errors", len(result.Errors),
		"warnings", len(result.Warnings),
		"imported", result.Imported,
		"unreconciled", result.Unreconciled,
		"skipped", result.Skipped,
	)
	if len(result.Warnings) > 0 {
		fmt.Fprintln(os.Stderr, warnStyle.Render(fmt.Sprintf(
			"%d income transaction(s) need manual review: search the output for %s and %s",
			len(result.Warnings), convert.ImmediateIncomeID, convert.DeferredIncomeID)))
	}
	if len(result.Errors) > 0 {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("%d transaction(s) could not be converted:", len(result.Errors))))
		printer := pp.New()
		printer.SetOutput(os.Stderr)
		printer.Println(result.Errors)
		return fmt.Errorf("%d transaction(s) failed entity resolution", len(result.Errors))
	}
	logger.Info("remember to run bean-check on the updated ledger")
	return nil
}

// incomeAccounts turns the configured income destinations into the id-keyed
// map the converter consumes.
func incomeAccounts(cfg *config.Config) map[string]string {
	m := make(map[string]string, 2)
	if cfg.Income.Immediate != "" {
		m[convert.ImmediateIncomeID] = cfg.Income.Immediate
	}
	if cfg.Income.Deferred != "" {
		m[convert.DeferredIncomeID] = cfg.Income.Deferred
	}
	return m
}
