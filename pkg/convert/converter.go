// Package convert turns the transactions of an authoritative YNAB4 snapshot
// into beancount journal entries, exactly once each: transfers collapse to a
// single entry and transactions already present in the destination ledger
// are skipped.
package convert

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/beantools/ynab2bean/pkg/bean"
	"github.com/beantools/ynab2bean/pkg/budget"
)

// YNAB4 books income under two pseudo-categories instead of tracking where
// it came from. Entries touching them need manual review unless a dedicated
// destination account is configured.
const (
	ImmediateIncomeID = "Category/__ImmediateIncome__"
	DeferredIncomeID  = "Category/__DeferredIncome__"
)

const dateFormat = "2006-01-02"

func isIncomeCategory(id string) bool {
	return id == ImmediateIncomeID || id == DeferredIncomeID
}

// Options tune a single conversion run.
type Options struct {
	// Since excludes transactions dated before this day (YYYY-MM-DD). The
	// day itself is included. Empty means no cutoff.
	Since string
}

// ResolutionError records a transaction that referenced an unknown entity or
// a name with no destination mapping. The transaction is excluded from
// output; the accumulated errors fail the run once every transaction has
// been seen, so one bad record does not hide the rest.
type ResolutionError struct {
	Transaction budget.Transaction
	Err         error
}

func (e ResolutionError) Error() string {
	return fmt.Sprintf("transaction %s (%s): %v", e.Transaction.EntityID, e.Transaction.Date, e.Err)
}

func (e ResolutionError) Unwrap() error { return e.Err }

// Result is everything one conversion run produced.
type Result struct {
	// Entries in source transaction order.
	Entries []Entry
	// Imported counts produced entries; Skipped counts already-imported
	// transactions and duplicate transfer legs; Unreconciled counts
	// transactions excluded for not being reconciled yet.
	Imported     int
	Skipped      int
	Unreconciled int
	Errors       []ResolutionError
	// Warnings lists transactions whose entry touches an income
	// pseudo-category and needs manual review.
	Warnings []budget.Transaction
}

// Converter maps one snapshot onto one destination ledger.
type Converter struct {
	logger   *log.Logger
	snapshot *budget.Snapshot
	mapping  *bean.Mapping
	income   map[string]string
}

// New builds a Converter. incomeAccounts optionally maps the income
// pseudo-category ids to destination accounts; unmapped ones pass through by
// name and are flagged.
func New(logger *log.Logger, snapshot *budget.Snapshot, mapping *bean.Mapping, incomeAccounts map[string]string) *Converter {
	return &Converter{
		logger:   logger,
		snapshot: snapshot,
		mapping:  mapping,
		income:   incomeAccounts,
	}
}

type verdict int

const (
	include verdict = iota
	dropSilent
	dropUnreconciled
	dropSkipped
)

// screen runs one transaction through the filter chain. The transfers set is
// threaded through explicitly: including the first leg of a transfer records
// the counterpart's id so the second leg is skipped, and a counterpart whose
// first leg was imported by an earlier run is recognized through the
// imported set.
func screen(txn budget.Transaction, imported, transfers map[string]bool, since time.Time) verdict {
	if txn.IsTombstone {
		return dropSilent
	}
	// The source data is known to contain spurious zero entries.
	if txn.Amount == 0 {
		return dropSilent
	}
	if !since.IsZero() {
		if d, err := time.Parse(dateFormat, txn.Date); err == nil && d.Before(since) {
			return dropSilent
		}
	}
	if txn.Cleared != budget.ClearedReconciled {
		return dropUnreconciled
	}
	if imported[txn.EntityID] {
		return dropSkipped
	}
	if txn.TransferTransactionID != "" {
		if transfers[txn.EntityID] || imported[txn.TransferTransactionID] {
			return dropSkipped
		}
		transfers[txn.TransferTransactionID] = true
	}
	return include
}

// Run converts every eligible transaction, in snapshot order, into a journal
// entry. imported holds the ynab ids already present in the destination
// ledger. Resolution failures do not stop the run; they accumulate in the
// result.
func (c *Converter) Run(imported map[string]bool, opts Options) (*Result, error) {
	var since time.Time
	if opts.Since != "" {
		t, err := time.Parse(dateFormat, opts.Since)
		if err != nil {
			return nil, fmt.Errorf("invalid since date %q: %w", opts.Since, err)
		}
		since = t
	}
	if imported == nil {
		imported = map[string]bool{}
	}

	res := &Result{}
	transfers := make(map[string]bool)

	for _, txn := range c.snapshot.Transactions {
		switch screen(txn, imported, transfers, since) {
		case dropSilent:
			continue
		case dropUnreconciled:
			res.Unreconciled++
			continue
		case dropSkipped:
			res.Skipped++
			continue
		}

		entry, err := c.convert(txn)
		if err != nil {
			c.logger.Error("cannot convert transaction", "id", txn.EntityID, "date", txn.Date, "error", err)
			res.Errors = append(res.Errors, ResolutionError{Transaction: txn, Err: err})
			continue
		}
		res.Entries = append(res.Entries, entry)
		res.Imported++
		if isIncomeCategory(entry.Debit) || isIncomeCategory(entry.Credit) {
			res.Warnings = append(res.Warnings, txn)
		}
	}
	return res, nil
}

// convert resolves both legs of a transaction and builds its entry. The
// source account is one leg; the other is the transfer's target account or
// the transaction's category.
func (c *Converter) convert(txn budget.Transaction) (Entry, error) {
	payee, ok := c.snapshot.Payees[txn.PayeeID]
	if !ok {
		return Entry{}, fmt.Errorf("unknown payee id %q", txn.PayeeID)
	}
	source, err := c.accountFor(txn.AccountID)
	if err != nil {
		return Entry{}, err
	}

	var opposite string
	if txn.TransferTransactionID != "" {
		opposite, err = c.accountFor(txn.TargetAccountID)
	} else {
		opposite, err = c.categoryFor(txn.CategoryID)
	}
	if err != nil {
		return Entry{}, err
	}

	e := Entry{
		Date:     txn.Date,
		Payee:    neutralizeQuotes(payee.Name),
		Memo:     neutralizeQuotes(txn.Memo),
		YNABID:   txn.EntityID,
		Amount:   formatAmount(int64(txn.Amount.Abs()), c.mapping.Currency),
		Currency: c.mapping.Currency,
	}
	// An outflow leaves the source account: credit it and debit the other
	// leg. An inflow is the reverse.
	if txn.Amount < 0 {
		e.Debit, e.Credit = opposite, source
	} else {
		e.Debit, e.Credit = source, opposite
	}
	return e, nil
}

func (c *Converter) accountFor(id string) (string, error) {
	acct, ok := c.snapshot.Accounts[id]
	if !ok {
		return "", fmt.Errorf("unknown account id %q", id)
	}
	dest, ok := c.mapping.Account(acct.AccountName)
	if !ok {
		return "", fmt.Errorf("no ynab-name mapping for account %q", acct.AccountName)
	}
	return dest, nil
}

// categoryFor maps a category id to a destination account via the category's
// "Master:Sub" name. Income pseudo-categories resolve through the configured
// income accounts, then the ledger mapping, then fall back to the raw
// pseudo-category name, which Run reports as a warning.
func (c *Converter) categoryFor(id string) (string, error) {
	if isIncomeCategory(id) {
		if dest, ok := c.income[id]; ok {
			return dest, nil
		}
		if dest, ok := c.mapping.Account(id); ok {
			return dest, nil
		}
		return id, nil
	}
	sub, ok := c.snapshot.Categories[id]
	if !ok {
		return "", fmt.Errorf("unknown category id %q", id)
	}
	master, ok := c.snapshot.Categories[sub.MasterCategoryID]
	if !ok {
		return "", fmt.Errorf("category %q has unknown master category id %q", sub.Name, sub.MasterCategoryID)
	}
	name := master.Name + ":" + sub.Name
	dest, ok := c.mapping.Account(name)
	if !ok {
		return "", fmt.Errorf("no ynab-name mapping for category %q", name)
	}
	return dest, nil
}
