package bean

import (
	"errors"
	"fmt"
)

var ErrCurrencyConflict = errors.New("conflicting currency declarations")

// Mapping resolves YNAB entity names to destination accounts and carries the
// single currency every mapped account shares. YNAB4 budgets hold exactly
// one currency, so a second, different declaration is a configuration error.
type Mapping struct {
	accounts map[string]string
	Currency string
}

// BuildMapping walks the ledger's declared accounts and records every
// ynab-name tag. The first account declaring a currency fixes the run's
// currency.
func BuildMapping(ledger Ledger) (*Mapping, error) {
	m := &Mapping{accounts: make(map[string]string)}
	for _, acct := range ledger.Accounts() {
		if acct.YNABName == "" {
			continue
		}
		if len(acct.Currencies) > 1 {
			return nil, fmt.Errorf("%w: account %s declares %d currencies, YNAB budgets use exactly one",
				ErrCurrencyConflict, acct.Name, len(acct.Currencies))
		}
		if len(acct.Currencies) == 1 {
			cur := acct.Currencies[0]
			if m.Currency == "" {
				m.Currency = cur
			} else if m.Currency != cur {
				return nil, fmt.Errorf("%w: account %s declares %s but the ledger already uses %s",
					ErrCurrencyConflict, acct.Name, cur, m.Currency)
			}
		}
		m.accounts[acct.YNABName] = acct.Name
	}
	return m, nil
}

// Account returns the destination account mapped to the given YNAB name.
func (m *Mapping) Account(ynabName string) (string, bool) {
	a, ok := m.accounts[ynabName]
	return a, ok
}

// Len reports how many YNAB names are mapped.
func (m *Mapping) Len() int { return len(m.accounts) }
