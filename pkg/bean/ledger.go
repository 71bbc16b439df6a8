// Package bean is the converter's read-only view of the destination
// beancount ledger: which accounts are declared as import targets, and which
// YNAB transactions were already materialized by earlier runs.
package bean

// Account is one declared ledger account. YNABName carries the account's
// ynab-name metadata, which marks it as the destination for a YNAB account
// or "Master:Sub" category of that name; accounts without it are not import
// targets. Currencies is the currency constraint list of the open directive.
type Account struct {
	Name       string
	YNABName   string
	Currencies []string
}

// Ledger yields what conversion needs from an existing beancount file.
// Parsing the full format stays the destination tool's job; any source that
// can report its declared accounts and the ynab-id metadata of existing
// entries can serve.
type Ledger interface {
	Accounts() []Account
	ImportedIDs() map[string]bool
}
