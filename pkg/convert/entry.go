package convert

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
)

// Entry is one double-entry journal record ready to append to the
// destination ledger. The ynab-id metadata line is how later runs recognize
// the entry as already imported.
type Entry struct {
	Date     string
	Payee    string
	Memo     string
	YNABID   string
	Debit    string
	Credit   string
	Amount   string
	Currency string
}

// String renders the entry in beancount syntax:
//
//	2016-12-30 * "Electric Company" "december bill"
//	    ynab-id: "4B9D3009-3924-1C26-1E20-B34DF7D0FD43"
//	    Expenses:Electric    42.00 USD
//	    Assets:Checking
func (e Entry) String() string {
	// Payee and memo arrive with double quotes already neutralized, so
	// literal quoting is safe; Go-style %q escaping would mangle payees
	// containing backslashes.
	var b strings.Builder
	fmt.Fprintf(&b, `%s * "%s"`, e.Date, e.Payee)
	if e.Memo != "" {
		fmt.Fprintf(&b, ` "%s"`, e.Memo)
	}
	fmt.Fprintf(&b, "\n    ynab-id: \"%s\"\n", e.YNABID)
	fmt.Fprintf(&b, "    %s    %s %s\n", e.Debit, e.Amount, e.Currency)
	fmt.Fprintf(&b, "    %s", e.Credit)
	return b.String()
}

// formatAmount renders minor units with the currency's grouping separators
// but no symbol; beancount spells the commodity after the number instead.
func formatAmount(units int64, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		cur = money.GetCurrency(money.USD)
	}
	f := money.NewFormatter(cur.Fraction, cur.Decimal, cur.Thousand, "", "1")
	return f.Format(units)
}

// neutralizeQuotes rewrites double quotes so payees and memos cannot break
// beancount's string quoting.
func neutralizeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `'`)
}
