package convert

import (
	"strings"
	"testing"
)

func TestEntryString(t *testing.T) {
	e := Entry{
		Date:     "2016-12-30",
		Payee:    "Electric Company",
		YNABID:   "4B9D3009-3924-1C26-1E20-B34DF7D0FD43",
		Debit:    "Expenses:Electric",
		Credit:   "Assets:Checking",
		Amount:   "42.00",
		Currency: "USD",
	}
	want := strings.Join([]string{
		`2016-12-30 * "Electric Company"`,
		`    ynab-id: "4B9D3009-3924-1C26-1E20-B34DF7D0FD43"`,
		`    Expenses:Electric    42.00 USD`,
		`    Assets:Checking`,
	}, "\n")
	if got := e.String(); got != want {
		t.Errorf("entry rendered as:\n%s\nwant:\n%s", got, want)
	}
}

func TestEntryStringWithMemo(t *testing.T) {
	e := Entry{
		Date:     "2016-12-30",
		Payee:    "Electric Company",
		Memo:     "december bill",
		YNABID:   "ID-1",
		Debit:    "Expenses:Electric",
		Credit:   "Assets:Checking",
		Amount:   "42.00",
		Currency: "USD",
	}
	if got := e.String(); !strings.HasPrefix(got, `2016-12-30 * "Electric Company" "december bill"`) {
		t.Errorf("memo missing from header line:\n%s", got)
	}
}

func TestEntryStringKeepsBackslashes(t *testing.T) {
	// Payees are written literally between quotes; a payee like AC\DC must
	// not come out with a doubled backslash.
	e := Entry{
		Date:     "2016-12-30",
		Payee:    `AC\DC`,
		YNABID:   "ID-1",
		Debit:    "Expenses:Music",
		Credit:   "Assets:Checking",
		Amount:   "15.00",
		Currency: "USD",
	}
	if got := e.String(); !strings.HasPrefix(got, `2016-12-30 * "AC\DC"`) {
		t.Errorf("payee not rendered literally:\n%s", got)
	}
}

func TestNeutralizeQuotes(t *testing.T) {
	// Double quotes delimit beancount strings, so source data must not
	// carry them into the output.
	if got := neutralizeQuotes(`say "hi" twice`); got != `say 'hi' twice` {
		t.Errorf("neutralizeQuotes = %q", got)
	}
}

func TestFormatAmountGrouping(t *testing.T) {
	cases := []struct {
		units    int64
		currency string
		want     string
	}{
		{4200, "USD", "42.00"},
		{1234567, "USD", "12,345.67"},
		{100000000, "USD", "1,000,000.00"},
		{1234567, "EUR", "12.345,67"},
		{50, "USD", "0.50"},
		// Unknown currency codes fall back to two fraction digits.
		{4200, "ZZZ", "42.00"},
	}
	for _, c := range cases {
		if got := formatAmount(c.units, c.currency); got != c.want {
			t.Errorf("formatAmount(%d, %s) = %q, want %q", c.units, c.currency, got, c.want)
		}
	}
}
