package bean

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/robinvdvleuten/beancount/ast"
	"github.com/robinvdvleuten/beancount/parser"
)

// File is the parsed destination ledger, implementing Ledger. It carries the
// two things conversion depends on: open directives with their currency list
// and ynab-name metadata, and the ynab-id metadata of existing entries.
type File struct {
	accounts []Account
	imported map[string]bool
}

var _ Ledger = (*File)(nil)

// Load parses a beancount file, following include directives relative to the
// including file. Archived years split out with include still count toward
// the imported set, so re-runs stay idempotent across a split ledger.
func Load(path string) (*File, error) {
	f := &File{imported: make(map[string]bool)}
	if err := f.load(path, make(map[string]bool)); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) load(path string, seen map[string]bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if seen[abs] {
		return nil
	}
	seen[abs] = true

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tree, err := parser.ParseBytes(context.Background(), data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	for _, directive := range tree.Directives {
		switch d := directive.(type) {
		case *ast.Open:
			acct := Account{
				Name:     string(d.Account),
				YNABName: metaValue(d.Metadata, "ynab-name"),
			}
			for _, cur := range d.ConstraintCurrencies {
				acct.Currencies = append(acct.Currencies, string(cur))
			}
			f.accounts = append(f.accounts, acct)
		case *ast.Transaction:
			f.markImported(d.Metadata)
			for _, p := range d.Postings {
				f.markImported(p.Metadata)
			}
		}
	}
	for _, inc := range tree.Includes {
		name := unquote(inc.Filename.Value)
		if !filepath.IsAbs(name) {
			name = filepath.Join(filepath.Dir(path), name)
		}
		if err := f.load(name, seen); err != nil {
			return err
		}
	}
	return nil
}

func (f *File) markImported(meta []*ast.Metadata) {
	if id := metaValue(meta, "ynab-id"); id != "" {
		f.imported[id] = true
	}
}

// metaValue returns the unquoted value under key, or "" when absent.
func metaValue(meta []*ast.Metadata, key string) string {
	for _, m := range meta {
		if string(m.Key) == key {
			return unquote(m.Value.String())
		}
	}
	return ""
}

// unquote strips the delimiting double quotes of a raw string token.
func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}

// Accounts returns the declared accounts in file order.
func (f *File) Accounts() []Account { return f.accounts }

// ImportedIDs returns the ynab-id values attached to existing entries.
func (f *File) ImportedIDs() map[string]bool { return f.imported }
