package budget

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
)

// Amount is a signed monetary amount in minor currency units. Budget.yfull
// stores amounts as JSON numbers of major units ("-42.5"); decoding scales
// them to an integer so no float arithmetic happens downstream.
type Amount int64

func (a *Amount) UnmarshalJSON(b []byte) error {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*a = Amount(math.Round(f * 100))
	return nil
}

// Abs returns the amount with its sign dropped.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// Entity is the common shape of payees and master/sub categories: a stable
// id and a display name. Tombstoned entities are deleted records kept around
// by the sync protocol.
type Entity struct {
	EntityID    string `json:"entityId"`
	Name        string `json:"name"`
	IsTombstone bool   `json:"isTombstone"`
}

// Account is a budget account. Its display name lives in a differently named
// field than other entities.
type Account struct {
	EntityID    string `json:"entityId"`
	AccountName string `json:"accountName"`
	IsTombstone bool   `json:"isTombstone"`
}

// Category is a master or sub category. The hierarchy is exactly two tiers
// deep: masters have an empty MasterCategoryID, subs point at their master.
type Category struct {
	Entity
	MasterCategoryID string `json:"masterCategoryId"`
}

type masterCategory struct {
	Category
	SubCategories []Category `json:"subCategories"`
}

// Transaction is one raw budget transaction. Transfers between two budget
// accounts are recorded twice, once per account, with each record's
// TransferTransactionID pointing at its counterpart.
type Transaction struct {
	EntityID              string `json:"entityId"`
	Date                  string `json:"date"`
	Amount                Amount `json:"amount"`
	Cleared               string `json:"cleared"`
	AccountID             string `json:"accountId"`
	PayeeID               string `json:"payeeId"`
	CategoryID            string `json:"categoryId"`
	Memo                  string `json:"memo"`
	TargetAccountID       string `json:"targetAccountId"`
	TransferTransactionID string `json:"transferTransactionId"`
	IsTombstone           bool   `json:"isTombstone"`
}

// ClearedReconciled is the cleared status of transactions the user has
// confirmed against a statement. Only these are stable enough to convert.
const ClearedReconciled = "Reconciled"

// Snapshot is a decoded Budget.yfull: the transaction list in its original
// append order plus id-keyed lookup tables for every entity kind.
type Snapshot struct {
	Transactions []Transaction
	Accounts     map[string]Account
	Payees       map[string]Entity
	Categories   map[string]Category
}

type rawSnapshot struct {
	Transactions     []Transaction    `json:"transactions"`
	Accounts         []Account        `json:"accounts"`
	Payees           []Entity         `json:"payees"`
	MasterCategories []masterCategory `json:"masterCategories"`
}

// LoadSnapshot reads and indexes a Budget.yfull file.
func LoadSnapshot(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	var r rawSnapshot
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, path, err)
	}
	return &Snapshot{
		Transactions: r.Transactions,
		Accounts:     indexAccounts(r.Accounts),
		Payees:       indexEntities(r.Payees),
		Categories:   indexCategories(r.MasterCategories),
	}, nil
}

// The snapshot stores entities as arrays; lookups want id-keyed tables.
// Duplicate ids are last-write-wins in array order. Tombstoned entities are
// left out so deleted records never resolve.

func indexEntities(records []Entity) map[string]Entity {
	table := make(map[string]Entity, len(records))
	for _, r := range records {
		if r.IsTombstone {
			continue
		}
		table[r.EntityID] = r
	}
	return table
}

func indexAccounts(records []Account) map[string]Account {
	table := make(map[string]Account, len(records))
	for _, r := range records {
		if r.IsTombstone {
			continue
		}
		table[r.EntityID] = r
	}
	return table
}

// indexCategories flattens the two-tier category hierarchy into one table:
// masters first, then every live master's sub-categories. A sub's master id
// resolves in this same table; dangling ids surface during conversion.
func indexCategories(masters []masterCategory) map[string]Category {
	table := make(map[string]Category)
	for _, m := range masters {
		if m.IsTombstone {
			continue
		}
		table[m.EntityID] = m.Category
	}
	for _, m := range masters {
		if m.IsTombstone || len(m.SubCategories) == 0 {
			continue
		}
		for _, sub := range m.SubCategories {
			if sub.IsTombstone {
				continue
			}
			table[sub.EntityID] = sub
		}
	}
	return table
}
