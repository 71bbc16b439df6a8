package budget

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const testSnapshot = `{
	"transactions": [
		{
			"entityId": "T-1",
			"date": "2016-12-30",
			"amount": -42,
			"cleared": "Reconciled",
			"accountId": "A-CHK",
			"payeeId": "P-1",
			"categoryId": "C-ELEC"
		},
		{
			"entityId": "T-2",
			"date": "2016-12-31",
			"amount": 1234.56,
			"cleared": "Cleared",
			"accountId": "A-CHK",
			"payeeId": "P-1",
			"categoryId": "C-ELEC"
		}
	],
	"accounts": [
		{"entityId": "A-CHK", "accountName": "Checking"},
		{"entityId": "A-OLD", "accountName": "Closed", "isTombstone": true}
	],
	"payees": [
		{"entityId": "P-1", "name": "Electric Company"},
		{"entityId": "P-1", "name": "Electric Co (renamed)"}
	],
	"masterCategories": [
		{
			"entityId": "M-BILLS",
			"name": "Bills",
			"subCategories": [
				{"entityId": "C-ELEC", "name": "Electric", "masterCategoryId": "M-BILLS"},
				{"entityId": "C-GONE", "name": "Deleted", "masterCategoryId": "M-BILLS", "isTombstone": true}
			]
		},
		{
			"entityId": "M-DEAD",
			"name": "Old Group",
			"isTombstone": true,
			"subCategories": [
				{"entityId": "C-DEAD", "name": "Orphan", "masterCategoryId": "M-DEAD"}
			]
		},
		{"entityId": "M-EMPTY", "name": "Empty Group"}
	]
}`

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Budget.yfull")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSnapshot(t *testing.T) {
	s, err := LoadSnapshot(writeSnapshot(t, testSnapshot))
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if len(s.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(s.Transactions))
	}
	// Transactions keep snapshot append order, not date order.
	if s.Transactions[0].EntityID != "T-1" || s.Transactions[1].EntityID != "T-2" {
		t.Errorf("transaction order = %s, %s; want T-1, T-2",
			s.Transactions[0].EntityID, s.Transactions[1].EntityID)
	}
}

func TestAmountScaledToMinorUnits(t *testing.T) {
	s, err := LoadSnapshot(writeSnapshot(t, testSnapshot))
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if got := s.Transactions[0].Amount; got != -4200 {
		t.Errorf("amount -42 decoded to %d minor units, want -4200", got)
	}
	if got := s.Transactions[1].Amount; got != 123456 {
		t.Errorf("amount 1234.56 decoded to %d minor units, want 123456", got)
	}
	if got := Amount(-4200).Abs(); got != 4200 {
		t.Errorf("Abs(-4200) = %d, want 4200", got)
	}
}

func TestIndexesExcludeTombstones(t *testing.T) {
	s, err := LoadSnapshot(writeSnapshot(t, testSnapshot))
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if _, ok := s.Accounts["A-OLD"]; ok {
		t.Error("tombstoned account A-OLD resolvable, want excluded")
	}
	if _, ok := s.Categories["C-GONE"]; ok {
		t.Error("tombstoned sub-category C-GONE resolvable, want excluded")
	}
	if _, ok := s.Categories["M-DEAD"]; ok {
		t.Error("tombstoned master M-DEAD resolvable, want excluded")
	}
	if _, ok := s.Categories["C-DEAD"]; ok {
		t.Error("sub-category of tombstoned master resolvable, want excluded")
	}
}

func TestIndexLastWriteWins(t *testing.T) {
	s, err := LoadSnapshot(writeSnapshot(t, testSnapshot))
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	// P-1 appears twice; the later record wins.
	if got := s.Payees["P-1"].Name; got != "Electric Co (renamed)" {
		t.Errorf("payee P-1 = %q, want the later record", got)
	}
}

func TestCategoryFlattening(t *testing.T) {
	s, err := LoadSnapshot(writeSnapshot(t, testSnapshot))
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	// Masters and subs land in the same table; a sub's master id resolves
	// there too.
	sub, ok := s.Categories["C-ELEC"]
	if !ok {
		t.Fatal("sub-category C-ELEC not indexed")
	}
	master, ok := s.Categories[sub.MasterCategoryID]
	if !ok {
		t.Fatalf("master %q of C-ELEC not indexed", sub.MasterCategoryID)
	}
	if master.Name != "Bills" || sub.Name != "Electric" {
		t.Errorf("category names = %q:%q, want Bills:Electric", master.Name, sub.Name)
	}
	if _, ok := s.Categories["M-EMPTY"]; !ok {
		t.Error("master with no sub-categories not indexed")
	}
}

func TestLoadSnapshotMissing(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "Budget.yfull"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadSnapshot on missing file = %v, want ErrNotFound", err)
	}
}

func TestLoadSnapshotCorrupt(t *testing.T) {
	_, err := LoadSnapshot(writeSnapshot(t, `{"transactions": [`))
	if !errors.Is(err, ErrCorruptSnapshot) {
		t.Errorf("LoadSnapshot on malformed JSON = %v, want ErrCorruptSnapshot", err)
	}
}
