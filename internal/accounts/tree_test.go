package accounts

import (
	"testing"

	"github.com/shopspring/decimal"
)

func ptr(id int64) *int64 { return &id }

func TestBuildTreeSortsSiblingsLexicographically(t *testing.T) {
	forest := BuildTree([]Account{
		{ID: 1, Code: "1", IsHeader: true, IsActive: true},
		{ID: 2, Code: "1.2", ParentID: ptr(1), IsActive: true},
		{ID: 3, Code: "1.10", ParentID: ptr(1), IsActive: true},
		{ID: 4, Code: "1.1", ParentID: ptr(1), IsActive: true},
	})
	if len(forest) != 1 {
		t.Fatalf("expected one root, got %d", len(forest))
	}
	got := make([]string, 0, 3)
	for _, child := range forest[0].Children {
		got = append(got, child.Code)
	}
	// String order: "1.10" lands between "1.1" and "1.2".
	want := []string{"1.1", "1.10", "1.2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sibling order %v, want %v", got, want)
		}
	}
}

func TestBuildTreeOrdersRootsByCode(t *testing.T) {
	forest := BuildTree([]Account{
		{ID: 5, Code: "5", IsActive: true},
		{ID: 1, Code: "1", IsActive: true},
		{ID: 4, Code: "4", IsActive: true},
	})
	if forest[0].Code != "1" || forest[1].Code != "4" || forest[2].Code != "5" {
		t.Fatalf("unexpected root order: %s %s %s", forest[0].Code, forest[1].Code, forest[2].Code)
	}
}

func TestBuildTreeRollsUpHeaderBalances(t *testing.T) {
	forest := BuildTree([]Account{
		{ID: 1, Code: "1", IsHeader: true, IsActive: true},
		{ID: 2, Code: "1.1", ParentID: ptr(1), IsHeader: true, IsActive: true},
		{ID: 3, Code: "1.1.1", ParentID: ptr(2), IsActive: true, CurrentBalance: decimal.RequireFromString("100.25")},
		{ID: 4, Code: "1.1.2", ParentID: ptr(2), IsActive: true, CurrentBalance: decimal.RequireFromString("49.75")},
		{ID: 5, Code: "1.1.3", ParentID: ptr(2), IsActive: false, CurrentBalance: decimal.NewFromInt(999)},
	})
	root := forest[0]
	if !root.CurrentBalance.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("root balance = %s, want 150", root.CurrentBalance)
	}
	// The deactivated leaf is excluded from the rollup.
	if !root.Children[0].CurrentBalance.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("header balance = %s, want 150", root.Children[0].CurrentBalance)
	}
}

func TestBuildTreeOrphanedChildIsDropped(t *testing.T) {
	forest := BuildTree([]Account{
		{ID: 1, Code: "1", IsActive: true},
		{ID: 2, Code: "9.1", ParentID: ptr(99), IsActive: true},
	})
	if len(forest) != 1 {
		t.Fatalf("expected orphan to be excluded from roots, got %d roots", len(forest))
	}
}
