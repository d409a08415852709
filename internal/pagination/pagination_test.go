package pagination

import "testing"

// TestApply_MiddlePage tests slicing a loaded collection
func TestApply_MiddlePage(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	page, meta := Apply(items, Params{Page: 2, Limit: 10})

	if len(page) != 10 {
		t.Fatalf("Expected 10 items, got %d", len(page))
	}
	if page[0] != 10 {
		t.Errorf("Expected page to start at item 10, got %d", page[0])
	}
	if meta.TotalPages != 3 {
		t.Errorf("Expected 3 total pages, got %d", meta.TotalPages)
	}
	if !meta.HasNext || !meta.HasPrevious {
		t.Error("Expected middle page to have neighbours on both sides")
	}
}

// TestApply_PastTheEnd tests that an overrun page yields an empty slice
func TestApply_PastTheEnd(t *testing.T) {
	page, meta := Apply([]string{"a", "b"}, Params{Page: 5, Limit: 10})

	if page == nil {
		t.Fatal("Expected empty slice, got nil")
	}
	if len(page) != 0 {
		t.Errorf("Expected 0 items, got %d", len(page))
	}
	if meta.TotalRecords != 2 {
		t.Errorf("Expected 2 total records, got %d", meta.TotalRecords)
	}
}

// TestValidate_Clamps tests range clamping
func TestValidate_Clamps(t *testing.T) {
	p := Params{Page: 0, Limit: 1000}
	p.Validate()

	if p.Page != DefaultPage {
		t.Errorf("Expected page clamped to %d, got %d", DefaultPage, p.Page)
	}
	if p.Limit != MaxLimit {
		t.Errorf("Expected limit clamped to %d, got %d", MaxLimit, p.Limit)
	}
}
