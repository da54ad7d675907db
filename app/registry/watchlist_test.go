package registry

import (
	"testing"
)

func TestBuildWatchlistIndex(t *testing.T) {
	doc := &WatchlistDocument{
		Removed: []string{"Сидоров  Сидор", "", "Ёжиков Ёж"},
		Current: []WatchlistSubject{
			{Name: "Иванов Иван", BirthDate: "1980-03-15", History: []string{"2020-01-10", "2024-05-01", "2023-12-31"}},
			{Name: "Иванов Иван", BirthDate: "15.03.1980", History: []string{"2022-02-02"}},
			{Name: "Петров Пётр", BirthDate: "1975-07-07", History: nil},
			{Name: "Кузнецов Кузьма", BirthDate: "1990-01-01", History: []string{"не дата"}},
			{Name: "", BirthDate: "1990-01-01", History: []string{"2024-01-01"}},
		},
	}

	idx := BuildWatchlistIndex(doc)

	if len(idx.Removed) != 2 {
		t.Errorf("Expected 2 removed names, got %d", len(idx.Removed))
	}
	if _, ok := idx.Removed["ЕЖИКОВ ЕЖ"]; !ok {
		t.Error("Expected removed names to be normalized")
	}

	if len(idx.Actual) != 1 {
		t.Fatalf("Expected 1 actual entry, got %d: %v", len(idx.Actual), idx.Actual)
	}

	key := PersonKey{Name: "ИВАНОВ ИВАН", BirthDate: "1980-03-15"}
	if got := idx.Actual[key]; got != "2024-05-01" {
		t.Errorf("Expected latest history date '2024-05-01', got '%s'", got)
	}
}

func TestBuildWatchlistIndexEmptyDocument(t *testing.T) {
	for _, doc := range []*WatchlistDocument{nil, {}} {
		idx := BuildWatchlistIndex(doc)
		if len(idx.Removed) != 0 || len(idx.Actual) != 0 {
			t.Errorf("Expected empty index, got %d removed and %d actual", len(idx.Removed), len(idx.Actual))
		}
	}
}
