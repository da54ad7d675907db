package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/lysyi3m/regcheck/app/registry"
)

func openWritten(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func cellStyle(t *testing.T, f *excelize.File, sheet, cell string) int {
	t.Helper()
	id, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestWriteReport(t *testing.T) {
	report := &registry.Report{
		Domain: registry.DomainMFO,
		Rows: []registry.Result{
			{Values: []string{"ООО МФК Исключенная", "7701234560", "Исключён"}, Status: registry.StatusExcluded},
			{Values: []string{"ООО МКК Активная", "7701234561", "Действующий"}, Status: registry.StatusActive},
			{Values: []string{"", "7701234562", "Не найден"}, Status: registry.StatusNotFound},
			{Values: []string{"ООО МФК Другая", "7701234563", "Исключён"}, Status: registry.StatusExcluded},
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, report); err != nil {
		t.Fatal(err)
	}

	f := openWritten(t, &buf)
	rows, err := f.GetRows("МФО")
	if err != nil {
		t.Fatal(err)
	}

	expected := [][]string{
		{"Наименование", "ИНН", "Статус"},
		{"ООО МФК Исключенная", "7701234560", "Исключён"},
		{"ООО МКК Активная", "7701234561", "Действующий"},
		{"", "7701234562", "Не найден"},
		{"ООО МФК Другая", "7701234563", "Исключён"},
	}
	if diff := cmp.Diff(expected, rows); diff != "" {
		t.Errorf("Unexpected sheet content (-want +got):\n%s", diff)
	}

	excludedA := cellStyle(t, f, "МФО", "A2")
	active := cellStyle(t, f, "МФО", "A3")
	notFound := cellStyle(t, f, "МФО", "B4")
	excludedB := cellStyle(t, f, "МФО", "C5")
	header := cellStyle(t, f, "МФО", "A1")

	if excludedA != excludedB {
		t.Errorf("Expected rows with the same status to share a style, got %d and %d", excludedA, excludedB)
	}
	if excludedA == active || active == notFound || excludedA == header {
		t.Errorf("Expected distinct styles for header, excluded, active and not found rows, got %d %d %d %d", header, excludedA, active, notFound)
	}

	panes, err := f.GetPanes("МФО")
	if err != nil {
		t.Fatal(err)
	}
	if !panes.Freeze || panes.YSplit != 1 {
		t.Errorf("Expected frozen header row, got %+v", panes)
	}
}

func TestWriteColumnWidthCapped(t *testing.T) {
	long := strings.Repeat("Очень длинное наименование ", 10)
	report := &registry.Report{
		Domain: registry.DomainBanks,
		Rows: []registry.Result{
			{Values: []string{"1027700132195", long, "Действующая"}, Status: registry.StatusActive},
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, report); err != nil {
		t.Fatal(err)
	}

	f := openWritten(t, &buf)
	width, err := f.GetColWidth("Банки", "B")
	if err != nil {
		t.Fatal(err)
	}
	if width != maxColumnWidth {
		t.Errorf("Expected width capped at %d, got %v", maxColumnWidth, width)
	}

	width, err = f.GetColWidth("Банки", "A")
	if err != nil {
		t.Fatal(err)
	}
	if width != float64(len("1027700132195")+4) {
		t.Errorf("Expected width fitted to content, got %v", width)
	}
}

func TestWriteLoans(t *testing.T) {
	matches := []registry.LoanMatch{
		{ID: "101", Name: "Иванов Иван", BirthDate: "15.03.1980", DealDate: "01.10.2026"},
	}

	var buf bytes.Buffer
	if err := WriteLoans(&buf, matches); err != nil {
		t.Fatal(err)
	}

	f := openWritten(t, &buf)
	rows, err := f.GetRows("Сделки")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][3] != "01.10.2026" {
		t.Errorf("Expected header and one match, got %v", rows)
	}
}

func TestColumns(t *testing.T) {
	for _, domain := range []registry.Domain{registry.DomainWatchlist, registry.DomainMFO, registry.DomainBanks, registry.DomainDiff} {
		if len(Columns(domain)) == 0 {
			t.Errorf("Expected columns for domain %s", domain)
		}
	}
	if got := len(Columns(registry.DomainWatchlist)); got != 5 {
		t.Errorf("Expected 5 watchlist columns, got %d", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	name := strings.Repeat("Я", 40)
	if got := truncateRunes(name, maxSheetName); len([]rune(got)) != maxSheetName {
		t.Errorf("Expected %d runes, got %d", maxSheetName, len([]rune(got)))
	}
	if got := truncateRunes("Банки", maxSheetName); got != "Банки" {
		t.Errorf("Expected short name unchanged, got '%s'", got)
	}
}
