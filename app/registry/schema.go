package registry

// TabularSchema maps the logical fields of a registry sheet to column indexes.
// Data rows start after the first row whose MarkerColumn cell contains one of
// Markers (case-folded).
type TabularSchema struct {
	MarkerColumn int
	Markers      []string
	KeyColumn    int
	NameColumn   int
	// StatusColumn is -1 when the sheet carries no status text.
	StatusColumn int
}

// LocalSchema maps a local book sheet to column indexes.
type LocalSchema struct {
	SkipRows  int
	KeyColumn int
	// BirthDateColumn is -1 when the book has no birth dates.
	BirthDateColumn int
}

// Bank license registry (cbr.ru full credit organization list).
var BankRegistrySchema = TabularSchema{
	MarkerColumn: 3,
	Markers:      []string{"огрн", "рег"},
	KeyColumn:    3,
	NameColumn:   4,
	StatusColumn: 7,
}

// MFO registry workbook.
var (
	MFOActiveSheets  = []string{"Действующие", "Действующие МФК", "Действующие МКК"}
	MFOExcludedSheet = "Исключенные"

	MFOActiveSchema = TabularSchema{
		MarkerColumn: 5,
		Markers:      []string{"инн"},
		KeyColumn:    5,
		NameColumn:   7,
		StatusColumn: -1,
	}
	MFOExcludedSchema = TabularSchema{
		MarkerColumn: 6,
		Markers:      []string{"инн"},
		KeyColumn:    6,
		NameColumn:   8,
		StatusColumn: -1,
	}
)

// Local books.
var (
	BankLocalSchema      = LocalSchema{SkipRows: 0, KeyColumn: 0, BirthDateColumn: -1}
	MFOLocalSchema       = LocalSchema{SkipRows: 1, KeyColumn: 0, BirthDateColumn: -1}
	WatchlistLocalSchema = LocalSchema{SkipRows: 1, KeyColumn: 2, BirthDateColumn: 3}

	// Snapshot lists compared by the differ: name in column 1, birth date in column 2.
	SnapshotSchema = LocalSchema{SkipRows: 1, KeyColumn: 1, BirthDateColumn: 2}
)

// Loan cross-check sheets.
const (
	LoanListSkipRows    = 2
	LoanListIDColumn    = 0
	LoanListNameColumn  = 1
	LoanListBirthColumn = 2

	LoanReportSkipRows   = 3
	LoanReportIDColumn   = 0
	LoanReportDateColumn = 7
)

// BankLocalSheet is the local book sheet holding bank registration numbers.
const BankLocalSheet = "Банки"

// NotFoundBankName is displayed for registration numbers missing from the registry.
const NotFoundBankName = "— не найден в реестре ЦБ —"
