package registry

// Domain identifies which registry a local book is checked against.
type Domain string

const (
	DomainWatchlist Domain = "watchlist"
	DomainMFO       Domain = "mfo"
	DomainBanks     Domain = "banks"
	DomainDiff      Domain = "diff"
)

// Status is the canonical classification tag of a result row.
type Status string

const (
	StatusOnList     Status = "on_list"
	StatusNotOnList  Status = "not_on_list"
	StatusExcluded   Status = "excluded"
	StatusActive     Status = "active"
	StatusNotFound   Status = "not_found"
	StatusRevoked    Status = "revoked"
	StatusCancelled  Status = "cancelled"
	StatusLiquidated Status = "liquidated"
	StatusRestricted Status = "restricted"
	StatusUnknown    Status = "unknown"
	StatusAdded      Status = "added"
	StatusRemoved    Status = "removed"
)

var taxonomies = map[Domain][]Status{
	DomainWatchlist: {StatusOnList, StatusNotOnList, StatusExcluded},
	DomainMFO:       {StatusActive, StatusExcluded, StatusNotFound},
	DomainBanks: {StatusActive, StatusRevoked, StatusCancelled, StatusLiquidated,
		StatusRestricted, StatusExcluded, StatusUnknown, StatusNotFound},
	DomainDiff: {StatusAdded, StatusRemoved},
}

// Taxonomy returns the fixed set of tags a domain can emit.
func (d Domain) Taxonomy() []Status {
	return append([]Status(nil), taxonomies[d]...)
}

// Valid reports whether the domain is one of the reconciliation domains.
func (d Domain) Valid() bool {
	_, ok := taxonomies[d]
	return ok
}

// Allows reports whether s belongs to the domain's taxonomy.
func (d Domain) Allows(s Status) bool {
	for _, allowed := range taxonomies[d] {
		if allowed == s {
			return true
		}
	}
	return false
}

// Label returns the display text for a status within a domain.
// The excluded tag is spelled differently by the watchlist and the MFO registry.
func (d Domain) Label(s Status) string {
	if s == StatusExcluded && d == DomainMFO {
		return "Исключён"
	}
	switch s {
	case StatusOnList:
		return "В перечне"
	case StatusNotOnList:
		return "Нет в перечне"
	case StatusExcluded:
		return "Исключен"
	case StatusActive:
		if d == DomainBanks {
			return "Действующая"
		}
		return "Действующий"
	case StatusNotFound:
		return "Не найден"
	case StatusRevoked:
		return "Отозванная"
	case StatusCancelled:
		return "Аннулированная"
	case StatusLiquidated:
		return "Ликвидация"
	case StatusRestricted:
		return "Ограничена"
	case StatusUnknown:
		return "Неизвестно"
	case StatusAdded:
		return "Добавлен"
	case StatusRemoved:
		return "Удален"
	}
	return string(s)
}

// Flag is the watchlist "listed on the reference date" marker.
type Flag int

const (
	FlagNone Flag = iota
	FlagYes
	FlagNo
)

func (f Flag) String() string {
	switch f {
	case FlagYes:
		return "ДА"
	case FlagNo:
		return "НЕТ"
	default:
		return ""
	}
}

// Grid is a sheet of text cells as supplied by acquisition. Rows may be ragged.
type Grid [][]string

// Cell returns the raw value at (row, col), or "" when out of range.
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return ""
	}
	return g[row][col]
}

// Entry is one registry record keyed by its identity key.
type Entry struct {
	Key        string
	Name       string
	Status     string
	ChangeDate string
}

// LocalRecord is one row of the local book.
type LocalRecord struct {
	Domain    Domain
	Display   string
	Key       string
	BirthDate string
}

// Result is one classified output row. Values has a fixed arity per domain.
type Result struct {
	Values []string `json:"values"`
	Status Status   `json:"status"`
	Flag   Flag     `json:"flag,omitempty"`
}

// DiffEntry is one set-membership change between two snapshots.
type DiffEntry struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Direction Status `json:"direction"`
}

// Report is the complete output of a reconciliation run.
type Report struct {
	Domain        Domain         `json:"domain"`
	ReferenceDate string         `json:"reference_date,omitempty"`
	Rows          []Result       `json:"rows"`
	Counts        map[Status]int `json:"counts"`
}

func newReport(domain Domain, referenceDate string, rows []Result) *Report {
	counts := make(map[Status]int, len(taxonomies[domain]))
	for _, s := range taxonomies[domain] {
		counts[s] = 0
	}
	for _, r := range rows {
		counts[r.Status]++
	}
	return &Report{
		Domain:        domain,
		ReferenceDate: referenceDate,
		Rows:          rows,
		Counts:        counts,
	}
}
