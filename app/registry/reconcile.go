package registry

import (
	"strings"
)

// Run classifies every record with m and returns the complete report.
// Records the matcher rejects (empty identity keys) are left out.
func Run(domain Domain, records []LocalRecord, m Matcher, referenceDate string) *Report {
	rows := make([]Result, 0, len(records))
	for _, record := range records {
		if result, ok := m.Match(record); ok {
			rows = append(rows, result)
		}
	}
	return newReport(domain, referenceDate, rows)
}

// CheckWatchlist reconciles the persons book against a watchlist document
// dated referenceDate (YYYY-MM-DD).
func CheckWatchlist(doc *WatchlistDocument, book Grid, referenceDate string) *Report {
	index := BuildWatchlistIndex(doc)
	records := ReadLocalBook(book, DomainWatchlist, WatchlistLocalSchema)
	return Run(DomainWatchlist, records, NewWatchlistMatcher(index, referenceDate), referenceDate)
}

// CheckMFO reconciles the organizations book against the MFO registry.
func CheckMFO(sheets MFOSheets, book Grid) *Report {
	index := BuildMFOIndex(sheets)
	records := ReadLocalBook(book, DomainMFO, MFOLocalSchema)
	return Run(DomainMFO, records, NewMFOMatcher(index), "")
}

// CheckBanks reconciles the banks book against the bank license registry.
func CheckBanks(registrySheet, book Grid) *Report {
	index := BuildIndex(registrySheet, BankRegistrySchema)
	records := ReadLocalBook(book, DomainBanks, BankLocalSchema)
	return Run(DomainBanks, records, NewBankMatcher(index, NewBankClassifier()), "")
}

// CompareSnapshots diffs two versions of a list sheet.
func CompareSnapshots(newer, older Grid) *Report {
	entries := Diff(SnapshotFromGrid(newer, SnapshotSchema), SnapshotFromGrid(older, SnapshotSchema))
	return DiffReport(entries)
}

// FilterRows keeps rows whose first column contains query (compared as
// normalized names) and whose status column equals statusLabel. Empty
// arguments match everything.
func FilterRows(rows []Result, query, statusLabel string) []Result {
	needle := NormalizeName(query)
	if needle == "" && statusLabel == "" {
		return rows
	}

	filtered := make([]Result, 0, len(rows))
	for _, row := range rows {
		if needle != "" && (len(row.Values) == 0 || !strings.Contains(NormalizeName(row.Values[0]), needle)) {
			continue
		}
		if statusLabel != "" && (len(row.Values) < 3 || row.Values[2] != statusLabel) {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}
