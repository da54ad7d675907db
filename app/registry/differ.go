package registry

import (
	"sort"
)

// Snapshot maps identity keys to a display value for one version of a list.
type Snapshot map[string]string

// SnapshotFromGrid reads a list sheet into a Snapshot keyed by normalized
// name. Rows with an empty name are skipped; a repeated name keeps the last value.
// Values that parse as dates are shown as DD.MM.YYYY.
func SnapshotFromGrid(grid Grid, schema LocalSchema) Snapshot {
	snapshot := make(Snapshot)
	for row := schema.SkipRows; row < len(grid); row++ {
		key := NormalizeName(cleanCell(grid.Cell(row, schema.KeyColumn)))
		if key == "" {
			continue
		}
		value := ""
		if schema.BirthDateColumn >= 0 {
			value = cleanCell(grid.Cell(row, schema.BirthDateColumn))
			if date := FormatDateRu(value); date != "" {
				value = date
			}
		}
		snapshot[key] = value
	}
	return snapshot
}

// Diff reports keys present only in newer (Added) and only in older
// (Removed). Value changes of shared keys are not reported. Entries come
// out sorted by key, additions first.
func Diff(newer, older Snapshot) []DiffEntry {
	var added, removed []DiffEntry

	for key, value := range newer {
		if _, ok := older[key]; !ok {
			added = append(added, DiffEntry{Key: key, Value: value, Direction: StatusAdded})
		}
	}
	for key, value := range older {
		if _, ok := newer[key]; !ok {
			removed = append(removed, DiffEntry{Key: key, Value: value, Direction: StatusRemoved})
		}
	}

	sortEntries(added)
	sortEntries(removed)

	return append(added, removed...)
}

func sortEntries(entries []DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
}

// DiffReport wraps diff entries as result rows of the diff domain.
func DiffReport(entries []DiffEntry) *Report {
	rows := make([]Result, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, Result{
			Values: []string{e.Key, e.Value, DomainDiff.Label(e.Direction)},
			Status: e.Direction,
		})
	}
	return newReport(DomainDiff, "", rows)
}
