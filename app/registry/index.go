package registry

import (
	"strings"
)

// Index is a registry snapshot keyed by normalized numeric ID.
type Index map[string]Entry

// BuildIndex parses a registry sheet into an Index. Data rows are the rows
// after the header marker row; rows sharing a key overwrite earlier ones.
// A sheet without the marker row yields an empty index.
func BuildIndex(grid Grid, schema TabularSchema) Index {
	index := make(Index)
	mergeIndex(index, grid, schema)
	return index
}

func mergeIndex(index Index, grid Grid, schema TabularSchema) {
	start, ok := findDataStart(grid, schema)
	if !ok {
		return
	}

	for row := start; row < len(grid); row++ {
		key := NormalizeNumericID(grid.Cell(row, schema.KeyColumn))
		if key == "" {
			continue
		}

		entry := Entry{
			Key:  key,
			Name: cleanCell(grid.Cell(row, schema.NameColumn)),
		}
		if schema.StatusColumn >= 0 {
			entry.Status = cleanCell(grid.Cell(row, schema.StatusColumn))
		}
		index[key] = entry
	}
}

func findDataStart(grid Grid, schema TabularSchema) (int, bool) {
	for row := range grid {
		cell := strings.ToLower(grid.Cell(row, schema.MarkerColumn))
		for _, marker := range schema.Markers {
			if strings.Contains(cell, marker) {
				return row + 1, true
			}
		}
	}
	return 0, false
}

// MFOSheets holds the raw sheets of the MFO registry workbook.
type MFOSheets struct {
	Active   []Grid
	Excluded Grid
}

// MFOIndex keeps active and excluded organizations apart; the matcher
// decides precedence.
type MFOIndex struct {
	Active   Index
	Excluded Index
}

// BuildMFOIndex merges every active sheet into one index (later sheets
// overwrite earlier ones) and builds the excluded index separately.
func BuildMFOIndex(sheets MFOSheets) *MFOIndex {
	idx := &MFOIndex{
		Active:   make(Index),
		Excluded: BuildIndex(sheets.Excluded, MFOExcludedSchema),
	}
	for _, grid := range sheets.Active {
		mergeIndex(idx.Active, grid, MFOActiveSchema)
	}
	return idx
}

// ReadLocalBook turns a local book sheet into records of the given domain.
// Records whose key normalizes to "" are kept; the matcher drops them.
func ReadLocalBook(grid Grid, domain Domain, schema LocalSchema) []LocalRecord {
	if len(grid) <= schema.SkipRows {
		return nil
	}

	records := make([]LocalRecord, 0, len(grid)-schema.SkipRows)
	for row := schema.SkipRows; row < len(grid); row++ {
		raw := grid.Cell(row, schema.KeyColumn)

		record := LocalRecord{Domain: domain}
		if domain == DomainWatchlist {
			record.Key = NormalizeName(raw)
			record.Display = cleanCell(raw)
		} else {
			record.Key = NormalizeNumericID(raw)
			record.Display = record.Key
		}
		if schema.BirthDateColumn >= 0 {
			record.BirthDate = NormalizeDate(grid.Cell(row, schema.BirthDateColumn))
		}

		records = append(records, record)
	}
	return records
}

func cleanCell(raw string) string {
	s := strings.TrimSpace(raw)
	if nullSentinels[strings.ToLower(s)] {
		return ""
	}
	return s
}
