package registry

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const isoDate = "2006-01-02"

// maxExcelSerial is the serial number of 9999-12-31, the last date Excel supports.
const maxExcelSerial = 2958466

// Bare numbers in this range are years, not serials.
const (
	minBareYear = 1900
	maxBareYear = 2100
)

var foldYo = runes.Map(func(r rune) rune {
	if r == 'Ё' {
		return 'Е'
	}
	return r
})

// Cell texts produced by spreadsheet tooling for missing values.
var nullSentinels = map[string]bool{
	"nan":  true,
	"none": true,
	"null": true,
	"nat":  true,
	"<na>": true,
	"n/a":  true,
}

// Layouts tried in order by NormalizeDate. Month-first slashes follow the
// spreadsheet export convention; dotted dates are day-first.
var dateLayouts = []string{
	isoDate,
	"2006-1-2",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2.1.2006",
	"2.1.2006 15:04:05",
	"2.1.06",
	"1/2/2006",
	"1/2/2006 15:04:05",
	"1-2-06",
	"2006/1/2",
}

// NormalizeName upper-cases a free-text name, folds Ё to Е and collapses
// whitespace runs to single spaces.
func NormalizeName(raw string) string {
	t := transform.Chain(cases.Upper(language.Russian), foldYo)
	upper, _, err := transform.String(t, raw)
	if err != nil {
		upper = strings.ReplaceAll(strings.ToUpper(raw), "Ё", "Е")
	}
	return strings.Join(strings.Fields(upper), " ")
}

// NormalizeNumericID canonicalizes registration numbers and taxpayer IDs.
// Whitespace is dropped, float artifacts like "7701234567.0" lose their
// suffix and null sentinels become "".
func NormalizeNumericID(raw string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	for strings.HasSuffix(s, ".0") {
		s = strings.TrimSuffix(s, ".0")
	}
	if nullSentinels[strings.ToLower(s)] {
		return ""
	}
	return s
}

// NormalizeDate returns raw as YYYY-MM-DD, or "" when it cannot be parsed.
func NormalizeDate(raw string) string {
	t, ok := parseDate(raw)
	if !ok {
		return ""
	}
	return t.Format(isoDate)
}

// FormatDateRu returns raw as DD.MM.YYYY, or "" when it cannot be parsed.
func FormatDateRu(raw string) string {
	t, ok := parseDate(raw)
	if !ok {
		return ""
	}
	return t.Format("02.01.2006")
}

func parseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || nullSentinels[strings.ToLower(s)] {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	// A bare four digit number inside the year window is a year; any other
	// number is an Excel serial date. Serials 1900..2100 fall in 1905 and
	// are read as years.
	if len(s) == 4 {
		if year, err := strconv.Atoi(s); err == nil && year >= minBareYear && year <= maxBareYear {
			return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 && serial < maxExcelSerial {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
