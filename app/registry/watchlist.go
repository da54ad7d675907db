package registry

// WatchlistDocument is the parsed terrorism watchlist. Removed holds the
// names of the "recently removed" section, Current the persons of the
// current list.
type WatchlistDocument struct {
	Removed []string
	Current []WatchlistSubject
}

// WatchlistSubject is one person of the current list with the raw dates of
// its inclusion and change history.
type WatchlistSubject struct {
	Name      string
	BirthDate string
	History   []string
}

// PersonKey identifies a listed person by normalized name and birth date.
type PersonKey struct {
	Name      string
	BirthDate string
}

// WatchlistIndex is the lookup structure built from a WatchlistDocument.
// Actual maps a person to the latest history date (YYYY-MM-DD).
type WatchlistIndex struct {
	Removed map[string]struct{}
	Actual  map[PersonKey]string
}

// BuildWatchlistIndex builds the removed-name set and the actual-list
// mapping. Subjects without any parsable history date are skipped, and a
// person listed several times keeps the latest date.
func BuildWatchlistIndex(doc *WatchlistDocument) *WatchlistIndex {
	idx := &WatchlistIndex{
		Removed: make(map[string]struct{}),
		Actual:  make(map[PersonKey]string),
	}
	if doc == nil {
		return idx
	}

	for _, name := range doc.Removed {
		if key := NormalizeName(name); key != "" {
			idx.Removed[key] = struct{}{}
		}
	}

	for _, subject := range doc.Current {
		name := NormalizeName(subject.Name)
		if name == "" {
			continue
		}

		latest := ""
		for _, raw := range subject.History {
			if date := NormalizeDate(raw); date > latest {
				latest = date
			}
		}
		if latest == "" {
			continue
		}

		key := PersonKey{Name: name, BirthDate: NormalizeDate(subject.BirthDate)}
		if current, ok := idx.Actual[key]; !ok || current < latest {
			idx.Actual[key] = latest
		}
	}

	return idx
}
