package registry

// Matcher classifies one local record against a domain's registry indexes.
// ok is false for records that must not appear in the output.
type Matcher interface {
	Match(record LocalRecord) (result Result, ok bool)
}

var (
	_ Matcher = (*WatchlistMatcher)(nil)
	_ Matcher = (*MFOMatcher)(nil)
	_ Matcher = (*BankMatcher)(nil)
)

// WatchlistMatcher checks persons against the terrorism watchlist.
// ReferenceDate (YYYY-MM-DD) is the date of the list document; a person whose
// latest history date equals it is flagged as listed that day.
type WatchlistMatcher struct {
	index         *WatchlistIndex
	referenceDate string
}

func NewWatchlistMatcher(index *WatchlistIndex, referenceDate string) *WatchlistMatcher {
	return &WatchlistMatcher{index: index, referenceDate: referenceDate}
}

func (m *WatchlistMatcher) Match(record LocalRecord) (Result, bool) {
	if record.Key == "" {
		return Result{}, false
	}

	if _, removed := m.index.Removed[record.Key]; removed {
		return m.result(record, StatusExcluded, m.referenceDate, FlagYes), true
	}

	// An unknown birth date never equals another one, unknown included.
	if record.BirthDate != "" {
		key := PersonKey{Name: record.Key, BirthDate: record.BirthDate}
		if latest, listed := m.index.Actual[key]; listed {
			flag := FlagNo
			if latest == m.referenceDate {
				flag = FlagYes
			}
			return m.result(record, StatusOnList, latest, flag), true
		}
	}

	return m.result(record, StatusNotOnList, "", FlagNone), true
}

func (m *WatchlistMatcher) result(record LocalRecord, status Status, date string, flag Flag) Result {
	return Result{
		Values: []string{record.Display, record.BirthDate, DomainWatchlist.Label(status), date, flag.String()},
		Status: status,
		Flag:   flag,
	}
}

// MFOMatcher checks taxpayer IDs against the microfinance registry.
// Exclusion always takes precedence over an active entry.
type MFOMatcher struct {
	index *MFOIndex
}

func NewMFOMatcher(index *MFOIndex) *MFOMatcher {
	return &MFOMatcher{index: index}
}

func (m *MFOMatcher) Match(record LocalRecord) (Result, bool) {
	if record.Key == "" {
		return Result{}, false
	}

	status, name := StatusNotFound, ""
	if entry, ok := m.index.Excluded[record.Key]; ok {
		status, name = StatusExcluded, entry.Name
	} else if entry, ok := m.index.Active[record.Key]; ok {
		status, name = StatusActive, entry.Name
	}

	return Result{
		Values: []string{name, record.Key, DomainMFO.Label(status)},
		Status: status,
	}, true
}

// BankMatcher checks registration numbers against the bank license registry.
type BankMatcher struct {
	index      Index
	classifier *Classifier
}

func NewBankMatcher(index Index, classifier *Classifier) *BankMatcher {
	return &BankMatcher{index: index, classifier: classifier}
}

func (m *BankMatcher) Match(record LocalRecord) (Result, bool) {
	if record.Key == "" {
		return Result{}, false
	}

	entry, ok := m.index[record.Key]
	if !ok {
		return Result{
			Values: []string{record.Key, NotFoundBankName, DomainBanks.Label(StatusNotFound)},
			Status: StatusNotFound,
		}, true
	}

	return Result{
		Values: []string{record.Key, entry.Name, entry.Status},
		Status: m.classifier.Run(entry.Status),
	}, true
}
