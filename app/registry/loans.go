package registry

// LoanMatch is a deal from the financial deals report whose list ID belongs
// to a person on the new list.
type LoanMatch struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BirthDate string `json:"birth_date"`
	DealDate  string `json:"deal_date"`
}

type listedPerson struct {
	name      string
	birthDate string
}

// MatchLoans joins the deals report against the new list by list ID. Deals
// without a date are ignored. Dates are rendered as DD.MM.YYYY.
func MatchLoans(newList, deals Grid) []LoanMatch {
	people := make(map[string]listedPerson)
	for row := LoanListSkipRows; row < len(newList); row++ {
		id := cleanCell(newList.Cell(row, LoanListIDColumn))
		if id == "" {
			continue
		}
		people[id] = listedPerson{
			name:      cleanCell(newList.Cell(row, LoanListNameColumn)),
			birthDate: newList.Cell(row, LoanListBirthColumn),
		}
	}

	var matches []LoanMatch
	for row := LoanReportSkipRows; row < len(deals); row++ {
		id := cleanCell(deals.Cell(row, LoanReportIDColumn))
		dealDate := cleanCell(deals.Cell(row, LoanReportDateColumn))
		if id == "" || dealDate == "" {
			continue
		}

		person, ok := people[id]
		if !ok {
			continue
		}
		matches = append(matches, LoanMatch{
			ID:        id,
			Name:      person.name,
			BirthDate: FormatDateRu(person.birthDate),
			DealDate:  FormatDateRu(dealDate),
		})
	}

	return matches
}
