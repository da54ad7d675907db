package registry

import (
	"strings"
)

// KeywordRule tags a status text when it contains any of Keywords.
// Keywords are matched against the upper-cased text.
type KeywordRule struct {
	Keywords []string
	Status   Status
}

// Classifier maps free-text registry status strings to canonical tags:
// exact lookup first, then the first matching keyword rule, then Default.
type Classifier struct {
	Exact   map[string]Status
	Rules   []KeywordRule
	Default Status
}

// NewBankClassifier returns the classifier for bank license statuses.
func NewBankClassifier() *Classifier {
	return &Classifier{
		Exact: map[string]Status{
			"Действующая":    StatusActive,
			"Отозванная":     StatusRevoked,
			"Аннулированная": StatusCancelled,
			"Ликвидация":     StatusLiquidated,
		},
		Rules: []KeywordRule{
			{Keywords: []string{"ДЕЙСТВУЕТ", "ДЕЙСТВУЮЩ"}, Status: StatusActive},
			{Keywords: []string{"ОТОЗВАН"}, Status: StatusRevoked},
			{Keywords: []string{"АННУЛИРОВАН"}, Status: StatusCancelled},
			{Keywords: []string{"ЛИКВИДАЦ", "ЛИКВИДИР"}, Status: StatusLiquidated},
			{Keywords: []string{"ЗАПРЕЩ", "ОГРАНИЧЕН", "ПРИНУДИТЕЛЬН"}, Status: StatusRestricted},
			{Keywords: []string{"ИСКЛЮЧ"}, Status: StatusExcluded},
		},
		Default: StatusUnknown,
	}
}

func (c *Classifier) Run(text string) Status {
	trimmed := strings.TrimSpace(text)
	if status, ok := c.Exact[trimmed]; ok {
		return status
	}

	upper := NormalizeName(trimmed)
	for _, rule := range c.Rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(upper, keyword) {
				return rule.Status
			}
		}
	}

	return c.Default
}
