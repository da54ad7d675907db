package registry

import (
	"testing"
)

func TestBankClassifier(t *testing.T) {
	classifier := NewBankClassifier()

	tests := []struct {
		name     string
		text     string
		expected Status
	}{
		{"exact active", "Действующая", StatusActive},
		{"exact revoked", "Отозванная", StatusRevoked},
		{"exact cancelled", "Аннулированная", StatusCancelled},
		{"exact liquidation", "Ликвидация", StatusLiquidated},
		{"null sentinel falls to default", "nan", StatusUnknown},
		{"exact with padding", "  Действующая ", StatusActive},
		{"active sentence", "Лицензия действует", StatusActive},
		{"revoked anywhere", "Лицензия ОТОЗВАНА приказом Банка России от 01.02.2024 № ОД-123", StatusRevoked},
		{"revoked lower case", "лицензия отозвана приказом ЦБ №123", StatusRevoked},
		{"cancelled sentence", "Лицензия аннулирована", StatusCancelled},
		{"liquidation in progress", "Кредитная организация в стадии ликвидации", StatusLiquidated},
		{"liquidated", "Ликвидирована", StatusLiquidated},
		{"restricted", "Запрещено привлечение вкладов", StatusRestricted},
		{"compulsory measure", "Применены принудительные меры", StatusRestricted},
		{"limited", "Лицензия ограничена", StatusRestricted},
		{"excluded", "Исключена из реестра", StatusExcluded},
		{"no keywords", "Реорганизация в форме присоединения", StatusUnknown},
		{"empty", "", StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifier.Run(tt.text); got != tt.expected {
				t.Errorf("Expected %s for %q, got %s", tt.expected, tt.text, got)
			}
		})
	}
}

func TestClassifierRuleOrder(t *testing.T) {
	classifier := NewBankClassifier()

	// Both "действующ" and "отозван" appear; the active rule is listed first.
	text := "Действующая ранее лицензия отозвана"
	if got := classifier.Run(text); got != StatusActive {
		t.Errorf("Expected first matching rule to win (active), got %s", got)
	}
}

func TestClassifierCustomRules(t *testing.T) {
	classifier := &Classifier{
		Exact:   map[string]Status{"OK": StatusActive},
		Rules:   []KeywordRule{{Keywords: []string{"СТОП"}, Status: StatusRestricted}},
		Default: StatusNotFound,
	}

	if got := classifier.Run("OK"); got != StatusActive {
		t.Errorf("Expected exact match to give active, got %s", got)
	}
	if got := classifier.Run("полный стоп"); got != StatusRestricted {
		t.Errorf("Expected keyword match to give restricted, got %s", got)
	}
	if got := classifier.Run("ok"); got != StatusNotFound {
		t.Errorf("Expected default for case-mismatched exact entry, got %s", got)
	}
}
