// Package sanitizer вырезает секреты и персональные данные из текста перед
// записью в журнал и БД: пароли, токены, ключи, карты, почту, телефоны.
package sanitizer

import (
	"regexp"
	"strings"
)

type DataSanitizer struct {
	rules []SanitizerRule
}

type SanitizerRule interface {
	Sanitize(text string) string
}

func New() *DataSanitizer {
	return &DataSanitizer{rules: defaultRules()}
}

func (s *DataSanitizer) Sanitize(text string) string {
	if text == "" {
		return text
	}

	result := text
	for _, rule := range s.rules {
		result = rule.Sanitize(result)
	}

	return result
}

var sensitiveSelectorWords = []string{
	"password", "пароль", "token", "api-key", "api_key",
	"email", "phone", "телефон", "address", "адрес",
}

// SanitizeSelector скрывает цели действий, указывающие на чувствительные поля.
func (s *DataSanitizer) SanitizeSelector(selector string) string {
	if selector == "" {
		return selector
	}

	lower := strings.ToLower(selector)
	for _, keyword := range sensitiveSelectorWords {
		if strings.Contains(lower, keyword) {
			return "[FILTERED_SELECTOR]"
		}
	}

	return selector
}

var (
	sensitiveValueWords = []string{
		"password", "пароль", "token", "api", "secret",
		"card", "cvv", "cvc", "expir", "session",
	}
	opaqueValue = regexp.MustCompile(`^[a-zA-Z0-9_-]{21,}$`)
)

// SanitizeValue - для текста, введённого в поле: короткие значения, похожие
// на секрет, скрываются целиком.
func (s *DataSanitizer) SanitizeValue(value string) string {
	if value == "" {
		return value
	}

	if len(value) <= 50 && s.looksLikeSensitiveData(value) {
		return "[FILTERED]"
	}

	return s.Sanitize(value)
}

func (s *DataSanitizer) looksLikeSensitiveData(value string) bool {
	lower := strings.ToLower(value)
	for _, pattern := range sensitiveValueWords {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return opaqueValue.MatchString(value)
}
