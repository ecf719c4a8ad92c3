package sanitizer

import "regexp"

// patternRule заменяет все совпадения своих выражений на repl.
type patternRule struct {
	name     string
	patterns []*regexp.Regexp
	repl     string
}

func (r *patternRule) Sanitize(text string) string {
	for _, p := range r.patterns {
		text = p.ReplaceAllString(text, r.repl)
	}
	return text
}

func rule(name, repl string, exprs ...string) *patternRule {
	r := &patternRule{name: name, repl: repl}
	for _, e := range exprs {
		r.patterns = append(r.patterns, regexp.MustCompile(e))
	}
	return r
}

// Порядок важен: ключи и токены раньше телефонов, иначе длинные числовые
// хвосты токенов уйдут в [FILTERED_PHONE].
func defaultRules() []SanitizerRule {
	return []SanitizerRule{
		rule("password", `${1}: [FILTERED]`,
			`(?i)(password|пароль|passwd|pwd)\s*[:=]\s*["']?[^"'\s]{3,}["']?`,
			`(?i)(<input[^>]*type=["']password["'][^>]*value=)["'][^"']+["']`,
		),
		rule("token", `${1}[FILTERED]`,
			`(?i)((?:token|токен)\s*[:=]\s*["']?)[a-zA-Z0-9_.-]{20,}`,
			`(?i)(bearer\s+)[a-zA-Z0-9_.-]{20,}`,
			`()\bsk-[a-zA-Z0-9-]{20,}`,
			`()\bpk_[a-zA-Z0-9]{24,}`,
		),
		rule("cookie", `${1}[FILTERED]`,
			`(?i)((?:set-cookie|cookie|куки)\s*[:=]\s*["']?)[^"'\n]{10,}`,
			`(?i)(session[_-]?(?:id|token)\s*[:=]\s*["']?)[a-zA-Z0-9_-]{10,}`,
		),
		rule("apikey", `${1}: [FILTERED]`,
			`(?i)(api[_-]?(?:key|secret|token)|secret[_-]?(?:key|token)|access[_-]?(?:token|key))\s*[:=]\s*["']?[a-zA-Z0-9_-]{20,}["']?`,
		),
		rule("card", `[FILTERED]`,
			`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`,
			`(?i)(?:card[_-]?number|номер[_-]?карты)\s*[:=]\s*["']?\d{13,19}["']?`,
			`(?i)(?:cvv2?|cvc2?)\s*[:=]\s*["']?\d{3,4}["']?`,
		),
		rule("email", `[FILTERED_EMAIL]`,
			`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`,
		),
		rule("phone", `[FILTERED_PHONE]`,
			`\+7\s?\(?\d{3}\)?\s?\d{3}[-.\s]?\d{2}[-.\s]?\d{2}`,
			`\+\d{1,3}[-.\s]\(?\d{2,4}\)?[-.\s]\d{3,4}[-.\s]?\d{2,4}`,
			`(?i)(?:phone|телефон|тел\.)\s*[:=]\s*["']?[+\d\s\-()]{7,}["']?`,
		),
		rule("address", `[FILTERED_ADDRESS]`,
			`(?i)(?:address|адрес)\s*[:=]\s*["']?[^"'\n]{10,}["']?`,
			`[А-Яа-яЁё]+,\s*(?:ул\.?|пр\.?|б-р|ш\.?)\s+[А-Яа-яЁё\s]+,\s*(?:д\.?|дом)\s*\d+`,
		),
	}
}
