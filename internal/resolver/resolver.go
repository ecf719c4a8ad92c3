package resolver

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"onyxAgent/internal/dom"
)

type Strategy string

const (
	StrategyExact     Strategy = "exact-css"
	StrategyAttribute Strategy = "attribute-match"
	StrategyText      Strategy = "text-match"
	StrategyNone      Strategy = "none"
)

const (
	textMatchLimit  = 20
	textMatchPrefix = 200
)

var matchAttrs = []string{"id", "name", "aria-label", "placeholder", "title", "alt", "data-testid", "role"}

var textTags = map[string]struct{}{
	"a": {}, "button": {}, "label": {}, "span": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"li": {}, "td": {}, "th": {}, "p": {}, "summary": {},
	"input": {}, "select": {}, "textarea": {}, "option": {},
}

// Match - результат каскада. Elements непуст тогда и только тогда, когда
// Strategy != StrategyNone.
type Match struct {
	Elements []dom.Element
	Strategy Strategy
	Detail   string
}

func (m Match) Found() bool {
	return len(m.Elements) > 0
}

// First - первый найденный элемент или nil.
func (m Match) First() dom.Element {
	if len(m.Elements) == 0 {
		return nil
	}
	return m.Elements[0]
}

func none(detail string) Match {
	return Match{Strategy: StrategyNone, Detail: detail}
}

// Resolve ищет элементы по описанию цели. Стратегии идут строго по порядку,
// первая давшая хотя бы один элемент побеждает:
//  1. target как CSS-селектор (ошибка синтаксиса = нет совпадений);
//  2. атрибуты всех элементов, включая теневые деревья;
//  3. текст элементов из белого списка тегов.
//
// Никогда не паникует и не возвращает ошибку.
func Resolve(root dom.Root, target string) (m Match) {
	defer func() {
		if r := recover(); r != nil {
			m = none(fmt.Sprintf("сбой поиска: %v", r))
		}
	}()

	if els, err := root.QueryAll(target); err == nil && len(els) > 0 {
		return Match{Elements: els, Strategy: StrategyExact, Detail: target}
	}

	keywords := Keywords(target)
	if len(keywords) == 0 {
		return none("нет ключевых слов")
	}

	all, err := dom.AllElements(root)
	if err != nil {
		return none(fmt.Sprintf("перечисление элементов: %v", err))
	}

	if els := attributeMatch(all, keywords); len(els) > 0 {
		return Match{Elements: els, Strategy: StrategyAttribute, Detail: strings.Join(matchAttrs, "/")}
	}
	if els := textMatch(all, keywords); len(els) > 0 {
		return Match{Elements: els, Strategy: StrategyText, Detail: "direct text/visible text/value"}
	}
	return none("ни селектор, ни атрибуты, ни текст не подошли")
}

func attributeMatch(all []dom.Element, keywords []string) []dom.Element {
	var out []dom.Element
	for _, el := range all {
		for _, name := range matchAttrs {
			if containsAny(strings.ToLower(el.Attr(name)), keywords) {
				out = append(out, el)
				break
			}
		}
	}
	return out
}

func textMatch(all []dom.Element, keywords []string) []dom.Element {
	type hit struct {
		el     dom.Element
		length int
	}
	var hits []hit
	for _, el := range all {
		if _, ok := textTags[el.TagName()]; !ok {
			continue
		}
		direct := strings.ToLower(el.DirectText())
		full := truncateRunes(strings.ToLower(dom.Text(el)), textMatchPrefix)
		if containsAny(direct, keywords) || containsAny(full, keywords) {
			hits = append(hits, hit{el: el, length: utf8.RuneCountInString(el.VisibleText())})
		}
	}

	// Самый короткий текст - самый конкретный.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].length < hits[j].length })
	if len(hits) > textMatchLimit {
		hits = hits[:textMatchLimit]
	}

	out := make([]dom.Element, len(hits))
	for i, h := range hits {
		out[i] = h.el
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	if s == "" {
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
