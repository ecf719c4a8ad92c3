package resolver

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"onyxAgent/internal/dom"
)

// ClickPool - элементы, которые имеет смысл нажимать.
const ClickPool = `button, a, input, [role="button"], [role="link"], [role="tab"], [role="menuitem"], summary, label, select, textarea`

const (
	ClickScored   = "scored-text-match"
	ClickSmartDOM = "smart-dom"
	ClickCSS      = "css-selector"
)

// ErrNotFound - ни одна стратегия не нашла элемент.
var ErrNotFound = errors.New("элемент не найден")

// Scored - кандидат с оценкой и сработавшими правилами.
type Scored struct {
	Element dom.Element
	Score   int
	Signals []string
}

// ScoreForClick оценивает элемент как цель клика по фразе. -1 означает, что
// фраза не встречается ни в тексте, ни в value, aria-label или title.
func ScoreForClick(el dom.Element, phrase string) Scored {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	s := Scored{Element: el, Score: -1}
	if phrase == "" {
		return s
	}

	direct := lowerTrim(el.DirectText())
	text := lowerTrim(el.VisibleText())
	value := lowerTrim(el.Value())
	aria := lowerTrim(el.Attr("aria-label"))
	title := lowerTrim(el.Attr("title"))

	if !strings.Contains(direct, phrase) && !strings.Contains(text, phrase) &&
		!strings.Contains(value, phrase) && !strings.Contains(aria, phrase) &&
		!strings.Contains(title, phrase) {
		return s
	}

	s.Score = 0
	add := func(points int, signal string) {
		s.Score += points
		s.Signals = append(s.Signals, signal)
	}

	if direct == phrase || text == phrase || value == phrase || aria == phrase {
		add(100, "exact")
	}

	tag := el.TagName()
	typ := el.Type()
	switch tag {
	case "button":
		add(50, "tag:button")
	case "a":
		add(50, "tag:a")
	case "summary":
		add(30, "tag:summary")
	case "label":
		add(20, "tag:label")
	}
	if strings.EqualFold(el.Attr("role"), "button") {
		add(40, "role:button")
	}
	if typ == "submit" {
		add(40, "type:submit")
	}

	if tag == "input" && typ != "submit" && typ != "button" {
		add(-20, "penalty:text-input")
	}
	if tag == "textarea" {
		add(-30, "penalty:textarea")
	}

	if el.Rect().Visible() {
		add(10, "visible")
	}
	return s
}

// RankForClick оценивает кандидатов и оставляет только положительные, по
// убыванию оценки. При равенстве сохраняется порядок документа.
func RankForClick(candidates []dom.Element, phrase string) []Scored {
	var out []Scored
	for _, el := range candidates {
		if s := ScoreForClick(el, phrase); s.Score > 0 {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// ClickPick - выбранная цель клика.
type ClickPick struct {
	Element  dom.Element
	Strategy string
	Score    int
}

// PickClickTarget: оценка пула → каскад Resolve по фразе в нижнем регистре →
// фраза как сырой CSS-селектор.
func PickClickTarget(root dom.Root, phrase string) (ClickPick, error) {
	lower := strings.ToLower(phrase)

	if pool, err := root.QueryAll(ClickPool); err == nil {
		if ranked := RankForClick(pool, lower); len(ranked) > 0 {
			return ClickPick{Element: ranked[0].Element, Strategy: ClickScored, Score: ranked[0].Score}, nil
		}
	}

	if m := Resolve(root, lower); m.Found() {
		return ClickPick{Element: m.First(), Strategy: ClickSmartDOM}, nil
	}

	if els, err := root.QueryAll(phrase); err == nil && len(els) > 0 {
		return ClickPick{Element: els[0], Strategy: ClickCSS}, nil
	}

	return ClickPick{}, fmt.Errorf("%w: %q", ErrNotFound, lower)
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
