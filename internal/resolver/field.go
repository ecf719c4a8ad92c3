package resolver

import (
	"errors"
	"sort"
	"strings"

	"onyxAgent/internal/dom"
)

const (
	fieldAttrPool    = `input, textarea, [contenteditable="true"]`
	fieldLargestPool = `input[type="text"], input[type="search"], input:not([type]), textarea, [role="searchbox"], [role="textbox"]`

	FieldExact   = "exact-css"
	FieldAttr    = "input-attribute-match"
	FieldLargest = "largest-visible-input"
)

// ErrNoField - на странице нет подходящего поля ввода.
var ErrNoField = errors.New("поле ввода не найдено")

var skipFieldTypes = map[string]struct{}{
	"hidden": {}, "submit": {}, "button": {}, "checkbox": {}, "radio": {},
}

type FieldPick struct {
	Element  dom.Element
	Strategy string
}

// SelectField ищет поле для ввода текста:
//  1. селектор, но только input/textarea/contenteditable;
//  2. вхождение цели в name/id/placeholder/aria-label/type/class видимых полей;
//  3. самое большое видимое текстовое поле.
func SelectField(root dom.Root, target string) (FieldPick, error) {
	target = strings.ToLower(target)

	if els, err := root.QueryAll(target); err == nil {
		for _, el := range els {
			if isTextEntry(el) {
				return FieldPick{Element: el, Strategy: FieldExact}, nil
			}
		}
	}

	if pool, err := root.QueryAll(fieldAttrPool); err == nil {
		for _, el := range pool {
			if !el.Rect().Visible() {
				continue
			}
			if _, skip := skipFieldTypes[el.Type()]; skip {
				continue
			}
			if strings.Contains(fieldSignature(el), target) {
				return FieldPick{Element: el, Strategy: FieldAttr}, nil
			}
		}
	}

	if pool, err := root.QueryAll(fieldLargestPool); err == nil {
		var visible []dom.Element
		for _, el := range pool {
			r := el.Rect()
			if r.Width > 50 && r.Height > 10 {
				visible = append(visible, el)
			}
		}
		sort.SliceStable(visible, func(i, j int) bool {
			return visible[i].Rect().Area() > visible[j].Rect().Area()
		})
		if len(visible) > 0 {
			return FieldPick{Element: visible[0], Strategy: FieldLargest}, nil
		}
	}

	return FieldPick{}, ErrNoField
}

func isTextEntry(el dom.Element) bool {
	switch el.TagName() {
	case "input", "textarea":
		return true
	}
	return el.ContentEditable()
}

func fieldSignature(el dom.Element) string {
	parts := make([]string, 0, 6)
	for _, v := range []string{
		el.Attr("name"), el.Attr("id"), el.Attr("placeholder"),
		el.Attr("aria-label"), el.Type(), el.Attr("class"),
	} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}
