package executor

import (
	"strings"
	"unicode/utf8"

	"onyxAgent/internal/dom"
)

const (
	digestInputs    = 15
	digestButtons   = 10
	digestLinks     = 20
	digestBodyText  = 40000
	fallbackBodyLen = 50000
)

// Digest собирает сжатое описание страницы для модели: заголовок, адрес,
// поля ввода, кнопки, ссылки и начало видимого текста. При любой ошибке
// возвращает просто видимый текст.
func Digest(doc dom.Document) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = truncate(doc.BodyText(), fallbackBodyLen)
		}
	}()

	s, err := digest(doc)
	if err != nil {
		return truncate(doc.BodyText(), fallbackBodyLen)
	}
	return s
}

func digest(doc dom.Document) (string, error) {
	parts := []string{
		"PAGE: " + doc.Title(),
		"URL: " + doc.URL(),
	}

	inputs, err := doc.QueryAll(`input:not([type="hidden"]), textarea, select`)
	if err != nil {
		return "", err
	}
	if len(inputs) > 0 {
		parts = append(parts, "\nINPUT FIELDS:")
		for _, el := range head(inputs, digestInputs) {
			parts = append(parts, describeInput(el))
		}
	}

	buttons, err := doc.QueryAll(`button, input[type="submit"], [role="button"]`)
	if err != nil {
		return "", err
	}
	if len(buttons) > 0 {
		parts = append(parts, "\nBUTTONS:")
		for _, el := range head(buttons, digestButtons) {
			t := strings.TrimSpace(firstNonEmpty(el.VisibleText(), el.Value(), el.Attr("aria-label")))
			if t != "" && utf8.RuneCountInString(t) < 50 {
				parts = append(parts, "  - "+t)
			}
		}
	}

	links, err := doc.QueryAll(`a[href]`)
	if err != nil {
		return "", err
	}
	var lt []string
	for _, el := range links {
		if len(lt) >= digestLinks {
			break
		}
		t := strings.TrimSpace(el.VisibleText())
		if n := utf8.RuneCountInString(t); n > 2 && n < 80 {
			lt = append(lt, "  - "+t)
		}
	}
	if len(lt) > 0 {
		parts = append(parts, "\nKEY LINKS:", strings.Join(lt, "\n"))
	}

	parts = append(parts, "\nPAGE TEXT:\n"+truncate(doc.BodyText(), digestBodyText))
	return strings.Join(parts, "\n"), nil
}

func describeInput(el dom.Element) string {
	name := firstNonEmpty(el.Attr("name"), el.Attr("id"), firstField(el.Attr("class")))
	ph := el.Attr("placeholder")
	typ := firstNonEmpty(el.Type(), el.TagName())

	line := "  - " + typ + ": " + firstNonEmpty(name, ph, "unnamed")
	if ph != "" {
		line += " (placeholder: " + ph + ")"
	}
	return line
}

func head(els []dom.Element, n int) []dom.Element {
	if len(els) > n {
		return els[:n]
	}
	return els
}

func firstField(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
