// Package resolver превращает нечёткое описание цели ("поле поиска",
// "Sign In button", "#go") в конкретные элементы документа.
package resolver

import "strings"

var stopWords = map[string]struct{}{
	"div": {}, "span": {}, "class": {}, "id": {}, "name": {}, "type": {},
	"input": {}, "button": {}, "a": {}, "href": {}, "src": {}, "data": {},
	"aria": {}, "label": {}, "value": {}, "placeholder": {},
}

// Метасимволы CSS, заменяемые пробелами.
var metaReplacer = strings.NewReplacer(
	"[", " ", "]", " ", "(", " ", ")", " ", "{", " ", "}", " ",
	"#", " ", ".", " ", ">", " ", "~", " ", "+", " ", "*", " ",
	"=", " ", ":", " ", "^", " ", "$", " ", "|", " ", `"`, " ", "'", " ",
)

// Keywords извлекает поисковые токены из описания цели: без метасимволов CSS,
// в нижнем регистре, длиннее одного символа, без стоп-слов. Порядок - порядок
// первого появления, повторы убираются.
func Keywords(target string) []string {
	fields := strings.Fields(metaReplacer.Replace(target))
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		w := strings.ToLower(strings.TrimSpace(f))
		if len([]rune(w)) <= 1 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
