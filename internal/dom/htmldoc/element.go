package htmldoc

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"onyxAgent/internal/dom"

	"golang.org/x/net/html"
)

const (
	defaultWidth  = 120
	defaultHeight = 24
)

var errNoForm = errors.New("элемент вне формы")

type Element struct {
	doc *Document
	n   *html.Node

	value    string
	valueSet bool
}

func (e *Element) Node() *html.Node {
	return e.n
}

// Closest - сам элемент или ближайший предок с тегом tag.
func (e *Element) Closest(tag string) *Element {
	for n := e.n; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.Data == tag {
			return e.doc.wrap(n)
		}
	}
	return nil
}

func (e *Element) TagName() string {
	return strings.ToLower(e.n.Data)
}

func (e *Element) Attr(name string) string {
	v, _ := attr(e.n, name)
	return v
}

func (e *Element) HasAttr(name string) bool {
	_, ok := attr(e.n, name)
	return ok
}

func (e *Element) Type() string {
	t := strings.ToLower(strings.TrimSpace(e.Attr("type")))
	switch e.TagName() {
	case "input":
		if t == "" {
			return "text"
		}
		return t
	case "button":
		switch t {
		case "submit", "reset", "button":
			return t
		}
		return "submit"
	case "textarea":
		return "textarea"
	case "select":
		if e.HasAttr("multiple") {
			return "select-multiple"
		}
		return "select-one"
	}
	return ""
}

func (e *Element) DirectText() string {
	var parts []string
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			if t := strings.TrimSpace(c.Data); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}

func (e *Element) VisibleText() string {
	if !e.attached() || hidden(e.n) {
		return ""
	}
	switch e.TagName() {
	case "input", "select", "textarea":
		return ""
	}
	return innerText(e.n)
}

func (e *Element) Value() string {
	if e.valueSet {
		return e.value
	}
	switch e.TagName() {
	case "input", "button", "li":
		return e.Attr("value")
	case "option":
		if v, ok := attr(e.n, "value"); ok {
			return v
		}
		return strings.TrimSpace(textContent(e.n))
	case "textarea":
		return textContent(e.n)
	case "select":
		var first, selected *html.Node
		walk(e.n, func(n *html.Node) {
			if n.Type == html.ElementNode && n.Data == "option" {
				if first == nil {
					first = n
				}
				if _, ok := attr(n, "selected"); ok && selected == nil {
					selected = n
				}
			}
		})
		if selected == nil {
			selected = first
		}
		if selected == nil {
			return ""
		}
		return e.doc.wrap(selected).Value()
	}
	return ""
}

func (e *Element) ContentEditable() bool {
	for n := e.n; n != nil && n.Type == html.ElementNode; n = n.Parent {
		v, ok := attr(n, "contenteditable")
		if !ok {
			continue
		}
		v = strings.ToLower(v)
		return v == "" || v == "true" || v == "plaintext-only"
	}
	return false
}

func (e *Element) Rect() dom.Rect {
	if !e.attached() || hidden(e.n) {
		return dom.Rect{}
	}
	switch e.TagName() {
	case "head", "script", "style", "title", "meta", "link", "template", "noscript":
		return dom.Rect{}
	}
	w, h := float64(defaultWidth), float64(defaultHeight)
	if v, ok := styleLength(e.n, "width"); ok {
		w = v
	} else if v, err := strconv.ParseFloat(e.Attr("width"), 64); err == nil {
		w = v
	}
	if v, ok := styleLength(e.n, "height"); ok {
		h = v
	} else if v, err := strconv.ParseFloat(e.Attr("height"), 64); err == nil {
		h = v
	}
	return dom.Rect{Width: w, Height: h}
}

func (e *Element) ShadowRoot() dom.Root {
	shadow, ok := e.doc.shadows[e.n]
	if !ok {
		return nil
	}
	return &shadowRoot{doc: e.doc, n: shadow}
}

// Host - хост теневого дерева, в котором лежит элемент, либо nil.
func (e *Element) Host() *Element {
	top := e.n
	for top.Parent != nil {
		top = top.Parent
	}
	if host, ok := e.doc.hostOf[top]; ok {
		return e.doc.wrap(host)
	}
	return nil
}

func (e *Element) Form() dom.Element {
	if f := e.form(); f != nil {
		return f
	}
	return nil
}

func (e *Element) form() *Element {
	if id := e.Attr("form"); id != "" {
		if f := e.doc.First("form#" + cssEscape(id)); f != nil {
			return f
		}
	}
	for n := e.n.Parent; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.Data == "form" {
			return e.doc.wrap(n)
		}
	}
	return nil
}

func (e *Element) Click() error {
	if !e.attached() {
		return dom.ErrDetached
	}
	e.doc.record(func() { e.doc.clicks = append(e.doc.clicks, e) })

	if e.isSubmitControl() {
		if f := e.form(); f != nil {
			return f.Submit()
		}
	}
	if e.doc.OnClick != nil {
		return e.doc.OnClick(e)
	}
	return nil
}

func (e *Element) isSubmitControl() bool {
	switch e.TagName() {
	case "button":
		return e.Type() == "submit"
	case "input":
		t := e.Type()
		return t == "submit" || t == "image"
	}
	return false
}

func (e *Element) Focus() error {
	if !e.attached() {
		return dom.ErrDetached
	}
	e.doc.record(func() { e.doc.focused = e })
	return nil
}

func (e *Element) ScrollIntoView() error {
	if !e.attached() {
		return dom.ErrDetached
	}
	return nil
}

func (e *Element) Dispatch(ev dom.Event) error {
	if !e.attached() {
		return dom.ErrDetached
	}
	e.doc.record(func() { e.doc.events = append(e.doc.events, Fired{Target: e, Event: ev}) })
	return nil
}

func (e *Element) Submit() error {
	if !e.attached() {
		return dom.ErrDetached
	}
	form := e
	if e.TagName() != "form" {
		form = e.form()
	}
	if form == nil {
		return errNoForm
	}
	e.doc.record(func() { e.doc.submissions = append(e.doc.submissions, form) })
	if e.doc.OnSubmit != nil {
		return e.doc.OnSubmit(form)
	}
	return nil
}

func (e *Element) SetValue(text string) error {
	if !e.attached() {
		return dom.ErrDetached
	}
	switch e.TagName() {
	case "input", "textarea", "select":
	default:
		if !e.ContentEditable() {
			return dom.ErrNotWritable
		}
	}
	e.value = text
	e.valueSet = true
	return nil
}

// attached - узел достижим из корня документа (в том числе через теневых хостов).
func (e *Element) attached() bool {
	n := e.n
	for {
		for n.Parent != nil {
			n = n.Parent
		}
		if n == e.doc.root {
			return true
		}
		host, ok := e.doc.hostOf[n]
		if !ok {
			return false
		}
		n = host
	}
}

type shadowRoot struct {
	doc *Document
	n   *html.Node
}

func (s *shadowRoot) QueryAll(selector string) ([]dom.Element, error) {
	return s.doc.query(s.n, selector)
}

var _ dom.Element = (*Element)(nil)
var _ dom.ValueSetter = (*Element)(nil)

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

func walk(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		fn(c)
		walk(c, fn)
	}
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}

var styleRe = regexp.MustCompile(`\s+`)

func styleOf(n *html.Node) string {
	v, _ := attr(n, "style")
	return styleRe.ReplaceAllString(strings.ToLower(v), "")
}

func hidden(n *html.Node) bool {
	for c := n; c != nil && c.Type == html.ElementNode; c = c.Parent {
		if _, ok := attr(c, "hidden"); ok {
			return true
		}
		if c.Data == "input" {
			if t, _ := attr(c, "type"); strings.EqualFold(t, "hidden") {
				return true
			}
		}
		st := styleOf(c)
		if strings.Contains(st, "display:none") || strings.Contains(st, "visibility:hidden") {
			return true
		}
	}
	return false
}

func styleLength(n *html.Node, prop string) (float64, bool) {
	for _, decl := range strings.Split(styleOf(n), ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok || k != prop {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
		if err == nil {
			return f, true
		}
	}
	return 0, false
}

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"main": true, "nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "tr": true, "ul": true,
}

// innerText - приближение к DOM innerText: скрытые узлы и скрипты пропускаются,
// блочные элементы разделяются переводом строки, пробелы схлопываются.
func innerText(n *html.Node) string {
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
			return
		case html.ElementNode:
			switch c.Data {
			case "script", "style", "template", "noscript", "head", "title":
				return
			}
			if hidden(c) {
				return
			}
		}
		block := c.Type == html.ElementNode && blockTags[c.Data]
		if block {
			b.WriteByte('\n')
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			rec(gc)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rec(c)
	}

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if l := strings.Join(strings.Fields(line), " "); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func cssEscape(id string) string {
	var b strings.Builder
	for _, r := range id {
		if r == '-' || r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r > 127 {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('\\')
		b.WriteRune(r)
	}
	return b.String()
}
