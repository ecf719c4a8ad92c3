// Package htmldoc - документ в памяти поверх golang.org/x/net/html и goquery.
// Поддерживает декларативный shadow DOM (<template shadowrootmode>), запись
// значений, синтетические события и прокрутку. Используется статическим
// браузером и тестами резолвера.
package htmldoc

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"onyxAgent/internal/dom"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

const defaultInnerHeight = 800

// Fired - запись о синтетическом событии.
type Fired struct {
	Target *Element
	Event  dom.Event
}

// Mark - наложенная подсветка.
type Mark struct {
	Target *Element
	Marker dom.Marker
}

type Document struct {
	url  string
	root *html.Node

	mu       sync.Mutex
	elements map[*html.Node]*Element
	shadows  map[*html.Node]*html.Node // хост → теневой корень
	hostOf   map[*html.Node]*html.Node // теневой корень → хост

	scrollY      float64
	innerHeight  float64
	scrollHeight float64

	focused     *Element
	marks       []Mark
	events      []Fired
	clicks      []*Element
	submissions []*Element

	// OnClick вызывается после клика по элементу (переход по ссылке и т.п.).
	OnClick func(el *Element) error
	// OnSubmit вызывается при отправке формы.
	OnSubmit func(form *Element) error
}

func Parse(r io.Reader, url string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("разбор HTML: %w", err)
	}

	d := &Document{
		url:          url,
		root:         root,
		elements:     make(map[*html.Node]*Element),
		shadows:      make(map[*html.Node]*html.Node),
		hostOf:       make(map[*html.Node]*html.Node),
		innerHeight:  defaultInnerHeight,
		scrollHeight: defaultInnerHeight,
	}
	d.attachShadowRoots(root)
	return d, nil
}

func ParseString(src, url string) (*Document, error) {
	return Parse(strings.NewReader(src), url)
}

// MustParse - для тестов.
func MustParse(src string) *Document {
	d, err := ParseString(src, "about:blank")
	if err != nil {
		panic(err)
	}
	return d
}

// attachShadowRoots отцепляет <template shadowrootmode> от родителя и делает
// его содержимое теневым корнем родителя. Вложенные шаблоны обрабатываются
// рекурсивно.
func (d *Document) attachShadowRoots(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if isShadowTemplate(c) && n.Type == html.ElementNode && d.shadows[n] == nil {
			shadow := &html.Node{Type: html.DocumentNode}
			for gc := c.FirstChild; gc != nil; {
				gnext := gc.NextSibling
				c.RemoveChild(gc)
				shadow.AppendChild(gc)
				gc = gnext
			}
			n.RemoveChild(c)
			d.shadows[n] = shadow
			d.hostOf[shadow] = n
			d.attachShadowRoots(shadow)
		} else {
			d.attachShadowRoots(c)
		}
		c = next
	}
}

func isShadowTemplate(n *html.Node) bool {
	if n.Type != html.ElementNode || n.Data != "template" {
		return false
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, "shadowrootmode") || strings.EqualFold(a.Key, "shadowroot") {
			return true
		}
	}
	return false
}

func (d *Document) QueryAll(selector string) ([]dom.Element, error) {
	return d.query(d.root, selector)
}

func (d *Document) query(n *html.Node, selector string) ([]dom.Element, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("некорректный селектор %q: %w", selector, err)
	}

	sel := goquery.NewDocumentFromNode(n).FindMatcher(matcher)
	out := make([]dom.Element, 0, sel.Length())
	for _, node := range sel.Nodes {
		out = append(out, d.wrap(node))
	}
	return out, nil
}

// Select - то же, что QueryAll, но с конкретным типом (для тестов и статического браузера).
func (d *Document) Select(selector string) []*Element {
	els, _ := d.QueryAll(selector)
	out := make([]*Element, 0, len(els))
	for _, el := range els {
		out = append(out, el.(*Element))
	}
	return out
}

// First возвращает первый элемент по селектору или nil.
func (d *Document) First(selector string) *Element {
	if els := d.Select(selector); len(els) > 0 {
		return els[0]
	}
	return nil
}

func (d *Document) wrap(n *html.Node) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.elements[n]; ok {
		return el
	}
	el := &Element{doc: d, n: n}
	d.elements[n] = el
	return el
}

func (d *Document) URL() string {
	return d.url
}

func (d *Document) Title() string {
	return strings.TrimSpace(goquery.NewDocumentFromNode(d.root).Find("title").First().Text())
}

func (d *Document) BodyText() string {
	body := goquery.NewDocumentFromNode(d.root).Find("body").First()
	if body.Length() == 0 {
		return ""
	}
	return innerText(body.Get(0))
}

// SetViewport задаёт высоту окна и полную высоту документа.
func (d *Document) SetViewport(innerHeight, scrollHeight float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.innerHeight = innerHeight
	d.scrollHeight = scrollHeight
}

func (d *Document) Scroll() (dom.ScrollState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return dom.ScrollState{Y: d.scrollY, InnerHeight: d.innerHeight, ScrollHeight: d.scrollHeight}, nil
}

func (d *Document) ScrollTo(y float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	state := dom.ScrollState{InnerHeight: d.innerHeight, ScrollHeight: d.scrollHeight}
	switch {
	case y < 0:
		y = 0
	case y > state.Max():
		y = state.Max()
	}
	d.scrollY = y
	return nil
}

func (d *Document) Highlight(el dom.Element, m dom.Marker) error {
	e, ok := el.(*Element)
	if !ok || e.doc != d {
		return fmt.Errorf("элемент из другого документа")
	}
	if !e.attached() {
		return dom.ErrDetached
	}
	d.mu.Lock()
	d.marks = append(d.marks, Mark{Target: e, Marker: m})
	d.mu.Unlock()
	return nil
}

func (d *Document) ClearHighlights() error {
	d.mu.Lock()
	d.marks = nil
	d.mu.Unlock()
	return nil
}

func (d *Document) Marks() []Mark {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Mark(nil), d.marks...)
}

func (d *Document) Events() []Fired {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Fired(nil), d.events...)
}

func (d *Document) Clicks() []*Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Element(nil), d.clicks...)
}

func (d *Document) Submissions() []*Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Element(nil), d.submissions...)
}

func (d *Document) Focused() *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.focused
}

// Remove вырезает элемент из дерева (имитация изменения страницы).
func (d *Document) Remove(el *Element) {
	if el.n.Parent != nil {
		el.n.Parent.RemoveChild(el.n)
	}
}

func (d *Document) record(f func()) {
	d.mu.Lock()
	f()
	d.mu.Unlock()
}

var _ dom.Document = (*Document)(nil)
