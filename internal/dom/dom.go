// Package dom описывает поверхность документа, с которой работают резолвер и
// исполнитель действий: запросы по селектору, теневые корни, геометрия,
// синтетические события. Реализации: живая страница Playwright
// (internal/browser) и разобранный HTML в памяти (internal/dom/htmldoc).
package dom

import (
	"errors"
	"strings"
)

var (
	// ErrDetached возвращается мутациями элемента, который исчез из документа.
	ErrDetached = errors.New("элемент больше не в документе")
	// ErrNotWritable - элемент не принимает значение.
	ErrNotWritable = errors.New("элемент не поддерживает запись значения")
)

type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Visible - ненулевая ширина и высота.
func (r Rect) Visible() bool {
	return r.Width > 0 && r.Height > 0
}

func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// Root - всё, по чему можно искать: документ или теневой корень.
type Root interface {
	// QueryAll возвращает элементы в порядке документа. Синтаксическая ошибка
	// селектора возвращается как error.
	QueryAll(selector string) ([]Element, error)
}

// Element - ссылка на узел живого дерева. Методы чтения для отсоединённого
// узла возвращают нулевые значения, мутации возвращают ошибку.
type Element interface {
	TagName() string // в нижнем регистре
	Attr(name string) string
	Type() string // DOM-свойство type: input → "text", button → "submit" по умолчанию
	DirectText() string
	VisibleText() string
	Value() string
	ContentEditable() bool
	Rect() Rect
	ShadowRoot() Root
	Form() Element

	Click() error
	Focus() error
	ScrollIntoView() error
	Dispatch(ev Event) error
	Submit() error // для формы; у прочих элементов ищется ближайшая форма
}

type ScrollState struct {
	Y            float64
	InnerHeight  float64
	ScrollHeight float64
}

// Max - максимальная позиция прокрутки.
func (s ScrollState) Max() float64 {
	if m := s.ScrollHeight - s.InnerHeight; m > 0 {
		return m
	}
	return 0
}

type Marker int

const (
	MarkerOutline Marker = iota
	MarkerOverlay
)

func (m Marker) String() string {
	if m == MarkerOverlay {
		return "overlay"
	}
	return "outline"
}

// MarkerFor выбирает вид подсветки: замещаемые элементы не рисуют outline.
func MarkerFor(tag string) Marker {
	switch strings.ToLower(tag) {
	case "img", "canvas", "video", "svg":
		return MarkerOverlay
	}
	return MarkerOutline
}

type Document interface {
	Root
	URL() string
	Title() string
	BodyText() string
	Scroll() (ScrollState, error)
	ScrollTo(y float64) error
	Highlight(el Element, m Marker) error
	ClearHighlights() error
}

type Event struct {
	Type    string
	Key     string
	Code    string
	KeyCode int
}

func Simple(typ string) Event {
	return Event{Type: typ}
}

func EnterKey(typ string) Event {
	return Event{Type: typ, Key: "Enter", Code: "Enter", KeyCode: 13}
}

// AllElements перечисляет элементы корня и, рекурсивно, всех теневых деревьев.
// Порядок: сначала светлое дерево корня, затем содержимое теневых корней в
// порядке обнаружения хостов.
func AllElements(root Root) ([]Element, error) {
	var out []Element
	if err := collect(root, &out, 0); err != nil {
		return out, err
	}
	return out, nil
}

const maxShadowDepth = 32

func collect(root Root, out *[]Element, depth int) error {
	if root == nil || depth > maxShadowDepth {
		return nil
	}
	els, err := root.QueryAll("*")
	if err != nil {
		return err
	}
	*out = append(*out, els...)
	for _, el := range els {
		if sr := el.ShadowRoot(); sr != nil {
			if err := collect(sr, out, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// Text - visibleText, а если он пуст, value. Как innerText || value.
func Text(el Element) string {
	if t := el.VisibleText(); t != "" {
		return t
	}
	return el.Value()
}
