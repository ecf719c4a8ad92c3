package browser

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"

	"onyxAgent/internal/dom"
)

var errNoForm = errors.New("у элемента нет формы")

// pageDocument - dom.Document поверх живой страницы Playwright. Хэндлы
// элементов живут до release: браузер вызывает его, выдавая следующий документ.
type pageDocument struct {
	page playwright.Page

	mu      sync.Mutex
	handles []playwright.JSHandle
}

func (d *pageDocument) keep(h playwright.JSHandle) {
	d.mu.Lock()
	d.handles = append(d.handles, h)
	d.mu.Unlock()
}

// release освобождает все хэндлы документа. Ошибки не важны: после
// навигации хэндлы уже недействительны.
func (d *pageDocument) release() {
	d.mu.Lock()
	handles := d.handles
	d.handles = nil
	d.mu.Unlock()
	for _, h := range handles {
		_ = h.Dispose()
	}
}

func (d *pageDocument) QueryAll(selector string) ([]dom.Element, error) {
	arr, err := d.page.EvaluateHandle(queryDocument, selector)
	if err != nil {
		return nil, fmt.Errorf("querySelectorAll(%q): %w", selector, err)
	}
	defer arr.Dispose()
	return d.collectElements(arr)
}

func (d *pageDocument) URL() string {
	return d.page.URL()
}

func (d *pageDocument) Title() string {
	title, err := d.page.Title()
	if err != nil {
		return ""
	}
	return title
}

func (d *pageDocument) BodyText() string {
	v, err := d.page.Evaluate(bodyText)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (d *pageDocument) Scroll() (dom.ScrollState, error) {
	v, err := d.page.Evaluate(readScroll)
	if err != nil {
		return dom.ScrollState{}, err
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return dom.ScrollState{}, fmt.Errorf("неожиданный ответ прокрутки: %T", v)
	}
	return dom.ScrollState{
		Y:            toFloat(m["y"]),
		InnerHeight:  toFloat(m["inner"]),
		ScrollHeight: toFloat(m["height"]),
	}, nil
}

func (d *pageDocument) ScrollTo(y float64) error {
	_, err := d.page.Evaluate(scrollTo, y)
	return err
}

func (d *pageDocument) Highlight(el dom.Element, m dom.Marker) error {
	pe, ok := el.(*pageElement)
	if !ok {
		return fmt.Errorf("элемент не из этой страницы")
	}
	return pe.mutate(highlightElement, m == dom.MarkerOverlay)
}

func (d *pageDocument) ClearHighlights() error {
	_, err := d.page.Evaluate(clearHighlights)
	return err
}

// shadowRoot - открытый теневой корень хоста.
type shadowRoot struct {
	doc *pageDocument
	h   playwright.JSHandle
}

func (r *shadowRoot) QueryAll(selector string) ([]dom.Element, error) {
	arr, err := r.h.EvaluateHandle(queryRoot, selector)
	if err != nil {
		return nil, fmt.Errorf("querySelectorAll(%q): %w", selector, err)
	}
	defer arr.Dispose()
	return r.doc.collectElements(arr)
}

// collectElements разбирает JS-массив элементов: описания одним вызовом,
// затем хэндлы по индексам.
func (d *pageDocument) collectElements(arr playwright.JSHandle) ([]dom.Element, error) {
	raw, err := arr.Evaluate(describeAll)
	if err != nil {
		return nil, err
	}
	infos, _ := raw.([]interface{})

	props, err := arr.GetProperties()
	if err != nil {
		return nil, err
	}
	handles := make(map[int]playwright.ElementHandle, len(props))
	keys := make([]int, 0, len(props))
	for k, p := range props {
		i, err := strconv.Atoi(k)
		el := p.AsElement()
		if err != nil || el == nil {
			_ = p.Dispose()
			continue
		}
		d.keep(el)
		handles[i] = el
		keys = append(keys, i)
	}
	sort.Ints(keys)

	out := make([]dom.Element, 0, len(keys))
	for _, i := range keys {
		pe := &pageElement{doc: d, h: handles[i]}
		if i < len(infos) {
			pe.info, pe.fresh = parseInfo(infos[i]), true
		}
		out = append(out, pe)
	}
	return out, nil
}

type elementInfo struct {
	tag, typ      string
	attrs         map[string]string
	direct, text  string
	value         string
	editable      bool
	rect          dom.Rect
	hasShadowRoot bool
}

func parseInfo(v interface{}) elementInfo {
	m, _ := v.(map[string]interface{})
	info := elementInfo{
		tag:           str(m["tag"]),
		typ:           str(m["type"]),
		attrs:         map[string]string{},
		direct:        str(m["direct"]),
		text:          str(m["text"]),
		value:         str(m["value"]),
		editable:      m["editable"] == true,
		hasShadowRoot: m["shadow"] == true,
		rect: dom.Rect{
			X:      toFloat(m["x"]),
			Y:      toFloat(m["y"]),
			Width:  toFloat(m["w"]),
			Height: toFloat(m["h"]),
		},
	}
	if attrs, ok := m["attrs"].(map[string]interface{}); ok {
		for k, v := range attrs {
			info.attrs[k] = str(v)
		}
	}
	return info
}

// pageElement - dom.Element поверх ElementHandle. Чтения идут из снимка,
// любая мутация помечает снимок устаревшим.
type pageElement struct {
	doc   *pageDocument
	h     playwright.ElementHandle
	info  elementInfo
	fresh bool
}

func (e *pageElement) snapshot() elementInfo {
	if !e.fresh {
		v, err := e.h.Evaluate(describeElement)
		if err != nil {
			return elementInfo{attrs: map[string]string{}}
		}
		e.info, e.fresh = parseInfo(v), true
	}
	return e.info
}

func (e *pageElement) TagName() string         { return e.snapshot().tag }
func (e *pageElement) Attr(name string) string { return e.snapshot().attrs[strings.ToLower(name)] }
func (e *pageElement) Type() string            { return e.snapshot().typ }
func (e *pageElement) DirectText() string      { return e.snapshot().direct }
func (e *pageElement) VisibleText() string     { return e.snapshot().text }
func (e *pageElement) Value() string           { return e.snapshot().value }
func (e *pageElement) ContentEditable() bool   { return e.snapshot().editable }
func (e *pageElement) Rect() dom.Rect          { return e.snapshot().rect }

func (e *pageElement) ShadowRoot() dom.Root {
	if !e.snapshot().hasShadowRoot {
		return nil
	}
	h, err := e.h.EvaluateHandle(shadowOf)
	if err != nil {
		return nil
	}
	e.doc.keep(h)
	return &shadowRoot{doc: e.doc, h: h}
}

func (e *pageElement) Form() dom.Element {
	h, err := e.h.EvaluateHandle(formOf)
	if err != nil {
		return nil
	}
	el := h.AsElement()
	if el == nil {
		_ = h.Dispose()
		return nil
	}
	e.doc.keep(el)
	return &pageElement{doc: e.doc, h: el}
}

func (e *pageElement) Click() error          { return e.mutate(clickElement) }
func (e *pageElement) Focus() error          { return e.mutate(focusElement) }
func (e *pageElement) ScrollIntoView() error { return e.mutate(scrollElement) }

func (e *pageElement) Dispatch(ev dom.Event) error {
	return e.mutate(dispatchEvent, map[string]interface{}{
		"type":    ev.Type,
		"key":     ev.Key,
		"code":    ev.Code,
		"keyCode": ev.KeyCode,
	})
}

func (e *pageElement) Submit() error {
	e.fresh = false
	v, err := e.h.Evaluate(submitForm)
	if err != nil {
		if navigated(err) {
			return nil
		}
		return err
	}
	switch v {
	case nil:
		return errNoForm
	case false:
		return dom.ErrDetached
	}
	return nil
}

func (e *pageElement) SetValue(text string) error {
	return e.write(assignValue, text)
}

func (e *pageElement) write(script, text string) error {
	e.fresh = false
	v, err := e.h.Evaluate(script, text)
	if err != nil {
		return err
	}
	switch v {
	case "ok":
		return nil
	case "detached":
		return dom.ErrDetached
	}
	return dom.ErrNotWritable
}

func (e *pageElement) mutate(script string, arg ...interface{}) error {
	e.fresh = false
	v, err := e.h.Evaluate(script, arg...)
	if err != nil {
		if navigated(err) {
			return nil
		}
		return err
	}
	if v == false {
		return dom.ErrDetached
	}
	return nil
}

// navigated - вызов оборвала навигация, которую он сам и запустил.
func navigated(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Execution context was destroyed") ||
		strings.Contains(msg, "because of a navigation")
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

// Playwright отдаёт целые числа как int, дробные как float64.
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
