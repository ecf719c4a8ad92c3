// Package executor выполняет команды модели над документом: переход, клик,
// ввод, прокрутка, сбор текста, подсветка, сводка страницы.
package executor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"onyxAgent/internal/dom"
	"onyxAgent/internal/llm"
	"onyxAgent/internal/resolver"

	"go.uber.org/zap"
)

// Surface - источник документа и навигации.
type Surface interface {
	// Load начинает загрузку. Канал получает nil при успешной загрузке или
	// ошибку провала; может не получить ничего.
	Load(ctx context.Context, url string) (<-chan error, error)
	Document(ctx context.Context) (dom.Document, error)
}

type Options struct {
	NavigateTimeout time.Duration
	ClickDelay      time.Duration
	SubmitDelay     time.Duration
	Writer          dom.ValueWriter
	Log             *zap.Logger
}

type Executor struct {
	surface Surface
	opts    Options
	log     *zap.Logger
}

func New(surface Surface, opts Options) *Executor {
	if opts.NavigateTimeout <= 0 {
		opts.NavigateTimeout = 10 * time.Second
	}
	if opts.Writer == nil {
		opts.Writer = dom.AssignWriter{}
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Executor{surface: surface, opts: opts, log: opts.Log}
}

// Execute выполняет одну команду. Паники и ошибки поверхности превращаются в
// Outcome с KindError.
func (e *Executor) Execute(ctx context.Context, cmd llm.Command) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Паника при выполнении действия", zap.String("tool", string(cmd.Tool)), zap.Any("panic", r))
			out = failed("Crash prevented: %v", r)
		}
	}()

	switch cmd.Tool {
	case llm.ToolNavigate:
		return e.navigate(ctx, cmd.Params.String("url"))
	case llm.ToolAnswer, llm.ToolChat:
		return ok("%s", cmd.Text())
	}

	doc, err := e.surface.Document(ctx)
	if err != nil || doc == nil {
		e.log.Warn("Нет активной страницы", zap.Error(err))
		return failed("No active page.")
	}

	switch cmd.Tool {
	case llm.ToolScrape:
		return e.scrape(doc, cmd.Target())
	case llm.ToolHighlight:
		return e.highlight(doc, cmd.Target())
	case llm.ToolClick:
		return e.click(ctx, doc, cmd.Target())
	case llm.ToolType:
		return e.typeText(ctx, doc, cmd.Target(), cmd.Params.String("text"))
	case llm.ToolScroll:
		return e.scroll(doc, cmd.Params.String("direction"))
	case llm.ToolReadSummary:
		return ok("%s", Digest(doc))
	}
	return failed("Unknown tool: %s", cmd.Tool)
}

// ReadPage - сводка текущей страницы для очередного шага агента.
func (e *Executor) ReadPage(ctx context.Context) (string, error) {
	doc, err := e.surface.Document(ctx)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", errors.New("нет активной страницы")
	}
	return Digest(doc), nil
}

func (e *Executor) navigate(ctx context.Context, url string) Outcome {
	lower := strings.ToLower(url)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return failed("Invalid URL: %s", url)
	}

	done, err := e.surface.Load(ctx, url)
	if err != nil {
		return failed("Navigation failed: %v", err)
	}

	timer := time.NewTimer(e.opts.NavigateTimeout)
	defer timer.Stop()

	status := "loaded"
	select {
	case <-ctx.Done():
		return failed("Navigation failed: %v", ctx.Err())
	case <-timer.C:
		status = "timeout"
	case loadErr := <-done:
		if loadErr != nil {
			status = "error: " + loadErr.Error()
		}
	}

	title := url
	if doc, err := e.surface.Document(ctx); err == nil && doc != nil {
		if t := doc.Title(); t != "" {
			title = t
		}
	}
	e.log.Info("Переход выполнен", zap.String("url", url), zap.String("status", status))
	return ok("Navigated to %q (%s)", title, status)
}

func (e *Executor) scrape(doc dom.Document, selector string) Outcome {
	m := resolver.Resolve(doc, selector)
	if !m.Found() {
		return notFound("Could not find '%s' via selector, text, or attributes.", selector)
	}

	data := make([]string, 0, len(m.Elements))
	for _, el := range m.Elements {
		if t := strings.TrimSpace(dom.Text(el)); t != "" {
			data = append(data, t)
		}
		if len(data) == 100 {
			break
		}
	}
	if len(data) == 0 {
		return Outcome{
			Kind:     KindOK,
			Text:     fmt.Sprintf("No text content found for %q (searched via %s).", selector, m.Strategy),
			Strategy: string(m.Strategy),
		}
	}
	return Outcome{Kind: KindOK, Items: data, Strategy: string(m.Strategy)}
}

func (e *Executor) highlight(doc dom.Document, selector string) Outcome {
	m := resolver.Resolve(doc, selector)
	if !m.Found() {
		return notFound("Could not find '%s' via selector, text, or attributes.", selector)
	}

	if err := doc.ClearHighlights(); err != nil {
		return failed("Highlight failed: %v", err)
	}
	for i, el := range m.Elements {
		if err := doc.Highlight(el, dom.MarkerFor(el.TagName())); err != nil {
			return failed("Highlight failed: %v", err)
		}
		if i == 0 {
			_ = el.ScrollIntoView()
		}
	}

	first := m.First()
	label := strings.TrimSpace(truncate(first.VisibleText(), 40))
	if label == "" {
		label = strings.ToUpper(first.TagName())
	}
	out := ok("Found '%s' and highlighted %d element(s) using %s strategy.", label, len(m.Elements), m.Strategy)
	out.Strategy = string(m.Strategy)
	return out
}

func (e *Executor) click(ctx context.Context, doc dom.Document, target string) Outcome {
	pick, err := resolver.PickClickTarget(doc, target)
	if err != nil {
		return notFound("Could not find '%s' (searched text, attributes and CSS).", strings.ToLower(target))
	}
	el := pick.Element
	tag := strings.ToUpper(el.TagName())

	if err := el.ScrollIntoView(); err != nil {
		return failed("Click failed: %v", err)
	}
	_ = doc.ClearHighlights()
	_ = doc.Highlight(el, dom.MarkerFor(el.TagName()))
	// Подсветка видна только на время задержки перед кликом.
	defer func() { _ = doc.ClearHighlights() }()

	if tag == "INPUT" && (el.Type() == "text" || el.Type() == "search") {
		if form := el.Form(); form != nil {
			if !sleep(ctx, e.opts.ClickDelay) {
				return failed("Click failed: %v", ctx.Err())
			}
			if err := form.Submit(); err != nil {
				return failed("Click failed: %v", err)
			}
			out := ok("Clicked %s 'Form submitted' (found using form-submit strategy).", tag)
			out.Strategy = "form-submit"
			return out
		}
	}

	label := strings.TrimSpace(truncate(firstNonEmpty(el.VisibleText(), el.Value(), el.Attr("aria-label"), target), 50))

	if !sleep(ctx, e.opts.ClickDelay) {
		return failed("Click failed: %v", ctx.Err())
	}
	if err := el.Click(); err != nil {
		return failed("Click failed: %v", err)
	}

	e.log.Debug("Клик выполнен", zap.String("tag", tag), zap.String("strategy", pick.Strategy), zap.Int("score", pick.Score))
	out := ok("Clicked %s '%s' (found using %s strategy).", tag, label, pick.Strategy)
	out.Strategy = pick.Strategy
	return out
}

var enterSequence = []string{"keydown", "keypress", "keyup"}

func (e *Executor) typeText(ctx context.Context, doc dom.Document, target, text string) Outcome {
	pick, err := resolver.SelectField(doc, target)
	if err != nil {
		return notFound("Could not find any input field to type into.")
	}
	el := pick.Element

	if err := el.Focus(); err != nil {
		return failed("Crash prevented: %v", err)
	}
	if err := el.Click(); err != nil {
		return failed("Crash prevented: %v", err)
	}
	_ = doc.ClearHighlights()
	_ = doc.Highlight(el, dom.MarkerFor(el.TagName()))
	defer func() { _ = doc.ClearHighlights() }()
	_ = el.ScrollIntoView()

	if err := e.opts.Writer.WriteValue(el, text); err != nil {
		return failed("Crash prevented: %v", err)
	}
	for _, typ := range []string{"focus", "input", "change"} {
		if err := el.Dispatch(dom.Simple(typ)); err != nil {
			return failed("Crash prevented: %v", err)
		}
	}

	if !sleep(ctx, e.opts.SubmitDelay) {
		return failed("Crash prevented: %v", ctx.Err())
	}

	// Enter и отправка формы независимы: срабатывает то, что слушает страница.
	for _, typ := range enterSequence {
		if err := el.Dispatch(dom.EnterKey(typ)); err != nil {
			e.log.Debug("Не удалось отправить Enter", zap.String("event", typ), zap.Error(err))
		}
	}
	if form := el.Form(); form != nil {
		if err := form.Submit(); err != nil {
			e.log.Debug("Отправка формы не удалась", zap.Error(err))
		}
	}

	label := firstNonEmpty(el.Attr("placeholder"), el.Attr("name"), el.Attr("id"), strings.ToUpper(el.TagName()))
	out := ok("Typed %q into '%s' and submitted (Enter). Found using %s strategy.", text, label, pick.Strategy)
	out.Strategy = pick.Strategy
	return out
}

func (e *Executor) scroll(doc dom.Document, direction string) Outcome {
	dir := strings.ToLower(strings.TrimSpace(direction))
	if dir == "" {
		dir = "down"
	}

	st, err := doc.Scroll()
	if err != nil {
		return failed("Scroll failed: %v", err)
	}

	var y float64
	switch dir {
	case "down":
		y = st.Y + st.InnerHeight*0.8
	case "up":
		y = st.Y - st.InnerHeight*0.8
	case "top":
		y = 0
	case "bottom":
		y = st.Max()
	default:
		return failed("Unknown scroll direction: %s", direction)
	}
	y = math.Max(0, math.Min(y, st.Max()))

	if err := doc.ScrollTo(y); err != nil {
		return failed("Scroll failed: %v", err)
	}
	if after, err := doc.Scroll(); err == nil {
		st = after
	} else {
		st.Y = y
	}
	return ok("Scrolled %s. Position: %d/%dpx", dir, int(math.Round(st.Y)), int(math.Round(st.Max())))
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
