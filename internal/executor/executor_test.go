package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"onyxAgent/internal/dom"
	"onyxAgent/internal/dom/htmldoc"
	"onyxAgent/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// pageSurface отдаёт один и тот же документ; Load возвращает заданный канал.
type pageSurface struct {
	doc     *htmldoc.Document
	docErr  error
	loads   []string
	done    chan error
	loadErr error
}

func (s *pageSurface) Load(_ context.Context, url string) (<-chan error, error) {
	s.loads = append(s.loads, url)
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.done == nil {
		ch := make(chan error, 1)
		ch <- nil
		return ch, nil
	}
	return s.done, nil
}

func (s *pageSurface) Document(context.Context) (dom.Document, error) {
	if s.docErr != nil {
		return nil, s.docErr
	}
	return s.doc, nil
}

func newExec(t *testing.T, doc *htmldoc.Document) (*Executor, *pageSurface) {
	t.Helper()
	s := &pageSurface{doc: doc}
	return New(s, Options{NavigateTimeout: 50 * time.Millisecond, Log: zaptest.NewLogger(t)}), s
}

func command(tool llm.Tool, params llm.Params) llm.Command {
	return llm.Command{Tool: tool, Params: params}
}

const searchPage = `<html><head><title>Search Page</title></head><body>
<form action="/s"><input name="q" placeholder="Search the web"></form>
<button id="go">Search</button>
<a href="/about">About us</a>
<p>Welcome</p>
</body></html>`

func TestExecute_Scroll(t *testing.T) {
	doc := htmldoc.MustParse(`<body><p>long</p></body>`)
	doc.SetViewport(800, 2000)
	ex, _ := newExec(t, doc)
	ctx := context.Background()

	out := ex.Execute(ctx, command(llm.ToolScroll, llm.Params{"direction": "down"}))
	assert.Equal(t, KindOK, out.Kind)
	assert.Equal(t, "Scrolled down. Position: 640/1200px", out.Text)

	out = ex.Execute(ctx, command(llm.ToolScroll, llm.Params{"direction": "down"}))
	assert.Equal(t, "Scrolled down. Position: 1200/1200px", out.Text)

	out = ex.Execute(ctx, command(llm.ToolScroll, llm.Params{"direction": "up"}))
	assert.Equal(t, "Scrolled up. Position: 560/1200px", out.Text)

	out = ex.Execute(ctx, command(llm.ToolScroll, llm.Params{"direction": "top"}))
	assert.Equal(t, "Scrolled top. Position: 0/1200px", out.Text)

	out = ex.Execute(ctx, command(llm.ToolScroll, llm.Params{"direction": "bottom"}))
	assert.Equal(t, "Scrolled bottom. Position: 1200/1200px", out.Text)

	out = ex.Execute(ctx, command(llm.ToolScroll, llm.Params{}))
	assert.Equal(t, "Scrolled down. Position: 1200/1200px", out.Text)

	out = ex.Execute(ctx, command(llm.ToolScroll, llm.Params{"direction": "sideways"}))
	assert.True(t, out.Failed())
}

func TestExecute_Navigate(t *testing.T) {
	t.Run("invalid url", func(t *testing.T) {
		ex, s := newExec(t, htmldoc.MustParse(searchPage))
		out := ex.Execute(context.Background(), command(llm.ToolNavigate, llm.Params{"url": "example.com"}))
		assert.True(t, out.Failed())
		assert.Equal(t, "ERROR: Invalid URL: example.com", out.Observation())
		assert.Empty(t, s.loads)
	})

	t.Run("loaded", func(t *testing.T) {
		ex, s := newExec(t, htmldoc.MustParse(searchPage))
		out := ex.Execute(context.Background(), command(llm.ToolNavigate, llm.Params{"url": "https://example.com"}))
		assert.Equal(t, KindOK, out.Kind)
		assert.Equal(t, `Navigated to "Search Page" (loaded)`, out.Text)
		assert.Equal(t, []string{"https://example.com"}, s.loads)
	})

	t.Run("timeout still reads title", func(t *testing.T) {
		ex, s := newExec(t, htmldoc.MustParse(searchPage))
		s.done = make(chan error)
		out := ex.Execute(context.Background(), command(llm.ToolNavigate, llm.Params{"url": "http://slow.test"}))
		assert.Equal(t, KindOK, out.Kind)
		assert.Equal(t, `Navigated to "Search Page" (timeout)`, out.Text)
	})

	t.Run("load failure", func(t *testing.T) {
		ex, s := newExec(t, htmldoc.MustParse(`<body></body>`))
		s.done = make(chan error, 1)
		s.done <- errors.New("net::ERR_NAME_NOT_RESOLVED")
		out := ex.Execute(context.Background(), command(llm.ToolNavigate, llm.Params{"url": "https://nowhere.test"}))
		assert.Equal(t, `Navigated to "https://nowhere.test" (error: net::ERR_NAME_NOT_RESOLVED)`, out.Text)
	})
}

func TestExecute_Scrape(t *testing.T) {
	ex, _ := newExec(t, htmldoc.MustParse(`<body><ul><li>One</li><li> Two </li><li></li></ul><span id="empty"></span></body>`))
	ctx := context.Background()

	out := ex.Execute(ctx, command(llm.ToolScrape, llm.Params{"selector": "li"}))
	assert.Equal(t, []string{"One", "Two"}, out.Items)
	assert.Equal(t, "exact-css", out.Strategy)
	assert.Equal(t, "Found 2 items: One | Two", out.Observation())

	out = ex.Execute(ctx, command(llm.ToolScrape, llm.Params{"selector": "#empty"}))
	assert.Equal(t, KindOK, out.Kind)
	assert.Equal(t, `No text content found for "#empty" (searched via exact-css).`, out.Text)

	out = ex.Execute(ctx, command(llm.ToolScrape, llm.Params{"selector": "pricing table"}))
	assert.Equal(t, KindNotFound, out.Kind)
	assert.False(t, out.Failed())
	assert.Equal(t, "Could not find 'pricing table' via selector, text, or attributes.", out.Text)
}

func TestExecute_ScrapeCapsAt100(t *testing.T) {
	var b strings.Builder
	b.WriteString("<body><ul>")
	for i := 0; i < 150; i++ {
		fmt.Fprintf(&b, "<li>item %d</li>", i)
	}
	b.WriteString("</ul></body>")
	ex, _ := newExec(t, htmldoc.MustParse(b.String()))

	out := ex.Execute(context.Background(), command(llm.ToolScrape, llm.Params{"selector": "li"}))
	assert.Len(t, out.Items, 100)
}

func TestExecute_Highlight(t *testing.T) {
	doc := htmldoc.MustParse(`<body><p class="note">First</p><p class="note">Second</p><img class="note" src="x.png"></body>`)
	ex, _ := newExec(t, doc)

	out := ex.Execute(context.Background(), command(llm.ToolHighlight, llm.Params{"selector": ".note"}))
	assert.Equal(t, "Found 'First' and highlighted 3 element(s) using exact-css strategy.", out.Text)

	marks := doc.Marks()
	require.Len(t, marks, 3)
	assert.Equal(t, dom.MarkerOutline, marks[0].Marker)
	assert.Equal(t, dom.MarkerOverlay, marks[2].Marker)
}

func TestExecute_Click(t *testing.T) {
	doc := htmldoc.MustParse(searchPage)
	var marked []htmldoc.Mark
	doc.OnClick = func(*htmldoc.Element) error {
		marked = doc.Marks()
		return nil
	}
	ex, _ := newExec(t, doc)

	out := ex.Execute(context.Background(), command(llm.ToolClick, llm.Params{"selector": "Search"}))
	assert.Equal(t, KindOK, out.Kind)
	assert.Equal(t, "Clicked BUTTON 'Search' (found using scored-text-match strategy).", out.Text)

	clicks := doc.Clicks()
	require.Len(t, clicks, 1)
	assert.Equal(t, "go", clicks[0].Attr("id"))
	require.Len(t, marked, 1)
	assert.Empty(t, doc.Marks())
}

func TestExecute_ClickTextInputSubmitsForm(t *testing.T) {
	doc := htmldoc.MustParse(searchPage)
	ex, _ := newExec(t, doc)

	out := ex.Execute(context.Background(), command(llm.ToolClick, llm.Params{"selector": "input[name=q]"}))
	assert.Equal(t, "Clicked INPUT 'Form submitted' (found using form-submit strategy).", out.Text)
	assert.Equal(t, "form-submit", out.Strategy)
	assert.Len(t, doc.Submissions(), 1)
	assert.Empty(t, doc.Clicks())
}

func TestExecute_ClickNotFound(t *testing.T) {
	ex, _ := newExec(t, htmldoc.MustParse(searchPage))

	out := ex.Execute(context.Background(), command(llm.ToolClick, llm.Params{"selector": "Checkout"}))
	assert.Equal(t, KindNotFound, out.Kind)
	assert.Contains(t, out.Text, "'checkout'")
}

func TestExecute_ClickDetachedTarget(t *testing.T) {
	doc := htmldoc.MustParse(searchPage)
	doc.OnClick = func(el *htmldoc.Element) error { return dom.ErrDetached }
	ex, _ := newExec(t, doc)

	out := ex.Execute(context.Background(), command(llm.ToolClick, llm.Params{"selector": "About us"}))
	assert.True(t, out.Failed())
	assert.True(t, strings.HasPrefix(out.Text, "Click failed:"))
}

func TestExecute_Type(t *testing.T) {
	doc := htmldoc.MustParse(searchPage)
	var marked []htmldoc.Mark
	doc.OnSubmit = func(*htmldoc.Element) error {
		marked = doc.Marks()
		return nil
	}
	ex, _ := newExec(t, doc)

	out := ex.Execute(context.Background(), command(llm.ToolType, llm.Params{"selector": "q", "text": "golang"}))
	require.Equal(t, KindOK, out.Kind, out.Text)
	assert.Equal(t, `Typed "golang" into 'Search the web' and submitted (Enter). Found using input-attribute-match strategy.`, out.Text)

	input := doc.First(`input[name="q"]`)
	require.NotNil(t, input)
	assert.Equal(t, "golang", input.Value())
	assert.Equal(t, input, doc.Focused())
	assert.Len(t, doc.Submissions(), 1)

	var types []string
	for _, f := range doc.Events() {
		types = append(types, f.Event.Type)
	}
	assert.Equal(t, []string{"focus", "input", "change", "keydown", "keypress", "keyup"}, types)
	assert.Equal(t, "Enter", doc.Events()[3].Event.Key)
	require.Len(t, marked, 1)
	assert.Empty(t, doc.Marks())
}

func TestExecute_TypeNoField(t *testing.T) {
	ex, _ := newExec(t, htmldoc.MustParse(`<body><p>nothing to type into</p></body>`))

	out := ex.Execute(context.Background(), command(llm.ToolType, llm.Params{"selector": "search", "text": "x"}))
	assert.Equal(t, KindNotFound, out.Kind)
	assert.Equal(t, "Could not find any input field to type into.", out.Text)
}

type brokenWriter struct{}

func (brokenWriter) WriteValue(dom.Element, string) error { return errors.New("setter threw") }

func TestExecute_TypeWriterFailure(t *testing.T) {
	s := &pageSurface{doc: htmldoc.MustParse(searchPage)}
	ex := New(s, Options{Writer: brokenWriter{}})

	out := ex.Execute(context.Background(), command(llm.ToolType, llm.Params{"selector": "q", "text": "x"}))
	assert.True(t, out.Failed())
	assert.Equal(t, "Crash prevented: setter threw", out.Text)
}

func TestExecute_TerminalAndUnknown(t *testing.T) {
	ex, _ := newExec(t, htmldoc.MustParse(searchPage))
	ctx := context.Background()

	out := ex.Execute(ctx, command(llm.ToolAnswer, llm.Params{"text": "42"}))
	assert.Equal(t, "42", out.Text)

	out = ex.Execute(ctx, command("hover", nil))
	assert.Equal(t, "ERROR: Unknown tool: hover", out.Observation())
}

func TestExecute_NoActivePage(t *testing.T) {
	s := &pageSurface{docErr: errors.New("closed")}
	ex := New(s, Options{})

	out := ex.Execute(context.Background(), command(llm.ToolReadSummary, nil))
	assert.True(t, out.Failed())
	assert.Equal(t, "No active page.", out.Text)
}

func TestExecute_ReadSummary(t *testing.T) {
	ex, _ := newExec(t, htmldoc.MustParse(searchPage))

	out := ex.Execute(context.Background(), command(llm.ToolReadSummary, nil))
	assert.Contains(t, out.Text, "PAGE: Search Page")
	assert.Contains(t, out.Text, "INPUT FIELDS:\n  - text: q (placeholder: Search the web)")
	assert.Contains(t, out.Text, "BUTTONS:\n  - Search")
	assert.Contains(t, out.Text, "KEY LINKS:\n  - About us")
	assert.Contains(t, out.Text, "PAGE TEXT:")
}

type panickyDoc struct{ *htmldoc.Document }

func (panickyDoc) Scroll() (dom.ScrollState, error) { panic("script crashed") }

type panickySurface struct{ doc dom.Document }

func (p panickySurface) Load(context.Context, string) (<-chan error, error) { return nil, nil }
func (p panickySurface) Document(context.Context) (dom.Document, error)    { return p.doc, nil }

func TestExecute_RecoversPanic(t *testing.T) {
	ex := New(panickySurface{doc: panickyDoc{htmldoc.MustParse(`<body></body>`)}}, Options{})

	out := ex.Execute(context.Background(), command(llm.ToolScroll, llm.Params{"direction": "down"}))
	assert.True(t, out.Failed())
	assert.Equal(t, "Crash prevented: script crashed", out.Text)
}

func TestOutcome_Summary(t *testing.T) {
	assert.Equal(t, "✅ 3 items found", Outcome{Kind: KindOK, Items: []string{"a", "b", "c"}}.Summary())
	assert.Equal(t, "❌ ERROR: boom", Outcome{Kind: KindError, Text: "boom"}.Summary())
	assert.Equal(t, "✅ "+strings.Repeat("x", 80), Outcome{Kind: KindOK, Text: strings.Repeat("x", 100)}.Summary())
}
