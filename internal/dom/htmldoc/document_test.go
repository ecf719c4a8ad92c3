package htmldoc

import (
	"testing"

	"onyxAgent/internal/dom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shadowPage = `<html><head><title> Shop </title></head><body>
<p>Intro</p>
<my-card id="host">
  <template shadowrootmode="open">
    <button id="inner">Buy</button>
    <x-nested>
      <template shadowrootmode="closed"><span id="deep">Deep text</span></template>
    </x-nested>
  </template>
  <span id="slotted">Light child</span>
</my-card>
<footer id="after">End</footer>
</body></html>`

func TestParse_DetachesShadowRoots(t *testing.T) {
	doc := MustParse(shadowPage)

	// Светлое дерево не видит теневое содержимое.
	inner, err := doc.QueryAll("#inner")
	require.NoError(t, err)
	assert.Empty(t, inner)
	assert.Empty(t, doc.Select("template"))

	host := doc.First("#host")
	require.NotNil(t, host)
	sr := host.ShadowRoot()
	require.NotNil(t, sr)

	buttons, err := sr.QueryAll("button")
	require.NoError(t, err)
	require.Len(t, buttons, 1)
	assert.Equal(t, "Buy", buttons[0].VisibleText())
	assert.Equal(t, host, buttons[0].(*Element).Host())

	assert.Nil(t, doc.First("#slotted").ShadowRoot())
}

func TestAllElements_ShadowOrder(t *testing.T) {
	doc := MustParse(shadowPage)

	all, err := dom.AllElements(doc)
	require.NoError(t, err)

	var ids []string
	for _, el := range all {
		if id := el.Attr("id"); id != "" {
			ids = append(ids, id)
		}
	}
	assert.Equal(t, []string{"host", "slotted", "after", "inner", "deep"}, ids)
}

func TestQueryAll_SyntaxError(t *testing.T) {
	doc := MustParse(`<div></div>`)
	_, err := doc.QueryAll("div[")
	assert.Error(t, err)

	_, err = doc.QueryAll("search button")
	assert.NoError(t, err)
}

func TestElement_TypeDefaults(t *testing.T) {
	doc := MustParse(`<form><input id="a"><input id="b" type="SEARCH"><button id="c">Go</button>
<button id="d" type="button">X</button><textarea id="e">hello</textarea>
<select id="f"><option value="1">One</option><option selected>Two</option></select></form>`)

	tests := []struct {
		id, typ, value string
	}{
		{"a", "text", ""},
		{"b", "search", ""},
		{"c", "submit", ""},
		{"d", "button", ""},
		{"e", "textarea", "hello"},
		{"f", "select-one", "Two"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			el := doc.First("#" + tt.id)
			require.NotNil(t, el)
			assert.Equal(t, tt.typ, el.Type())
			assert.Equal(t, tt.value, el.Value())
			assert.NotNil(t, el.Form())
		})
	}
}

func TestElement_RectAndVisibility(t *testing.T) {
	doc := MustParse(`<body>
<input id="wide" style="width: 400px; height:30px">
<input id="hidden" type="hidden">
<div style="display:none"><button id="nested">Hidden</button></div>
<span id="plain">x</span>
</body>`)

	assert.Equal(t, dom.Rect{Width: 400, Height: 30}, doc.First("#wide").Rect())
	assert.False(t, doc.First("#hidden").Rect().Visible())
	assert.False(t, doc.First("#nested").Rect().Visible())
	assert.Equal(t, "", doc.First("#nested").VisibleText())
	assert.True(t, doc.First("#plain").Rect().Visible())
}

func TestElement_DirectAndVisibleText(t *testing.T) {
	doc := MustParse(`<li id="li">  Top <b>Bold</b> tail </li>`)
	li := doc.First("#li")
	assert.Equal(t, "Top tail", li.DirectText())
	assert.Equal(t, "Top Bold tail", li.VisibleText())
}

func TestElement_ClickSubmitsForm(t *testing.T) {
	doc := MustParse(`<form id="f" action="/s"><input name="q"><button>Search</button></form>`)
	var submitted *Element
	doc.OnSubmit = func(form *Element) error {
		submitted = form
		return nil
	}

	require.NoError(t, doc.First("button").Click())
	require.NotNil(t, submitted)
	assert.Equal(t, "f", submitted.Attr("id"))
	assert.Len(t, doc.Submissions(), 1)
	assert.Len(t, doc.Clicks(), 1)
}

func TestElement_DetachedMutations(t *testing.T) {
	doc := MustParse(`<button id="b">Go</button>`)
	b := doc.First("#b")
	doc.Remove(b)

	assert.ErrorIs(t, b.Click(), dom.ErrDetached)
	assert.ErrorIs(t, b.SetValue("x"), dom.ErrDetached)
	assert.False(t, b.Rect().Visible())
}

func TestDocument_ScrollClamps(t *testing.T) {
	doc := MustParse(`<p>x</p>`)
	doc.SetViewport(800, 2000)

	require.NoError(t, doc.ScrollTo(5000))
	st, _ := doc.Scroll()
	assert.Equal(t, 1200.0, st.Y)

	require.NoError(t, doc.ScrollTo(-10))
	st, _ = doc.Scroll()
	assert.Equal(t, 0.0, st.Y)
}

func TestDocument_TitleAndBody(t *testing.T) {
	doc := MustParse(shadowPage)
	assert.Equal(t, "Shop", doc.Title())
	assert.Contains(t, doc.BodyText(), "Intro")
	assert.Contains(t, doc.BodyText(), "Light child")
	assert.NotContains(t, doc.BodyText(), "Buy")
}
