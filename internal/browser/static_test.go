package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onyxAgent/internal/config"
	"onyxAgent/internal/dom/htmldoc"
)

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><head><title>Home</title></head><body>
			<a href="/about"><span>About us</span></a>
			<form action="/search">
				<input name="q" placeholder="Search">
				<input type="checkbox" name="safe" value="on">
				<button>Go</button>
			</form>
			<form action="/login" method="post">
				<input name="user">
			</form>
		</body></html>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>About</title></head><body>We build agents.</body></html>`)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><title>Results</title></head><body>query=%s safe=%q</body></html>`,
			r.URL.Query().Get("q"), r.URL.Query().Get("safe"))
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		fmt.Fprintf(w, `<html><head><title>Welcome</title></head><body>hello %s</body></html>`, r.PostForm.Get("user"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func load(t *testing.T, b *StaticBrowser, url string) *htmldoc.Document {
	t.Helper()
	done, err := b.Load(context.Background(), url)
	require.NoError(t, err)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("загрузка не завершилась")
	}
	return current(t, b)
}

func current(t *testing.T, b *StaticBrowser) *htmldoc.Document {
	t.Helper()
	doc, err := b.Document(context.Background())
	require.NoError(t, err)
	return doc.(*htmldoc.Document)
}

func TestStatic_DocumentBeforeLoad(t *testing.T) {
	b := NewStatic(0, nil)
	_, err := b.Document(context.Background())
	assert.Error(t, err)
}

func TestStatic_LoadAndFollowLink(t *testing.T) {
	srv := newSite(t)
	b := NewStatic(time.Second, nil)
	require.NoError(t, b.Launch(context.Background()))
	defer b.Close()

	doc := load(t, b, srv.URL+"/")
	assert.Equal(t, "Home", doc.Title())

	require.NoError(t, doc.First("span").Click())
	next := current(t, b)
	assert.Equal(t, "About", next.Title())
	assert.Equal(t, srv.URL+"/about", next.URL())
}

func TestStatic_GetFormSubmission(t *testing.T) {
	srv := newSite(t)
	b := NewStatic(time.Second, nil)

	doc := load(t, b, srv.URL+"/")
	require.NoError(t, doc.First("input[name=q]").SetValue("golang agents"))
	require.NoError(t, doc.First("button").Click())

	res := current(t, b)
	assert.Equal(t, "Results", res.Title())
	assert.Contains(t, res.BodyText(), "query=golang agents")
	assert.Contains(t, res.BodyText(), `safe=""`)
}

func TestStatic_PostFormSubmission(t *testing.T) {
	srv := newSite(t)
	b := NewStatic(time.Second, nil)

	doc := load(t, b, srv.URL+"/")
	user := doc.First("input[name=user]")
	require.NoError(t, user.SetValue("onyx"))
	require.NoError(t, user.Submit())

	res := current(t, b)
	assert.Equal(t, "Welcome", res.Title())
	assert.Contains(t, res.BodyText(), "hello onyx")
}

func TestStatic_HTTPError(t *testing.T) {
	srv := newSite(t)
	b := NewStatic(time.Second, nil)

	done, err := b.Load(context.Background(), srv.URL+"/missing")
	require.NoError(t, err)
	assert.EqualError(t, <-done, "HTTP 404")
}

func TestStatic_InvalidURL(t *testing.T) {
	b := NewStatic(time.Second, nil)
	_, err := b.Load(context.Background(), "http://bad host/")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	b, err := Open(config.Browser{Engine: "static"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &StaticBrowser{}, b)

	b, err = Open(config.Browser{Engine: "chromium", Timeout: time.Second}, nil)
	require.NoError(t, err)
	pb := b.(*PlaywrightBrowser)
	assert.Equal(t, "chromium", pb.cfg.Engine)
	assert.Equal(t, time.Second, pb.cfg.Timeout)

	b, err = Open(config.Browser{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "firefox", b.(*PlaywrightBrowser).cfg.Engine)

	_, err = Open(config.Browser{Engine: "netscape"}, nil)
	assert.Error(t, err)
}

func TestPlaywright_NotLaunched(t *testing.T) {
	b := New(Config{}, nil)
	_, err := b.Load(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, errNotLaunched)
	_, err = b.Document(context.Background())
	assert.ErrorIs(t, err, errNotLaunched)
	assert.NoError(t, b.Close())
}

func TestParseInfo(t *testing.T) {
	info := parseInfo(map[string]interface{}{
		"tag":      "input",
		"type":     "search",
		"attrs":    map[string]interface{}{"name": "q", "placeholder": "Search"},
		"value":    "go",
		"editable": false,
		"x":        1,
		"y":        2.5,
		"w":        200,
		"h":        float64(30),
		"shadow":   true,
	})
	assert.Equal(t, "input", info.tag)
	assert.Equal(t, "search", info.typ)
	assert.Equal(t, "q", info.attrs["name"])
	assert.Equal(t, "go", info.value)
	assert.True(t, info.hasShadowRoot)
	assert.Equal(t, 2.5, info.rect.Y)
	assert.True(t, info.rect.Visible())
	assert.Equal(t, 6000.0, info.rect.Area())

	empty := parseInfo(nil)
	assert.Empty(t, empty.tag)
	assert.NotNil(t, empty.attrs)
}
