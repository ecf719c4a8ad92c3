package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"onyxAgent/internal/dom"
	"onyxAgent/internal/dom/htmldoc"
)

const (
	maxBodyBytes    = 5 << 20
	staticUserAgent = "Mozilla/5.0 (X11; Linux x86_64) OnyxAgent/1.0"
)

// StaticBrowser загружает страницы без JavaScript: net/http и разбор в
// htmldoc. Клик по ссылке и отправка формы ведут на новую страницу.
type StaticBrowser struct {
	client *http.Client
	log    *zap.Logger

	mu  sync.RWMutex
	doc *htmldoc.Document
}

func NewStatic(timeout time.Duration, log *zap.Logger) *StaticBrowser {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &StaticBrowser{
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

func (b *StaticBrowser) Launch(ctx context.Context) error {
	b.log.Info("браузер запущен", zap.String("engine", "static"))
	return nil
}

func (b *StaticBrowser) Load(ctx context.Context, rawURL string) (<-chan error, error) {
	req, err := b.newRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	done := make(chan error, 1)
	go func() {
		done <- b.open(req)
	}()
	return done, nil
}

func (b *StaticBrowser) Document(ctx context.Context) (dom.Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.doc == nil {
		return nil, fmt.Errorf("страница не загружена")
	}
	return b.doc, nil
}

func (b *StaticBrowser) Close() error {
	b.client.CloseIdleConnections()
	return nil
}

func (b *StaticBrowser) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", staticUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	return req, nil
}

func (b *StaticBrowser) open(req *http.Request) error {
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	doc, err := htmldoc.Parse(io.LimitReader(resp.Body, maxBodyBytes), resp.Request.URL.String())
	if err != nil {
		return err
	}
	doc.OnClick = b.follow
	doc.OnSubmit = b.submit

	b.mu.Lock()
	b.doc = doc
	b.mu.Unlock()

	b.log.Debug("страница загружена",
		zap.String("url", doc.URL()),
		zap.Int("status", resp.StatusCode))
	return nil
}

// follow переходит по ссылке (в том числе при клике по потомку <a>);
// клики по прочим элементам ничего не меняют.
func (b *StaticBrowser) follow(el *htmldoc.Element) error {
	link := el.Closest("a")
	if link == nil {
		return nil
	}
	href := strings.TrimSpace(link.Attr("href"))
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return nil
	}
	target, err := b.resolve(href)
	if err != nil {
		return err
	}
	req, err := b.newRequest(context.Background(), http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	return b.open(req)
}

func (b *StaticBrowser) submit(form *htmldoc.Element) error {
	b.mu.RLock()
	doc := b.doc
	b.mu.RUnlock()
	if doc == nil {
		return fmt.Errorf("страница не загружена")
	}

	values := url.Values{}
	for _, field := range doc.Select("input[name], select[name], textarea[name]") {
		if f, ok := field.Form().(*htmldoc.Element); !ok || f != form {
			continue
		}
		switch field.Type() {
		case "submit", "button", "image", "reset", "file":
			continue
		case "checkbox", "radio":
			if !field.HasAttr("checked") {
				continue
			}
		}
		values.Add(field.Attr("name"), field.Value())
	}

	action, err := b.resolve(form.Attr("action"))
	if err != nil {
		return err
	}

	var req *http.Request
	if strings.EqualFold(form.Attr("method"), http.MethodPost) {
		req, err = b.newRequest(context.Background(), http.MethodPost, action, strings.NewReader(values.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		u, perr := url.Parse(action)
		if perr != nil {
			return perr
		}
		u.RawQuery = values.Encode()
		req, err = b.newRequest(context.Background(), http.MethodGet, u.String(), nil)
	}
	if err != nil {
		return err
	}
	return b.open(req)
}

func (b *StaticBrowser) resolve(ref string) (string, error) {
	b.mu.RLock()
	base := ""
	if b.doc != nil {
		base = b.doc.URL()
	}
	b.mu.RUnlock()

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}
