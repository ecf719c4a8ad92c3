package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"onyxAgent/internal/dom"
)

func New(cfg Config, log *zap.Logger) *PlaywrightBrowser {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Engine == "" {
		cfg.Engine = "firefox"
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &PlaywrightBrowser{
		cfg: cfg,
		log: log,
	}
}

// getPage безопасно возвращает текущую страницу с read lock
func (b *PlaywrightBrowser) getPage() playwright.Page {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.page
}

func (b *PlaywrightBrowser) setPage(page playwright.Page) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.page = page
}

func (b *PlaywrightBrowser) getBrowserArgs() []string {
	return []string{
		"--no-sandbox",
	}
}

func (b *PlaywrightBrowser) getEnvMap() map[string]string {
	if b.cfg.Display != "" {
		return map[string]string{
			"DISPLAY": b.cfg.Display,
		}
	}
	return nil
}

func (b *PlaywrightBrowser) browserType(pw *playwright.Playwright) playwright.BrowserType {
	if b.cfg.Engine == "chromium" {
		return pw.Chromium
	}
	return pw.Firefox
}

func (b *PlaywrightBrowser) launchPersistent(pw *playwright.Playwright) error {
	opts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(b.cfg.Headless),
		Args:     b.getBrowserArgs(),
	}

	if env := b.getEnvMap(); env != nil {
		opts.Env = env
	}

	browserContext, err := b.browserType(pw).LaunchPersistentContext(b.cfg.UserDataDir, opts)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.context = browserContext
	b.mu.Unlock()

	pages := browserContext.Pages()
	var page playwright.Page
	if len(pages) == 0 {
		page, err = browserContext.NewPage()
		if err != nil {
			return err
		}
	} else {
		page = pages[0]
	}

	b.setPage(page)
	page.SetDefaultTimeout(float64(b.cfg.Timeout.Milliseconds()))
	return nil
}

func (b *PlaywrightBrowser) launchStandard(pw *playwright.Playwright) error {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(b.cfg.Headless),
		Args:     b.getBrowserArgs(),
	}

	if env := b.getEnvMap(); env != nil {
		opts.Env = env
	}

	browser, err := b.browserType(pw).Launch(opts)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.browser = browser
	b.mu.Unlock()

	page, err := browser.NewPage()
	if err != nil {
		return err
	}

	b.setPage(page)
	page.SetDefaultTimeout(float64(b.cfg.Timeout.Milliseconds()))
	return nil
}

func (b *PlaywrightBrowser) Launch(ctx context.Context) error {
	if b.cfg.BrowsersPath != "" {
		if err := os.Setenv("PLAYWRIGHT_BROWSERS_PATH", b.cfg.BrowsersPath); err != nil {
			return err
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("запуск playwright: %w", err)
	}
	b.mu.Lock()
	b.pw = pw
	b.mu.Unlock()

	if b.cfg.UserDataDir != "" {
		err = b.launchPersistent(pw)
	} else {
		err = b.launchStandard(pw)
	}
	if err != nil {
		return fmt.Errorf("запуск %s: %w", b.cfg.Engine, err)
	}

	b.log.Info("браузер запущен",
		zap.String("engine", b.cfg.Engine),
		zap.Bool("headless", b.cfg.Headless),
		zap.Bool("persistent", b.cfg.UserDataDir != ""))
	return nil
}

// Load не ждёт окончания загрузки: тайм-аут и отмену контролирует вызывающий.
func (b *PlaywrightBrowser) Load(ctx context.Context, url string) (<-chan error, error) {
	page := b.getPage()
	if page == nil {
		return nil, errNotLaunched
	}

	done := make(chan error, 1)
	go func() {
		_, err := page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateLoad,
			Timeout:   playwright.Float(float64(b.cfg.Timeout.Milliseconds())),
		})
		if err != nil {
			b.log.Debug("goto завершился ошибкой", zap.String("url", url), zap.Error(err))
		}
		done <- err
	}()

	return done, nil
}

func (b *PlaywrightBrowser) Document(ctx context.Context) (dom.Document, error) {
	page := b.getPage()
	if page == nil {
		return nil, errNotLaunched
	}
	if page.IsClosed() {
		return nil, fmt.Errorf("страница закрыта")
	}
	doc := &pageDocument{page: page}

	b.mu.Lock()
	prev := b.doc
	b.doc = doc
	b.mu.Unlock()
	if prev != nil {
		prev.release()
	}
	return doc, nil
}

func (b *PlaywrightBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.context != nil {
		if err := b.context.Close(); err != nil {
			return err
		}
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			return err
		}
	}
	if b.pw != nil {
		return b.pw.Stop()
	}
	return nil
}
