// Package browser даёт исполнителю действий живую страницу: Playwright
// (Firefox или Chromium) либо статический движок поверх net/http и htmldoc.
package browser

import (
	"context"
	"errors"
	"sync"
	"time"

	"onyxAgent/internal/dom"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

var errNotLaunched = errors.New("браузер не запущен")

// Browser - то, что нужно исполнителю (executor.Surface) плюс жизненный цикл.
type Browser interface {
	Launch(ctx context.Context) error
	// Load начинает загрузку url и сразу возвращает канал, в который придёт
	// результат (nil или ошибка) по событию load.
	Load(ctx context.Context, url string) (<-chan error, error)
	Document(ctx context.Context) (dom.Document, error)
	Close() error
}

type Config struct {
	Engine       string // firefox | chromium
	Headless     bool
	UserDataDir  string
	BrowsersPath string
	Display      string
	Timeout      time.Duration
}

type PlaywrightBrowser struct {
	mu      sync.RWMutex
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	doc     *pageDocument // последний выданный документ
	cfg     Config
	log     *zap.Logger
}
