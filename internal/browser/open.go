package browser

import (
	"fmt"

	"go.uber.org/zap"

	"onyxAgent/internal/config"
)

// Open выбирает движок по настройкам: playwright (firefox по умолчанию),
// chromium или static.
func Open(cfg config.Browser, log *zap.Logger) (Browser, error) {
	switch cfg.Engine {
	case "", "playwright", "firefox", "chromium":
		engine := "firefox"
		if cfg.Engine == "chromium" {
			engine = "chromium"
		}
		return New(Config{
			Engine:       engine,
			Headless:     cfg.Headless,
			UserDataDir:  cfg.UserDataDir,
			BrowsersPath: cfg.BrowsersPath,
			Display:      cfg.Display,
			Timeout:      cfg.Timeout,
		}, log), nil
	case "static":
		return NewStatic(cfg.Timeout, log), nil
	}
	return nil, fmt.Errorf("неизвестный движок браузера: %q", cfg.Engine)
}
