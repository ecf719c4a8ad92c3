package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onyxAgent/internal/browser"
	"onyxAgent/internal/logger"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"shell", "run", "serve", "migrate"}, names)

	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	assert.Error(t, run.Args(run, nil))
	assert.NoError(t, run.Args(run, []string{"find", "cats"}))
}

func TestLoadAppliesFlags(t *testing.T) {
	t.Setenv("BROWSER_ENGINE", "firefox")
	t.Setenv("AGENT_MAX_STEPS", "5")

	cfg, err := load(&flags{engine: "static", headless: true, maxSteps: 9})
	require.NoError(t, err)
	assert.Equal(t, "static", cfg.Browser.Engine)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 9, cfg.Agent.MaxSteps)

	cfg, err = load(&flags{})
	require.NoError(t, err)
	assert.Equal(t, "firefox", cfg.Browser.Engine)
	assert.Equal(t, 5, cfg.Agent.MaxSteps)
}

// failingBrowser падает при запуске, как Playwright без установленного браузера.
type failingBrowser struct {
	browser.Browser
	closed bool
}

func (b *failingBrowser) Launch(context.Context) error { return errors.New("firefox not installed") }
func (b *failingBrowser) Close() error                 { b.closed = true; return nil }

func TestAppClosesBrowserAfterFailedLaunch(t *testing.T) {
	a := &app{log: logger.Nop()}
	br := &failingBrowser{}

	err := a.launch(context.Background(), br)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "firefox not installed")

	a.close()
	assert.True(t, br.closed)
}
