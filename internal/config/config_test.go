package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"AGENT_MAX_STEPS", "OPENROUTER_MODELS", "AGENT_COOLDOWN", "DB_DRIVER", "LLM_TEMPERATURE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Agent.MaxSteps)
	assert.Equal(t, 12000, cfg.Agent.PageContextLimit)
	assert.Equal(t, 3, cfg.Agent.MaxErrors)
	assert.Equal(t, time.Second, cfg.Agent.Cooldown)
	assert.Equal(t, 10*time.Second, cfg.Agent.NavigateTimeout)
	assert.Equal(t, DefaultModels, cfg.LLM.Models)
	assert.InDelta(t, 0.1, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AGENT_MAX_STEPS", "9")
	t.Setenv("AGENT_COOLDOWN", "250ms")
	t.Setenv("OPENROUTER_MODELS", " a/b:free , ,c/d ")
	t.Setenv("PW_HEADLESS", "YES")
	t.Setenv("AGENT_MAX_ERRORS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Agent.MaxSteps)
	assert.Equal(t, 250*time.Millisecond, cfg.Agent.Cooldown)
	assert.Equal(t, []string{"a/b:free", "c/d"}, cfg.LLM.Models)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 3, cfg.Agent.MaxErrors)
}

func TestDatabase_DSN(t *testing.T) {
	d := Database{Host: "db", Port: "5432", User: "u", Password: "p", Name: "onyx"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=onyx sslmode=disable", d.PostgresDSN())
	assert.Equal(t, "postgres://u:p@db:5432/onyx?sslmode=disable", d.PostgresURL())
}
