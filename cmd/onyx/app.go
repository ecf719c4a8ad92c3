package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"onyxAgent/internal/agent"
	"onyxAgent/internal/browser"
	"onyxAgent/internal/config"
	"onyxAgent/internal/database"
	"onyxAgent/internal/executor"
	"onyxAgent/internal/llm"
	"onyxAgent/internal/logger"
	"onyxAgent/internal/migrations"
)

// app - собранные зависимости одного процесса.
type app struct {
	cfg     *config.Cfg
	log     *logger.Zap
	db      *database.DB
	repo    *database.TaskRepository
	browser browser.Browser
	actor   *executor.Executor
	agent   *agent.Agent
	runner  *agent.TaskRunner
	models  []string
}

func newLogger(cfg *config.Cfg) (*logger.Zap, error) {
	return logger.NewWithOptions(cfg.Logger.Env, cfg.Logger.Level, logger.Options{File: cfg.Logger.File})
}

// newApp поднимает БД, модель, браузер и агента. events получает поток
// событий прогонов.
func newApp(ctx context.Context, cfg *config.Cfg, log *logger.Zap, events agent.EventSink) (*app, error) {
	if err := migrations.Run(cfg, log); err != nil {
		return nil, fmt.Errorf("миграции: %w", err)
	}

	db, err := database.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("подключение к БД: %w", err)
	}
	a := &app{cfg: cfg, log: log, db: db, repo: database.NewTaskRepository(db.DB)}

	client, err := llm.NewClient(cfg.LLM, a.repo, log.Logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("клиент модели: %w", err)
	}
	a.models = client.Models()

	br, err := browser.Open(cfg.Browser, log.Logger)
	if err != nil {
		a.close()
		return nil, err
	}
	if err := a.launch(ctx, br); err != nil {
		a.close()
		return nil, err
	}

	a.actor = executor.New(br, executor.Options{
		NavigateTimeout: cfg.Agent.NavigateTimeout,
		ClickDelay:      cfg.Agent.ClickDelay,
		SubmitDelay:     cfg.Agent.SubmitDelay,
		Writer:          browser.DefaultWriter(),
		Log:             log.Logger,
	})

	agentCfg := agent.FromConfig(cfg.Agent)
	agentCfg.Events = events
	a.agent = agent.New(client, a.actor, log, agentCfg)
	a.runner = agent.NewTaskRunner(a.agent, a.repo, log)

	log.Info("Приложение готово",
		zap.String("engine", cfg.Browser.Engine),
		zap.Strings("models", a.models),
		zap.String("db", cfg.Database.Driver))
	return a, nil
}

// launch запускает браузер. Браузер запоминается до запуска: если запуск
// упал на полпути, close всё равно остановит драйвер.
func (a *app) launch(ctx context.Context, br browser.Browser) error {
	a.browser = br
	if err := br.Launch(ctx); err != nil {
		return fmt.Errorf("запуск браузера: %w", err)
	}
	return nil
}

func (a *app) close() {
	if a.browser != nil {
		if err := a.browser.Close(); err != nil {
			a.log.Warn("Ошибка закрытия браузера", zap.Error(err))
		}
	}
	if a.db != nil {
		a.db.Close(a.log)
	}
}
