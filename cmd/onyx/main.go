package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"onyxAgent/internal/agent"
	"onyxAgent/internal/cli"
	"onyxAgent/internal/cli/ui"
	"onyxAgent/internal/config"
	"onyxAgent/internal/migrations"
	"onyxAgent/internal/server"
)

type flags struct {
	engine   string
	headless bool
	maxSteps int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.ColorRed+ui.IconCross+" "+err.Error()+ui.ColorReset)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "onyx",
		Short:         "Onyx: агент, который выполняет цели на веб-страницах",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), f)
		},
	}
	root.PersistentFlags().StringVar(&f.engine, "engine", "", "движок браузера: firefox, chromium или static")
	root.PersistentFlags().BoolVar(&f.headless, "headless", false, "запускать браузер без окна")
	root.PersistentFlags().IntVar(&f.maxSteps, "max-steps", 0, "максимум шагов за прогон")

	root.AddCommand(
		&cobra.Command{
			Use:   "shell",
			Short: "Интерактивная оболочка (по умолчанию)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runShell(cmd.Context(), f)
			},
		},
		&cobra.Command{
			Use:   "run <цель>",
			Short: "Выполнить одну цель и выйти",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runOnce(cmd.Context(), f, strings.Join(args, " "))
			},
		},
		&cobra.Command{
			Use:   "serve",
			Short: "HTTP API для задач",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServer(cmd.Context(), f)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Применить миграции PostgreSQL",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(f)
			},
		},
	)
	return root
}

// load читает настройки и применяет флаги поверх окружения.
func load(f *flags) (*config.Cfg, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if f.engine != "" {
		cfg.Browser.Engine = f.engine
	}
	if f.headless {
		cfg.Browser.Headless = true
	}
	if f.maxSteps > 0 {
		cfg.Agent.MaxSteps = f.maxSteps
	}
	return cfg, nil
}

func runShell(ctx context.Context, f *flags) error {
	cfg, err := load(f)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	// Ctrl+C в оболочке обрабатывают readline и команды прогона.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log, ui.NewEventPrinter(os.Stdout))
	if err != nil {
		return err
	}
	defer a.close()

	cli.New(cli.Deps{
		Repo:   a.repo,
		Runner: a.runner,
		Agent:  a.agent,
		Actor:  a.actor,
		Log:    log,
		Out:    os.Stdout,
		Engine: cfg.Browser.Engine,
		Models: a.models,
	}).Run(ctx)
	return nil
}

func runOnce(ctx context.Context, f *flags, goal string) error {
	cfg, err := load(f)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log, ui.NewEventPrinter(os.Stdout))
	if err != nil {
		return err
	}
	defer a.close()

	_, res, err := a.runner.Submit(ctx, goal)
	if err != nil {
		return err
	}
	if res.Status != agent.StatusCompleted {
		return fmt.Errorf("прогон завершён со статусом %s: %s", res.Status, res.Answer)
	}
	return nil
}

func runServer(ctx context.Context, f *flags) error {
	cfg, err := load(f)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := agent.EventFunc(func(ev agent.Event) {
		log.Debug("Событие агента",
			zap.String("kind", string(ev.Kind)),
			zap.Int("step", ev.Step),
			zap.String("text", ev.Text))
	})
	a, err := newApp(ctx, cfg, log, events)
	if err != nil {
		return err
	}
	defer a.close()

	return server.New(cfg.Server, log, a.repo, a.runner).Run(ctx)
}

func runMigrate(f *flags) error {
	cfg, err := load(f)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	return migrations.Run(cfg, log)
}
