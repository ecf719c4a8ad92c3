package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"onyxAgent/internal/agent"
	"onyxAgent/internal/cli/commands"
	"onyxAgent/internal/cli/ui"
	"onyxAgent/internal/database"
	"onyxAgent/internal/logger"

	"github.com/chzyer/readline"
)

const prompt = "> "

type CLI struct {
	log  *logger.Zap
	out  io.Writer
	rl   *readline.Instance
	line *lineReader

	engine string
	models []string

	taskHandler *commands.TaskHandler
	showHandler *commands.ShowHandler
	logsHandler *commands.LogsHandler
	pageHandler *commands.PageHandler
}

// Deps - всё, с чем работает оболочка.
type Deps struct {
	Repo   *database.TaskRepository
	Runner *agent.TaskRunner
	Agent  *agent.Agent
	Actor  agent.Actor
	Log    *logger.Zap
	Out    io.Writer
	Engine string
	Models []string
}

func New(d Deps) *CLI {
	if d.Out == nil {
		d.Out = os.Stdout
	}
	cli := &CLI{
		log:    d.Log,
		out:    d.Out,
		engine: d.Engine,
		models: d.Models,
	}

	// Инициализация handlers
	cli.taskHandler = commands.NewTaskHandler(d.Repo, d.Runner, d.Log.Logger, d.Out)
	cli.showHandler = commands.NewShowHandler(d.Repo, d.Log.Logger, d.Out)
	cli.logsHandler = commands.NewLogsHandler(d.Repo, d.Log.Logger, d.Out)
	cli.pageHandler = commands.NewPageHandler(d.Agent, d.Actor, d.Out)

	return cli
}

// initReadline подключает историю и редактирование строки; без терминала
// остаётся построчное чтение stdin.
func (c *CLI) initReadline() {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ui.ColorCyan + prompt + ui.ColorReset,
		HistoryFile:     ".onyx-history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		c.log.Warn("Не удалось инициализировать readline, будет использован fallback режим")
		c.line = newLineReader(os.Stdin, c.out, ui.ColorCyan+prompt+ui.ColorReset)
		return
	}
	c.rl = rl
}

func (c *CLI) readLine(ctx context.Context) (string, error) {
	if c.rl != nil {
		return c.rl.Readline()
	}
	return c.line.ReadLine(ctx)
}

func (c *CLI) closeReadline() {
	if c.rl != nil {
		c.rl.Close()
	}
}

func (c *CLI) Run(ctx context.Context) {
	c.initReadline()
	defer c.closeReadline()
	ui.PrintWelcome(c.out, c.engine, c.models)

	for {
		// Проверка отмены контекста
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out, "\n"+ui.ColorCyan+ui.IconWave+" Получен сигнал завершения..."+ui.ColorReset)
			return
		default:
		}

		line, err := c.readLine(ctx)
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return
			}
			continue
		} else if err != nil {
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if !c.handleCommand(ctx, line) {
			return
		}
	}
}

// handleCommand выполняет строку; false - выход из оболочки.
func (c *CLI) handleCommand(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch {
	case cmd == "exit" || cmd == "quit":
		fmt.Fprintln(c.out, ui.ColorCyan+ui.IconWave+" До свидания!"+ui.ColorReset)
		return false

	case cmd == "clear":
		ui.ClearScreen()

	case cmd == "go" && arg != "":
		c.taskHandler.Go(ctx, arg)

	case cmd == "task" && arg != "":
		c.taskHandler.Create(arg)

	case cmd == "tasks":
		c.taskHandler.List()

	case cmd == "run" && arg != "":
		c.taskHandler.Run(ctx, arg)

	case cmd == "stop":
		c.taskHandler.Stop()

	case cmd == "show" && arg != "":
		c.showHandler.Show(arg)

	case cmd == "logs" && arg != "":
		c.logsHandler.Show(arg)

	case cmd == "ask" && arg != "":
		c.pageHandler.Ask(ctx, arg)

	case cmd == "open" && arg != "":
		c.pageHandler.Open(ctx, arg)

	default:
		ui.PrintHelp(c.out)
	}
	return true
}
