package commands

import (
	"fmt"
	"io"

	"onyxAgent/internal/cli/ui"
	"onyxAgent/internal/database"

	"go.uber.org/zap"
)

const logsLimit = 20

// LogsHandler показывает журнал запросов к модели
type LogsHandler struct {
	repo *database.TaskRepository
	log  *zap.Logger
	out  io.Writer
}

func NewLogsHandler(repo *database.TaskRepository, log *zap.Logger, out io.Writer) *LogsHandler {
	return &LogsHandler{
		repo: repo,
		log:  log,
		out:  out,
	}
}

// Show выводит последние запросы к модели по задаче, новые сверху
func (h *LogsHandler) Show(idStr string) {
	task, ok := findTask(h.repo, h.out, idStr)
	if !ok {
		return
	}

	fmt.Fprintf(h.out, "\n"+ui.ColorBold+"=== "+ui.IconList+" LLM логи задачи #%d ==="+ui.ColorReset+"\n", task.ID)
	fmt.Fprintf(h.out, ui.ColorCyan+"Цель:"+ui.ColorReset+" %s\n", task.Goal)
	fmt.Fprintf(h.out, ui.ColorCyan+"Статус:"+ui.ColorReset+" %s\n\n", task.Status)

	logs, err := h.repo.GetLLMLogsByTaskID(task.ID, logsLimit)
	if err != nil {
		h.log.Error("Ошибка получения логов", zap.Error(err))
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Ошибка получения логов"+ui.ColorReset)
		return
	}

	if len(logs) == 0 {
		fmt.Fprintln(h.out, ui.ColorGray+"Логи не найдены"+ui.ColorReset)
		return
	}

	for _, l := range logs {
		fmt.Fprintf(h.out, ui.ColorGray+"[%s]"+ui.ColorReset+" "+ui.ColorCyan+"%s"+ui.ColorReset, l.CreatedAt.Format("15:04:05"), l.Model)
		if l.TokensUsed > 0 {
			fmt.Fprintf(h.out, " "+ui.ColorGray+"(%d токенов)"+ui.ColorReset, l.TokensUsed)
		}
		fmt.Fprintln(h.out)
		fmt.Fprintf(h.out, "  "+ui.ColorYellow+"→"+ui.ColorReset+" %s\n", ui.Shorten(l.PromptText, 120))
		fmt.Fprintf(h.out, "  "+ui.ColorGreen+"←"+ui.ColorReset+" %s\n", ui.Shorten(l.ResponseText, 200))
	}
	fmt.Fprintln(h.out)
}
