package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"onyxAgent/internal/cli/ui"
	"onyxAgent/internal/database"

	"go.uber.org/zap"
)

// ShowHandler обрабатывает команды просмотра деталей
type ShowHandler struct {
	repo *database.TaskRepository
	log  *zap.Logger
	out  io.Writer
}

func NewShowHandler(repo *database.TaskRepository, log *zap.Logger, out io.Writer) *ShowHandler {
	return &ShowHandler{
		repo: repo,
		log:  log,
		out:  out,
	}
}

// Show выводит детали задачи со всеми шагами
func (h *ShowHandler) Show(idStr string) {
	task, ok := findTask(h.repo, h.out, idStr)
	if !ok {
		return
	}

	_, color, statusText := ui.FormatStatus(task.Status)

	fmt.Fprintf(h.out, "\n"+ui.ColorBold+"=== Задача #%d ==="+ui.ColorReset+"\n", task.ID)
	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconDocument+" Цель:"+ui.ColorReset+" %s\n", task.Goal)
	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconChart+" Статус:"+ui.ColorReset+" %s%s"+ui.ColorReset+"\n", color, statusText)
	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconTime+" Создана:"+ui.ColorReset+" %s\n", task.CreatedAt.Format("2006-01-02 15:04:05"))
	if task.ResultSummary != "" {
		fmt.Fprintf(h.out, ui.ColorCyan+ui.IconChat+" Результат:"+ui.ColorReset+" %s\n", task.ResultSummary)
	}

	steps, err := h.repo.GetStepsByTaskID(task.ID)
	if err != nil {
		h.log.Error("Ошибка получения шагов", zap.Error(err))
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Ошибка получения шагов"+ui.ColorReset)
		return
	}

	if len(steps) == 0 {
		fmt.Fprintln(h.out, "\n"+ui.ColorGray+"Шаги не найдены"+ui.ColorReset)
		fmt.Fprintln(h.out)
		return
	}

	fmt.Fprintf(h.out, "\n"+ui.ColorYellow+ui.IconLoop+" Шаги выполнения (%d):"+ui.ColorReset+"\n", len(steps))
	runID := ""
	for _, step := range steps {
		if step.RunID != runID {
			runID = step.RunID
			fmt.Fprintf(h.out, "\n"+ui.ColorGray+"— прогон %s"+ui.ColorReset+"\n", runID)
		}
		fmt.Fprintf(h.out, "\n"+ui.ColorBold+"[Шаг %d]"+ui.ColorReset+" "+ui.ColorCyan+"%s"+ui.ColorReset+"\n", step.StepNo, step.ActionType)
		if step.Target != "" {
			fmt.Fprintf(h.out, "  "+ui.ColorGray+"Цель:"+ui.ColorReset+" %s\n", step.Target)
		}
		if step.Thought != "" {
			fmt.Fprintf(h.out, "  "+ui.ColorGray+"Мысль:"+ui.ColorReset+" %s\n", step.Thought)
		}
		if step.Result != "" {
			fmt.Fprintf(h.out, "  %sРезультат:"+ui.ColorReset+" %s\n", resultColor(step.Result), step.Result)
		}
		fmt.Fprintf(h.out, "  "+ui.ColorGray+ui.IconTime+" %s"+ui.ColorReset+"\n", step.CreatedAt.Format("15:04:05"))
	}
	fmt.Fprintln(h.out)
}

func findTask(repo *database.TaskRepository, out io.Writer, idStr string) (*database.Task, bool) {
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		fmt.Fprintln(out, ui.ColorRed+ui.IconCross+" Неверный ID задачи"+ui.ColorReset)
		return nil, false
	}
	task, err := repo.GetTaskByID(uint(id))
	if err != nil {
		fmt.Fprintln(out, ui.ColorRed+ui.IconCross+" Задача не найдена"+ui.ColorReset)
		return nil, false
	}
	return task, true
}

// resultColor: красный для ошибок выполнения, серый для «не найдено».
func resultColor(result string) string {
	switch {
	case hasAnyPrefix(result, "ERROR", "Click failed", "Crash prevented", "Navigation failed", "Unknown tool", "Invalid"):
		return ui.ColorRed
	case hasAnyPrefix(result, "Could not find", "No text content"):
		return ui.ColorGray
	}
	return ui.ColorGreen
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
