package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"onyxAgent/internal/agent"
	"onyxAgent/internal/cli/ui"
	"onyxAgent/internal/database"

	"go.uber.org/zap"
)

// TaskHandler обрабатывает команды связанные с задачами
type TaskHandler struct {
	repo   *database.TaskRepository
	runner *agent.TaskRunner
	log    *zap.Logger
	out    io.Writer
}

func NewTaskHandler(repo *database.TaskRepository, runner *agent.TaskRunner, log *zap.Logger, out io.Writer) *TaskHandler {
	return &TaskHandler{
		repo:   repo,
		runner: runner,
		log:    log,
		out:    out,
	}
}

// Create создает новую задачу
func (h *TaskHandler) Create(goal string) {
	task := database.Task{Goal: goal, Status: database.StatusPending}
	if err := h.repo.CreateTask(&task); err != nil {
		h.log.Error("Ошибка создания задачи", zap.Error(err))
		fmt.Fprintf(h.out, ui.ColorRed+ui.IconCross+" Ошибка:"+ui.ColorReset+" %v\n", err)
		return
	}
	fmt.Fprintf(h.out, ui.ColorGreen+ui.IconCheckmark+" Создана задача #%d"+ui.ColorReset+"\n", task.ID)
}

// List выводит список задач
func (h *TaskHandler) List() {
	tasks, err := h.repo.ListTasks(50, 0)
	if err != nil {
		h.log.Error("Ошибка чтения задач", zap.Error(err))
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Ошибка чтения задач"+ui.ColorReset)
		return
	}
	if len(tasks) == 0 {
		fmt.Fprintln(h.out, ui.ColorGray+"Задач пока нет"+ui.ColorReset)
		return
	}
	fmt.Fprintln(h.out, "\n"+ui.ColorBold+ui.IconList+" Список задач:"+ui.ColorReset)
	fmt.Fprintln(h.out)
	for _, t := range tasks {
		icon, color, text := ui.FormatStatus(t.Status)
		fmt.Fprintf(h.out, "  "+ui.ColorBold+"#%d"+ui.ColorReset+" %s%s %s"+ui.ColorReset+"\n", t.ID, color, icon, text)
		fmt.Fprintf(h.out, "  "+ui.ColorGray+"└─"+ui.ColorReset+" %s\n", t.Goal)
		fmt.Fprintln(h.out)
	}
}

// Run выполняет сохранённую задачу
func (h *TaskHandler) Run(ctx context.Context, idStr string) {
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Неверный ID задачи"+ui.ColorReset)
		return
	}
	task, err := h.repo.GetTaskByID(uint(id))
	if err != nil {
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Задача не найдена"+ui.ColorReset)
		return
	}

	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconPlay+" Запуск задачи #%d:"+ui.ColorReset+" %s\n", task.ID, task.Goal)
	release := h.stopOnInterrupt()
	res, err := h.runner.Run(ctx, task.ID)
	release()
	h.report(res, err)
}

// Go создает задачу и сразу выполняет её
func (h *TaskHandler) Go(ctx context.Context, goal string) {
	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconPlay+" Запуск:"+ui.ColorReset+" %s\n", goal)
	release := h.stopOnInterrupt()
	task, res, err := h.runner.Submit(ctx, goal)
	release()
	if task != nil {
		fmt.Fprintf(h.out, ui.ColorGray+"Задача #%d"+ui.ColorReset+"\n", task.ID)
	}
	h.report(res, err)
}

// Stop просит текущий прогон остановиться
func (h *TaskHandler) Stop() {
	if h.runner.Stop() {
		fmt.Fprintln(h.out, ui.ColorYellow+ui.IconStop+" Остановка после текущего шага..."+ui.ColorReset)
		return
	}
	fmt.Fprintln(h.out, ui.ColorGray+"Нет активного прогона"+ui.ColorReset)
}

func (h *TaskHandler) report(res agent.Result, err error) {
	switch {
	case errors.Is(err, agent.ErrBusy):
		fmt.Fprintln(h.out, ui.ColorYellow+ui.IconClock+" Агент занят другой задачей"+ui.ColorReset)
	case err != nil:
		fmt.Fprintf(h.out, ui.ColorRed+ui.IconCross+" Ошибка:"+ui.ColorReset+" %v\n", err)
	case res.Status == agent.StatusCompleted:
		fmt.Fprintf(h.out, ui.ColorGreen+ui.IconCheckmark+" Задача выполнена за %d шаг(ов)"+ui.ColorReset+"\n", res.Steps)
	default:
		fmt.Fprintf(h.out, ui.ColorYellow+ui.IconCross+" Прогон завершён: %s"+ui.ColorReset+"\n", res.Status)
	}
}

// stopOnInterrupt останавливает прогон по Ctrl+C, пока он идёт.
func (h *TaskHandler) stopOnInterrupt() (release func()) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	done := make(chan struct{})
	go func() {
		select {
		case <-sig:
			h.Stop()
		case <-done:
		}
	}()
	return func() {
		signal.Stop(sig)
		close(done)
	}
}
