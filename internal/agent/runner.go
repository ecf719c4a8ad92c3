package agent

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"onyxAgent/internal/database"
	"onyxAgent/internal/llm"
	"onyxAgent/internal/logger"

	"go.uber.org/zap"
)

// ErrBusy - у агента уже идёт прогон: страница одна на всех.
var ErrBusy = errors.New("агент уже выполняет задачу")

// TaskRunner выполняет сохранённые задачи по одной: статус running,
// прогон с журналом шагов, итоговый статус.
type TaskRunner struct {
	agent *Agent
	repo  *database.TaskRepository
	log   *logger.Zap

	busy atomic.Bool
}

func NewTaskRunner(a *Agent, repo *database.TaskRepository, log *logger.Zap) *TaskRunner {
	if log == nil {
		log = logger.Nop()
	}
	return &TaskRunner{agent: a, repo: repo, log: log}
}

// Busy - идёт ли сейчас прогон.
func (r *TaskRunner) Busy() bool {
	return r.busy.Load()
}

// Stop останавливает текущий прогон, если он есть.
func (r *TaskRunner) Stop() bool {
	if !r.busy.Load() {
		return false
	}
	r.agent.Stop()
	return true
}

// Submit создаёт задачу и сразу выполняет её.
func (r *TaskRunner) Submit(ctx context.Context, goal string) (*database.Task, Result, error) {
	task := &database.Task{Goal: goal, Status: database.StatusPending}
	if err := r.repo.CreateTask(task); err != nil {
		return nil, Result{}, fmt.Errorf("создание задачи: %w", err)
	}
	res, err := r.Run(ctx, task.ID)
	return task, res, err
}

// Run выполняет задачу id. Возвращает ErrBusy, если занят другой прогон.
func (r *TaskRunner) Run(ctx context.Context, id uint) (Result, error) {
	task, err := r.claim(id)
	if err != nil {
		return Result{}, err
	}
	defer r.busy.Store(false)
	return r.execute(ctx, task), nil
}

// Start запускает задачу в фоне; итог придёт в канал. Занятость и
// существование задачи проверяются до возврата.
func (r *TaskRunner) Start(ctx context.Context, id uint) (<-chan Result, error) {
	task, err := r.claim(id)
	if err != nil {
		return nil, err
	}
	out := make(chan Result, 1)
	go func() {
		defer r.busy.Store(false)
		out <- r.execute(ctx, task)
	}()
	return out, nil
}

func (r *TaskRunner) claim(id uint) (*database.Task, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	task, err := r.repo.GetTaskByID(id)
	if err != nil {
		r.busy.Store(false)
		return nil, fmt.Errorf("задача #%d: %w", id, err)
	}
	if err := r.repo.UpdateTaskStatus(task.ID, database.StatusRunning, ""); err != nil {
		r.busy.Store(false)
		return nil, fmt.Errorf("статус задачи #%d: %w", id, err)
	}
	return task, nil
}

func (r *TaskRunner) execute(ctx context.Context, task *database.Task) Result {
	r.log.Info("Запуск задачи", zap.Uint("task_id", task.ID), zap.String("goal", task.Goal))

	rec := NewTaskRecorder(r.repo, task.ID)
	res := r.agent.RunWith(llm.WithTaskID(ctx, task.ID), task.Goal, rec)

	if err := rec.Finish(res); err != nil {
		r.log.Error("Ошибка сохранения итога задачи", zap.Uint("task_id", task.ID), zap.Error(err))
	}
	r.log.Info("Задача завершена",
		zap.Uint("task_id", task.ID),
		zap.String("status", string(res.Status)),
		zap.Int("steps", res.Steps))
	return res
}
