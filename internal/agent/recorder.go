package agent

import (
	"context"

	"onyxAgent/internal/database"
	"onyxAgent/internal/sanitizer"
)

// TaskRecorder пишет шаги прогона в БД, очищая цели и результаты от
// чувствительных данных.
type TaskRecorder struct {
	repo      *database.TaskRepository
	taskID    uint
	sanitizer *sanitizer.DataSanitizer
}

func NewTaskRecorder(repo *database.TaskRepository, taskID uint) *TaskRecorder {
	return &TaskRecorder{repo: repo, taskID: taskID, sanitizer: sanitizer.New()}
}

func (r *TaskRecorder) RecordStep(_ context.Context, rec StepRecord) error {
	return r.repo.CreateStep(r.createStepRecord(rec))
}

func (r *TaskRecorder) createStepRecord(rec StepRecord) *database.AgentStep {
	return &database.AgentStep{
		TaskID:     r.taskID,
		RunID:      rec.RunID,
		StepNo:     rec.StepNo,
		ActionType: rec.Tool,
		Target:     r.sanitizer.SanitizeSelector(rec.Target),
		Thought:    r.sanitizer.Sanitize(rec.Thought),
		Result:     r.sanitizer.Sanitize(rec.Result),
	}
}

// Finish переводит задачу в итоговый статус по результату прогона.
func (r *TaskRecorder) Finish(res Result) error {
	status := database.StatusFailed
	if res.Status == StatusCompleted {
		status = database.StatusCompleted
	}
	return r.repo.UpdateTaskStatus(r.taskID, status, r.sanitizer.Sanitize(res.Answer))
}
