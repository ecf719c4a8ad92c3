// Package agent реализует цикл агента: модель предлагает команду, исполнитель
// выполняет её на странице, наблюдение возвращается модели. Цикл ограничен
// числом шагов и размыкается после серии ошибок подряд.
package agent

import (
	"context"
	"time"

	"onyxAgent/internal/config"
	"onyxAgent/internal/executor"
	"onyxAgent/internal/llm"
	"onyxAgent/internal/logger"
)

// Actor выполняет команды на текущей странице.
type Actor interface {
	Execute(ctx context.Context, cmd llm.Command) executor.Outcome
	ReadPage(ctx context.Context) (string, error)
}

// Agent хранит зависимости и флаг остановки. Состояние прогона живёт в
// RunState и не разделяется между прогонами.
type Agent struct {
	model    llm.Completer
	actor    Actor
	log      *logger.Zap
	cfg      Config
	events   EventSink
	recorder StepRecorder

	stop stopFlag
}

// Config содержит конфигурацию для агента.
type Config struct {
	MaxSteps         int           // Максимум шагов за прогон
	PageContextLimit int           // Сколько символов сводки страницы уходит модели
	Cooldown         time.Duration // Пауза после каждого действия
	MaxErrors        int           // Ошибок подряд до размыкания
	Events           EventSink
	Recorder         StepRecorder
}

// FromConfig переносит настройки из config.Agent.
func FromConfig(c config.Agent) Config {
	return Config{
		MaxSteps:         c.MaxSteps,
		PageContextLimit: c.PageContextLimit,
		Cooldown:         c.Cooldown,
		MaxErrors:        c.MaxErrors,
	}
}

type Status string

const (
	StatusCompleted        Status = "completed"
	StatusStepLimit        Status = "step-limit"
	StatusCircuitOpen      Status = "circuit-open"
	StatusModelUnavailable Status = "model-unavailable"
	StatusCancelled        Status = "cancelled"
)

// Result - итог прогона. Answer всегда читаемая строка.
type Result struct {
	RunID  string
	Status Status
	Answer string
	Steps  int
}

// RunState - состояние одного прогона. Меняется только циклом.
// Счётчики ошибок разбора и выполнения раздельные, у каждого свой порог:
// разобранный ответ сбрасывает только первый, удачное действие только второй.
type RunState struct {
	Goal              string
	History           []llm.Message
	Step              int
	ConsecutiveErrors int // ошибки разбора ответа модели подряд
	ExecutionErrors   int // ошибки выполнения подряд
	HasTyped          bool
	cancelled         bool
	recorder          StepRecorder
}

// StepRecord - шаг для журнала.
type StepRecord struct {
	RunID   string
	StepNo  int
	Tool    string
	Target  string
	Thought string
	Result  string
}

// StepRecorder сохраняет выполненные шаги.
type StepRecorder interface {
	RecordStep(ctx context.Context, rec StepRecord) error
}
