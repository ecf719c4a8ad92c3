package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"onyxAgent/internal/executor"
	"onyxAgent/internal/llm"
	"onyxAgent/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// New создает агента. Нулевые значения конфигурации заменяются умолчаниями:
//   - MaxSteps: 5
//   - PageContextLimit: 12000
//   - MaxErrors: 3
//
// Cooldown не меняется: ноль означает работу без паузы.
func New(model llm.Completer, actor Actor, log *logger.Zap, cfg Config) *Agent {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 5
	}
	if cfg.PageContextLimit <= 0 {
		cfg.PageContextLimit = 12000
	}
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = 3
	}
	if log == nil {
		log = logger.Nop()
	}

	a := &Agent{
		model:    model,
		actor:    actor,
		log:      log,
		cfg:      cfg,
		events:   cfg.Events,
		recorder: cfg.Recorder,
	}
	if a.events == nil {
		a.events = discard{}
	}
	return a
}

// Stop просит текущий прогон остановиться перед следующим шагом. Действие,
// которое уже выполняется, не прерывается.
func (a *Agent) Stop() {
	a.stop.set()
}

// contextFields создаёт набор контекстных полей для логирования
func (a *Agent) contextFields(runID string, stepNo int, fields ...zap.Field) []zap.Field {
	result := make([]zap.Field, 0, len(fields)+2)
	if runID != "" {
		result = append(result, zap.String("run_id", runID))
	}
	if stepNo > 0 {
		result = append(result, zap.Int("step", stepNo))
	}
	return append(result, fields...)
}

func (a *Agent) emit(kind EventKind, step int, text string) {
	a.events.Emit(Event{Kind: kind, Text: text, Step: step})
}

// Run выполняет цель: не больше MaxSteps шагов «страница → модель → действие».
func (a *Agent) Run(ctx context.Context, goal string) Result {
	return a.RunWith(ctx, goal, a.recorder)
}

// RunWith - Run с отдельным журналом шагов для этого прогона.
func (a *Agent) RunWith(ctx context.Context, goal string, rec StepRecorder) Result {
	a.stop.reset()
	return a.run(ctx, uuid.NewString(), &RunState{Goal: goal, recorder: rec})
}

func (a *Agent) run(ctx context.Context, runID string, st *RunState) Result {
	parse := NewCircuitBreaker(a.cfg.MaxErrors, &st.ConsecutiveErrors)
	exec := NewCircuitBreaker(a.cfg.MaxErrors, &st.ExecutionErrors)

	a.log.Info("Запуск цели", a.contextFields(runID, 0, zap.String("goal", st.Goal), zap.Int("max_steps", a.cfg.MaxSteps))...)
	a.emit(EventSystem, 0, fmt.Sprintf("🧠 Goal: %q", st.Goal))

	for st.Step < a.cfg.MaxSteps {
		if a.stop.isSet() || ctx.Err() != nil {
			st.cancelled = true
			return a.finish(runID, st, StatusCancelled, "Stopped by user.", "⏹ Stopped by user.")
		}

		st.Step++
		a.emit(EventSystem, st.Step, fmt.Sprintf("📍 Step %d/%d", st.Step, a.cfg.MaxSteps))

		if res, done := a.step(ctx, runID, st, parse, exec); done {
			return res
		}
	}

	return a.finish(runID, st, StatusStepLimit, "Reached step limit.",
		fmt.Sprintf("Completed %d steps for: %q.", a.cfg.MaxSteps, st.Goal))
}

// finish отдаёт итог и публикует финальный ответ для интерфейса.
func (a *Agent) finish(runID string, st *RunState, status Status, answer, shown string) Result {
	a.emit(EventAnswer, st.Step, shown)
	a.log.Info("Прогон завершён", a.contextFields(runID, st.Step, zap.String("status", string(status)))...)
	return Result{RunID: runID, Status: status, Answer: answer, Steps: st.Step}
}

func (a *Agent) step(ctx context.Context, runID string, st *RunState, parse, exec *CircuitBreaker) (res Result, done bool) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		msg := fmt.Sprint(r)
		a.log.Error("Паника на шаге", a.contextFields(runID, st.Step, zap.String("panic", msg))...)
		st.History = append(st.History, llm.User("ERROR: "+msg))
		a.emit(EventError, st.Step, msg)
		if exec.Fail() {
			res = a.finish(runID, st, StatusCircuitOpen, "Agent stopped due to errors.", "Something went wrong. Please try again.")
			done = true
		}
	}()

	page := a.pageText(ctx, runID, st.Step)
	messages := make([]llm.Message, 0, len(st.History)+2)
	messages = append(messages, llm.System(systemPrompt))
	messages = append(messages, st.History...)
	messages = append(messages, llm.User(stepTurn(page, st.Goal, st.Step, a.cfg.MaxSteps)))

	raw, err := a.model.Complete(ctx, messages)
	if err != nil {
		if ctx.Err() != nil {
			st.cancelled = true
			return a.finish(runID, st, StatusCancelled, "Stopped by user.", "⏹ Stopped by user."), true
		}
		a.log.Error("Модель недоступна", a.contextFields(runID, st.Step,
			zap.Error(err), zap.String("error_type", classifyError("model", err).Type.String()))...)
		answer := "AI Error: " + err.Error()
		return a.finish(runID, st, StatusModelUnavailable, answer, answer), true
	}

	cmd, err := llm.ParseCommand(raw)
	if err != nil {
		st.History = append(st.History, llm.Assistant(raw), llm.User(correctiveTurn))
		a.log.Warn("Некорректный ответ модели", a.contextFields(runID, st.Step,
			zap.Error(err), zap.Int("consecutive", parse.Failures()+1))...)
		a.emit(EventError, st.Step, "Invalid model output, asking again.")
		if parse.Fail() {
			return a.finish(runID, st, StatusCircuitOpen,
				fmt.Sprintf("Model returned invalid output %d times in a row. Stopping.", parse.Failures()),
				"Multiple errors. Please try a simpler request."), true
		}
		return Result{}, false
	}
	parse.Succeed()
	st.History = append(st.History, llm.Assistant(cmd.Encode()))

	if cmd.Thought != "" {
		a.emit(EventThought, st.Step, cmd.Thought)
	}

	if cmd.Tool == llm.ToolClick && !st.HasTyped && looksLikeSearchControl(cmd.Target()) {
		st.History = append(st.History, llm.User(blockedTurn))
		a.log.Info("Клик по кнопке поиска до ввода заблокирован", a.contextFields(runID, st.Step, zap.String("target", cmd.Target()))...)
		a.emit(EventObservation, st.Step, "⛔ "+blockedTurn)
		a.record(ctx, runID, st, cmd, blockedTurn)
		return Result{}, false
	}
	switch cmd.Tool {
	case llm.ToolType:
		st.HasTyped = true
	case llm.ToolNavigate:
		st.HasTyped = false
	}

	if cmd.Tool.Terminal() {
		text := cmd.Text()
		a.record(ctx, runID, st, cmd, text)
		a.emit(EventAnswer, st.Step, text)
		a.log.Info("Получен ответ", a.contextFields(runID, st.Step)...)
		return Result{RunID: runID, Status: StatusCompleted, Answer: text, Steps: st.Step}, true
	}

	a.emit(EventAction, st.Step, fmt.Sprintf("⚡ %s(%s)", cmd.Tool, paramsJSON(cmd.Params)))
	start := time.Now()
	out, blocked := a.guardNavigation(runID, st, cmd)
	if !blocked {
		out = a.actor.Execute(ctx, cmd)
	}

	obs := out.Observation()
	if cmd.Tool == llm.ToolNavigate && !blocked {
		obs += navigateHint
	}
	st.History = append(st.History, llm.User("OBSERVATION: "+obs))
	a.emit(EventObservation, st.Step, out.Summary())
	a.record(ctx, runID, st, cmd, obs)

	if actionErr := classifyOutcome(string(cmd.Tool), out); actionErr != nil {
		a.log.Warn("Ошибка выполнения действия", a.contextFields(runID, st.Step,
			zap.String("action", string(cmd.Tool)),
			zap.String("error", actionErr.Message),
			zap.String("error_type", actionErr.Type.String()))...)
		if exec.Fail() {
			return a.finish(runID, st, StatusCircuitOpen, "Multiple errors. Stopping.",
				"Multiple errors. Please try a simpler request."), true
		}
	} else {
		exec.Succeed()
		a.log.Debug("Действие выполнено", a.contextFields(runID, st.Step,
			zap.String("action", string(cmd.Tool)),
			zap.String("strategy", out.Strategy),
			zap.Duration("took", time.Since(start)))...)
	}

	a.cooldown(ctx)
	return Result{}, false
}

// guardNavigation не пускает на админ-панели и предупреждает о финансовых
// и государственных сайтах.
func (a *Agent) guardNavigation(runID string, st *RunState, cmd llm.Command) (executor.Outcome, bool) {
	if cmd.Tool != llm.ToolNavigate {
		return executor.Outcome{}, false
	}
	target := cmd.Params.String("url")
	sec := CheckDomainSecurity(target)
	switch sec.Level {
	case DomainBlocked:
		a.log.Warn("Переход заблокирован", a.contextFields(runID, st.Step,
			zap.String("url", target), zap.String("reason", sec.Reason))...)
		return executor.Outcome{
			Kind: executor.KindError,
			Text: fmt.Sprintf("Navigation blocked: %s is an admin page.", target),
		}, true
	case DomainCritical:
		a.log.Warn("Переход на критичный домен", a.contextFields(runID, st.Step,
			zap.String("url", target), zap.String("category", sec.Description))...)
		a.emit(EventSystem, st.Step, fmt.Sprintf("⚠️ Sensitive site (%s): %s", sec.Description, sec.Reason))
	}
	return executor.Outcome{}, false
}

func (a *Agent) pageText(ctx context.Context, runID string, stepNo int) string {
	text, err := a.actor.ReadPage(ctx)
	if err != nil {
		a.log.Warn("Ошибка получения контекста страницы", a.contextFields(runID, stepNo, zap.Error(err))...)
		text = unreadablePage
	}
	if text == "" {
		text = emptyPage
	}
	return clip(text, a.cfg.PageContextLimit)
}

func (a *Agent) record(ctx context.Context, runID string, st *RunState, cmd llm.Command, result string) {
	if st.recorder == nil {
		return
	}
	rec := StepRecord{
		RunID:   runID,
		StepNo:  st.Step,
		Tool:    string(cmd.Tool),
		Target:  cmd.Target(),
		Thought: cmd.Thought,
		Result:  result,
	}
	if err := st.recorder.RecordStep(ctx, rec); err != nil {
		a.log.Error("Ошибка сохранения шага", a.contextFields(runID, st.Step, zap.Error(err))...)
	}
}

func (a *Agent) cooldown(ctx context.Context) {
	if a.cfg.Cooldown <= 0 {
		return
	}
	t := time.NewTimer(a.cfg.Cooldown)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Ask - разовый вопрос о текущей странице без цикла. Если ответ модели не
// разобран, возвращается chat-команда с извинением.
func (a *Agent) Ask(ctx context.Context, prompt string) (llm.Command, error) {
	page, err := a.actor.ReadPage(ctx)
	if err != nil {
		a.log.Warn("Ошибка получения контекста страницы", zap.Error(err))
		page = ""
	}
	page = strings.Join(strings.Fields(clip(page, a.cfg.PageContextLimit)), " ")

	raw, err := a.model.Complete(ctx, []llm.Message{
		llm.System(systemPrompt),
		llm.User(quickTurn(page, prompt)),
	})
	if err != nil {
		return llm.Command{}, fmt.Errorf("запрос к модели: %w", err)
	}

	cmd, err := llm.ParseCommand(raw)
	if err != nil {
		a.log.Warn("Ответ модели не разобран", zap.Error(err), zap.String("raw", clip(raw, 200)))
		return llm.Command{Tool: llm.ToolChat, Params: llm.Params{"message": parseApology}}, nil
	}
	return cmd, nil
}

func paramsJSON(p llm.Params) string {
	if p == nil {
		return "{}"
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(b)
}
