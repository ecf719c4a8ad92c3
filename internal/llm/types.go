// Package llm - протокол команд модели и клиент OpenAI-совместимого API с
// перебором моделей при перегрузке провайдера.
package llm

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

func System(content string) Message    { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message      { return Message{Role: RoleUser, Content: content} }
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// Logger сохраняет запросы к модели (обычно в БД).
type Logger interface {
	LogLLMRequest(ctx context.Context, taskID *uint, role, promptText, responseText, model string, tokensUsed int) error
}

// Completer - то, что нужно агенту от клиента модели.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

type taskKey struct{}

// WithTaskID привязывает запросы к задаче для журнала.
func WithTaskID(ctx context.Context, id uint) context.Context {
	return context.WithValue(ctx, taskKey{}, id)
}

func taskIDFrom(ctx context.Context) *uint {
	if id, ok := ctx.Value(taskKey{}).(uint); ok {
		return &id
	}
	return nil
}
