package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"onyxAgent/internal/executor"
	"onyxAgent/internal/llm"
)

type ErrorType int

const (
	ErrorTypeTemporary ErrorType = iota
	ErrorTypeCritical
	ErrorTypeRetryable
)

func (e ErrorType) String() string {
	switch e {
	case ErrorTypeTemporary:
		return "temporary"
	case ErrorTypeCritical:
		return "critical"
	case ErrorTypeRetryable:
		return "retryable"
	default:
		return "unknown"
	}
}

type ActionError struct {
	Type    ErrorType
	Action  string
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// classifyError: сбой модели и отмена критичны, разбор ответа можно повторить,
// остальное (страница, селекторы) временно.
func classifyError(action string, err error) *ActionError {
	if err == nil {
		return nil
	}

	typ := ErrorTypeTemporary
	var apiErr *llm.APIError
	switch {
	case errors.Is(err, llm.ErrInvalidModelOutput):
		typ = ErrorTypeRetryable
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, llm.ErrAllBackendsExhausted),
		errors.Is(err, llm.ErrNoBackends),
		errors.As(err, &apiErr):
		typ = ErrorTypeCritical
	default:
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "timeout") || strings.Contains(msg, "connection") || strings.Contains(msg, "network") {
			typ = ErrorTypeRetryable
		}
	}

	return &ActionError{Type: typ, Action: action, Message: err.Error(), Err: err}
}

// classifyOutcome переводит результат исполнителя в тип ошибки для журнала.
func classifyOutcome(action string, out executor.Outcome) *ActionError {
	if !out.Failed() {
		return nil
	}
	return classifyError(action, errors.New(out.Text))
}
