package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
)

// ChatAPI - часть go-openai, которой пользуется клиент.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type FailureKind int

const (
	FailureNone FailureKind = iota
	// FailureRateLimited - 429/503: пауза и следующая модель.
	FailureRateLimited
	// FailureProvider - временная ошибка провайдера: следующая модель без паузы.
	FailureProvider
	// FailureFatal - прочие HTTP-ошибки: перебор прекращается.
	FailureFatal
	// FailureTransport - сеть: следующая модель, на последней - ошибка наружу.
	FailureTransport
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureRateLimited:
		return "rate-limited"
	case FailureProvider:
		return "provider"
	case FailureFatal:
		return "fatal"
	case FailureTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Failure - классифицированная ошибка бэкенда.
type Failure struct {
	Kind    FailureKind
	Status  int
	Message string
}

// Classifier решает, что делать с ошибкой конкретного бэкенда.
type Classifier func(err error) Failure

// Backend - одна модель в списке перебора.
type Backend struct {
	Model    string
	API      ChatAPI
	Classify Classifier
}

var providerMarkers = []string{"Provider returned error", "rate-limit"}

// ClassifyOpenRouter разбирает ошибки go-openai так, как их отдаёт OpenRouter.
func ClassifyOpenRouter(err error) Failure {
	if err == nil {
		return Failure{Kind: FailureNone}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, apiErr.Message, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := string(reqErr.Body)
		msg := gjson.Get(body, "error.message").String()
		if msg == "" {
			msg = gjson.Get(body, "message").String()
		}
		return classifyStatus(reqErr.HTTPStatusCode, body, msg)
	}

	return Failure{Kind: FailureTransport, Message: err.Error()}
}

func classifyStatus(status int, body, message string) Failure {
	f := Failure{Status: status, Message: message}
	switch {
	case status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable:
		f.Kind = FailureRateLimited
	case containsAny(body, providerMarkers):
		f.Kind = FailureProvider
	case status == 0:
		f.Kind = FailureTransport
	default:
		f.Kind = FailureFatal
		if f.Message == "" {
			f.Message = fmt.Sprintf("API Error (%d)", status)
		}
	}
	return f
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
