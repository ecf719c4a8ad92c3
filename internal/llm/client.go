package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"onyxAgent/internal/config"
	"onyxAgent/internal/sanitizer"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var (
	// ErrAllBackendsExhausted - все модели списка ответили перегрузкой.
	ErrAllBackendsExhausted = errors.New("All free models are rate-limited. Please try again in a minute.")
	ErrNoBackends           = errors.New("не настроено ни одной модели")
	ErrMissingAPIKey        = errors.New("OpenRouter API Key is missing. Please add it in Settings.")
)

// APIError - ошибка, после которой перебор моделей прекращается.
type APIError struct {
	Model  string
	Status int
	Text   string
}

func (e *APIError) Error() string {
	return e.Text
}

type Options struct {
	Temperature   float32
	MaxTokens     int
	RateLimitWait time.Duration
	Limiter       *RateLimiter
	Logger        Logger
	Log           *zap.Logger
}

type Client struct {
	backends      []Backend
	temperature   float32
	maxTokens     int
	rateLimitWait time.Duration
	rateLimiter   *RateLimiter
	logger        Logger
	sanitizer     *sanitizer.DataSanitizer
	log           *zap.Logger
}

// NewClient собирает клиент OpenRouter: один go-openai клиент на все модели
// из конфигурации, с заголовками HTTP-Referer и X-Title.
func NewClient(cfg config.LLM, logger Logger, log *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	ocfg := openai.DefaultConfig(cfg.APIKey)
	ocfg.BaseURL = cfg.BaseURL
	ocfg.HTTPClient = &http.Client{
		Timeout: 90 * time.Second,
		Transport: &headerTransport{
			base: http.DefaultTransport,
			headers: map[string]string{
				"HTTP-Referer": cfg.Referer,
				"X-Title":      cfg.Title,
			},
		},
	}
	api := openai.NewClientWithConfig(ocfg)

	backends := make([]Backend, 0, len(cfg.Models))
	for _, model := range cfg.Models {
		backends = append(backends, Backend{Model: model, API: api, Classify: ClassifyOpenRouter})
	}

	return New(backends, Options{
		Temperature:   cfg.Temperature,
		MaxTokens:     cfg.MaxTokens,
		RateLimitWait: cfg.RateLimitWait,
		Limiter:       NewRateLimiter(cfg.RPM, cfg.TPH),
		Logger:        logger,
		Log:           log,
	}), nil
}

func New(backends []Backend, opts Options) *Client {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 4096
	}
	return &Client{
		backends:      backends,
		temperature:   opts.Temperature,
		maxTokens:     opts.MaxTokens,
		rateLimitWait: opts.RateLimitWait,
		rateLimiter:   opts.Limiter,
		logger:        opts.Logger,
		sanitizer:     sanitizer.New(),
		log:           opts.Log,
	}
}

// Models - модели в порядке перебора.
func (c *Client) Models() []string {
	out := make([]string, len(c.backends))
	for i, b := range c.backends {
		out[i] = b.Model
	}
	return out
}

// Complete отправляет разговор моделям по очереди до первого успешного ответа.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	if len(c.backends) == 0 {
		return "", ErrNoBackends
	}

	for i, b := range c.backends {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		req := openai.ChatCompletionRequest{
			Model:       b.Model,
			Messages:    toOpenAI(messages),
			Temperature: c.temperature,
			MaxTokens:   c.maxTokens,
		}

		resp, err := c.createChatCompletionWithRateLimit(ctx, b, req)
		if err == nil {
			if len(resp.Choices) == 0 {
				c.log.Warn("Модель вернула пустой ответ, пробуем следующую", zap.String("model", b.Model))
				continue
			}
			content := resp.Choices[0].Message.Content
			c.log.Debug("Ответ модели получен", zap.String("model", b.Model), zap.Int("tokens", resp.Usage.TotalTokens))
			c.logRequest(ctx, b.Model, messages, content, resp.Usage.TotalTokens)
			return content, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if errors.Is(err, ErrLimitExceeded) {
			return "", err
		}

		classify := b.Classify
		if classify == nil {
			classify = ClassifyOpenRouter
		}
		f := classify(err)
		last := i == len(c.backends)-1

		switch f.Kind {
		case FailureRateLimited:
			c.log.Info("Модель перегружена, пробуем следующую", zap.String("model", b.Model), zap.Int("status", f.Status))
			if !last && !sleep(ctx, c.rateLimitWait) {
				return "", ctx.Err()
			}
		case FailureProvider:
			c.log.Info("Ошибка провайдера, пробуем следующую модель", zap.String("model", b.Model), zap.String("error", f.Message))
		case FailureTransport:
			c.log.Warn("Сетевая ошибка запроса к модели", zap.String("model", b.Model), zap.Error(err))
			if last {
				return "", err
			}
		default:
			c.log.Error("Ошибка API модели", zap.String("model", b.Model), zap.Int("status", f.Status), zap.String("error", f.Message))
			return "", &APIError{Model: b.Model, Status: f.Status, Text: f.Message}
		}
	}

	return "", ErrAllBackendsExhausted
}

// createChatCompletionWithRateLimit выполняет запрос с проверкой лимитов.
func (c *Client) createChatCompletionWithRateLimit(ctx context.Context, b Backend, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if c.rateLimiter == nil {
		return b.API.CreateChatCompletion(ctx, req)
	}

	if err := c.rateLimiter.AllowRequest(ctx); err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	// Грубая оценка: ~4 символа на токен плюс бюджет ответа.
	estimated := req.MaxTokens
	for _, msg := range req.Messages {
		estimated += len(msg.Content) / 4
	}
	if err := c.rateLimiter.AllowTokens(ctx, estimated); err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	resp, err := b.API.CreateChatCompletion(ctx, req)
	if err != nil {
		return resp, err
	}

	if resp.Usage.TotalTokens > estimated {
		c.rateLimiter.ConsumeTokens(resp.Usage.TotalTokens - estimated)
	}
	return resp, nil
}

func (c *Client) logRequest(ctx context.Context, model string, messages []Message, response string, tokens int) {
	if c.logger == nil || len(messages) == 0 {
		return
	}
	last := messages[len(messages)-1]
	prompt := c.sanitizer.Sanitize(last.Content)
	if err := c.logger.LogLLMRequest(ctx, taskIDFrom(ctx), string(last.Role), prompt, c.sanitizer.Sanitize(response), model, tokens); err != nil {
		c.log.Warn("Не удалось сохранить лог запроса к модели", zap.Error(err))
	}
}

func toOpenAI(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content}
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if strings.TrimSpace(v) != "" {
			r.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(r)
}
