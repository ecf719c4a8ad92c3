package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidModelOutput - ответ модели не является корректной командой.
var ErrInvalidModelOutput = errors.New("некорректный ответ модели")

type Tool string

const (
	ToolNavigate    Tool = "navigate"
	ToolClick       Tool = "click"
	ToolType        Tool = "type"
	ToolScroll      Tool = "scroll"
	ToolScrape      Tool = "scrape"
	ToolHighlight   Tool = "highlight"
	ToolReadSummary Tool = "read-summary"
	ToolAnswer      Tool = "answer"
	ToolChat        Tool = "chat"
)

var knownTools = map[Tool]struct{}{
	ToolNavigate: {}, ToolClick: {}, ToolType: {}, ToolScroll: {}, ToolScrape: {},
	ToolHighlight: {}, ToolReadSummary: {}, ToolAnswer: {}, ToolChat: {},
}

func (t Tool) Known() bool {
	_, ok := knownTools[t]
	return ok
}

// Terminal - answer и chat завершают прогон.
func (t Tool) Terminal() bool {
	return t == ToolAnswer || t == ToolChat
}

type Params map[string]any

// String возвращает параметр строкой. Числа и булевы значения форматируются,
// прочее даёт пустую строку.
func (p Params) String(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	}
	return ""
}

// Command - одна команда модели: {"thought": ..., "tool": ..., "params": {...}}.
type Command struct {
	Thought string `json:"thought,omitempty"`
	Tool    Tool   `json:"tool"`
	Params  Params `json:"params"`
}

// Target - цель действия: selector, затем target.
func (c Command) Target() string {
	if s := c.Params.String("selector"); s != "" {
		return s
	}
	return c.Params.String("target")
}

// Text - финальный текст ответа: text, затем message, иначе "Done.".
func (c Command) Text() string {
	if s := c.Params.String("text"); s != "" {
		return s
	}
	if s := c.Params.String("message"); s != "" {
		return s
	}
	return "Done."
}

// Encode сериализует команду в проводной формат.
func (c Command) Encode() string {
	if c.Params == nil {
		c.Params = Params{}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Sprintf(`{"tool":%q,"params":{}}`, c.Tool)
	}
	return string(b)
}

var (
	fullFence  = regexp.MustCompile("^```(?:json)?\\s*\\n?([\\s\\S]*?)\\n?\\s*```$")
	innerFence = regexp.MustCompile("```(?:json)?\\s*\\n?([\\s\\S]*?)\\n?\\s*```")
)

// StripFences снимает обёртку ```json ... ``` со всего ответа или берёт
// первый встроенный блок.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fullFence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := innerFence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

type wireCommand struct {
	Thought json.RawMessage `json:"thought"`
	Tool    *string         `json:"tool"`
	Params  json.RawMessage `json:"params"`
}

// ParseCommand разбирает ответ модели. Любое отклонение от формата - ошибка,
// обёрнутая в ErrInvalidModelOutput; догадок о намерении модели не делается.
func ParseCommand(raw string) (Command, error) {
	body := StripFences(raw)
	if body == "" {
		return Command{}, fmt.Errorf("%w: пустой ответ", ErrInvalidModelOutput)
	}

	dec := json.NewDecoder(strings.NewReader(body))
	var w wireCommand
	if err := dec.Decode(&w); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrInvalidModelOutput, err)
	}
	if dec.More() {
		return Command{}, fmt.Errorf("%w: лишние данные после JSON", ErrInvalidModelOutput)
	}

	if w.Tool == nil || *w.Tool == "" {
		return Command{}, fmt.Errorf("%w: нет поля tool", ErrInvalidModelOutput)
	}
	cmd := Command{Tool: Tool(*w.Tool), Params: Params{}}
	if !cmd.Tool.Known() {
		return Command{}, fmt.Errorf("%w: неизвестный инструмент %q", ErrInvalidModelOutput, *w.Tool)
	}

	if len(w.Thought) > 0 && string(w.Thought) != "null" {
		if err := json.Unmarshal(w.Thought, &cmd.Thought); err != nil {
			return Command{}, fmt.Errorf("%w: thought должен быть строкой", ErrInvalidModelOutput)
		}
	}

	if len(w.Params) > 0 && string(w.Params) != "null" {
		if err := json.Unmarshal(w.Params, &cmd.Params); err != nil {
			return Command{}, fmt.Errorf("%w: params должен быть объектом", ErrInvalidModelOutput)
		}
		if cmd.Params == nil {
			cmd.Params = Params{}
		}
	}

	return cmd, nil
}
