package executor

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindOK       Kind = "ok"
	KindNotFound Kind = "not-found"
	KindError    Kind = "error"
)

// Outcome - результат одного действия. Ошибки исполнения не пробрасываются
// наружу, а становятся Outcome с KindError.
type Outcome struct {
	Kind     Kind
	Text     string
	Items    []string
	Strategy string
}

func ok(format string, args ...any) Outcome {
	return Outcome{Kind: KindOK, Text: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) Outcome {
	return Outcome{Kind: KindNotFound, Text: fmt.Sprintf(format, args...)}
}

func failed(format string, args ...any) Outcome {
	return Outcome{Kind: KindError, Text: fmt.Sprintf(format, args...)}
}

func (o Outcome) Failed() bool {
	return o.Kind == KindError
}

// Observation - строка, которую видит модель.
func (o Outcome) Observation() string {
	switch {
	case o.Kind == KindError:
		return "ERROR: " + o.Text
	case o.Items != nil:
		shown := o.Items
		if len(shown) > 5 {
			shown = shown[:5]
		}
		return fmt.Sprintf("Found %d items: %s", len(o.Items), strings.Join(shown, " | "))
	}
	return o.Text
}

// Summary - короткая строка для интерфейса.
func (o Outcome) Summary() string {
	switch {
	case o.Kind == KindError:
		return "❌ " + o.Observation()
	case o.Items != nil:
		return fmt.Sprintf("✅ %d items found", len(o.Items))
	}
	return "✅ " + truncate(o.Text, 80)
}
