package ui

import (
	"fmt"
	"io"
	"sync"

	"onyxAgent/internal/agent"
)

// EventPrinter печатает поток событий агента в терминал.
type EventPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewEventPrinter(w io.Writer) *EventPrinter {
	return &EventPrinter{w: w}
}

func (p *EventPrinter) Emit(ev agent.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, FormatEvent(ev))
}

// FormatEvent раскрашивает событие по виду.
func FormatEvent(ev agent.Event) string {
	switch ev.Kind {
	case agent.EventSystem:
		return ColorCyan + ev.Text + ColorReset
	case agent.EventThought:
		return ColorPurple + IconThought + " " + ev.Text + ColorReset
	case agent.EventAction:
		return ColorYellow + ev.Text + ColorReset
	case agent.EventObservation:
		return ColorGray + IconEye + " " + Shorten(ev.Text, 300) + ColorReset
	case agent.EventAnswer:
		return ColorBold + ColorGreen + IconChat + " " + ev.Text + ColorReset
	case agent.EventError:
		return ColorRed + IconCross + " " + ev.Text + ColorReset
	}
	return ev.Text
}
