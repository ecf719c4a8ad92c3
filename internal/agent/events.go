package agent

import "sync/atomic"

type EventKind string

const (
	EventSystem      EventKind = "system"
	EventThought     EventKind = "thought"
	EventAction      EventKind = "action"
	EventObservation EventKind = "observation"
	EventAnswer      EventKind = "answer"
	EventError       EventKind = "error"
)

type Event struct {
	Kind EventKind
	Text string
	Step int
}

// EventSink получает поток событий прогона (консоль, веб-интерфейс).
type EventSink interface {
	Emit(ev Event)
}

// EventFunc позволяет использовать функцию как EventSink.
type EventFunc func(ev Event)

func (f EventFunc) Emit(ev Event) { f(ev) }

type discard struct{}

func (discard) Emit(Event) {}

// stopFlag - кооперативная остановка: проверяется в начале шага.
type stopFlag struct {
	v atomic.Bool
}

func (s *stopFlag) set()        { s.v.Store(true) }
func (s *stopFlag) reset()      { s.v.Store(false) }
func (s *stopFlag) isSet() bool { return s.v.Load() }
