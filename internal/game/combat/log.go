package combat

import (
	"go.uber.org/zap"
)

// EventKind names a state transition recorded in the combat log.
type EventKind string

const (
	EventTurnStart        EventKind = "turn-start"
	EventActionDeclared   EventKind = "action-declared"
	EventReactionDeclared EventKind = "reaction-declared"
	EventChanceFailure    EventKind = "chance-failure"
	EventHit              EventKind = "hit"
	EventDeath            EventKind = "death"
	EventEffectExpired    EventKind = "effect-expired"
)

// Event is one structured log record.
//
// Actor is the combatant whose turn or action produced the event; Target is
// the combatant it happened to. Either may be nil.
type Event struct {
	Kind     EventKind
	Turn     int
	Actor    *Combatant
	Target   *Combatant
	Action   *Action
	Reaction *Reaction
	Damage   *DamageResult
	// Effect is set for EventEffectExpired.
	Effect string
}

// Log is an append-only sequence of events. It is never edited in place;
// Flush clears it entirely.
type Log struct {
	events []Event
	logger *zap.Logger
}

// NewLog creates an empty Log that mirrors each appended event to logger at
// debug level. A nil logger disables mirroring.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

// Append adds ev to the end of the log.
func (l *Log) Append(ev Event) {
	l.events = append(l.events, ev)
	if ce := l.logger.Check(zap.DebugLevel, "combat event"); ce != nil {
		fields := []zap.Field{zap.String("kind", string(ev.Kind)), zap.Int("turn", ev.Turn)}
		if ev.Actor != nil {
			fields = append(fields, zap.String("actor", ev.Actor.Name))
		}
		if ev.Target != nil {
			fields = append(fields, zap.String("target", ev.Target.Name))
		}
		if ev.Action != nil {
			fields = append(fields, zap.String("action", ev.Action.Name))
		}
		if ev.Damage != nil {
			fields = append(fields, zap.Int("damage", ev.Damage.Total))
		}
		if ev.Effect != "" {
			fields = append(fields, zap.String("effect", ev.Effect))
		}
		ce.Write(fields...)
	}
}

// Entries returns a copy of the first max events in insertion order, or all
// of them when max <= 0 or exceeds the log length.
func (l *Log) Entries(max int) []Event {
	n := len(l.events)
	if max > 0 && max < n {
		n = max
	}
	out := make([]Event, n)
	copy(out, l.events[:n])
	return out
}

// Flush removes every event.
func (l *Log) Flush() { l.events = nil }

// Len returns the number of events.
func (l *Log) Len() int { return len(l.events) }

// Count returns how many events of kind k the log holds.
func (l *Log) Count(k EventKind) int {
	n := 0
	for _, ev := range l.events {
		if ev.Kind == k {
			n++
		}
	}
	return n
}
