package combat_test

import (
	"github.com/cory-johannsen/combatflow/internal/game/combat"
	"github.com/cory-johannsen/combatflow/internal/game/dice"
)

// seqSource returns queued die faces (1-based) in order, then the lowest face.
type seqSource struct{ faces []int }

func (s *seqSource) Intn(n int) int {
	if len(s.faces) == 0 {
		return 0
	}
	f := s.faces[0]
	s.faces = s.faces[1:]
	return f - 1
}

// stub is a Decider driven by optional closures; missing closures behave as Passive.
type stub struct {
	act   func(v combat.View) (combat.Action, error)
	react func(v combat.View, in combat.Action) combat.Reaction
	seen  []combat.View
}

func (s *stub) ChooseAction(v combat.View) (combat.Action, error) {
	s.seen = append(s.seen, v)
	if s.act == nil {
		return combat.NoOp(), nil
	}
	return s.act(v)
}

func (s *stub) ChooseReaction(v combat.View, in combat.Action) (combat.Reaction, error) {
	if s.react == nil {
		return combat.Reaction{}, nil
	}
	return s.react(v, in), nil
}

func acting(a combat.Action) *stub {
	return &stub{act: func(combat.View) (combat.Action, error) { return a, nil }}
}

func retaliating(a combat.Action) *stub {
	return &stub{react: func(combat.View, combat.Action) combat.Reaction {
		return combat.Reaction{Name: "riposte", Action: &a}
	}}
}

func dmg(kv ...string) map[string]dice.Expression {
	m := make(map[string]dice.Expression, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = dice.Expression(kv[i+1])
	}
	return m
}

func newEncounter(src dice.Source, opts combat.Options, cs ...*combat.Combatant) *combat.Encounter {
	enc := combat.NewEncounter("test", src, nil, opts)
	for _, c := range cs {
		if err := enc.AddCombatant(c); err != nil {
			panic(err)
		}
	}
	return enc
}

func eventsOf(enc *combat.Encounter, kind combat.EventKind) []combat.Event {
	var out []combat.Event
	for _, ev := range enc.Log().Entries(0) {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
