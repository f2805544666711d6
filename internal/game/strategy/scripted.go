package strategy

import "github.com/cory-johannsen/combatflow/internal/game/combat"

// Scripted plays a fixed list of actions in order, wrapping around, and
// always answers with the same reaction.
type Scripted struct {
	Actions  []combat.Action
	Reaction combat.Reaction

	next int
}

// NewScripted returns a Scripted decider cycling through actions.
func NewScripted(reaction combat.Reaction, actions ...combat.Action) *Scripted {
	return &Scripted{Actions: actions, Reaction: reaction}
}

// ChooseAction returns the next action in the cycle, or NoOp() when the list is empty.
func (s *Scripted) ChooseAction(combat.View) (combat.Action, error) {
	if len(s.Actions) == 0 {
		return combat.NoOp(), nil
	}
	a := s.Actions[s.next%len(s.Actions)]
	s.next = (s.next + 1) % len(s.Actions)
	return a, nil
}

// ChooseReaction returns the fixed reaction.
func (s *Scripted) ChooseReaction(combat.View, combat.Action) (combat.Reaction, error) {
	return s.Reaction, nil
}
