package strategy

import (
	"github.com/cory-johannsen/combatflow/internal/game/combat"
	"github.com/cory-johannsen/combatflow/internal/game/dice"
)

// Random picks uniformly from its repertoire each turn. When TargetGroup is
// set, the picked action is narrowed to one random living member of that group.
type Random struct {
	Repertoire  Repertoire
	Reaction    combat.Reaction
	TargetGroup string

	src dice.Source
}

// NewRandom returns a Random decider drawing from src.
//
// Precondition: src must not be nil.
func NewRandom(src dice.Source, repertoire Repertoire, reaction combat.Reaction) *Random {
	if src == nil {
		panic("strategy.NewRandom: src must not be nil")
	}
	return &Random{Repertoire: repertoire, Reaction: reaction, src: src}
}

// ChooseAction picks an action. With TargetGroup set and nobody left in that
// group, the turn is passed.
func (r *Random) ChooseAction(v combat.View) (combat.Action, error) {
	names := r.Repertoire.Names()
	if len(names) == 0 {
		return combat.NoOp(), nil
	}
	a := r.Repertoire[names[r.src.Intn(len(names))]]
	if r.TargetGroup == "" {
		return a, nil
	}
	target, ok := v.Roster.FindRandom(combat.InGroup(r.TargetGroup), r.src)
	if !ok {
		return combat.NoOp(), nil
	}
	return aimAt(a, target.ID, ""), nil
}

// ChooseReaction returns the fixed reaction.
func (r *Random) ChooseReaction(combat.View, combat.Action) (combat.Reaction, error) {
	return r.Reaction, nil
}
