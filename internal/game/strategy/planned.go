package strategy

import (
	"fmt"

	"github.com/cory-johannsen/combatflow/internal/game/ai"
	"github.com/cory-johannsen/combatflow/internal/game/combat"
)

// Planned runs an HTN planner each turn and plays the first planned step.
type Planned struct {
	Planner    *ai.Planner
	Repertoire Repertoire
	Reaction   combat.Reaction
}

// ChooseAction plans against a snapshot of v. An empty plan passes the turn.
// A step with a resolved target narrows the repertoire action to it; a step
// whose target token resolves to nobody passes.
//
// Postcondition: returns an error wrapping ErrUnknownAction when the plan
// names an action outside the repertoire.
func (p *Planned) ChooseAction(v combat.View) (combat.Action, error) {
	plan, err := p.Planner.Plan(ai.BuildWorldState(v))
	if err != nil {
		return combat.Action{}, fmt.Errorf("planning for %q: %w", v.Self.Name, err)
	}
	if len(plan) == 0 {
		return combat.NoOp(), nil
	}
	step := plan[0]
	a, err := p.Repertoire.Get(step.Action)
	if err != nil {
		return combat.Action{}, fmt.Errorf("domain %q: %w", p.Planner.Domain().ID, err)
	}
	if step.Action == PassAction {
		return a, nil
	}
	if step.Token != "" && step.Target.IsZero() {
		return combat.NoOp(), nil
	}
	return aimAt(a, step.Target.ID, step.Target.Group), nil
}

// ChooseReaction returns the fixed reaction.
func (p *Planned) ChooseReaction(combat.View, combat.Action) (combat.Reaction, error) {
	return p.Reaction, nil
}
