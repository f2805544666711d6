package roster

import (
	"fmt"

	"github.com/cory-johannsen/combatflow/internal/game/ai"
	"github.com/cory-johannsen/combatflow/internal/game/combat"
	"github.com/cory-johannsen/combatflow/internal/game/dice"
	"github.com/cory-johannsen/combatflow/internal/game/strategy"
	"github.com/cory-johannsen/combatflow/internal/scripting"
)

// Deps carries what the decider kinds need. Only the fields a template's
// kind uses must be set.
type Deps struct {
	Source   dice.Source        // random
	Scripts  *scripting.Manager // lua
	Planners *ai.Registry       // planned
	Prompter strategy.Prompter  // interactive
}

// Instantiate creates a live Combatant from tmpl with a fresh ID.
//
// Precondition: tmpl must be validated.
// Postcondition: Returns a combatant at tmpl.Position carrying tmpl.Groups,
// or an error if a dependency the strategy kind needs is missing.
func Instantiate(tmpl *Template, deps Deps) (*combat.Combatant, error) {
	groups := make([]string, len(tmpl.Groups))
	copy(groups, tmpl.Groups)
	c := combat.NewCombatant(tmpl.Name, tmpl.HP, nil, groups...)
	if len(tmpl.Position) > 0 {
		if err := c.SetPosition(tmpl.Position...); err != nil {
			return nil, fmt.Errorf("template %q: %w", tmpl.ID, err)
		}
	}

	s := tmpl.Strategy
	switch s.Kind {
	case "", KindPassive:
		// Never acts, but still answers with the template's reaction.
		c.Decider = strategy.NewScripted(tmpl.Reaction)
	case KindScripted:
		actions := make([]combat.Action, 0, len(s.Sequence))
		for _, name := range s.Sequence {
			a, err := tmpl.Repertoire.Get(name)
			if err != nil {
				return nil, fmt.Errorf("template %q: %w", tmpl.ID, err)
			}
			actions = append(actions, a)
		}
		c.Decider = strategy.NewScripted(tmpl.Reaction, actions...)
	case KindRandom:
		if deps.Source == nil {
			return nil, fmt.Errorf("template %q: random strategy requires a dice source", tmpl.ID)
		}
		r := strategy.NewRandom(deps.Source, tmpl.Repertoire, tmpl.Reaction)
		r.TargetGroup = s.TargetGroup
		c.Decider = r
	case KindInteractive:
		if deps.Prompter == nil {
			return nil, fmt.Errorf("template %q: interactive strategy requires a prompter", tmpl.ID)
		}
		c.Decider = strategy.Interactive{
			Prompter:   deps.Prompter,
			Repertoire: tmpl.Repertoire,
			Reactions:  []combat.Reaction{tmpl.Reaction},
		}
	case KindLua:
		if deps.Scripts == nil || !deps.Scripts.Has(s.Script) {
			return nil, fmt.Errorf("template %q: script %q is not loaded", tmpl.ID, s.Script)
		}
		l := &strategy.Lua{Scripts: deps.Scripts, ScriptID: s.Script, Repertoire: tmpl.Repertoire, Reaction: tmpl.Reaction}
		c.Decider = l
		c.Hooks = l
	case KindPlanned:
		if deps.Planners == nil {
			return nil, fmt.Errorf("template %q: planned strategy requires a planner registry", tmpl.ID)
		}
		p, ok := deps.Planners.PlannerFor(s.Domain)
		if !ok {
			return nil, fmt.Errorf("template %q: unknown ai domain %q", tmpl.ID, s.Domain)
		}
		c.Decider = &strategy.Planned{Planner: p, Repertoire: tmpl.Repertoire, Reaction: tmpl.Reaction}
	default:
		return nil, fmt.Errorf("template %q: unknown strategy kind %q", tmpl.ID, s.Kind)
	}
	return c, nil
}

// InstantiateAll instantiates every template in order.
func InstantiateAll(templates []*Template, deps Deps) ([]*combat.Combatant, error) {
	out := make([]*combat.Combatant, 0, len(templates))
	for _, t := range templates {
		c, err := Instantiate(t, deps)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
