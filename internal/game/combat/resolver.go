package combat

import (
	"fmt"

	"github.com/cory-johannsen/combatflow/internal/game/dice"
)

// computeDamage rolls the action's damage against the reaction's resistances.
//
// Each damage type contributes max(0, damage - resistance), with resistance
// rolled only for matching types. Effect durations are rolled only when the
// action carries effects and, if suppressZero is set, the total is non-zero.
//
// Precondition: a.Damage must be non-nil.
// Postcondition: Total >= 0, or an error wrapping ErrMissingRequiredField or
// dice.ErrMalformedExpression.
func computeDamage(ev *dice.Evaluator, a Action, r Reaction, suppressZero bool) (DamageResult, error) {
	if a.Damage == nil {
		return DamageResult{}, fmt.Errorf("action %q: damage: %w", a.Name, ErrMissingRequiredField)
	}

	var res DamageResult
	for _, kind := range sortedKeys(a.Damage) {
		dmg, err := ev.Evaluate(a.Damage[kind])
		if err != nil {
			return DamageResult{}, fmt.Errorf("action %q damage[%s]: %w", a.Name, kind, err)
		}
		if resist, ok := r.Resistance[kind]; ok {
			v, err := ev.Evaluate(resist)
			if err != nil {
				return DamageResult{}, fmt.Errorf("reaction %q resistance[%s]: %w", r.Name, kind, err)
			}
			dmg -= v
		}
		if dmg > 0 {
			res.Total += dmg
		}
	}

	if a.Effects == nil || (suppressZero && res.Total == 0) {
		return res, nil
	}
	res.Effects = make(map[string]int, len(a.Effects))
	for _, name := range sortedKeys(a.Effects) {
		d, err := ev.Evaluate(a.Effects[name])
		if err != nil {
			return DamageResult{}, fmt.Errorf("action %q effects[%s]: %w", a.Name, name, err)
		}
		res.Effects[name] = d
	}
	return res, nil
}
