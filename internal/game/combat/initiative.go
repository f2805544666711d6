package combat

import (
	"fmt"

	"github.com/cory-johannsen/combatflow/internal/game/dice"
)

// DefaultInitiative is the roll used when no initiative expression is configured.
const DefaultInitiative dice.Expression = "1d20"

// RollInitiative rolls expr once per combatant and stores the result in its
// Initiative field.
//
// Precondition: ev must be non-nil.
// Postcondition: on error, combatants before the failing one have been rolled.
func RollInitiative(combatants []*Combatant, expr dice.Expression, ev *dice.Evaluator) error {
	if expr.IsZero() {
		expr = DefaultInitiative
	}
	for _, c := range combatants {
		v, err := ev.Evaluate(expr)
		if err != nil {
			return fmt.Errorf("initiative for %q: %w", c.Name, err)
		}
		c.Initiative = v
	}
	return nil
}
