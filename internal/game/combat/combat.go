// Package combat implements the turn-based combat resolution engine: combatant
// state, target filters, and the action → reaction → damage → effects pipeline.
package combat

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/cory-johannsen/combatflow/internal/game/effect"
)

// Combatant represents one participant in an encounter.
//
// Combatants are created by the embedding application and mutated by the
// Encounter (health, effects) and by their own Decider (choices only).
type Combatant struct {
	ID         string
	Name       string
	HP         int
	Initiative int
	Groups     []string
	// Decider chooses actions and reactions. nil behaves as Passive.
	Decider Decider
	// Hooks, when non-nil, is called around this combatant's turn.
	Hooks TurnHooks

	position [3]float64
	effects  *effect.Set
}

// NewCombatant creates a Combatant with a fresh ID and an empty effect set.
//
// Postcondition: ID is a non-empty UUID; Position() is the origin.
func NewCombatant(name string, hp int, decider Decider, groups ...string) *Combatant {
	return &Combatant{
		ID:      uuid.NewString(),
		Name:    name,
		HP:      hp,
		Groups:  groups,
		Decider: decider,
		effects: effect.NewSet(),
	}
}

// Effects returns the combatant's own effect set, creating it on first use.
func (c *Combatant) Effects() *effect.Set {
	if c.effects == nil {
		c.effects = effect.NewSet()
	}
	return c.effects
}

// IsDead reports whether HP has reached zero. It has no side effects.
//
// Postcondition: Returns true iff HP <= 0.
func (c *Combatant) IsDead() bool { return c.HP <= 0 }

// InGroup reports whether the combatant carries the group label g.
func (c *Combatant) InGroup(g string) bool { return slices.Contains(c.Groups, g) }

// Position returns the combatant's 3-axis position.
func (c *Combatant) Position() [3]float64 { return c.position }

// SetPosition sets up to three axes, in x, y, z order. Axes that are not
// given keep their current value.
//
// Precondition: 1 <= len(axes) <= 3.
// Postcondition: on error the position is unchanged.
func (c *Combatant) SetPosition(axes ...float64) error {
	if len(axes) == 0 || len(axes) > 3 {
		return fmt.Errorf("combatant %q: SetPosition takes 1 to 3 axes, got %d", c.Name, len(axes))
	}
	copy(c.position[:], axes)
	return nil
}

// ApplyDamage subtracts the result's damage from HP, flooring at zero, and
// stacks every realized effect onto the combatant.
//
// Postcondition: HP >= 0; for each (name, d) in r.Effects, Effects().Duration(name)
// grew by d.
func (c *Combatant) ApplyDamage(r DamageResult) {
	c.HP -= r.Total
	if c.HP < 0 {
		c.HP = 0
	}
	for _, name := range sortedKeys(r.Effects) {
		c.Effects().Apply(name, r.Effects[name])
	}
}

// TickEffects decrements every active effect by one turn, removing those
// that expire, and returns the expired names.
func (c *Combatant) TickEffects() []string {
	return c.Effects().Tick()
}

func (c *Combatant) decider() Decider {
	if c.Decider == nil {
		return Passive{}
	}
	return c.Decider
}
