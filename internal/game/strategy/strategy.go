// Package strategy provides the stock combat.Decider implementations: fixed
// scripts, random choice, human prompts, Lua scripts, and HTN planning.
package strategy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cory-johannsen/combatflow/internal/game/combat"
)

// PassAction is the repertoire name every strategy maps to combat.NoOp().
const PassAction = "pass"

// ErrUnknownAction is returned when a strategy names an action its
// repertoire does not hold.
var ErrUnknownAction = errors.New("strategy: unknown action")

// Repertoire holds a combatant's named actions.
type Repertoire map[string]combat.Action

// Get returns the named action. PassAction always resolves to combat.NoOp().
//
// Postcondition: returns an error wrapping ErrUnknownAction if name is absent.
func (r Repertoire) Get(name string) (combat.Action, error) {
	if name == PassAction {
		return combat.NoOp(), nil
	}
	a, ok := r[name]
	if !ok {
		return combat.Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	return a, nil
}

// Names returns the repertoire's action names in ascending order.
func (r Repertoire) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// aimAt returns a copy of a whose filter additionally requires the combatant
// id and/or group. Empty arguments leave the corresponding clause untouched.
func aimAt(a combat.Action, id, group string) combat.Action {
	if id != "" {
		a.Filter.Character = &id
	}
	if group != "" {
		a.Filter.Group = &group
	}
	return a
}
