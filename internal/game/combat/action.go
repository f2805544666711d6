package combat

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cory-johannsen/combatflow/internal/game/dice"
)

// ErrMissingRequiredField is returned when an Action or Reaction lacks a field
// the engine is about to use.
var ErrMissingRequiredField = errors.New("combat: missing required field")

// Action is one declared intent: which combatants it reaches and what it does
// to each of them.
type Action struct {
	Name   string       `yaml:"name"`
	Filter TargetFilter `yaml:"range"`
	// Damage maps damage type to amount. Required whenever the action reaches a
	// target whose chance gate passes; a nil map is a caller error.
	Damage map[string]dice.Expression `yaml:"damage"`
	// Effects maps effect name to duration in the target's turns.
	Effects map[string]dice.Expression `yaml:"effects"`
	// Chance gates the action per target; empty means always.
	Chance dice.Expression `yaml:"chance"`
	// FailureCondition runs instead, once per target whose chance gate fails.
	FailureCondition *Action `yaml:"failure_condition"`
}

// NoOp returns the designated do-nothing Action. Its empty filter reaches nobody.
func NoOp() Action { return Action{Name: "pass"} }

// IsNoOp reports whether a reaches nobody by construction.
func (a Action) IsNoOp() bool { return a.Filter.IsEmpty() }

// Validate checks every dice expression the action carries, recursively
// through its failure condition. The engine does not call it; it is for
// content authored upstream.
//
// Postcondition: returns nil or an error naming the offending field.
func (a Action) Validate() error {
	if err := validateExprs(a.Name, "damage", a.Damage); err != nil {
		return err
	}
	if err := validateExprs(a.Name, "effects", a.Effects); err != nil {
		return err
	}
	if err := dice.Validate(a.Chance); err != nil {
		return fmt.Errorf("action %q chance: %w", a.Name, err)
	}
	if a.FailureCondition != nil {
		if err := a.FailureCondition.Validate(); err != nil {
			return fmt.Errorf("action %q failure_condition: %w", a.Name, err)
		}
	}
	return nil
}

// Reaction is a target's response to an incoming Action.
type Reaction struct {
	Name string `yaml:"name"`
	// Resistance maps damage type to a flat reduction of that type.
	Resistance map[string]dice.Expression `yaml:"resistance"`
	// Action, when set, is executed right after the hit: retaliation.
	Action *Action `yaml:"action"`
}

// Validate checks the reaction's dice expressions and its retaliation.
func (r Reaction) Validate() error {
	if err := validateExprs(r.Name, "resistance", r.Resistance); err != nil {
		return err
	}
	if r.Action != nil {
		if err := r.Action.Validate(); err != nil {
			return fmt.Errorf("reaction %q action: %w", r.Name, err)
		}
	}
	return nil
}

// DamageResult is what one (Action, Reaction) pair does to a target.
//
// Invariant: Total >= 0; Effects is nil unless the action carried effects and
// Total != 0 (or the zero-damage policy is disabled).
type DamageResult struct {
	Total   int
	Effects map[string]int
}

func validateExprs(owner, field string, m map[string]dice.Expression) error {
	for _, k := range sortedKeys(m) {
		if err := dice.Validate(m[k]); err != nil {
			return fmt.Errorf("%q %s[%s]: %w", owner, field, k, err)
		}
	}
	return nil
}

// sortedKeys returns m's keys in ascending order so that rolls happen in a
// stable order under a seeded source.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
