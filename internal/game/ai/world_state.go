package ai

import (
	"math"
	"slices"
	"strings"
)

// CombatantState captures a combatant's state at planning time.
type CombatantState struct {
	ID       string
	Name     string
	HP       int
	Groups   []string
	Position [3]float64
	Effects  []string
}

// sharesGroup reports whether c and o carry at least one common group label.
func (c *CombatantState) sharesGroup(o *CombatantState) bool {
	for _, g := range c.Groups {
		if slices.Contains(o.Groups, g) {
			return true
		}
	}
	return false
}

// WorldState is the snapshot passed to the HTN planner for one combatant.
// Combatants holds the living roster in turn order, Self included.
//
// Invariant: Self must not be nil.
type WorldState struct {
	Self       *CombatantState
	Combatants []*CombatantState
	Turn       int
}

// Enemies returns every other combatant sharing no group with Self.
//
// Postcondition: returned slice excludes Self.
func (ws *WorldState) Enemies() []*CombatantState {
	var out []*CombatantState
	for _, c := range ws.Combatants {
		if c.ID != ws.Self.ID && !ws.Self.sharesGroup(c) {
			out = append(out, c)
		}
	}
	return out
}

// Allies returns every other combatant sharing a group with Self.
//
// Postcondition: returned slice excludes Self.
func (ws *WorldState) Allies() []*CombatantState {
	var out []*CombatantState
	for _, c := range ws.Combatants {
		if c.ID != ws.Self.ID && ws.Self.sharesGroup(c) {
			out = append(out, c)
		}
	}
	return out
}

// HasEnemies returns true when at least one enemy is alive.
//
// Postcondition: equivalent to len(Enemies()) > 0.
func (ws *WorldState) HasEnemies() bool {
	return len(ws.Enemies()) > 0
}

// NearestEnemy returns the enemy closest to Self, or nil.
//
// Postcondition: nil if no enemies exist; ties broken by order in Combatants.
func (ws *WorldState) NearestEnemy() *CombatantState {
	var best *CombatantState
	bestDist := math.Inf(1)
	for _, e := range ws.Enemies() {
		if d := distance(ws.Self.Position, e.Position); d < bestDist {
			best, bestDist = e, d
		}
	}
	return best
}

// WeakestEnemy returns the enemy with the lowest HP, or nil.
//
// Postcondition: nil if no enemies exist; ties broken by order in Combatants.
func (ws *WorldState) WeakestEnemy() *CombatantState {
	enemies := ws.Enemies()
	if len(enemies) == 0 {
		return nil
	}
	weakest := enemies[0]
	for _, e := range enemies[1:] {
		if e.HP < weakest.HP {
			weakest = e
		}
	}
	return weakest
}

// Target is a resolved operator target: a single combatant, a group, or nothing.
type Target struct {
	ID    string
	Group string
}

// IsZero reports whether the target selects nobody.
func (t Target) IsZero() bool { return t.ID == "" && t.Group == "" }

// ResolveTarget maps a target token to a Target.
//
// Tokens: "self", "nearest_enemy", "weakest_enemy", "group:<label>", or a
// combatant name or ID. Unknown names and missing enemies resolve to the zero Target.
func (ws *WorldState) ResolveTarget(token string) Target {
	switch token {
	case "":
		return Target{}
	case "self":
		return Target{ID: ws.Self.ID}
	case "nearest_enemy":
		if e := ws.NearestEnemy(); e != nil {
			return Target{ID: e.ID}
		}
		return Target{}
	case "weakest_enemy":
		if e := ws.WeakestEnemy(); e != nil {
			return Target{ID: e.ID}
		}
		return Target{}
	}
	if g, ok := strings.CutPrefix(token, "group:"); ok {
		return Target{Group: g}
	}
	for _, c := range ws.Combatants {
		if c.Name == token || c.ID == token {
			return Target{ID: c.ID}
		}
	}
	return Target{}
}

func distance(a, b [3]float64) float64 {
	var sq float64
	for i := range a {
		d := a[i] - b[i]
		sq += d * d
	}
	return math.Sqrt(sq)
}
