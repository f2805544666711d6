package ai

import (
	"github.com/cory-johannsen/combatflow/internal/game/combat"
)

// BuildWorldState constructs a WorldState snapshot from a decision View.
//
// Precondition: v.Self must not be nil.
// Postcondition: ws.Self.ID == v.Self.ID; every roster member is represented.
func BuildWorldState(v combat.View) *WorldState {
	ws := &WorldState{Self: snapshot(v.Self), Turn: v.Turn}
	for _, c := range v.Roster {
		if c == v.Self {
			ws.Combatants = append(ws.Combatants, ws.Self)
			continue
		}
		ws.Combatants = append(ws.Combatants, snapshot(c))
	}
	return ws
}

func snapshot(c *combat.Combatant) *CombatantState {
	groups := make([]string, len(c.Groups))
	copy(groups, c.Groups)
	return &CombatantState{
		ID:       c.ID,
		Name:     c.Name,
		HP:       c.HP,
		Groups:   groups,
		Position: c.Position(),
		Effects:  c.Effects().Names(),
	}
}
