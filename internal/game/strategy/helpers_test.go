package strategy_test

import (
	"github.com/cory-johannsen/combatflow/internal/game/combat"
	"github.com/cory-johannsen/combatflow/internal/game/dice"
)

// seqSource returns the queued values in order, then 0.
type seqSource struct{ vals []int }

func (s *seqSource) Intn(n int) int {
	if len(s.vals) == 0 {
		return 0
	}
	v := s.vals[0]
	s.vals = s.vals[1:]
	return v % n
}

func attack(name string, amount int) combat.Action {
	return combat.Action{Name: name, Damage: map[string]dice.Expression{"slashing": dice.Int(amount)}}
}

// skirmish returns a hero and two goblins in a view from the hero's side.
func skirmish() (combat.View, *combat.Combatant, *combat.Combatant) {
	hero := combat.NewCombatant("Hero", 20, nil, "heroes")
	g1 := combat.NewCombatant("Goblin", 7, nil, "goblins")
	g2 := combat.NewCombatant("Runt", 3, nil, "goblins")
	return combat.View{Self: hero, Roster: combat.Roster{hero, g1, g2}, Turn: 1}, g1, g2
}
