package ai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/combatflow/internal/game/ai"
	"github.com/cory-johannsen/combatflow/internal/game/combat"
)

func TestBuildWorldState(t *testing.T) {
	rogue := combat.NewCombatant("Rogue", 12, nil, "heroes")
	goblin := combat.NewCombatant("Goblin", 7, nil, "goblins")
	require.NoError(t, goblin.SetPosition(1, 2, 3))
	goblin.Effects().Apply("burn", 2)

	ws := ai.BuildWorldState(combat.View{Self: rogue, Roster: combat.Roster{goblin, rogue}, Turn: 4})

	assert.Equal(t, rogue.ID, ws.Self.ID)
	assert.Equal(t, 4, ws.Turn)
	require.Len(t, ws.Combatants, 2)
	assert.Same(t, ws.Self, ws.Combatants[1])
	g := ws.Combatants[0]
	assert.Equal(t, "Goblin", g.Name)
	assert.Equal(t, 7, g.HP)
	assert.Equal(t, [3]float64{1, 2, 3}, g.Position)
	assert.Equal(t, []string{"burn"}, g.Effects)
	assert.Equal(t, ai.Target{ID: goblin.ID}, ws.ResolveTarget("nearest_enemy"))

	goblin.Groups[0] = "changed"
	assert.Equal(t, []string{"goblins"}, g.Groups, "snapshot does not alias the combatant")
}
