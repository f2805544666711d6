package skirmish_test

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/combatflow/internal/config"
	"github.com/cory-johannsen/combatflow/internal/game/combat"
	"github.com/cory-johannsen/combatflow/internal/game/dice"
	"github.com/cory-johannsen/combatflow/internal/game/strategy"
	"github.com/cory-johannsen/combatflow/internal/skirmish"
)

func punch(group string, amount int) combat.Action {
	return combat.Action{Name: "punch", Filter: combat.InGroup(group), Damage: map[string]dice.Expression{"bludgeoning": dice.Int(amount)}}
}

func newEncounter(t *testing.T, cs ...*combat.Combatant) *combat.Encounter {
	t.Helper()
	enc := combat.NewEncounter("test", dice.NewSeededSource(1), zaptest.NewLogger(t), combat.DefaultOptions())
	for _, c := range cs {
		require.NoError(t, enc.AddCombatant(c))
	}
	return enc
}

func TestRun_Victory(t *testing.T) {
	hero := combat.NewCombatant("Hero", 10, strategy.NewScripted(combat.Reaction{}, punch("rats", 3)), "heroes")
	squire := combat.NewCombatant("Squire", 10, nil, "heroes")
	rat := combat.NewCombatant("Rat", 5, nil, "rats")
	enc := newEncounter(t, hero, squire, rat)

	var turns [][]combat.Event
	res, err := skirmish.Run(context.Background(), enc, 0, func(evs []combat.Event) error {
		turns = append(turns, evs)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, skirmish.OutcomeVictory, res.Outcome)
	assert.Equal(t, "heroes", res.Winner)
	assert.Equal(t, 4, res.Turns)
	assert.Equal(t, combat.Roster{hero, squire}, res.Survivors)
	require.Len(t, turns, 4)
	for _, evs := range turns {
		require.NotEmpty(t, evs)
		assert.Equal(t, combat.EventTurnStart, evs[0].Kind, "each batch starts at its own turn")
	}
}

func TestRun_TurnLimit(t *testing.T) {
	a := combat.NewCombatant("A", 10, nil, "a")
	b := combat.NewCombatant("B", 10, nil, "b")
	res, err := skirmish.Run(context.Background(), newEncounter(t, a, b), 3, nil)
	require.NoError(t, err)
	assert.Equal(t, skirmish.OutcomeTurnLimit, res.Outcome)
	assert.Equal(t, 3, res.Turns)
	assert.Empty(t, res.Winner)
}

func TestRun_MutualDestructionIsDraw(t *testing.T) {
	a := combat.NewCombatant("A", 1, strategy.NewScripted(combat.Reaction{}, combat.Action{
		Name:   "blast",
		Filter: combat.Within(100, 0, 0, 0),
		Damage: map[string]dice.Expression{"fire": "5"},
	}), "a")
	b := combat.NewCombatant("B", 1, nil, "b")

	res, err := skirmish.Run(context.Background(), newEncounter(t, a, b), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, skirmish.OutcomeDraw, res.Outcome)
	assert.Equal(t, 1, res.Turns)
}

func TestRun_ContextCancelledBetweenTurns(t *testing.T) {
	a := combat.NewCombatant("A", 10, nil, "a")
	b := combat.NewCombatant("B", 10, nil, "b")
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	res, err := skirmish.Run(ctx, newEncounter(t, a, b), 0, func([]combat.Event) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, res.Turns)
}

func TestRun_LoneUngroupedSurvivorWins(t *testing.T) {
	solo := combat.NewCombatant("Solo", 3, nil)
	res, err := skirmish.Run(context.Background(), newEncounter(t, solo), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, skirmish.OutcomeVictory, res.Outcome)
	assert.Equal(t, "Solo", res.Winner)
	assert.Zero(t, res.Turns)
}

func TestRun_EmptyEncounterIsDraw(t *testing.T) {
	res, err := skirmish.Run(context.Background(), newEncounter(t), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, skirmish.OutcomeDraw, res.Outcome)
}

const duelistYAML = `
id: duelist
name: Duelist
hp: 12
groups: [blue]
strategy:
  kind: scripted
  sequence: [lunge]
repertoire:
  lunge:
    range:
      group: red
    damage:
      piercing: 4
`

const brawlerYAML = `
id: brawler
name: Brawler
hp: 10
groups: [red]
strategy:
  kind: planned
  domain: brawler
repertoire:
  swing:
    damage:
      bludgeoning: 3
`

const brawlerDomain = `
domain:
  id: brawler
  tasks:
    - id: behave
  methods:
    - task: behave
      id: brawl
      precondition: angry
      subtasks: [hit]
  operators:
    - id: hit
      action: swing
      target: nearest_enemy
`

const shamanYAML = `
id: shaman
name: Shaman
hp: 6
groups: [red]
strategy:
  kind: lua
  script: shaman
`

const shamanLua = `
function choose_action(self, roster)
	return nil
end
`

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
}

func contentConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "roster", "duelist.yaml"), duelistYAML)
	writeFile(t, filepath.Join(root, "roster", "brawler.yaml"), brawlerYAML)
	writeFile(t, filepath.Join(root, "roster", "shaman.yaml"), shamanYAML)
	writeFile(t, filepath.Join(root, "ai", "brawler.yaml"), brawlerDomain)
	writeFile(t, filepath.Join(root, "scripts", "common.lua"), "function angry() return true end")
	writeFile(t, filepath.Join(root, "scripts", "shaman", "main.lua"), shamanLua)

	v := config.New()
	v.Set("content.roster_dir", filepath.Join(root, "roster"))
	v.Set("content.domain_dir", filepath.Join(root, "ai"))
	v.Set("scripting.dir", filepath.Join(root, "scripts"))
	v.Set("engine.seed", 42)
	v.Set("engine.max_turns", 50)
	cfg, err := config.LoadFromViper(v)
	require.NoError(t, err)
	return cfg
}

func TestNew_AssemblesAndRuns(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s, err := skirmish.New(contentConfig(t), zap.New(core), nil)
	require.NoError(t, err)
	defer s.Close()

	assert.Len(t, s.Encounter.Alive(), 3)
	assert.Equal(t, 1, logs.FilterMessage("skirmish ready").Len())

	res, err := s.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.NotEqual(t, skirmish.OutcomeDraw, res.Outcome)
	assert.LessOrEqual(t, res.Turns, 50)
	if res.Outcome == skirmish.OutcomeVictory {
		assert.Contains(t, []string{"blue", "red"}, res.Winner)
	}
	assert.Positive(t, s.Encounter.Log().Count(combat.EventHit))
}

func TestNew_Errors(t *testing.T) {
	cfg := contentConfig(t)
	cfg.Content.RosterDir = filepath.Join(t.TempDir(), "missing")
	_, err := skirmish.New(cfg, nil, nil)
	assert.Error(t, err)

	cfg = contentConfig(t)
	cfg.Scripting.Dir = ""
	_, err = skirmish.New(cfg, nil, nil)
	assert.ErrorContains(t, err, "shaman", "lua template without its script")

	cfg = contentConfig(t)
	cfg.Content.RosterDir = t.TempDir()
	_, err = skirmish.New(cfg, nil, nil)
	assert.ErrorContains(t, err, "no templates")
}

func TestNew_MissingDomainDirLoadsNoDomains(t *testing.T) {
	cfg := contentConfig(t)
	cfg.Content.DomainDir = filepath.Join(t.TempDir(), "none")
	_, err := skirmish.New(cfg, nil, nil)
	assert.ErrorContains(t, err, "brawler", "the planned template now names an unknown domain")
}

func TestNew_BundledContent(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "..", "configs", "dev.yaml"))
	require.NoError(t, err)
	root := filepath.Join("..", "..")
	cfg.Content.RosterDir = filepath.Join(root, cfg.Content.RosterDir)
	cfg.Content.DomainDir = filepath.Join(root, cfg.Content.DomainDir)
	cfg.Scripting.Dir = filepath.Join(root, cfg.Scripting.Dir)

	s, err := skirmish.New(cfg, zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, []string{"company", "warband"}, sortedGroups(s.Encounter.Alive()))

	res, err := s.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Outcome)
	assert.LessOrEqual(t, res.Turns, cfg.Engine.MaxTurns)
}

func sortedGroups(r combat.Roster) []string {
	groups := r.Groups()
	sort.Strings(groups)
	return groups
}
