// Package skirmish assembles an encounter from configuration and content and
// runs it to a conclusion.
package skirmish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cory-johannsen/combatflow/internal/config"
	"github.com/cory-johannsen/combatflow/internal/game/ai"
	"github.com/cory-johannsen/combatflow/internal/game/combat"
	"github.com/cory-johannsen/combatflow/internal/game/dice"
	"github.com/cory-johannsen/combatflow/internal/game/roster"
	"github.com/cory-johannsen/combatflow/internal/game/strategy"
	"github.com/cory-johannsen/combatflow/internal/scripting"
)

// EncounterID is the registry key of the single encounter a Skirmish runs.
const EncounterID = "skirmish"

// Skirmish owns one encounter and the scripting VMs its combatants use.
type Skirmish struct {
	Encounter *combat.Encounter

	engine   *combat.Engine
	scripts  *scripting.Manager
	maxTurns int
	logger   *zap.Logger
}

// New loads scripts, AI domains and roster templates named by cfg, rolls
// initiative and starts the encounter.
//
// Precondition: cfg must be validated. A nil prompter rejects interactive templates.
// Postcondition: Returns a started Skirmish, or an error; the caller must Close it.
func New(cfg config.Config, logger *zap.Logger, prompter strategy.Prompter) (*Skirmish, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var src dice.Source
	if cfg.Engine.Seed != 0 {
		src = dice.NewSeededSource(cfg.Engine.Seed)
	} else {
		src = dice.NewCryptoSource()
	}
	eval := dice.NewEvaluator(src, logger)

	scripts := scripting.NewManager(eval, logger, cfg.Scripting.InstructionLimit)
	s := &Skirmish{scripts: scripts, maxTurns: cfg.Engine.MaxTurns, logger: logger}
	if err := s.setup(cfg, src, eval, prompter); err != nil {
		scripts.Close()
		return nil, err
	}
	return s, nil
}

func (s *Skirmish) setup(cfg config.Config, src dice.Source, eval *dice.Evaluator, prompter strategy.Prompter) error {
	if cfg.Scripting.Dir != "" {
		if err := loadScripts(s.scripts, cfg.Scripting.Dir); err != nil {
			return err
		}
	}

	planners := ai.NewRegistry()
	domains, err := loadDomains(cfg.Content.DomainDir)
	if err != nil {
		return err
	}
	for _, d := range domains {
		if err := planners.Register(d, s.scripts, d.ID); err != nil {
			return err
		}
	}

	templates, err := roster.LoadTemplates(cfg.Content.RosterDir)
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		return fmt.Errorf("roster dir %q holds no templates", cfg.Content.RosterDir)
	}
	combatants, err := roster.InstantiateAll(templates, roster.Deps{
		Source:   src,
		Scripts:  s.scripts,
		Planners: planners,
		Prompter: prompter,
	})
	if err != nil {
		return err
	}
	if err := combat.RollInitiative(combatants, dice.Expression(cfg.Engine.Initiative), eval); err != nil {
		return err
	}

	s.engine = combat.NewEngine(src, s.logger, combat.Options{
		MaxChainDepth:               cfg.Engine.MaxChainDepth,
		SuppressEffectsOnZeroDamage: cfg.Engine.SuppressEffectsOnZeroDamage,
	})
	s.Encounter, err = s.engine.StartEncounter(EncounterID, combatants)
	if err != nil {
		return err
	}
	s.logger.Info("skirmish ready",
		zap.Int("combatants", len(combatants)),
		zap.Int("domains", len(domains)),
		zap.Strings("groups", s.Encounter.Alive().Groups()),
	)
	return nil
}

// loadScripts loads every subdirectory of dir as its own VM and the files
// directly under dir as the fallback VM.
func loadScripts(mgr *scripting.Manager, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading script dir %q: %w", dir, err)
	}
	if err := mgr.LoadGlobal(dir); err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := mgr.LoadDir(e.Name(), filepath.Join(dir, e.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadDomains returns nil when dir is empty or absent.
func loadDomains(dir string) ([]*ai.Domain, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return ai.LoadDomains(dir)
}

// Close ends the encounter and releases every VM.
func (s *Skirmish) Close() {
	if s.engine != nil {
		s.engine.EndEncounter(EncounterID)
	}
	s.scripts.Close()
}

// Outcome says how a run ended.
type Outcome string

const (
	OutcomeVictory   Outcome = "victory"
	OutcomeDraw      Outcome = "draw"
	OutcomeTurnLimit Outcome = "turn-limit"
)

// Result summarises a finished run.
type Result struct {
	Outcome Outcome
	Turns   int
	// Winner is the group every survivor shares, or the lone survivor's name.
	Winner    string
	Survivors combat.Roster
}

// Run executes turns until no two living combatants are hostile or the turn
// limit is reached. onTurn, when non-nil, receives the events of each turn.
// ctx is checked between turns only.
//
// Postcondition: on a nil error the Result's Outcome is set.
func (s *Skirmish) Run(ctx context.Context, onTurn func([]combat.Event) error) (Result, error) {
	return Run(ctx, s.Encounter, s.maxTurns, onTurn)
}

// Run drives enc as Skirmish.Run does. maxTurns <= 0 means no limit.
func Run(ctx context.Context, enc *combat.Encounter, maxTurns int, onTurn func([]combat.Event) error) (Result, error) {
	for {
		alive := enc.Alive()
		if len(alive) == 0 {
			return Result{Outcome: OutcomeDraw, Turns: enc.Turn()}, nil
		}
		if !hostilesRemain(alive) {
			return Result{Outcome: OutcomeVictory, Turns: enc.Turn(), Winner: winner(alive), Survivors: alive}, nil
		}
		if maxTurns > 0 && enc.Turn() >= maxTurns {
			return Result{Outcome: OutcomeTurnLimit, Turns: enc.Turn(), Survivors: alive}, nil
		}
		if err := ctx.Err(); err != nil {
			return Result{Turns: enc.Turn(), Survivors: alive}, err
		}

		mark := enc.Log().Len()
		if err := enc.RunTurn(); err != nil {
			return Result{Turns: enc.Turn(), Survivors: enc.Alive()}, err
		}
		if onTurn != nil {
			if err := onTurn(enc.Log().Entries(0)[mark:]); err != nil {
				return Result{Turns: enc.Turn(), Survivors: enc.Alive()}, err
			}
		}
	}
}

// hostilesRemain reports whether any two combatants share no group.
func hostilesRemain(r combat.Roster) bool {
	for i, a := range r {
		for _, b := range r[i+1:] {
			if !sharesGroup(a, b) {
				return true
			}
		}
	}
	return false
}

func sharesGroup(a, b *combat.Combatant) bool {
	for _, g := range a.Groups {
		if b.InGroup(g) {
			return true
		}
	}
	return false
}

func winner(survivors combat.Roster) string {
	for _, g := range survivors[0].Groups {
		all := true
		for _, c := range survivors[1:] {
			if !c.InGroup(g) {
				all = false
				break
			}
		}
		if all {
			return g
		}
	}
	return survivors[0].Name
}
