package combat

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/combatflow/internal/game/dice"
)

// Engine manages all active Encounters, keyed by encounter ID.
// All methods are safe for concurrent use; the Encounters themselves are not.
type Engine struct {
	mu         sync.RWMutex
	encounters map[string]*Encounter
	src        dice.Source
	logger     *zap.Logger
	opts       Options
}

// NewEngine creates an empty Engine whose encounters roll with src and share opts.
//
// Precondition: src must be non-nil.
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine(src dice.Source, logger *zap.Logger, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		encounters: make(map[string]*Encounter),
		src:        src,
		logger:     logger,
		opts:       opts,
	}
}

// StartEncounter begins a new encounter with the given combatants, ordered by
// Initiative descending. Ties keep their input order.
//
// Precondition: id must be non-empty.
// Postcondition: Returns the new Encounter or an error if id is already active.
func (e *Engine) StartEncounter(id string, combatants []*Combatant) (*Encounter, error) {
	if id == "" {
		return nil, fmt.Errorf("combat: encounter id must not be empty")
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.encounters[id]; exists {
		return nil, fmt.Errorf("combat: encounter %q already active", id)
	}

	sorted := make([]*Combatant, len(combatants))
	copy(sorted, combatants)
	sortByInitiativeDesc(sorted)

	enc := NewEncounter(id, e.src, e.logger, e.opts)
	for _, c := range sorted {
		if err := enc.AddCombatant(c); err != nil {
			return nil, err
		}
	}
	e.encounters[id] = enc
	e.logger.Info("encounter started", zap.String("encounter", id), zap.Int("combatants", len(sorted)))
	return enc, nil
}

// GetEncounter returns the active encounter with the given id.
//
// Postcondition: Returns (encounter, true) if found, or (nil, false) otherwise.
func (e *Engine) GetEncounter(id string) (*Encounter, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	enc, ok := e.encounters[id]
	return enc, ok
}

// EndEncounter removes the encounter record for id. Unknown ids are ignored.
func (e *Engine) EndEncounter(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.encounters[id]; ok {
		delete(e.encounters, id)
		e.logger.Info("encounter ended", zap.String("encounter", id))
	}
}

// sortByInitiativeDesc sorts combatants in place, highest initiative first.
// The insertion sort is stable.
func sortByInitiativeDesc(combatants []*Combatant) {
	n := len(combatants)
	for i := 1; i < n; i++ {
		for j := i; j > 0 && combatants[j].Initiative > combatants[j-1].Initiative; j-- {
			combatants[j], combatants[j-1] = combatants[j-1], combatants[j]
		}
	}
}
