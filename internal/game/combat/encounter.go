package combat

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/cory-johannsen/combatflow/internal/game/dice"
)

var (
	// ErrNoCombatantsAlive is returned by RunTurn when the alive roster is empty.
	ErrNoCombatantsAlive = errors.New("combat: no combatants alive")
	// ErrChainDepthExceeded is returned when nested retaliations or failure
	// conditions go deeper than Options.MaxChainDepth.
	ErrChainDepthExceeded = errors.New("combat: action chain depth exceeded")
)

// Options tunes an Encounter.
type Options struct {
	// MaxChainDepth bounds how many actions may be nested inside one another
	// within a single ExecuteAction, counting the outermost. 0 means unlimited.
	MaxChainDepth int
	// SuppressEffectsOnZeroDamage drops an action's effects from hits that
	// deal no damage.
	SuppressEffectsOnZeroDamage bool
}

// DefaultOptions returns unlimited chaining with zero-damage effect suppression.
func DefaultOptions() Options {
	return Options{SuppressEffectsOnZeroDamage: true}
}

// Encounter is one combat instance: the alive roster in turn order, the dead,
// the turn cursor and the log.
//
// An Encounter is not safe for concurrent use. Independent encounters with
// disjoint combatants may run on separate goroutines.
type Encounter struct {
	ID string

	alive  Roster
	dead   Roster
	cursor int
	turn   int

	log    *Log
	src    dice.Source
	eval   *dice.Evaluator
	opts   Options
	logger *zap.Logger

	// pending holds combatants whose death was logged but who are still in
	// alive until their pass finishes.
	pending map[*Combatant]bool
}

// NewEncounter creates an empty Encounter rolling dice with src.
//
// Precondition: src must be non-nil. A nil logger disables logging.
// Postcondition: Alive() and Dead() are empty; Cursor() == 0.
func NewEncounter(id string, src dice.Source, logger *zap.Logger, opts Options) *Encounter {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("encounter", id))
	return &Encounter{
		ID:      id,
		log:     NewLog(logger),
		src:     src,
		eval:    dice.NewEvaluator(src, logger),
		opts:    opts,
		logger:  logger,
		pending: make(map[*Combatant]bool),
	}
}

// AddCombatant appends c to the end of the turn order.
//
// Precondition: c is non-nil and not already part of this encounter.
func (e *Encounter) AddCombatant(c *Combatant) error {
	if c == nil {
		return errors.New("combat: AddCombatant called with nil combatant")
	}
	if e.alive.Contains(c) || e.dead.Contains(c) {
		return fmt.Errorf("combat: combatant %q already in encounter %q", c.Name, e.ID)
	}
	e.alive = append(e.alive, c)
	return nil
}

// RunTurn plays the current combatant's turn: log the turn start, run its
// pre-turn hook, tick its effects, ask its Decider for an action, execute it,
// run the post-turn hook and advance the cursor.
//
// Postcondition: returns ErrNoCombatantsAlive if nobody is alive; on any other
// error the cursor has not advanced.
func (e *Encounter) RunTurn() error {
	if len(e.alive) == 0 {
		return ErrNoCombatantsAlive
	}
	if e.cursor >= len(e.alive) {
		e.cursor = 0
	}
	actor := e.alive[e.cursor]
	e.turn++
	e.log.Append(Event{Kind: EventTurnStart, Turn: e.turn, Actor: actor})

	if actor.Hooks != nil {
		actor.Hooks.PreTurn(actor)
	}
	for _, name := range actor.TickEffects() {
		e.log.Append(Event{Kind: EventEffectExpired, Turn: e.turn, Actor: actor, Target: actor, Effect: name})
	}

	action, err := actor.decider().ChooseAction(e.view(actor))
	if err != nil {
		return fmt.Errorf("turn %d: %s choosing action: %w", e.turn, actor.Name, err)
	}
	e.log.Append(Event{Kind: EventActionDeclared, Turn: e.turn, Actor: actor, Action: &action})
	if err := e.execute(action, actor); err != nil {
		return fmt.Errorf("turn %d: %s: %w", e.turn, actor.Name, err)
	}

	if actor.Hooks != nil {
		actor.Hooks.PostTurn(actor)
	}
	e.advance()
	return nil
}

// ExecuteAction resolves a against every alive combatant its filter matches,
// attributing it to the current combatant.
func (e *Encounter) ExecuteAction(a Action) error {
	return e.execute(a, e.Current())
}

// Alive returns the living combatants in turn order.
func (e *Encounter) Alive() Roster { return e.alive.clone() }

// Dead returns the fallen combatants in order of death.
func (e *Encounter) Dead() Roster { return e.dead.clone() }

// Current returns the combatant whose turn is next, or nil when nobody is alive.
func (e *Encounter) Current() *Combatant {
	if len(e.alive) == 0 {
		return nil
	}
	return e.alive[e.cursor%len(e.alive)]
}

// Cursor returns the index into Alive() of the next combatant to act.
func (e *Encounter) Cursor() int { return e.cursor }

// Turn returns the number of turns started so far.
func (e *Encounter) Turn() int { return e.turn }

// Log returns the encounter's event log.
func (e *Encounter) Log() *Log { return e.log }

// FindAll returns every living combatant matching f.
func (e *Encounter) FindAll(f TargetFilter) Roster { return e.alive.FindAll(f) }

// FindRandom returns a random living combatant matching f.
func (e *Encounter) FindRandom(f TargetFilter) (*Combatant, bool) {
	return e.alive.FindRandom(f, e.src)
}

// frame is one action being resolved against its target snapshot.
type frame struct {
	action  Action
	source  *Combatant
	depth   int
	targets Roster
	next    int
	// struck is the last target hit; its death check waits until any
	// retaliation it triggered has finished.
	struck *Combatant
	fallen []*Combatant
}

// chained is an action triggered from inside another: a failure condition or
// a retaliation.
type chained struct {
	action Action
	source *Combatant
}

// execute resolves root with an explicit stack in place of recursion. A nested
// action runs to completion before its parent moves to the next target, and
// each frame buries its own dead when its targets are exhausted.
func (e *Encounter) execute(root Action, source *Combatant) error {
	stack := []*frame{e.newFrame(root, source, 1)}
	fail := func(err error) error {
		for i := len(stack) - 1; i >= 0; i-- {
			e.bury(stack[i].fallen)
		}
		return err
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		if f.struck != nil {
			e.checkDeath(f, f.struck)
			f.struck = nil
		}
		if f.next >= len(f.targets) {
			e.bury(f.fallen)
			stack = stack[:len(stack)-1]
			continue
		}

		target := f.targets[f.next]
		f.next++
		if e.pending[target] || !e.alive.Contains(target) {
			continue
		}

		next, hit, err := e.strike(f, target)
		if err != nil {
			return fail(err)
		}
		if hit {
			f.struck = target
		}
		if next == nil {
			continue
		}
		if e.opts.MaxChainDepth > 0 && f.depth+1 > e.opts.MaxChainDepth {
			return fail(fmt.Errorf("action %q from %q at depth %d: %w",
				next.action.Name, f.action.Name, f.depth+1, ErrChainDepthExceeded))
		}
		stack = append(stack, e.newFrame(next.action, next.source, f.depth+1))
	}
	return nil
}

func (e *Encounter) newFrame(a Action, source *Combatant, depth int) *frame {
	return &frame{action: a, source: source, depth: depth, targets: e.alive.FindAll(a.Filter)}
}

// strike resolves the frame's action against one target. It reports whether
// the target was hit and returns the action that must run next, if any.
func (e *Encounter) strike(f *frame, target *Combatant) (*chained, bool, error) {
	a := &f.action
	if !a.Chance.IsZero() {
		ok, err := e.eval.Test(a.Chance)
		if err != nil {
			return nil, false, fmt.Errorf("action %q chance: %w", a.Name, err)
		}
		if !ok {
			e.log.Append(Event{Kind: EventChanceFailure, Turn: e.turn, Actor: f.source, Target: target, Action: a})
			if a.FailureCondition != nil {
				return &chained{action: *a.FailureCondition, source: f.source}, false, nil
			}
			return nil, false, nil
		}
	}

	reaction, err := target.decider().ChooseReaction(e.view(target), *a)
	if err != nil {
		return nil, false, fmt.Errorf("%s choosing reaction to %q: %w", target.Name, a.Name, err)
	}
	e.log.Append(Event{Kind: EventReactionDeclared, Turn: e.turn, Actor: f.source, Target: target, Action: a, Reaction: &reaction})

	dmg, err := computeDamage(e.eval, *a, reaction, e.opts.SuppressEffectsOnZeroDamage)
	if err != nil {
		return nil, false, err
	}
	target.ApplyDamage(dmg)
	e.log.Append(Event{Kind: EventHit, Turn: e.turn, Actor: f.source, Target: target, Action: a, Reaction: &reaction, Damage: &dmg})

	if reaction.Action != nil {
		return &chained{action: *reaction.Action, source: target}, true, nil
	}
	return nil, true, nil
}

// checkDeath queues c on f and logs its death, once, if its HP is gone.
func (e *Encounter) checkDeath(f *frame, c *Combatant) {
	if !c.IsDead() || e.pending[c] || !e.alive.Contains(c) {
		return
	}
	e.pending[c] = true
	f.fallen = append(f.fallen, c)
	e.log.Append(Event{Kind: EventDeath, Turn: e.turn, Actor: f.source, Target: c})
}

// bury moves fallen from alive to dead, then clamps the cursor into range.
func (e *Encounter) bury(fallen []*Combatant) {
	for _, c := range fallen {
		delete(e.pending, c)
		i := e.alive.indexOf(c)
		if i < 0 {
			continue
		}
		e.alive = slices.Delete(e.alive, i, i+1)
		e.dead = append(e.dead, c)
	}
	if e.cursor >= len(e.alive) {
		e.cursor = max(len(e.alive)-1, 0)
	}
}

// advance moves the cursor one slot forward, wrapping to 0.
func (e *Encounter) advance() {
	if len(e.alive) == 0 {
		e.cursor = 0
		return
	}
	e.cursor = (e.cursor + 1) % len(e.alive)
}

func (e *Encounter) view(c *Combatant) View {
	return View{Self: c, Roster: e.alive.clone(), Turn: e.turn}
}
