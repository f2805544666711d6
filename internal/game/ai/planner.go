package ai

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// ScriptCaller is the interface required by the Planner to evaluate Lua preconditions.
type ScriptCaller interface {
	// CallHook calls a named Lua function in the given script's VM.
	// Returns (LNil, nil) if the function is not defined.
	CallHook(scriptID, hook string, args ...lua.LValue) (lua.LValue, error)
}

// PlannedAction is one primitive step produced by the planner.
type PlannedAction struct {
	// Action names an entry in the combatant's repertoire, or "pass".
	Action string
	Target Target
	// Token is the operator's unresolved target token; empty means untargeted.
	Token string
}

// maxPlanSteps bounds task decomposition so that a cyclic domain terminates.
const maxPlanSteps = 32

// Planner evaluates an HTN domain for one combatant and produces an ordered
// plan for its turn.
//
// Invariant: domain and caller must not be nil.
type Planner struct {
	domain   *Domain
	caller   ScriptCaller
	scriptID string
}

// NewPlanner constructs a Planner. Preconditions are looked up in scriptID's VM.
//
// Precondition: domain and caller must not be nil.
func NewPlanner(domain *Domain, caller ScriptCaller, scriptID string) *Planner {
	if domain == nil {
		panic("ai.NewPlanner: domain must not be nil")
	}
	if caller == nil {
		panic("ai.NewPlanner: caller must not be nil")
	}
	return &Planner{domain: domain, caller: caller, scriptID: scriptID}
}

// Domain returns the planner's domain.
func (p *Planner) Domain() *Domain { return p.domain }

// Plan decomposes RootTask against state.
//
// Precondition: state and state.Self must not be nil.
// Postcondition: returns non-nil slice (may be empty); Lua failures are
// treated as precondition-false, never as errors.
func (p *Planner) Plan(state *WorldState) ([]PlannedAction, error) {
	if state == nil || state.Self == nil {
		return nil, fmt.Errorf("ai.Planner.Plan: state and state.Self must not be nil")
	}

	taskQueue := []string{RootTask}
	result := []PlannedAction{}

	for steps := 0; len(taskQueue) > 0 && steps < maxPlanSteps; steps++ {
		current := taskQueue[0]
		taskQueue = taskQueue[1:]

		if op, ok := p.domain.OperatorByID(current); ok {
			result = append(result, PlannedAction{
				Action: op.Action,
				Target: state.ResolveTarget(op.Target),
				Token:  op.Target,
			})
			continue
		}

		method := p.findApplicableMethod(current, state)
		if method == nil {
			continue
		}
		// Prepend subtasks, preserving ordered decomposition.
		taskQueue = append(append([]string{}, method.Subtasks...), taskQueue...)
	}
	return result, nil
}

// findApplicableMethod returns the first Method for taskID whose precondition passes,
// or nil if none applies.
//
// Preconditions are called as fn(self_id, self_hp, enemy_count, ally_count).
// An empty Precondition always passes.
func (p *Planner) findApplicableMethod(taskID string, state *WorldState) *Method {
	for _, m := range p.domain.MethodsForTask(taskID) {
		if m.Precondition == "" {
			return m
		}
		val, _ := p.caller.CallHook(p.scriptID, m.Precondition,
			lua.LString(state.Self.ID),
			lua.LNumber(state.Self.HP),
			lua.LNumber(len(state.Enemies())),
			lua.LNumber(len(state.Allies())),
		)
		if val == lua.LTrue {
			return m
		}
	}
	return nil
}
