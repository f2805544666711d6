package strategy

import (
	"errors"

	"github.com/cory-johannsen/combatflow/internal/game/combat"
)

// Prompter is implemented by front ends that let a human decide.
type Prompter interface {
	// PromptAction picks one of options, or PassAction, for v.Self.
	PromptAction(v combat.View, options Repertoire) (combat.Action, error)
	// PromptReaction picks one of options, or no reaction, against incoming.
	PromptReaction(v combat.View, incoming combat.Action, options []combat.Reaction) (combat.Reaction, error)
}

// Interactive forwards every decision to a Prompter along with the choices
// the combatant has.
type Interactive struct {
	Prompter   Prompter
	Repertoire Repertoire
	Reactions  []combat.Reaction
}

var errNoPrompter = errors.New("strategy.Interactive: no prompter")

// ChooseAction asks the prompter for an action.
func (i Interactive) ChooseAction(v combat.View) (combat.Action, error) {
	if i.Prompter == nil {
		return combat.Action{}, errNoPrompter
	}
	return i.Prompter.PromptAction(v, i.Repertoire)
}

// ChooseReaction asks the prompter for a reaction.
func (i Interactive) ChooseReaction(v combat.View, incoming combat.Action) (combat.Reaction, error) {
	if i.Prompter == nil {
		return combat.Reaction{}, errNoPrompter
	}
	return i.Prompter.PromptReaction(v, incoming, i.Reactions)
}
