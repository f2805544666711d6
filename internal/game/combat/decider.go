package combat

// View is what a Decider may see when choosing: itself and the living roster.
// Roster is a copy; reordering it does not affect the encounter.
type View struct {
	Self   *Combatant
	Roster Roster
	Turn   int
}

// Decider is the decision capability a combatant delegates to. The engine
// calls it synchronously and trusts the returned blocks to be structurally
// valid.
type Decider interface {
	// ChooseAction returns the action for the combatant's turn, or NoOp().
	ChooseAction(v View) (Action, error)
	// ChooseReaction returns the combatant's response to incoming.
	ChooseReaction(v View, incoming Action) (Reaction, error)
}

// TurnHooks is called around the owning combatant's turn.
type TurnHooks interface {
	PreTurn(self *Combatant)
	PostTurn(self *Combatant)
}

// Passive never acts and never resists.
type Passive struct{}

// ChooseAction returns NoOp().
func (Passive) ChooseAction(View) (Action, error) { return NoOp(), nil }

// ChooseReaction returns an empty reaction.
func (Passive) ChooseReaction(View, Action) (Reaction, error) { return Reaction{}, nil }
