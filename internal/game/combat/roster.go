package combat

import "github.com/cory-johannsen/combatflow/internal/game/dice"

// Roster is an ordered list of combatants; for an Encounter it is the turn order.
type Roster []*Combatant

// FindAll returns, in roster order, every combatant matching f.
func (r Roster) FindAll(f TargetFilter) Roster {
	var out Roster
	for _, c := range r {
		if Matches(c, f) {
			out = append(out, c)
		}
	}
	return out
}

// FindRandom returns a uniformly random combatant matching f, or false when
// none match.
//
// Precondition: src must be non-nil.
func (r Roster) FindRandom(f TargetFilter, src dice.Source) (*Combatant, bool) {
	matched := r.FindAll(f)
	if len(matched) == 0 {
		return nil, false
	}
	return matched[src.Intn(len(matched))], true
}

// ByID returns the combatant with the given ID.
func (r Roster) ByID(id string) (*Combatant, bool) {
	for _, c := range r {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// Contains reports whether c is in the roster (by identity).
func (r Roster) Contains(c *Combatant) bool {
	return r.indexOf(c) >= 0
}

// Groups returns the distinct group labels carried by the roster, in first-seen order.
func (r Roster) Groups() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range r {
		for _, g := range c.Groups {
			if !seen[g] {
				seen[g] = true
				out = append(out, g)
			}
		}
	}
	return out
}

func (r Roster) indexOf(c *Combatant) int {
	for i, x := range r {
		if x == c {
			return i
		}
	}
	return -1
}

func (r Roster) clone() Roster {
	out := make(Roster, len(r))
	copy(out, r)
	return out
}
