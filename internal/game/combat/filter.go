package combat

import "math"

// TargetFilter selects the combatants an Action reaches. Every clause that is
// present must hold. A filter with no fields set matches nobody.
type TargetFilter struct {
	// Center and Distance together form the spatial clause; either alone
	// disables it. Missing trailing axes of Center are treated as 0.
	Center   []float64 `yaml:"center"`
	Distance *float64  `yaml:"distance"`
	// Group requires membership in the named group.
	Group *string `yaml:"group"`
	// Character requires the combatant with this ID.
	Character *string `yaml:"character"`
}

// Within returns a spatial filter of radius distance around center.
func Within(distance float64, center ...float64) TargetFilter {
	return TargetFilter{Center: center, Distance: &distance}
}

// InGroup returns a filter matching members of group g.
func InGroup(g string) TargetFilter { return TargetFilter{Group: &g} }

// Only returns a filter matching the single combatant with the given ID.
func Only(id string) TargetFilter { return TargetFilter{Character: &id} }

// AndGroup returns a copy of f that additionally requires group g.
func (f TargetFilter) AndGroup(g string) TargetFilter {
	f.Group = &g
	return f
}

// IsEmpty reports whether no field of the filter is set.
func (f TargetFilter) IsEmpty() bool {
	return f.Center == nil && f.Distance == nil && f.Group == nil && f.Character == nil
}

// Matches reports whether c satisfies every present clause of f.
//
// Postcondition: returns false for an empty filter.
func Matches(c *Combatant, f TargetFilter) bool {
	if f.IsEmpty() {
		return false
	}
	if f.Center != nil && f.Distance != nil {
		if distance(c.Position(), f.Center) > *f.Distance {
			return false
		}
	}
	if f.Group != nil && !c.InGroup(*f.Group) {
		return false
	}
	if f.Character != nil && *f.Character != c.ID {
		return false
	}
	return true
}

// distance is the Euclidean distance between pos and center, with center
// padded to three axes with zeros. Axes beyond the third are ignored.
func distance(pos [3]float64, center []float64) float64 {
	var sq float64
	for i := range pos {
		var axis float64
		if i < len(center) {
			axis = center[i]
		}
		d := axis - pos[i]
		sq += d * d
	}
	return math.Sqrt(sq)
}
