// Package effect tracks named, duration-limited status effects on a combatant.
package effect

import "sort"

// Set tracks every effect currently applied to one combatant, keyed by name,
// with the number of the owner's turns it has left.
//
// Invariant: every tracked duration is > 0.
// It is not safe for concurrent use; the caller must serialise access.
type Set struct {
	remaining map[string]int
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{remaining: make(map[string]int)}
}

// Apply adds duration turns to the named effect. Re-applying an effect that
// is already active stacks: the new duration is added to what remains.
// Non-positive durations are ignored for new effects, and are added (possibly
// expiring the effect) for active ones.
//
// Postcondition: Duration(name) == previous + duration, or the effect is absent
// when that sum is <= 0.
func (s *Set) Apply(name string, duration int) {
	total := s.remaining[name] + duration
	if total <= 0 {
		delete(s.remaining, name)
		return
	}
	s.remaining[name] = total
}

// Remove deletes the named effect. Removing an absent effect is a no-op.
//
// Postcondition: Has(name) is false.
func (s *Set) Remove(name string) {
	delete(s.remaining, name)
}

// Tick decrements every effect by one turn and removes, in the same pass,
// those that reach zero.
//
// Postcondition: for every name in the returned (sorted) slice, Has(name) is false.
func (s *Set) Tick() []string {
	var expired []string
	for name := range s.remaining {
		s.remaining[name]--
		if s.remaining[name] <= 0 {
			expired = append(expired, name)
			delete(s.remaining, name)
		}
	}
	sort.Strings(expired)
	return expired
}

// Has reports whether the named effect is active.
func (s *Set) Has(name string) bool {
	_, ok := s.remaining[name]
	return ok
}

// Duration returns the turns remaining on the named effect, or 0 if absent.
func (s *Set) Duration(name string) int {
	return s.remaining[name]
}

// Len returns the number of active effects.
func (s *Set) Len() int { return len(s.remaining) }

// Snapshot returns a copy of the name → remaining-duration mapping.
func (s *Set) Snapshot() map[string]int {
	out := make(map[string]int, len(s.remaining))
	for k, v := range s.remaining {
		out[k] = v
	}
	return out
}

// Names returns the active effect names in sorted order.
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.remaining))
	for k := range s.remaining {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
