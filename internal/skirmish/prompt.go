package skirmish

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cory-johannsen/combatflow/internal/game/combat"
	"github.com/cory-johannsen/combatflow/internal/game/strategy"
)

// TerminalPrompter asks a human on a line-oriented terminal. Every choice is
// a numbered menu; invalid input is asked again.
type TerminalPrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewTerminalPrompter reads choices from in and writes menus to out.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewScanner(in), out: out}
}

// PromptAction offers pass plus every repertoire entry, then a target. The
// chosen target narrows the action to that combatant; 0 keeps its authored range.
func (p *TerminalPrompter) PromptAction(v combat.View, options strategy.Repertoire) (combat.Action, error) {
	names := options.Names()
	fmt.Fprintf(p.out, "%s (%d HP), choose an action:\n  0) %s\n", v.Self.Name, v.Self.HP, strategy.PassAction)
	for i, n := range names {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, n)
	}
	idx, err := p.choose(len(names))
	if err != nil || idx == 0 {
		return combat.NoOp(), err
	}
	a := options[names[idx-1]]

	fmt.Fprintln(p.out, "Target:\n  0) as written")
	for i, c := range v.Roster {
		fmt.Fprintf(p.out, "  %d) %s (%d HP)\n", i+1, c.Name, c.HP)
	}
	t, err := p.choose(len(v.Roster))
	if err != nil {
		return combat.Action{}, err
	}
	if t > 0 {
		id := v.Roster[t-1].ID
		a.Filter.Character = &id
	}
	return a, nil
}

// PromptReaction offers no reaction plus each of options.
func (p *TerminalPrompter) PromptReaction(v combat.View, incoming combat.Action, options []combat.Reaction) (combat.Reaction, error) {
	fmt.Fprintf(p.out, "%s is targeted by %s. React:\n  0) none\n", v.Self.Name, incoming.Name)
	for i, r := range options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, r.Name)
	}
	idx, err := p.choose(len(options))
	if err != nil || idx == 0 {
		return combat.Reaction{}, err
	}
	return options[idx-1], nil
}

// choose reads an integer in [0, max].
func (p *TerminalPrompter) choose(max int) (int, error) {
	for {
		fmt.Fprint(p.out, "> ")
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return 0, err
			}
			return 0, io.ErrUnexpectedEOF
		}
		n, err := strconv.Atoi(strings.TrimSpace(p.in.Text()))
		if err == nil && n >= 0 && n <= max {
			return n, nil
		}
		fmt.Fprintf(p.out, "enter a number from 0 to %d\n", max)
	}
}
