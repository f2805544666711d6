// Package narrative renders combat log events as human-readable lines.
package narrative

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/cory-johannsen/combatflow/internal/game/combat"
)

const (
	keyTurnStart     = "narrative.turn_start"
	keyAction        = "narrative.action"
	keyPass          = "narrative.pass"
	keyReaction      = "narrative.reaction"
	keyNoReaction    = "narrative.no_reaction"
	keyChanceFailure = "narrative.chance_failure"
	keyHit           = "narrative.hit"
	keyEffect        = "narrative.effect"
	keyDeath         = "narrative.death"
	keyExpired       = "narrative.expired"
	keySomeone       = "narrative.someone"
)

// BaseLocale is the locale every message is defined for.
var BaseLocale = language.English

// NewCatalog returns the built-in English message catalog.
func NewCatalog() (*catalog.Builder, error) {
	b := catalog.NewBuilder(catalog.Fallback(BaseLocale))
	strs := map[string]string{
		keyTurnStart:     "Turn %d: %s steps up.",
		keyAction:        "%s uses %s.",
		keyPass:          "%s waits.",
		keyReaction:      "%s answers with %s.",
		keyNoReaction:    "%s does not react.",
		keyChanceFailure: "%s's %s misses %s.",
		keyHit:           "%s takes %d damage from %s's %s.",
		keyDeath:         "%s falls.",
		keyExpired:       "%s is no longer %s.",
		keySomeone:       "someone",
	}
	keys := make([]string, 0, len(strs))
	for k := range strs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := b.SetString(BaseLocale, k, strs[k]); err != nil {
			return nil, fmt.Errorf("narrative: setting %q: %w", k, err)
		}
	}
	err := b.Set(BaseLocale, keyEffect, plural.Selectf(3, "%d",
		"=1", "%[1]s is %[2]s for %[3]d turn.",
		"other", "%[1]s is %[2]s for %[3]d turns.",
	))
	if err != nil {
		return nil, fmt.Errorf("narrative: setting %q: %w", keyEffect, err)
	}
	return b, nil
}

// Renderer turns events into lines using a localized printer.
type Renderer struct {
	p *message.Printer
}

// NewRenderer returns a Renderer printing in tag from cat.
//
// Precondition: cat must not be nil.
func NewRenderer(tag language.Tag, cat catalog.Catalog) *Renderer {
	return &Renderer{p: message.NewPrinter(tag, message.Catalog(cat))}
}

// Lines returns the narrative for ev. A hit that applies effects yields one
// extra line per effect, in effect name order.
func (r *Renderer) Lines(ev combat.Event) []string {
	switch ev.Kind {
	case combat.EventTurnStart:
		return []string{r.p.Sprintf(keyTurnStart, ev.Turn, r.name(ev.Actor))}
	case combat.EventActionDeclared:
		if ev.Action == nil || ev.Action.IsNoOp() {
			return []string{r.p.Sprintf(keyPass, r.name(ev.Actor))}
		}
		return []string{r.p.Sprintf(keyAction, r.name(ev.Actor), ev.Action.Name)}
	case combat.EventReactionDeclared:
		if ev.Reaction == nil || ev.Reaction.Name == "" {
			return []string{r.p.Sprintf(keyNoReaction, r.name(ev.Target))}
		}
		return []string{r.p.Sprintf(keyReaction, r.name(ev.Target), ev.Reaction.Name)}
	case combat.EventChanceFailure:
		return []string{r.p.Sprintf(keyChanceFailure, r.name(ev.Actor), actionName(ev.Action), r.name(ev.Target))}
	case combat.EventHit:
		total := 0
		var effects map[string]int
		if ev.Damage != nil {
			total, effects = ev.Damage.Total, ev.Damage.Effects
		}
		out := []string{r.p.Sprintf(keyHit, r.name(ev.Target), total, r.name(ev.Actor), actionName(ev.Action))}
		names := make([]string, 0, len(effects))
		for n := range effects {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			out = append(out, r.p.Sprintf(keyEffect, r.name(ev.Target), n, effects[n]))
		}
		return out
	case combat.EventDeath:
		return []string{r.p.Sprintf(keyDeath, r.name(ev.Target))}
	case combat.EventEffectExpired:
		return []string{r.p.Sprintf(keyExpired, r.name(ev.Target), ev.Effect)}
	}
	return nil
}

// Render writes the narrative for events to w, one line per sentence.
func (r *Renderer) Render(w io.Writer, events []combat.Event) error {
	var sb strings.Builder
	for _, ev := range events {
		for _, line := range r.Lines(ev) {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func (r *Renderer) name(c *combat.Combatant) string {
	if c == nil {
		return r.p.Sprintf(keySomeone)
	}
	return c.Name
}

func actionName(a *combat.Action) string {
	if a == nil {
		return ""
	}
	return a.Name
}
