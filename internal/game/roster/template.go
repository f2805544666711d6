// Package roster loads combatant templates from YAML and instantiates them
// as combatants wired to their deciders.
package roster

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/combatflow/internal/game/combat"
	"github.com/cory-johannsen/combatflow/internal/game/strategy"
)

// Strategy kinds accepted in a template's strategy.kind field.
const (
	KindPassive     = "passive"
	KindScripted    = "scripted"
	KindRandom      = "random"
	KindInteractive = "interactive"
	KindLua         = "lua"
	KindPlanned     = "planned"
)

// StrategySpec selects and parameterises a template's decider.
type StrategySpec struct {
	Kind string `yaml:"kind"`
	// Sequence lists repertoire names played in order (scripted).
	Sequence []string `yaml:"sequence"`
	// TargetGroup narrows random picks to one member of this group (random).
	TargetGroup string `yaml:"target_group"`
	// Script is the scripting VM ID exporting choose_action (lua).
	Script string `yaml:"script"`
	// Domain is the HTN domain ID (planned).
	Domain string `yaml:"domain"`
}

// Template defines a reusable combatant loaded from YAML.
type Template struct {
	ID          string              `yaml:"id"`
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	HP          int                 `yaml:"hp"`
	Position    []float64           `yaml:"position"`
	Groups      []string            `yaml:"groups"`
	Strategy    StrategySpec        `yaml:"strategy"`
	Repertoire  strategy.Repertoire `yaml:"repertoire"`
	Reaction    combat.Reaction     `yaml:"reaction"`
}

// Validate checks the template's invariants and every dice expression it carries.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff the template can be instantiated given the
// scripts and domains it names; returns an error on the first violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return errors.New("roster template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("roster template %q: name must not be empty", t.ID)
	}
	if t.HP < 1 {
		return fmt.Errorf("roster template %q: hp must be >= 1", t.ID)
	}
	if len(t.Position) > 3 {
		return fmt.Errorf("roster template %q: position has %d axes, at most 3 allowed", t.ID, len(t.Position))
	}
	for _, name := range t.Repertoire.Names() {
		if err := t.Repertoire[name].Validate(); err != nil {
			return fmt.Errorf("roster template %q repertoire: %w", t.ID, err)
		}
	}
	if err := t.Reaction.Validate(); err != nil {
		return fmt.Errorf("roster template %q: %w", t.ID, err)
	}

	switch s := t.Strategy; s.Kind {
	case "", KindPassive, KindRandom, KindInteractive:
	case KindScripted:
		for _, name := range s.Sequence {
			if _, err := t.Repertoire.Get(name); err != nil {
				return fmt.Errorf("roster template %q sequence: %w", t.ID, err)
			}
		}
	case KindLua:
		if s.Script == "" {
			return fmt.Errorf("roster template %q: lua strategy requires script", t.ID)
		}
	case KindPlanned:
		if s.Domain == "" {
			return fmt.Errorf("roster template %q: planned strategy requires domain", t.ID)
		}
	default:
		return fmt.Errorf("roster template %q: unknown strategy kind %q", t.ID, s.Kind)
	}
	return nil
}

// LoadTemplateFromBytes parses a single template from raw YAML bytes.
// Repertoire entries without a name take their key as the name.
//
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	for key, a := range tmpl.Repertoire {
		if a.Name == "" {
			a.Name = key
			tmpl.Repertoire[key] = a
		}
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates
// in file name order.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or
// validate failure, or on a duplicate template ID.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading roster dir %q: %w", dir, err)
	}

	var templates []*Template
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if prev, dup := seen[tmpl.ID]; dup {
			return nil, fmt.Errorf("loading %q: template id %q already defined in %q", path, tmpl.ID, prev)
		}
		seen[tmpl.ID] = path
		templates = append(templates, tmpl)
	}
	return templates, nil
}
