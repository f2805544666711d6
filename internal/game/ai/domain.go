// Package ai implements a Hierarchical Task Network (HTN) planner that chooses
// combatant actions.
//
// Tasks decompose into primitive operators via ordered methods. Method
// preconditions are Lua functions; operators name repertoire actions and a
// target token.
package ai

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Task is an abstract goal that can be decomposed by methods.
//
// Precondition: ID must be non-empty.
type Task struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
}

// Method decomposes a task into an ordered list of subtasks or operator IDs.
//
// Precondition: TaskID, ID, and Subtasks must be non-empty.
// Precondition: Precondition is a Lua function name; empty means always applicable.
type Method struct {
	TaskID       string   `yaml:"task"`
	ID           string   `yaml:"id"`
	Precondition string   `yaml:"precondition"` // Lua function name; empty = always applicable
	Subtasks     []string `yaml:"subtasks"`
}

// Operator is a primitive step naming one repertoire action and its target.
//
// Precondition: ID and Action must be non-empty.
type Operator struct {
	ID     string `yaml:"id"`
	Action string `yaml:"action"` // repertoire action name, or "pass"
	Target string `yaml:"target"` // "self", "nearest_enemy", "weakest_enemy", "group:<label>", or a name
}

// Domain holds the full HTN domain loaded from a YAML file.
//
// Invariant: all Task, Method, and Operator IDs are unique within their slice.
type Domain struct {
	ID          string      `yaml:"id"`
	Description string      `yaml:"description"`
	Tasks       []*Task     `yaml:"tasks"`
	Methods     []*Method   `yaml:"methods"`
	Operators   []*Operator `yaml:"operators"`
}

// RootTask is the task every plan starts from.
const RootTask = "behave"

// Validate checks all required fields and cross-field constraints.
//
// Postcondition: nil return guarantees a non-empty ID, a RootTask, unique
// non-empty IDs within and across tasks and operators, methods with non-empty
// subtasks that decompose a known task into known tasks or operators, and
// operators naming an action.
func (d *Domain) Validate() error {
	if d.ID == "" {
		return errors.New("ai.Domain: ID must not be empty")
	}
	if len(d.Tasks) == 0 {
		return fmt.Errorf("ai.Domain %q: must have at least one task", d.ID)
	}

	// Tasks and operators share one namespace: a subtask ID must be unambiguous.
	steps := make(map[string]string, len(d.Tasks)+len(d.Operators))
	claim := func(kind, id string) error {
		if id == "" {
			return fmt.Errorf("ai.Domain %q: %s has empty ID", d.ID, kind)
		}
		if prev, dup := steps[id]; dup {
			return fmt.Errorf("ai.Domain %q: %s ID %q already used by a %s", d.ID, kind, id, prev)
		}
		steps[id] = kind
		return nil
	}
	for _, t := range d.Tasks {
		if err := claim("task", t.ID); err != nil {
			return err
		}
	}
	if steps[RootTask] != "task" {
		return fmt.Errorf("ai.Domain %q: missing root task %q", d.ID, RootTask)
	}
	for _, op := range d.Operators {
		if err := claim("operator", op.ID); err != nil {
			return err
		}
		if op.Action == "" {
			return fmt.Errorf("ai.Domain %q operator %q: action must not be empty", d.ID, op.ID)
		}
	}

	methodIDs := make(map[string]bool, len(d.Methods))
	for _, m := range d.Methods {
		if m.TaskID == "" || m.ID == "" {
			return fmt.Errorf("ai.Domain %q: method missing TaskID or ID", d.ID)
		}
		if methodIDs[m.ID] {
			return fmt.Errorf("ai.Domain %q: duplicate method ID %q", d.ID, m.ID)
		}
		methodIDs[m.ID] = true
		if steps[m.TaskID] != "task" {
			return fmt.Errorf("ai.Domain %q method %q: TaskID %q references unknown task", d.ID, m.ID, m.TaskID)
		}
		if len(m.Subtasks) == 0 {
			return fmt.Errorf("ai.Domain %q method %q: subtasks must not be empty", d.ID, m.ID)
		}
		for _, sub := range m.Subtasks {
			if _, ok := steps[sub]; !ok {
				return fmt.Errorf("ai.Domain %q method %q: subtask %q is neither a task nor an operator", d.ID, m.ID, sub)
			}
		}
	}
	return nil
}

// OperatorByID returns the operator with the given ID, or false if not found.
func (d *Domain) OperatorByID(id string) (*Operator, bool) {
	for _, op := range d.Operators {
		if op.ID == id {
			return op, true
		}
	}
	return nil, false
}

// MethodsForTask returns all methods that decompose taskID, in declaration order.
func (d *Domain) MethodsForTask(taskID string) []*Method {
	var out []*Method
	for _, m := range d.Methods {
		if m.TaskID == taskID {
			out = append(out, m)
		}
	}
	return out
}

// yamlDomainFile wraps the YAML top-level key.
type yamlDomainFile struct {
	Domain *Domain `yaml:"domain"`
}

// LoadDomainFromBytes parses and validates a single domain document.
//
// Postcondition: returns a validated Domain or a non-nil error.
func LoadDomainFromBytes(data []byte) (*Domain, error) {
	var f yamlDomainFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing domain: %w", err)
	}
	if f.Domain == nil {
		return nil, errors.New("missing top-level 'domain' key")
	}
	if err := f.Domain.Validate(); err != nil {
		return nil, err
	}
	return f.Domain, nil
}

// LoadDomains reads all *.yaml files from dir and returns parsed Domains.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns error if any YAML file fails to parse or validate.
// Postcondition: returns (nil, nil) if dir contains no .yaml files.
func LoadDomains(dir string) ([]*Domain, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ai.LoadDomains: reading %q: %w", dir, err)
	}
	var domains []*Domain
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("ai.LoadDomains: reading %s: %w", e.Name(), err)
		}
		d, err := LoadDomainFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("ai.LoadDomains: %s: %w", e.Name(), err)
		}
		domains = append(domains, d)
	}
	return domains, nil
}
