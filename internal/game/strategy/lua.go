package strategy

import (
	"errors"
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/combatflow/internal/game/combat"
	"github.com/cory-johannsen/combatflow/internal/game/dice"
	"github.com/cory-johannsen/combatflow/internal/scripting"
)

// Lua delegates decisions to a sandboxed script exporting:
//
//	choose_action(self, roster)   -> action
//	choose_reaction(self, action) -> reaction
//	pre_turn(self), post_turn(self)  (optional)
//
// An action result is nil (pass), a repertoire name, a table
// {use = name, target = id, group = g} aiming a repertoire entry, or a full
// action table. A reaction result is nil (the default Reaction) or a table.
type Lua struct {
	Scripts    *scripting.Manager
	ScriptID   string
	Repertoire Repertoire
	Reaction   combat.Reaction
}

// maxDecodeDepth bounds failure_condition and retaliation nesting in script results.
const maxDecodeDepth = 16

// ChooseAction calls choose_action. Script errors and malformed results are returned.
func (s *Lua) ChooseAction(v combat.View) (combat.Action, error) {
	var a combat.Action
	err := s.Scripts.Do(s.ScriptID, func(L *lua.LState) error {
		roster := L.NewTable()
		for _, c := range v.Roster {
			roster.Append(combatantTable(L, c))
		}
		ret, err := scripting.CallFunc(L, "choose_action", combatantTable(L, v.Self), roster)
		if err != nil {
			return err
		}
		a, err = s.decodeChoice(ret)
		return err
	})
	if err != nil {
		return combat.Action{}, fmt.Errorf("script %q choose_action: %w", s.ScriptID, err)
	}
	return a, nil
}

// ChooseReaction calls choose_reaction with the incoming action as a table.
func (s *Lua) ChooseReaction(v combat.View, incoming combat.Action) (combat.Reaction, error) {
	r := s.Reaction
	err := s.Scripts.Do(s.ScriptID, func(L *lua.LState) error {
		ret, err := scripting.CallFunc(L, "choose_reaction", combatantTable(L, v.Self), actionTable(L, incoming))
		if err != nil {
			return err
		}
		if ret == lua.LNil {
			return nil
		}
		tbl, ok := ret.(*lua.LTable)
		if !ok {
			return fmt.Errorf("reaction must be a table, got %s", ret.Type())
		}
		r, err = decodeReaction(tbl, 0)
		if err != nil {
			return err
		}
		return r.Validate()
	})
	if err != nil {
		return combat.Reaction{}, fmt.Errorf("script %q choose_reaction: %w", s.ScriptID, err)
	}
	return r, nil
}

// PreTurn calls the optional pre_turn hook. Hook failures do not interrupt the turn.
func (s *Lua) PreTurn(self *combat.Combatant) { s.hook("pre_turn", self) }

// PostTurn calls the optional post_turn hook.
func (s *Lua) PostTurn(self *combat.Combatant) { s.hook("post_turn", self) }

func (s *Lua) hook(name string, self *combat.Combatant) {
	s.Scripts.CallHookWith(s.ScriptID, name, func(L *lua.LState) []lua.LValue { //nolint:errcheck
		return []lua.LValue{combatantTable(L, self)}
	})
}

func (s *Lua) decodeChoice(ret lua.LValue) (combat.Action, error) {
	switch v := ret.(type) {
	case lua.LString:
		return s.Repertoire.Get(string(v))
	case *lua.LTable:
		if use, ok := v.RawGetString("use").(lua.LString); ok {
			a, err := s.Repertoire.Get(string(use))
			if err != nil || a.IsNoOp() {
				return a, err
			}
			return aimAt(a, stringField(v, "target"), stringField(v, "group")), nil
		}
		a, err := decodeAction(v, 0)
		if err != nil {
			return combat.Action{}, err
		}
		return a, a.Validate()
	}
	if ret == lua.LNil {
		return combat.NoOp(), nil
	}
	return combat.Action{}, fmt.Errorf("action must be nil, a string or a table, got %s", ret.Type())
}

func combatantTable(L *lua.LState, c *combat.Combatant) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "id", lua.LString(c.ID))
	L.SetField(t, "name", lua.LString(c.Name))
	L.SetField(t, "hp", lua.LNumber(c.HP))
	groups := L.NewTable()
	for _, g := range c.Groups {
		groups.Append(lua.LString(g))
	}
	L.SetField(t, "groups", groups)
	pos := L.NewTable()
	for _, axis := range c.Position() {
		pos.Append(lua.LNumber(axis))
	}
	L.SetField(t, "position", pos)
	effects := L.NewTable()
	for name, d := range c.Effects().Snapshot() {
		L.SetField(effects, name, lua.LNumber(d))
	}
	L.SetField(t, "effects", effects)
	return t
}

func actionTable(L *lua.LState, a combat.Action) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "name", lua.LString(a.Name))
	L.SetField(t, "damage", exprTable(L, a.Damage))
	L.SetField(t, "effects", exprTable(L, a.Effects))
	if !a.Chance.IsZero() {
		L.SetField(t, "chance", exprValue(a.Chance))
	}
	rng := L.NewTable()
	if a.Filter.Center != nil {
		center := L.NewTable()
		for _, axis := range a.Filter.Center {
			center.Append(lua.LNumber(axis))
		}
		L.SetField(rng, "center", center)
	}
	if a.Filter.Distance != nil {
		L.SetField(rng, "distance", lua.LNumber(*a.Filter.Distance))
	}
	if a.Filter.Group != nil {
		L.SetField(rng, "group", lua.LString(*a.Filter.Group))
	}
	if a.Filter.Character != nil {
		L.SetField(rng, "character", lua.LString(*a.Filter.Character))
	}
	L.SetField(t, "range", rng)
	return t
}

func exprTable(L *lua.LState, m map[string]dice.Expression) *lua.LTable {
	t := L.NewTable()
	for k, e := range m {
		L.SetField(t, k, exprValue(e))
	}
	return t
}

func exprValue(e dice.Expression) lua.LValue {
	if n, ok := e.Literal(); ok {
		return lua.LNumber(n)
	}
	return lua.LString(e)
}

func decodeAction(t *lua.LTable, depth int) (combat.Action, error) {
	if depth > maxDecodeDepth {
		return combat.Action{}, errors.New("action nesting too deep")
	}
	a := combat.Action{Name: stringField(t, "name")}
	var err error
	if a.Damage, err = exprField(t, "damage"); err != nil {
		return combat.Action{}, err
	}
	if a.Effects, err = exprField(t, "effects"); err != nil {
		return combat.Action{}, err
	}
	if c := t.RawGetString("chance"); c != lua.LNil {
		if a.Chance, err = toExpr("chance", c); err != nil {
			return combat.Action{}, err
		}
	}
	if rng, ok := t.RawGetString("range").(*lua.LTable); ok {
		if a.Filter, err = decodeFilter(rng); err != nil {
			return combat.Action{}, err
		}
	}
	if fc, ok := t.RawGetString("failure_condition").(*lua.LTable); ok {
		nested, err := decodeAction(fc, depth+1)
		if err != nil {
			return combat.Action{}, fmt.Errorf("failure_condition: %w", err)
		}
		a.FailureCondition = &nested
	}
	return a, nil
}

func decodeReaction(t *lua.LTable, depth int) (combat.Reaction, error) {
	r := combat.Reaction{Name: stringField(t, "name")}
	var err error
	if r.Resistance, err = exprField(t, "resistance"); err != nil {
		return combat.Reaction{}, err
	}
	if at, ok := t.RawGetString("action").(*lua.LTable); ok {
		a, err := decodeAction(at, depth+1)
		if err != nil {
			return combat.Reaction{}, fmt.Errorf("retaliation: %w", err)
		}
		r.Action = &a
	}
	return r, nil
}

func decodeFilter(t *lua.LTable) (combat.TargetFilter, error) {
	var f combat.TargetFilter
	if ct, ok := t.RawGetString("center").(*lua.LTable); ok {
		f.Center = []float64{}
		for i := 1; i <= ct.Len(); i++ {
			n, ok := ct.RawGetInt(i).(lua.LNumber)
			if !ok {
				return f, fmt.Errorf("range.center[%d] must be a number", i)
			}
			f.Center = append(f.Center, float64(n))
		}
	}
	if d, ok := t.RawGetString("distance").(lua.LNumber); ok {
		dist := float64(d)
		f.Distance = &dist
	}
	if g := stringField(t, "group"); g != "" {
		f.Group = &g
	}
	if c := stringField(t, "character"); c != "" {
		f.Character = &c
	}
	return f, nil
}

// exprField decodes t[key] as a map of dice expressions; an absent key yields nil.
func exprField(t *lua.LTable, key string) (map[string]dice.Expression, error) {
	sub, ok := t.RawGetString(key).(*lua.LTable)
	if !ok {
		return nil, nil
	}
	out := make(map[string]dice.Expression)
	var err error
	sub.ForEach(func(k, v lua.LValue) {
		if err != nil {
			return
		}
		name, ok := k.(lua.LString)
		if !ok {
			err = fmt.Errorf("%s keys must be strings", key)
			return
		}
		out[string(name)], err = toExpr(fmt.Sprintf("%s[%s]", key, name), v)
	})
	return out, err
}

// toExpr accepts an integer or a dice string.
func toExpr(field string, v lua.LValue) (dice.Expression, error) {
	switch e := v.(type) {
	case lua.LNumber:
		n := float64(e)
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return "", fmt.Errorf("%s must be an integer, got %v", field, n)
		}
		return dice.Int(int(n)), nil
	case lua.LString:
		return dice.Expression(e), nil
	}
	return "", fmt.Errorf("%s must be a number or dice string, got %s", field, v.Type())
}

func stringField(t *lua.LTable, key string) string {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}
