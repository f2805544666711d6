// Package dice provides the randomness abstraction and the dice-expression
// evaluator used by the combat resolution engine.
package dice

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Expression is a dice expression such as "2d6+3", "-1d4", "7" or "1d20>12".
//
// Invariant: an integer literal is always a valid expression evaluating to itself.
type Expression string

// Int returns the literal Expression for n.
//
// Postcondition: evaluating the result yields n with no random draws.
func Int(n int) Expression {
	return Expression(strconv.Itoa(n))
}

// IsZero reports whether the expression is unset.
func (e Expression) IsZero() bool { return e == "" }

// Literal reports whether e is a bare integer literal and returns its value.
func (e Expression) Literal() (int, bool) {
	n, err := strconv.Atoi(string(e))
	if err != nil {
		return 0, false
	}
	return n, true
}

// UnmarshalYAML accepts both scalar strings ("2d6") and integers (3).
func (e *Expression) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("dice: expression must be a scalar, got yaml kind %d at line %d", node.Kind, node.Line)
	}
	*e = Expression(strings.TrimSpace(node.Value))
	return nil
}

// Comparator is the optional comparison operator of an Expression.
type Comparator string

const (
	CompareNone    Comparator = ""
	CompareGreater Comparator = ">"
	CompareLess    Comparator = "<"
	CompareEqual   Comparator = "="
)

// holds reports whether left <op> right.
func (c Comparator) holds(left, right int) bool {
	switch c {
	case CompareGreater:
		return left > right
	case CompareLess:
		return left < right
	case CompareEqual:
		return left == right
	default:
		return true
	}
}

// Roll holds the full audit trail for a single expression evaluation.
//
// Postcondition: Value == Left when Passed, otherwise the caller's failure value.
type Roll struct {
	Expression Expression
	Literal    bool       // expression was a bare integer; no comparison semantics applied
	Dice       []int      // every individual die drawn, in draw order, sign-less
	Left       int        // arithmetic value left of the comparator (or the whole value)
	Comparator Comparator // CompareNone when absent
	Right      int        // arithmetic value right of the comparator
	Passed     bool       // comparison outcome; true when there is no comparator
	Value      int        // the evaluated result
}

// String returns a human-readable audit string in the format:
//
//	"2d6+3>9 → [4 5] 12 > 9 = 12"
//
// Precondition: r.Expression is non-empty.
func (r Roll) String() string {
	if r.Expression == "" {
		panic("dice: Roll.String() precondition violated: Expression must be non-empty")
	}
	if r.Comparator == CompareNone {
		return fmt.Sprintf("%s → %v = %d", r.Expression, r.Dice, r.Value)
	}
	return fmt.Sprintf("%s → %v %d %s %d = %d", r.Expression, r.Dice, r.Left, r.Comparator, r.Right, r.Value)
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
