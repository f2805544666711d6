package dice

import (
	"go.uber.org/zap"
)

// Evaluator rolls dice expressions against a Source and logs every roll.
// All rolls are logged at debug level with expression, dice values, sides and outcome.
//
// Each call performs fresh, independent draws; nothing is memoised. Callers
// needing a stable value must keep the returned integer, not the expression.
type Evaluator struct {
	src    Source
	logger *zap.Logger
}

// NewEvaluator creates an Evaluator that rolls with src and logs to logger.
//
// Precondition: src must be non-nil. A nil logger disables logging.
func NewEvaluator(src Source, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{src: src, logger: logger}
}

// Roll evaluates expr once and returns the audit record.
//
// Literal integers are returned unchanged with Passed = (value != 0).
// Without a comparator Passed is true and Value is the arithmetic total.
// With a comparator both sides are evaluated exactly once; Value is the left
// side when the comparison holds and failureValue otherwise.
//
// Postcondition: returns a Roll, or an error wrapping ErrMalformedExpression.
func (e *Evaluator) Roll(expr Expression, failureValue int) (Roll, error) {
	if n, ok := expr.Literal(); ok {
		return Roll{Expression: expr, Literal: true, Left: n, Passed: n != 0, Value: n}, nil
	}

	ast, err := parse(expr)
	if err != nil {
		return Roll{}, err
	}

	r := Roll{Expression: expr, Comparator: Comparator(ast.Cmp)}
	r.Left = e.sum(ast.Left, &r.Dice)
	if r.Comparator != CompareNone {
		r.Right = e.sum(ast.Right, &r.Dice)
	}
	r.Passed = r.Comparator.holds(r.Left, r.Right)
	if r.Passed {
		r.Value = r.Left
	} else {
		r.Value = failureValue
	}

	e.logger.Debug("dice roll",
		zap.String("expression", string(expr)),
		zap.Ints("dice", r.Dice),
		zap.Int("left", r.Left),
		zap.String("comparator", string(r.Comparator)),
		zap.Int("right", r.Right),
		zap.Bool("passed", r.Passed),
		zap.Int("value", r.Value),
	)
	return r, nil
}

// Evaluate returns the numeric value of expr, with 0 as the failure value.
func (e *Evaluator) Evaluate(expr Expression) (int, error) {
	return e.EvaluateOr(expr, 0)
}

// EvaluateOr returns the numeric value of expr, or failureValue when its
// comparison does not hold.
func (e *Evaluator) EvaluateOr(expr Expression, failureValue int) (int, error) {
	r, err := e.Roll(expr, failureValue)
	if err != nil {
		return 0, err
	}
	return r.Value, nil
}

// Test evaluates expr in boolean mode. An expression without a comparator
// trivially succeeds; a bare integer literal succeeds iff it is non-zero.
func (e *Evaluator) Test(expr Expression) (bool, error) {
	r, err := e.Roll(expr, 0)
	if err != nil {
		return false, err
	}
	return r.Passed, nil
}

// sum rolls every term of s, appending each die to drawn.
func (e *Evaluator) sum(s *sumAST, drawn *[]int) int {
	total := 0
	for _, t := range s.terms() {
		v := t.term.Count
		if t.term.Dice {
			v = 0
			for i := 0; i < t.term.Count; i++ {
				d := e.src.Intn(t.term.Sides) + 1
				*drawn = append(*drawn, d)
				v += d
			}
		}
		if t.neg {
			v = -v
		}
		total += v
	}
	return total
}
