package dice_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/combatflow/internal/game/dice"
)

// seqSource returns queued die faces (1-based) in order; Intn yields face-1.
type seqSource struct{ faces []int }

func (s *seqSource) Intn(n int) int {
	if len(s.faces) == 0 {
		return n - 1
	}
	f := s.faces[0]
	s.faces = s.faces[1:]
	return f - 1
}

func newEval(faces ...int) *dice.Evaluator {
	return dice.NewEvaluator(&seqSource{faces: faces}, nil)
}

func TestEvaluate_LiteralReturnedUnchanged_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 1_000_000).Draw(rt, "n")
		v, err := newEval().Evaluate(dice.Int(n))
		require.NoError(rt, err)
		assert.Equal(rt, n, v)
	})
}

func TestEvaluate_DiceTermInRange_Property(t *testing.T) {
	ev := dice.NewEvaluator(dice.NewSeededSource(42), nil)
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(-12, 12).Draw(rt, "count")
		s := rapid.IntRange(1, 20).Draw(rt, "sides")
		v, err := ev.Evaluate(dice.Expression(fmt.Sprintf("%dd%d", n, s)))
		require.NoError(rt, err)
		if n >= 0 {
			assert.GreaterOrEqual(rt, v, n)
			assert.LessOrEqual(rt, v, n*s)
		} else {
			assert.GreaterOrEqual(rt, v, n*s)
			assert.LessOrEqual(rt, v, n)
		}
	})
}

func TestEvaluate_Arithmetic(t *testing.T) {
	cases := []struct {
		expr  dice.Expression
		faces []int
		want  int
	}{
		{"2d6+3", []int{4, 5}, 12},
		{"2d6 + 3", []int{4, 5}, 12},
		{"10-1d4", []int{3}, 7},
		{"-2d6", []int{1, 6}, -7},
		{"3+-4", nil, -1},
		{"3++4", nil, 7},
		{"+3", nil, 3},
		{"2d6+", []int{2, 2}, 4},
		{"", nil, 0},
		{"1d1+1d1+1d1", nil, 3},
		{"0d6", nil, 0},
	}
	for _, tc := range cases {
		t.Run(string(tc.expr), func(t *testing.T) {
			v, err := newEval(tc.faces...).Evaluate(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v)
		})
	}
}

func TestTest_ComparatorUsesSingleEvaluationOfEachSide(t *testing.T) {
	// left draws 5, right draws 3: 5 > 3.
	ok, err := newEval(5, 3).Test("1d6>1d6")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = newEval(2, 3).Test("1d6>1d6")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTest_ComparatorProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.IntRange(0, 50).Draw(rt, "a")
		b := rapid.IntRange(0, 50).Draw(rt, "b")
		op := rapid.SampledFrom([]string{">", "<", "="}).Draw(rt, "op")
		ok, err := newEval().Test(dice.Expression(fmt.Sprintf("%d%s%d", a, op, b)))
		require.NoError(rt, err)
		switch op {
		case ">":
			assert.Equal(rt, a > b, ok)
		case "<":
			assert.Equal(rt, a < b, ok)
		default:
			assert.Equal(rt, a == b, ok)
		}
	})
}

func TestTest_NoComparatorAlwaysSucceeds(t *testing.T) {
	ok, err := newEval(1).Test("1d6-10")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTest_LiteralTruthiness(t *testing.T) {
	ok, err := newEval().Test(dice.Int(0))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = newEval().Test(dice.Int(3))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateOr_FailureValue(t *testing.T) {
	v, err := newEval().EvaluateOr("1>2", -7)
	require.NoError(t, err)
	assert.Equal(t, -7, v)

	v, err = newEval().Evaluate("1>2")
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	v, err = newEval(6).EvaluateOr("1d6+2=8", -1)
	require.NoError(t, err)
	assert.Equal(t, 8, v, "success returns the left value")

	v, err = newEval().Evaluate("4<9")
	require.NoError(t, err)
	assert.Equal(t, 4, v)
}

func TestEvaluate_MalformedExpressions(t *testing.T) {
	for _, expr := range []dice.Expression{
		"2D6", "d6", "1>2>3", "1>2=3", "2d0", "3--4", "3-+4", "2d6-", "abc", "2d", "-", "1d6*2", "(1d6)",
	} {
		t.Run(string(expr), func(t *testing.T) {
			_, err := newEval(1, 1, 1).Evaluate(expr)
			require.Error(t, err)
			assert.True(t, errors.Is(err, dice.ErrMalformedExpression), "got %v", err)
			assert.ErrorIs(t, dice.Validate(expr), dice.ErrMalformedExpression)
		})
	}
}

func TestValidate_WellFormed(t *testing.T) {
	for _, expr := range []dice.Expression{"2d6+3", "7", "-3", "1d20>12", "", "1d4-1d4=0"} {
		assert.NoError(t, dice.Validate(expr), "expr %q", expr)
	}
}

func TestRoll_String(t *testing.T) {
	r, err := newEval(4, 5).Roll("2d6+3", 0)
	require.NoError(t, err)
	assert.Equal(t, "2d6+3 → [4 5] = 12", r.String())

	r, err = newEval(4, 5).Roll("2d6+3>9", 0)
	require.NoError(t, err)
	assert.Equal(t, "2d6+3>9 → [4 5] 12 > 9 = 12", r.String())
}

func TestRoll_String_PanicsOnEmptyExpression(t *testing.T) {
	assert.Panics(t, func() { _ = dice.Roll{}.String() })
}

func TestEvaluator_LogsRollAtDebug(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ev := dice.NewEvaluator(&seqSource{faces: []int{3}}, zap.New(core))
	_, err := ev.Evaluate("1d6+1")
	require.NoError(t, err)
	entries := logs.FilterMessage("dice roll").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "1d6+1", entries[0].ContextMap()["expression"])
	assert.EqualValues(t, 4, entries[0].ContextMap()["value"])
}

func TestExpression_UnmarshalYAML(t *testing.T) {
	var doc struct {
		Damage map[string]dice.Expression `yaml:"damage"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("damage:\n  fire: 2d6\n  cold: 3\n"), &doc))
	assert.Equal(t, dice.Expression("2d6"), doc.Damage["fire"])
	assert.Equal(t, dice.Expression("3"), doc.Damage["cold"])

	var bad struct {
		E dice.Expression `yaml:"e"`
	}
	assert.Error(t, yaml.Unmarshal([]byte("e: [1, 2]\n"), &bad))
}

func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

func TestCryptoSource_Intn_PanicsOnZero(t *testing.T) {
	assert.Panics(t, func() { dice.NewCryptoSource().Intn(0) })
}

func TestSeededSource_Reproducible(t *testing.T) {
	a, b := dice.NewSeededSource(7), dice.NewSeededSource(7)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(20), b.Intn(20))
	}
	assert.Panics(t, func() { a.Intn(-1) })
}
