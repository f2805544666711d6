package dice

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrMalformedExpression is returned for any expression that cannot be parsed
// or that names an impossible die.
var ErrMalformedExpression = errors.New("dice: malformed expression")

// exprLexer tokenises dice expressions. Anything not listed (including an
// upper-case 'D') is a lexing error.
var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Die", Pattern: `d`},
	{Name: "Cmp", Pattern: `[<>=]`},
	{Name: "Op", Pattern: `[-+]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

// exprAST is the root of a parsed expression: arithmetic, optionally followed
// by exactly one comparator and a right-hand arithmetic side.
type exprAST struct {
	Left  *sumAST `parser:"@@?"`
	Cmp   string  `parser:"( @Cmp"`
	Right *sumAST `parser:"  @@? )?"`
}

// sumAST is a '+'/'-' joined run of terms. Empty runs between '+' signs add
// nothing; a '-' must be followed by a term.
type sumAST struct {
	Head *signedAST `parser:"@@?"`
	Tail []*tailAST `parser:"@@*"`
}

type tailAST struct {
	Sub *termAST   `parser:"  '-' @@"`
	Add *signedAST `parser:"| '+' @@?"`
}

type signedAST struct {
	Neg  bool     `parser:"@'-'?"`
	Term *termAST `parser:"@@"`
}

// termAST is either a constant or a "<count>d<sides>" dice term.
type termAST struct {
	Count int  `parser:"@Int"`
	Dice  bool `parser:"( @Die"`
	Sides int  `parser:"  @Int )?"`
}

var exprParser = participle.MustBuild[exprAST](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace"),
)

// parse parses raw into an AST. A blank expression is the empty sum.
//
// Postcondition: returns a non-nil AST or an error wrapping ErrMalformedExpression.
func parse(raw Expression) (*exprAST, error) {
	s := string(raw)
	if strings.TrimSpace(s) == "" {
		return &exprAST{}, nil
	}
	ast, err := exprParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrMalformedExpression, s, err)
	}
	for _, side := range []*sumAST{ast.Left, ast.Right} {
		if err := side.check(); err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrMalformedExpression, s, err)
		}
	}
	return ast, nil
}

// check validates die sizes without rolling.
func (s *sumAST) check() error {
	for _, t := range s.terms() {
		if t.term.Dice && t.term.Sides < 1 {
			return fmt.Errorf("die must have at least 1 side, got d%d", t.term.Sides)
		}
	}
	return nil
}

type signedTerm struct {
	neg  bool
	term *termAST
}

// terms flattens the sum into signed terms in source order.
func (s *sumAST) terms() []signedTerm {
	if s == nil {
		return nil
	}
	var out []signedTerm
	if s.Head != nil {
		out = append(out, signedTerm{neg: s.Head.Neg, term: s.Head.Term})
	}
	for _, t := range s.Tail {
		switch {
		case t.Sub != nil:
			out = append(out, signedTerm{neg: true, term: t.Sub})
		case t.Add != nil:
			out = append(out, signedTerm{neg: t.Add.Neg, term: t.Add.Term})
		}
	}
	return out
}

// Validate reports whether expr is well formed without drawing any dice.
//
// Postcondition: returns nil, or an error wrapping ErrMalformedExpression.
func Validate(expr Expression) error {
	if _, ok := expr.Literal(); ok {
		return nil
	}
	_, err := parse(expr)
	return err
}
