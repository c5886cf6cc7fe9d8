package eval

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Float evaluates a C floating constant expression: `+ - * /` over
// parenthesized subexpressions, float/hex-float literals, and a
// `(double)` cast. It exists for one quirk spec §4.4/§9 calls out:
// a union initialized with a floating member needs its bit pattern
// reproduced as a hex integer through a `(void*)`/`(intptr_t)` cast,
// which first requires folding the floating initializer expression.
type Float struct {
	tokens []string
	pos    int
}

// EvalFloat folds expr to a float64.
func EvalFloat(tokens []string) (float64, error) {
	p := &Float{tokens: tokens}
	v, err := p.additive()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.tokens) {
		return 0, errors.Errorf("eval: unexpected trailing token %q", p.tokens[p.pos])
	}
	return v, nil
}

func (p *Float) peek() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *Float) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *Float) additive() (float64, error) {
	v, err := p.multiplicative()
	if err != nil {
		return 0, err
	}
	for p.peek() == "+" || p.peek() == "-" {
		op := p.next()
		rhs, err := p.multiplicative()
		if err != nil {
			return 0, err
		}
		if op == "+" {
			v += rhs
		} else {
			v -= rhs
		}
	}
	return v, nil
}

func (p *Float) multiplicative() (float64, error) {
	v, err := p.unary()
	if err != nil {
		return 0, err
	}
	for p.peek() == "*" || p.peek() == "/" {
		op := p.next()
		rhs, err := p.unary()
		if err != nil {
			return 0, err
		}
		if op == "*" {
			v *= rhs
		} else {
			if rhs == 0 {
				return 0, errors.New("eval: division by zero in floating constant expression")
			}
			v /= rhs
		}
	}
	return v, nil
}

func (p *Float) unary() (float64, error) {
	switch p.peek() {
	case "+":
		p.next()
		return p.unary()
	case "-":
		p.next()
		v, err := p.unary()
		return -v, err
	}
	return p.primary()
}

func (p *Float) primary() (float64, error) {
	tok := p.next()
	if tok == "" {
		return 0, errors.New("eval: unexpected end of floating expression")
	}
	if tok == "(" {
		// Either a parenthesized subexpression or a `(double)` cast
		// immediately followed by one.
		if p.peek() == "double" || p.peek() == "float" {
			p.next()
			if p.next() != ")" {
				return 0, errors.New("eval: expected ')' after cast")
			}
			return p.unary()
		}
		v, err := p.additive()
		if err != nil {
			return 0, err
		}
		if p.next() != ")" {
			return 0, errors.New("eval: expected ')'")
		}
		return v, nil
	}
	return ParseFloatLiteral(tok)
}

// ParseFloatLiteral parses a C floating-literal token — decimal or hex
// (`0x1.8p3`-style), with an optional f/F/l/L suffix — into float64.
func ParseFloatLiteral(tok string) (float64, error) {
	s := tok
	if n := len(s); n > 0 {
		switch s[n-1] {
		case 'f', 'F', 'l', 'L':
			s = s[:n-1]
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "eval: invalid floating literal %q", tok)
	}
	return v, nil
}

// FloatBitsHex renders f's IEEE-754 double bit pattern as a hex
// integer literal. The union-initializer lowering does not call it: a
// floating active member is assigned its original initializer text,
// and no bit pattern is spliced anywhere.
func FloatBitsHex(f float64) string {
	bits := math.Float64bits(f)
	return "0x" + strings.ToUpper(strconv.FormatUint(bits, 16))
}
