// Package eval implements the two constant-expression folders the
// rewriter needs at rewrite time: integer constants (enum initializers,
// designated-array-index expressions) and floating constants (the
// floating-member-union-initializer quirk, spec §4.4/§9).
//
// Both folders work over token text, not over a typed AST, because by
// the time the walker (phase one) needs a constant value the only thing on hand
// is the original source span for the expression (tokens are streamed,
// not re-parsed as a subtree).
package eval

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// EnumLookup resolves an identifier to its constant value, backed by
// symbols.Table.EnumConstant in the caller.
type EnumLookup func(name string) (int64, bool)

// Int evaluates a C integer constant expression built from integer
// literals, enum constants, unary +/-/~, and the binary operators
// '+' '-' '*' '/' '%' over a flat token-text expression. It is a
// recursive-descent parser over the *text* of tokens, not over a
// typed expression tree, since that is all phase one retains for
// designated-array-index expressions.
type Int struct {
	tokens []string
	pos    int
	lookup EnumLookup
}

// EvalInt folds expr (a sequence of already-tokenized spellings) to an
// int64, resolving identifiers through lookup.
func EvalInt(tokens []string, lookup EnumLookup) (int64, error) {
	p := &Int{tokens: tokens, lookup: lookup}
	v, err := p.additive()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.tokens) {
		return 0, errors.Errorf("eval: unexpected trailing token %q", p.tokens[p.pos])
	}
	return v, nil
}

func (p *Int) peek() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *Int) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *Int) additive() (int64, error) {
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

func (p *Int) multiplicative() (int64, error) {
	v, err := p.unary()
	if err != nil {
		return 0, err
	}
	for p.peek() == "*" || p.peek() == "/" || p.peek() == "%" {
		op := p.next()
		rhs, err := p.unary()
		if err != nil {
			return 0, err
		}
		switch op {
		case "*":
			v *= rhs
		case "/":
			if rhs == 0 {
				return 0, errors.New("eval: division by zero in constant expression")
			}
			v /= rhs
		case "%":
			if rhs == 0 {
				return 0, errors.New("eval: modulo by zero in constant expression")
			}
			v %= rhs
		}
	}
	return v, nil
}

func (p *Int) unary() (int64, error) {
	switch p.peek() {
	case "+":
		p.next()
		return p.unary()
	case "-":
		p.next()
		v, err := p.unary()
		return -v, err
	case "~":
		p.next()
		v, err := p.unary()
		return ^v, err
	}
	return p.primary()
}

func (p *Int) primary() (int64, error) {
	tok := p.next()
	if tok == "" {
		return 0, errors.New("eval: unexpected end of expression")
	}
	if tok == "(" {
		v, err := p.additive()
		if err != nil {
			return 0, err
		}
		if p.next() != ")" {
			return 0, errors.New("eval: expected ')'")
		}
		return v, nil
	}
	if isIdentStart(tok[0]) {
		if v, ok := p.lookup(tok); ok {
			return v, nil
		}
		return 0, errors.Errorf("eval: unresolved identifier %q in constant expression", tok)
	}
	if tok[0] == '\'' {
		return evalCharConstant(tok)
	}
	return ParseIntLiteral(tok)
}

// ParseIntLiteral parses a C integer-literal token — decimal, `0`
// octal, or `0x` hex, with an optional trailing U/L/UL/LL suffix in
// any case combination — into its value.
func ParseIntLiteral(tok string) (int64, error) {
	s := strings.TrimRight(tok, "uUlL")
	if s == "" {
		return 0, errors.Errorf("eval: empty integer literal %q", tok)
	}
	var base int
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		base = 16
		s = s[2:]
	case len(s) > 1 && s[0] == '0':
		base = 8
		s = s[1:]
	default:
		base = 10
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "eval: invalid integer literal %q", tok)
	}
	return int64(v), nil
}

func evalCharConstant(tok string) (int64, error) {
	s := strings.Trim(tok, "'")
	if s == "" {
		return 0, errors.Errorf("eval: empty char constant %q", tok)
	}
	if s[0] == '\\' && len(s) > 1 {
		switch s[1] {
		case 'n':
			return int64('\n'), nil
		case 't':
			return int64('\t'), nil
		case 'r':
			return int64('\r'), nil
		case '0':
			return 0, nil
		case '\\':
			return int64('\\'), nil
		case '\'':
			return int64('\''), nil
		default:
			return int64(s[1]), nil
		}
	}
	return int64(s[0]), nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
