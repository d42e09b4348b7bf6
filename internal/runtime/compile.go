package runtime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	errEmpty      = errors.New("empty expression")
	errUnbalanced = errors.New("unbalanced parentheses")
	errEmptyGroup = errors.New("empty sub-expression")
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokOperator
	tokLParen
	tokRParen
)

type token struct {
	kind  tokenKind
	text  string
	value float64
	pos   int
}

// lex splits an expression into numbers, operators and parentheses.
// Numbers are maximal runs of digits and '.', optionally followed by an
// exponent ("1.5e-10") as produced by the result formatter.
func lex(src string) ([]token, error) {
	var toks []token
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case isDigit(c) || c == '.':
			start := i
			for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
				i++
			}
			i = scanExponent(src, i)
			text := src[start:i]
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("malformed number %q at %d", text, start)
			}
			toks = append(toks, token{kind: tokNumber, text: text, value: v, pos: start})
		case strings.IndexByte("+-*/^", c) >= 0:
			toks = append(toks, token{kind: tokOperator, text: string(c), pos: i})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q at %d", c, i)
		}
	}
	return toks, nil
}

// scanExponent consumes "e[+-]digits" at i if present.
func scanExponent(src string, i int) int {
	if i >= len(src) || (src[i] != 'e' && src[i] != 'E') {
		return i
	}
	j := i + 1
	if j < len(src) && (src[j] == '+' || src[j] == '-') {
		j++
	}
	if j >= len(src) || !isDigit(src[j]) {
		return i
	}
	for j < len(src) && isDigit(src[j]) {
		j++
	}
	return j
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// compiled is a grammar-checked expression ready for the arithmetic backend.
// Every operation is explicitly parenthesized and numeric literals are bound
// as parameters, so the backend's own precedence rules never apply.
type compiled struct {
	expr   string
	params map[string]any
}

// parser is a recursive-descent checker for the calculator grammar:
//
//	expr    := term (('+' | '-') term)*
//	term    := unary (('*' | '/') unary)*
//	unary   := ('+' | '-') unary | power
//	power   := primary ('^' unary)?
//	primary := number | '(' expr ')'
//
// '^' binds tighter than unary minus (-2^2 = -4) and is right-associative.
type parser struct {
	toks   []token
	pos    int
	params map[string]any
}

func compile(src string) (*compiled, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, errEmpty
	}

	p := &parser{toks: toks, params: make(map[string]any)}
	out, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t, ok := p.peek(); ok {
		if t.kind == tokRParen {
			return nil, fmt.Errorf("%w: unexpected ')' at %d", errUnbalanced, t.pos)
		}
		return nil, fmt.Errorf("unexpected %q at %d", t.text, t.pos)
	}
	return &compiled{expr: out, params: p.params}, nil
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) peekOperator(ops string) (string, bool) {
	t, ok := p.peek()
	if !ok || t.kind != tokOperator || !strings.Contains(ops, t.text) {
		return "", false
	}
	return t.text, true
}

func (p *parser) parseExpr() (string, error) {
	left, err := p.parseTerm()
	if err != nil {
		return "", err
	}
	for {
		op, ok := p.peekOperator("+-")
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return "", err
		}
		left = "(" + left + " " + op + " " + right + ")"
	}
}

func (p *parser) parseTerm() (string, error) {
	left, err := p.parseUnary()
	if err != nil {
		return "", err
	}
	for {
		op, ok := p.peekOperator("*/")
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return "", err
		}
		left = "(" + left + " " + op + " " + right + ")"
	}
}

func (p *parser) parseUnary() (string, error) {
	if op, ok := p.peekOperator("+-"); ok {
		p.pos++
		operand, err := p.parseUnary()
		if err != nil {
			return "", err
		}
		if op == "-" {
			return "(-" + operand + ")", nil
		}
		return operand, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (string, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return "", err
	}
	if _, ok := p.peekOperator("^"); !ok {
		return base, nil
	}
	p.pos++
	exponent, err := p.parseUnary()
	if err != nil {
		return "", err
	}
	return "(" + base + " ** " + exponent + ")", nil
}

func (p *parser) parsePrimary() (string, error) {
	t, ok := p.peek()
	if !ok {
		return "", errors.New("unexpected end of expression")
	}
	switch t.kind {
	case tokNumber:
		p.pos++
		name := fmt.Sprintf("n%d", len(p.params))
		p.params[name] = t.value
		return name, nil
	case tokLParen:
		p.pos++
		if next, ok := p.peek(); ok && next.kind == tokRParen {
			return "", fmt.Errorf("%w at %d", errEmptyGroup, t.pos)
		}
		inner, err := p.parseExpr()
		if err != nil {
			return "", err
		}
		closing, ok := p.peek()
		if !ok || closing.kind != tokRParen {
			return "", fmt.Errorf("%w: '(' at %d is never closed", errUnbalanced, t.pos)
		}
		p.pos++
		return "(" + inner + ")", nil
	default:
		return "", fmt.Errorf("unexpected %q at %d", t.text, t.pos)
	}
}
