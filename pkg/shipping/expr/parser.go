package expr

import "fmt"

// node is an arithmetic AST node evaluating to a float64.
type node interface {
	eval(vars map[string]float64) (float64, error)
}

// numberNode is a numeric literal.
type numberNode struct {
	value float64
}

func (n numberNode) eval(map[string]float64) (float64, error) {
	return n.value, nil
}

// identNode is a variable reference resolved at evaluation time.
type identNode struct {
	name string
}

func (n identNode) eval(vars map[string]float64) (float64, error) {
	v, ok := vars[n.name]
	if !ok {
		return 0, &UnknownVariableError{Name: n.name}
	}
	return v, nil
}

// negNode is unary minus.
type negNode struct {
	child node
}

func (n negNode) eval(vars map[string]float64) (float64, error) {
	v, err := n.child.eval(vars)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

// binaryNode is one of + - * /.
type binaryNode struct {
	op    tokenKind
	left  node
	right node
}

func (n binaryNode) eval(vars map[string]float64) (float64, error) {
	l, err := n.left.eval(vars)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(vars)
	if err != nil {
		return 0, err
	}

	switch n.op {
	case tokenPlus:
		return l + r, nil
	case tokenMinus:
		return l - r, nil
	case tokenStar:
		return l * r, nil
	case tokenSlash:
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return l / r, nil
	default:
		return 0, &SyntaxError{Message: fmt.Sprintf("unknown binary operator %d", n.op)}
	}
}

// Expr is a parsed comparison expression. When op is set, the
// expression compares left against right; otherwise it is a bare
// arithmetic term and has no boolean value.
type Expr struct {
	left  node
	op    tokenKind
	right node
}

// Parse tokenizes and parses the input into an Expr.
func Parse(input string) (*Expr, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	e, err := p.comparison()
	if err != nil {
		return nil, err
	}

	if p.peek().kind != tokenEOF {
		return nil, &SyntaxError{Pos: p.peek().pos, Message: fmt.Sprintf("unexpected %q after expression", p.peek().text)}
	}

	return e, nil
}

// EvalBool evaluates the expression against vars. A bare arithmetic
// expression with no comparison operator is an error, since guards must
// be boolean.
func (e *Expr) EvalBool(vars map[string]float64) (bool, error) {
	if e.right == nil {
		return false, ErrNotBoolean
	}

	l, err := e.left.eval(vars)
	if err != nil {
		return false, err
	}
	r, err := e.right.eval(vars)
	if err != nil {
		return false, err
	}

	switch e.op {
	case tokenGreater:
		return l > r, nil
	case tokenLess:
		return l < r, nil
	case tokenGreaterEqual:
		return l >= r, nil
	case tokenLessEqual:
		return l <= r, nil
	case tokenEqual:
		return l == r, nil
	case tokenNotEqual:
		return l != r, nil
	default:
		return false, ErrNotBoolean
	}
}

// parser is a recursive-descent parser over the token stream.
type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokenEOF {
		p.pos++
	}
	return t
}

// comparison := term (cmp_op term)?
func (p *parser) comparison() (*Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}

	e := &Expr{left: left}
	if isComparison(p.peek().kind) {
		e.op = p.next().kind
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		e.right = right

		// A second comparison operator ("50 > > 30", "1 < 2 < 3") is
		// rejected rather than chained.
		if isComparison(p.peek().kind) {
			return nil, &SyntaxError{Pos: p.peek().pos, Message: fmt.Sprintf("unexpected %q after comparison", p.peek().text)}
		}
	}

	return e, nil
}

// term := factor (('+' | '-') factor)*
func (p *parser) term() (node, error) {
	left, err := p.factor()
	if err != nil {
		return nil, err
	}

	for p.peek().kind == tokenPlus || p.peek().kind == tokenMinus {
		op := p.next().kind
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}

	return left, nil
}

// factor := unary (('*' | '/') unary)*
func (p *parser) factor() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}

	for p.peek().kind == tokenStar || p.peek().kind == tokenSlash {
		op := p.next().kind
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}

	return left, nil
}

// unary := '-'? primary
func (p *parser) unary() (node, error) {
	if p.peek().kind == tokenMinus {
		p.next()
		child, err := p.primary()
		if err != nil {
			return nil, err
		}
		return negNode{child: child}, nil
	}
	return p.primary()
}

// primary := NUMBER | IDENT | '(' comparison ')'
func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokenNumber:
		return numberNode{value: t.num}, nil

	case tokenIdent:
		return identNode{name: t.text}, nil

	case tokenLParen:
		inner, err := p.comparison()
		if err != nil {
			return nil, err
		}
		if inner.right != nil {
			// Parenthesized comparisons have no numeric value and
			// cannot nest inside arithmetic.
			return nil, &SyntaxError{Pos: t.pos, Message: "comparison cannot be used as a value"}
		}
		if p.peek().kind != tokenRParen {
			return nil, &SyntaxError{Pos: p.peek().pos, Message: "expected ')'"}
		}
		p.next()
		return inner.left, nil

	default:
		return nil, &SyntaxError{Pos: t.pos, Message: fmt.Sprintf("unexpected %q", t.text)}
	}
}
