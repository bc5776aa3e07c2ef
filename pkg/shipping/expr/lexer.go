package expr

import (
	"fmt"
	"strconv"
)

// tokenKind identifies a lexical token.
type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenIdent
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenLParen
	tokenRParen
	tokenGreater
	tokenLess
	tokenGreaterEqual
	tokenLessEqual
	tokenEqual
	tokenNotEqual
	tokenEOF
)

// token is one lexical token with its position in the input.
type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// SyntaxError reports a lexing or parsing failure at a byte offset in
// the expression.
type SyntaxError struct {
	Pos     int
	Message string
}

// Error returns the error message.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Message)
}

// lex tokenizes the input. Any character outside the expression
// alphabet (digits, '.', identifiers, operators, parentheses,
// whitespace) is a syntax error.
func lex(input string) ([]token, error) {
	var tokens []token
	i := 0

	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t':
			i++

		case c >= '0' && c <= '9' || c == '.':
			start := i
			sawDot := false
			for i < len(input) && (input[i] >= '0' && input[i] <= '9' || input[i] == '.') {
				if input[i] == '.' {
					if sawDot {
						return nil, &SyntaxError{Pos: i, Message: "unexpected '.' in number"}
					}
					sawDot = true
				}
				i++
			}
			text := input[start:i]
			num, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, &SyntaxError{Pos: start, Message: fmt.Sprintf("invalid number %q", text)}
			}
			tokens = append(tokens, token{kind: tokenNumber, text: text, num: num, pos: start})

		case isIdentStart(c):
			start := i
			for i < len(input) && isIdentPart(input[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokenIdent, text: input[start:i], pos: start})

		case c == '+':
			tokens = append(tokens, token{kind: tokenPlus, text: "+", pos: i})
			i++
		case c == '-':
			tokens = append(tokens, token{kind: tokenMinus, text: "-", pos: i})
			i++
		case c == '*':
			tokens = append(tokens, token{kind: tokenStar, text: "*", pos: i})
			i++
		case c == '/':
			tokens = append(tokens, token{kind: tokenSlash, text: "/", pos: i})
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokenLParen, text: "(", pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokenRParen, text: ")", pos: i})
			i++

		case c == '>':
			if i+1 < len(input) && input[i+1] == '=' {
				tokens = append(tokens, token{kind: tokenGreaterEqual, text: ">=", pos: i})
				i += 2
			} else {
				tokens = append(tokens, token{kind: tokenGreater, text: ">", pos: i})
				i++
			}
		case c == '<':
			if i+1 < len(input) && input[i+1] == '=' {
				tokens = append(tokens, token{kind: tokenLessEqual, text: "<=", pos: i})
				i += 2
			} else {
				tokens = append(tokens, token{kind: tokenLess, text: "<", pos: i})
				i++
			}
		case c == '=':
			if i+1 < len(input) && input[i+1] == '=' {
				tokens = append(tokens, token{kind: tokenEqual, text: "==", pos: i})
				i += 2
			} else {
				return nil, &SyntaxError{Pos: i, Message: "unexpected '=' (did you mean '==')"}
			}
		case c == '!':
			if i+1 < len(input) && input[i+1] == '=' {
				tokens = append(tokens, token{kind: tokenNotEqual, text: "!=", pos: i})
				i += 2
			} else {
				return nil, &SyntaxError{Pos: i, Message: "unexpected '!' (did you mean '!=')"}
			}

		default:
			return nil, &SyntaxError{Pos: i, Message: fmt.Sprintf("unexpected character %q", c)}
		}
	}

	tokens = append(tokens, token{kind: tokenEOF, pos: len(input)})
	return tokens, nil
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

func isComparison(k tokenKind) bool {
	switch k {
	case tokenGreater, tokenLess, tokenGreaterEqual, tokenLessEqual, tokenEqual, tokenNotEqual:
		return true
	default:
		return false
	}
}
