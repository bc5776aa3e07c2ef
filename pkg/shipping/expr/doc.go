// Package expr implements the guard language used by conditional cost
// rules: a tiny arithmetic/comparison expression form such as
// "order_subtotal >= 49".
//
// Expressions are tokenized and parsed with a recursive-descent parser
// into a small AST that is evaluated directly against a map of numeric
// variables. No dynamic code execution is involved at any point, so the
// package can safely evaluate externally authored rule text.
//
// Grammar:
//
//	comparison := term (cmp_op term)?
//	term       := factor (('+' | '-') factor)*
//	factor     := unary (('*' | '/') unary)*
//	unary      := '-'? primary
//	primary    := NUMBER | IDENT | '(' comparison ')'
//
// where cmp_op is one of > < >= <= == != and IDENT must name a supplied
// variable.
//
// The exported entry point Evaluate is a total function: malformed
// input, unknown identifiers, division by zero, and non-boolean results
// (a bare arithmetic expression with no comparison) all evaluate to
// false rather than returning an error or panicking.
package expr
