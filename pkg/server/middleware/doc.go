// Package middleware contains the HTTP middleware chain: request IDs,
// request logging and panic recovery.
package middleware
