// Package logging builds the process-wide structured logger from
// configuration.
package logging
