// Package transition enumerates the state-transition graph of periodic rows.
//
// A pattern of width n is repeated without end in both directions and
// stepped once; the first n cells of the result are again a width-n
// pattern. Every pattern therefore has exactly one successor, and
// patterns no other pattern steps into are Gardens of Eden.
//
// Patterns are numbered by reading their cells as a binary number with
// cell 0 as the most significant bit, so pattern 1 of width 3 is "001".
package transition
