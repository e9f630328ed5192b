package slice

import "fmt"

// Rule is an elementary cellular automaton rule number (Wolfram code).
type Rule uint8

// NewRule validates n and returns it as a Rule.
func NewRule(n int) (Rule, error) {
	if n < 0 || n > 255 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidRule, n)
	}
	return Rule(n), nil
}

// Apply returns the next state of the center cell for neighborhood (l, c, r).
func (r Rule) Apply(l, c, rt bool) bool {
	var v uint
	if l {
		v |= 4
	}
	if c {
		v |= 2
	}
	if rt {
		v |= 1
	}
	return r&(1<<v) != 0
}

// Number returns the rule as an int.
func (r Rule) Number() int {
	return int(r)
}

// String returns the conventional "rule N" form.
func (r Rule) String() string {
	return fmt.Sprintf("rule %d", int(r))
}
