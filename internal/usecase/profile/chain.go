package profile

import (
	"fmt"
	"strings"
)

type link struct {
	op LogicalOp
	e  Evaluator
}

// Chain combines evaluators with logical operators. It is evaluated as a left
// fold without precedence: ((first op1 e1) op2 e2) ...
type Chain struct {
	first Evaluator
	links []link
}

// NewChain starts a chain with first.
func NewChain(first Evaluator) *Chain {
	return &Chain{first: first}
}

// And appends e with AND.
func (c *Chain) And(e Evaluator) *Chain { return c.Append(And, e) }

// Or appends e with OR.
func (c *Chain) Or(e Evaluator) *Chain { return c.Append(Or, e) }

// Not appends e with AND-NOT.
func (c *Chain) Not(e Evaluator) *Chain { return c.Append(Not, e) }

// Append adds e joined by op. A nil e never matches.
func (c *Chain) Append(op LogicalOp, e Evaluator) *Chain {
	c.links = append(c.links, link{op: op, e: e})
	return c
}

// Len returns the number of evaluators in the chain.
func (c *Chain) Len() int {
	if c == nil || (c.first == nil && len(c.links) == 0) {
		return 0
	}
	return 1 + len(c.links)
}

// Evaluate folds the chain over candidate.
func (c *Chain) Evaluate(candidate string) bool {
	if c == nil {
		return false
	}

	res := evaluate(c.first, candidate)
	for _, l := range c.links {
		switch l.op {
		case And:
			if res {
				res = evaluate(l.e, candidate)
			}
		case Or:
			if !res {
				res = evaluate(l.e, candidate)
			}
		case Not:
			if res {
				res = !evaluate(l.e, candidate)
			}
		}
	}
	return res
}

func evaluate(e Evaluator, candidate string) bool {
	return e != nil && e.Evaluate(candidate)
}

func (c *Chain) String() string {
	if c.Len() == 0 {
		return "<empty>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "(%v", c.first)
	for _, l := range c.links {
		fmt.Fprintf(&b, " %s %v", l.op, l.e)
	}
	b.WriteString(")")
	return b.String()
}
