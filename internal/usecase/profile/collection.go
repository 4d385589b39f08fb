package profile

import "math/bits"

// bitset records which candidates matched.
type bitset []uint64

func newBitset(n int) bitset {
	return make(bitset, (n+63)/64)
}

func (b bitset) set(i int) {
	b[i/64] |= 1 << (uint(i) % 64)
}

func (b bitset) test(i int) bool {
	return b[i/64]&(1<<(uint(i)%64)) != 0
}

func (b bitset) count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// CollectionEvaluator applies an Evaluator to a collection of candidates.
type CollectionEvaluator struct {
	Evaluator Evaluator
	Strategy  Strategy
}

// Match is the outcome of evaluating a collection.
type Match struct {
	Passed     bool
	Candidates int
	Matched    []string
}

// Evaluate reports whether candidates satisfy the strategy.
func (ce CollectionEvaluator) Evaluate(candidates []string) bool {
	return ce.Match(candidates).Passed
}

// Match evaluates candidates and returns the verdict along with the matching
// candidates. AT_LEAST_ONE needs one match or more, EXACTLY_ONE exactly one and
// NONE zero. An empty collection therefore only satisfies NONE.
func (ce CollectionEvaluator) Match(candidates []string) Match {
	matched := newBitset(len(candidates))
	if ce.Evaluator != nil {
		for i, c := range candidates {
			if ce.Evaluator.Evaluate(c) {
				matched.set(i)
			}
		}
	}

	n := matched.count()
	out := Match{Candidates: len(candidates)}
	for i, c := range candidates {
		if matched.test(i) {
			out.Matched = append(out.Matched, c)
		}
	}

	switch ce.Strategy {
	case ExactlyOne:
		out.Passed = n == 1
	case None:
		out.Passed = n == 0
	default:
		out.Passed = n >= 1
	}
	return out
}
