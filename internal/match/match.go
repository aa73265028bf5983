// Package match provides the "try these strategies in order" combinator
// shared by readiness detection, link harvesting and field extraction.
package match

// Matcher inspects an input and optionally produces a result
type Matcher[In, Out any] func(In) (Out, bool)

// First runs the matchers in order and returns the first result produced
func First[In, Out any](in In, matchers ...Matcher[In, Out]) (Out, bool) {
	for _, m := range matchers {
		if out, ok := m(in); ok {
			return out, true
		}
	}
	var zero Out
	return zero, false
}
