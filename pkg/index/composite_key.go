package index

// Pair is a two-component composite key. It generalizes the teacher's
// CompositeKey (pkg/index/composite_key.go), which compared a dynamically
// sized []interface{} field-by-field, into a generic fixed-arity tuple
// whose Cmp compares both fields and whose DegCmp compares only the first
// -- the degraded comparator that makes every key sharing First contiguous
// under Cmp, so a single equal-prefix range scan finds them all (see
// GLOSSARY: degraded comparator).
type Pair[A, B any] struct {
	First  A
	Second B
}

// ComparePair builds a total-order Cmp for Pair[A, B] from per-field
// comparators, ordering lexicographically by First then Second.
func ComparePair[A, B any](cmpA func(A, A) int, cmpB func(B, B) int) func(Pair[A, B], Pair[A, B]) int {
	return func(x, y Pair[A, B]) int {
		if c := cmpA(x.First, y.First); c != 0 {
			return c
		}
		return cmpB(x.Second, y.Second)
	}
}

// PrefixCmpPair builds a DegCmp for Pair[A, B] that compares only First,
// satisfying the invariant that DegCmp(x,y)==0 iff x and y share the same
// equal-prefix class under Cmp.
func PrefixCmpPair[A, B any](cmpA func(A, A) int) func(Pair[A, B], Pair[A, B]) int {
	return func(x, y Pair[A, B]) int {
		return cmpA(x.First, y.First)
	}
}
