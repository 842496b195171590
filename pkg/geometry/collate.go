package geometry

import (
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Comparator orders node ids the way a human reads them: locale-aware,
// case- and accent-insensitive, with digit runs compared numerically
// ("Node2" < "Node10").
//
// A Comparator is safe for concurrent use.
type Comparator struct {
	mu sync.Mutex
	c  *collate.Collator
}

// NewComparator returns a Comparator for the given locale tag.
func NewComparator(tag language.Tag) *Comparator {
	return &Comparator{c: collate.New(tag, collate.Numeric, collate.Loose)}
}

var defaultComparator = NewComparator(language.English)

// DefaultComparator returns the shared English comparator used by [Resolve].
func DefaultComparator() *Comparator { return defaultComparator }

// Compare returns -1, 0 or +1 as a sorts before, equal to, or after b under
// the collation. Distinct ids may compare equal.
func (c *Comparator) Compare(a, b string) int {
	c.mu.Lock()
	r := c.c.CompareString(a, b)
	c.mu.Unlock()
	switch {
	case r < 0:
		return -1
	case r > 0:
		return 1
	}
	return 0
}

// order is Compare with a byte-order tie-break, so two distinct ids never
// compare equal.
func (c *Comparator) order(a, b string) int {
	if r := c.Compare(a, b); r != 0 {
		return r
	}
	return strings.Compare(a, b)
}

// Pair is the canonical unordered pair of endpoint ids. Lo sorts before Hi.
type Pair struct {
	Lo, Hi string
}

// String returns the pair key in its display form, "Lo_Hi".
func (p Pair) String() string { return p.Lo + "_" + p.Hi }

// Pair returns the unordered pair key for an edge between a and b.
// Pair(a, b) == Pair(b, a) for all ids.
func (c *Comparator) Pair(a, b string) Pair {
	if c.order(a, b) > 0 {
		a, b = b, a
	}
	return Pair{Lo: a, Hi: b}
}

// Backwards reports whether an edge from source to target runs against the
// collation order, i.e. source sorts after target.
func (c *Comparator) Backwards(source, target string) bool {
	return c.Compare(source, target) > 0
}
