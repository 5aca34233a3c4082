// Package span describes source ranges.
package span

import "fmt"

// Span defines a range formed by two pairs of (lineno, col). The first pair
// is the position of the first rune, the second pair is the position just
// past the last rune.
type Span struct {
	Lineno0, Col0, Lineno, Col int
}

func (span Span) String() string {
	return fmt.Sprintf(
		"(%d, %d) -> (%d, %d)",
		span.Lineno0, span.Col0,
		span.Lineno, span.Col)
}

func before(l0, c0, l1, c1 int) bool {
	return l0 < l1 || (l0 == l1 && c0 < c1)
}

// Before tells whether span starts before other.
func (span Span) Before(other Span) bool {
	return before(span.Lineno0, span.Col0, other.Lineno0, other.Col0)
}

// Contains tells whether other lies completely within span.
func (span Span) Contains(other Span) bool {
	return !before(other.Lineno0, other.Col0, span.Lineno0, span.Col0) &&
		!before(span.Lineno, span.Col, other.Lineno, other.Col)
}

// To returns a span from the start of span to the end of other.
func (span Span) To(other Span) Span {
	return Span{
		Lineno0: span.Lineno0,
		Col0:    span.Col0,
		Lineno:  other.Lineno,
		Col:     other.Col,
	}
}
