package span_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/susji/sol0/span"
)

func TestContains(t *testing.T) {
	outer := span.Span{Lineno0: 2, Col0: 5, Lineno: 6, Col: 2}
	assert.True(t, outer.Contains(span.Span{Lineno0: 3, Col0: 1, Lineno: 3, Col: 9}))
	assert.True(t, outer.Contains(outer))
	assert.False(t, outer.Contains(span.Span{Lineno0: 2, Col0: 4, Lineno: 3, Col: 1}))
	assert.False(t, outer.Contains(span.Span{Lineno0: 5, Col0: 1, Lineno: 6, Col: 3}))
}

func TestBeforeAndTo(t *testing.T) {
	a := span.Span{Lineno0: 1, Col0: 1, Lineno: 1, Col: 4}
	b := span.Span{Lineno0: 1, Col0: 6, Lineno: 2, Col: 3}
	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.Equal(t, span.Span{Lineno0: 1, Col0: 1, Lineno: 2, Col: 3}, a.To(b))
	assert.Equal(t, "(1, 1) -> (1, 4)", a.String())
}
