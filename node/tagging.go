package node

import (
	"sync/atomic"

	"github.com/susji/sol0/span"
	"github.com/susji/sol0/token"
)

const NODEID_INVALID = 0

type NodeId uint64

var globalid uint64 = NODEID_INVALID

// At does all the relevant book-keeping for a new Node: it receives the next
// identifier and its source position. Identifiers grow monotonically in
// construction order, which for parsed trees is source order.
func At(sp span.Span, n Node) Node {
	if n == nil {
		panic("nil node")
	}
	c := n.common()
	if c.id != NODEID_INVALID {
		panic("node stored twice")
	}
	c.id = NodeId(atomic.AddUint64(&globalid, 1))
	c.span = sp
	return n
}

// Store is At with the position of tok.
func Store(tok *token.Token, n Node) Node {
	if tok == nil {
		panic("nil token")
	}
	return At(tok.Span(), n)
}

// Finish extends the span of n up to and including tok.
func Finish(n Node, tok *token.Token) {
	if tok == nil {
		return
	}
	c := n.common()
	c.span = c.span.To(tok.Span())
}
