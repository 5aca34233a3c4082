package cfg

// These are used to memoize graph traversal to break loops.

type NodeSet map[int]struct{}

func (ns NodeSet) add(n *Node) {
	if ns.seen(n) {
		return
	}
	ns[n.ID] = struct{}{}
}

func (ns NodeSet) seen(n *Node) bool {
	_, ok := ns[n.ID]
	return ok
}

func (ns NodeSet) Contains(n *Node) bool {
	return ns.seen(n)
}
