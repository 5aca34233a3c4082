package cfg

import (
	"errors"
	"fmt"
)

var (
	ErrEdgeOneWay    = errors.New("edge not recorded on both ends")
	ErrEntryEntered  = errors.New("function entry has entries")
	ErrTerminalExits = errors.New("terminal node has exits")
	ErrForeignNode   = errors.New("node belongs to another flow")
)

func contains(ns []*Node, n *Node) bool {
	for _, cur := range ns {
		if cur == n {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants of a flow. A non-nil return value
// means there is a bug in CFG formation.
func (ff *FunctionFlow) Validate() error {
	if len(ff.Entry.Entries) > 0 {
		return ErrEntryEntered
	}
	for _, term := range []*Node{ff.Exit, ff.Revert} {
		if len(term.Exits) > 0 {
			return fmt.Errorf("%w: %d", ErrTerminalExits, term.ID)
		}
	}
	own := NodeSet{}
	for _, n := range ff.Nodes {
		own.add(n)
	}
	for _, n := range ff.Nodes {
		for _, exit := range n.Exits {
			if !own.seen(exit) {
				return fmt.Errorf("%w: %d -> %d", ErrForeignNode, n.ID, exit.ID)
			}
			if !contains(exit.Entries, n) {
				return fmt.Errorf("%w: %d -> %d", ErrEdgeOneWay, n.ID, exit.ID)
			}
		}
		for _, entry := range n.Entries {
			if !own.seen(entry) {
				return fmt.Errorf("%w: %d -> %d", ErrForeignNode, entry.ID, n.ID)
			}
			if !contains(entry.Exits, n) {
				return fmt.Errorf("%w: %d -> %d", ErrEdgeOneWay, entry.ID, n.ID)
			}
		}
	}
	return nil
}
