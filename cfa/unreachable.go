package cfa

import (
	"golang.org/x/exp/slices"

	"github.com/susji/sol0/cfg"
	"github.com/susji/sol0/node"
	"github.com/susji/sol0/report"
)

// Unreachable lists the outermost statements of ff which can never execute,
// in source order.
func Unreachable(c *cfg.CFG, ff *cfg.FunctionFlow) []node.Node {
	reach := c.Reachable(ff)
	dead := []node.Node{}
	for _, n := range ff.Nodes {
		if reach.Contains(n) {
			continue
		}
		dead = append(dead, n.Block.Statements...)
	}
	inner := map[node.NodeId]struct{}{}
	for _, stmt := range dead {
		node.Walk(stmt, func(sub node.Node, depth int) bool {
			if depth > 0 {
				inner[sub.Id()] = struct{}{}
			}
			return true
		})
	}
	ret := []node.Node{}
	for _, stmt := range dead {
		if _, ok := inner[stmt.Id()]; !ok {
			ret = append(ret, stmt)
		}
	}
	slices.SortFunc(ret, func(a, b node.Node) bool {
		return a.Id() < b.Id()
	})
	return ret
}

func (a *Analyzer) checkUnreachable(ff *cfg.FunctionFlow) []error {
	errs := []error{}
	for _, stmt := range Unreachable(a.cfg, ff) {
		errs = append(errs, report.Errorf(report.Warning, a.loc(stmt), "%w", ErrUnreachable))
	}
	return errs
}
