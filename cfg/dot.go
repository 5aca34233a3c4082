package cfg

import (
	"fmt"
	"io"
	"strings"
)

func (ff *FunctionFlow) label(n *Node) string {
	b := &strings.Builder{}
	switch n {
	case ff.Entry:
		b.WriteString("entry\n")
	case ff.Exit:
		b.WriteString("exit\n")
	case ff.Revert:
		b.WriteString("revert\n")
	}
	fmt.Fprintf(b, "#%d", n.ID)
	for _, occ := range n.Block.Occurrences {
		fmt.Fprintf(b, "\n%s %s", occ.Kind, occ.Declaration.Name)
	}
	return b.String()
}

// Dot writes the flow in Graphviz format.
func (ff *FunctionFlow) Dot(w io.Writer) error {
	b := &strings.Builder{}
	fmt.Fprintf(b, "digraph %q {\n", ff.Function.Name)
	b.WriteString("\tnode [shape=box];\n")
	for _, n := range ff.Nodes {
		fmt.Fprintf(b, "\tn%d [label=%q];\n", n.ID, ff.label(n))
	}
	for _, n := range ff.Nodes {
		for _, exit := range n.Exits {
			fmt.Fprintf(b, "\tn%d -> n%d;\n", n.ID, exit.ID)
		}
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}
