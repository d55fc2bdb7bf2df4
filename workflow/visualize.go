package workflow

import (
	"fmt"
	"strings"
)

// GraphFormat selects a textual rendering of the structural graph.
type GraphFormat string

const (
	// FormatDOT renders a Graphviz digraph.
	FormatDOT GraphFormat = "dot"
	// FormatMermaid renders a Mermaid flowchart.
	FormatMermaid GraphFormat = "mermaid"
)

// VisualizeGraph renders the pipeline structure in the requested format,
// derived purely from the graph snapshot. It never executes the pipeline and
// can be called before or after Run.
func (w *Workflow) VisualizeGraph(format GraphFormat) (string, error) {
	snap := w.GraphSnapshot()
	switch format {
	case FormatDOT:
		return renderDOT(snap), nil
	case FormatMermaid:
		return renderMermaid(snap), nil
	default:
		return "", fmt.Errorf("unknown graph format: %q", format)
	}
}

func renderDOT(snap GraphSnapshot) string {
	var b strings.Builder
	b.WriteString("digraph workflow {\n")
	b.WriteString("  rankdir=LR;\n")
	for _, n := range snap.Nodes {
		b.WriteString(fmt.Sprintf("  %s [label=%q shape=%s];\n", n.ID, n.Name, dotShape(n.Kind)))
	}
	for _, e := range snap.Edges {
		if e.Label != "" {
			b.WriteString(fmt.Sprintf("  %s -> %s [label=%q];\n", e.From, e.To, e.Label))
		} else {
			b.WriteString(fmt.Sprintf("  %s -> %s;\n", e.From, e.To))
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func dotShape(kind NodeKind) string {
	switch kind {
	case KindStart:
		return "circle"
	case KindParallelGroup, KindFallbackGroup:
		return "diamond"
	case KindParallelJoin, KindFallbackJoin:
		return "point"
	default:
		return "box"
	}
}

func renderMermaid(snap GraphSnapshot) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")
	for _, n := range snap.Nodes {
		b.WriteString("  " + mermaidNode(n) + "\n")
	}
	for _, e := range snap.Edges {
		if e.Label != "" {
			b.WriteString(fmt.Sprintf("  %s -->|%s| %s\n", e.From, e.Label, e.To))
		} else {
			b.WriteString(fmt.Sprintf("  %s --> %s\n", e.From, e.To))
		}
	}
	return b.String()
}

func mermaidNode(n GraphNode) string {
	label := strings.ReplaceAll(n.Name, `"`, `'`)
	switch n.Kind {
	case KindStart:
		return fmt.Sprintf(`%s(["%s"])`, n.ID, label)
	case KindParallelGroup, KindFallbackGroup:
		return fmt.Sprintf(`%s{"%s"}`, n.ID, label)
	case KindParallelJoin, KindFallbackJoin:
		return fmt.Sprintf(`%s(("%s"))`, n.ID, label)
	default:
		return fmt.Sprintf(`%s["%s"]`, n.ID, label)
	}
}
