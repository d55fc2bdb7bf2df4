package workflow

import (
	"fmt"
	"sync"
)

// NodeKind classifies a node in the structural graph.
type NodeKind string

const (
	KindStart             NodeKind = "start"
	KindStep              NodeKind = "step"
	KindParallelGroup     NodeKind = "parallel-group"
	KindParallelBranch    NodeKind = "parallel-branch"
	KindParallelJoin      NodeKind = "parallel-join"
	KindFallbackGroup     NodeKind = "fallback-group"
	KindFallbackPrimary   NodeKind = "fallback-primary"
	KindFallbackSecondary NodeKind = "fallback-secondary"
	KindFallbackJoin      NodeKind = "fallback-join"
)

// GraphNode is one node of the pipeline's structural description.
type GraphNode struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Kind NodeKind `json:"kind"`
}

// GraphEdge is a directed, optionally labeled connection between two nodes.
type GraphEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// GraphSnapshot is a copy of the graph's node and edge tables, safe to hold
// across further chaining calls.
type GraphSnapshot struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// graph is the append-only structural table shared by every Workflow value
// in a chain. Node IDs are assigned once and never reused or removed; there
// is no node removal or edge rewriting. Chaining calls populate it, execution
// never does.
type graph struct {
	mu    sync.Mutex
	seq   int
	nodes []GraphNode
	edges []GraphEdge
}

func newGraph() *graph {
	return &graph{}
}

func (g *graph) addNode(name string, kind NodeKind) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := fmt.Sprintf("n%d", g.seq)
	g.seq++
	g.nodes = append(g.nodes, GraphNode{ID: id, Name: name, Kind: kind})
	return id
}

func (g *graph) addEdge(from, to, label string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges = append(g.edges, GraphEdge{From: from, To: to, Label: label})
}

func (g *graph) snapshot() GraphSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	snap := GraphSnapshot{
		Nodes: make([]GraphNode, len(g.nodes)),
		Edges: make([]GraphEdge, len(g.edges)),
	}
	copy(snap.Nodes, g.nodes)
	copy(snap.Edges, g.edges)
	return snap
}
