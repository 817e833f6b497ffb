package checker

import (
	"encoding/json"
	"errors"
	"fmt"
)

// edge is a recorded transition between two nodes.
type edge struct {
	from, to nodeID
	action   string
}

func (c *Checker) addEdge(from, to nodeID, a fmt.Stringer) {
	c.edgesMu.Lock()
	c.edges = append(c.edges, edge{from: from, to: to, action: a.String()})
	c.edgesMu.Unlock()
}

// GraphNode is one explored state in a Graph.
type GraphNode struct {
	ID     int             `json:"id"`
	Hash   string          `json:"hash"`
	Depth  int             `json:"depth"`
	Parent int             `json:"parent"` // -1 for initial states
	Action string          `json:"action,omitempty"`
	State  json.RawMessage `json:"state"`
}

// GraphEdge is one transition in a Graph.
type GraphEdge struct {
	From   int    `json:"from"`
	To     int    `json:"to"`
	Action string `json:"action"`
}

// Graph is a read-only, serialisable snapshot of an explored state space.
// Without WithEdges only the first edge into each state (its parent link)
// is present.
type Graph struct {
	Initial []int       `json:"initial"`
	Nodes   []GraphNode `json:"nodes"`
	Edges   []GraphEdge `json:"edges,omitempty"`
}

// Graph snapshots the explored state space. It must be called after Run
// has returned.
func (c *Checker) Graph() (*Graph, error) {
	if c.visited == nil {
		return nil, errors.New("checker: Graph called before Run")
	}

	g := &Graph{Initial: make([]int, 0, len(c.initial))}
	for _, id := range c.initial {
		g.Initial = append(g.Initial, int(id))
	}

	n := c.visited.len()
	g.Nodes = make([]GraphNode, 0, n)
	for i := 0; i < n; i++ {
		nd := c.visited.node(nodeID(i))
		state, err := c.model.Encode(nd.state)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		gn := GraphNode{
			ID:     i,
			Hash:   nd.state.Hash(),
			Depth:  nd.depth,
			Parent: int(nd.parent),
			State:  state,
		}
		if nd.parent != noParent {
			gn.Action = nd.action.String()
		}
		g.Nodes = append(g.Nodes, gn)
	}

	c.edgesMu.Lock()
	defer c.edgesMu.Unlock()
	for _, e := range c.edges {
		g.Edges = append(g.Edges, GraphEdge{From: int(e.from), To: int(e.to), Action: e.action})
	}
	return g, nil
}
