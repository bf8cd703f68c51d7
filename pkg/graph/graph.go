// Package graph provides the node-graph model: nodes with ordered ports,
// a keyed node registry and the set of port-to-port connections.
package graph

import "fmt"

// Port is an attachment point on a node. Index is its position within the
// node's input or output list.
type Port struct {
	Index int    `json:"index"`
	Title string `json:"title"`
}

// Node is a box on the canvas. X and Y are canvas coordinates of its top-left
// corner, independent of any viewport zoom.
type Node struct {
	ID      int     `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Label   string  `json:"label"`
	Inputs  []Port  `json:"inputs"`
	Outputs []Port  `json:"outputs"`
}

// NodeSpec describes a node to be inserted into a Registry. The registry
// assigns the id.
type NodeSpec struct {
	X, Y    float64
	Width   float64
	Label   string
	Inputs  []string // port titles, in order
	Outputs []string
}

// Endpoint identifies one port of one node.
type Endpoint struct {
	NodeID int `json:"node"`
	Port   int `json:"port"`
}

func (e Endpoint) String() string {
	return fmt.Sprintf("(%d,%d)", e.NodeID, e.Port)
}

// Connection is a directed edge from an output port to an input port.
type Connection struct {
	From Endpoint `json:"from"`
	To   Endpoint `json:"to"`
}

func (c Connection) String() string {
	return c.From.String() + "->" + c.To.String()
}

// DefaultWidth is the width given to nodes created without an explicit one.
const DefaultWidth = 150.0

func ports(titles []string) []Port {
	ps := make([]Port, len(titles))
	for i, t := range titles {
		ps[i] = Port{Index: i, Title: t}
	}
	return ps
}

// clone returns a copy of n that shares no slices with it.
func (n Node) clone() Node {
	c := n
	c.Inputs = append([]Port(nil), n.Inputs...)
	c.Outputs = append([]Port(nil), n.Outputs...)
	return c
}

// DefaultSeed returns the three nodes a fresh canvas starts with.
func DefaultSeed() []NodeSpec {
	return []NodeSpec{
		{X: 100, Y: 100, Width: DefaultWidth, Label: "Input", Inputs: []string{"in1"}, Outputs: []string{"out1"}},
		{X: 400, Y: 150, Width: DefaultWidth, Label: "Process", Inputs: []string{"in1"}, Outputs: []string{"out1"}},
		{X: 700, Y: 100, Width: DefaultWidth, Label: "Output", Inputs: []string{"in1"}, Outputs: []string{"out1"}},
	}
}

// PlacementFor returns the NodeSpec for a node created through the "add node"
// trigger. The position depends only on the id, so a given id sequence always
// produces the same layout.
func PlacementFor(id int) NodeSpec {
	return NodeSpec{
		X:       200 + float64(id)*50,
		Y:       200 + float64(id)*30,
		Width:   DefaultWidth,
		Label:   fmt.Sprintf("Node %d", id),
		Inputs:  []string{"in1"},
		Outputs: []string{"out1"},
	}
}
