package canvas

import "fmt"

// EventKind names a host input event.
type EventKind string

const (
	EventPointerDown  EventKind = "pointerdown"
	EventPointerMove  EventKind = "pointermove"
	EventPointerUp    EventKind = "pointerup"
	EventWheel        EventKind = "wheel"
	EventFocusOut     EventKind = "focusout"
	EventPointerLeave EventKind = "pointerleave"
)

// TargetKind says what is under the pointer.
type TargetKind string

const (
	TargetCanvas TargetKind = ""       // empty canvas, or anything not listed below
	TargetNode   TargetKind = "node"   // node body
	TargetInput  TargetKind = "input"  // input port
	TargetOutput TargetKind = "output" // output port
)

// Target is the element an event was delivered to. Port is only meaningful
// for port targets.
type Target struct {
	Kind   TargetKind `json:"kind,omitempty"`
	NodeID int        `json:"node,omitempty"`
	Port   int        `json:"port,omitempty"`
}

func (t Target) String() string {
	switch t.Kind {
	case TargetNode:
		return fmt.Sprintf("node %d", t.NodeID)
	case TargetInput:
		return fmt.Sprintf("input %d.%d", t.NodeID, t.Port)
	case TargetOutput:
		return fmt.Sprintf("output %d.%d", t.NodeID, t.Port)
	}
	return "canvas"
}

// Event is one host input event in canvas coordinates.
type Event struct {
	Kind   EventKind `json:"kind"`
	Target Target    `json:"target"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	DeltaY float64   `json:"deltaY,omitempty"`
}
