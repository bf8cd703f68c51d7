package canvas

import "github.com/ha1tch/nodegraph/pkg/graph"

// Connector is a finalized connection with its current curve.
type Connector struct {
	Connection graph.Connection `json:"connection"`
	Curve      Curve            `json:"curve"`
}

// PathCache keeps one curve per connection and recomputes it only after one
// of its endpoint nodes changed. It learns about changes by subscribing to
// the endpoint ids in the registry.
type PathCache struct {
	nodes  *graph.Registry
	conns  *graph.ConnectionSet
	layout Layout

	curves map[graph.Connection]Curve
	dirty  map[graph.Connection]bool
	byNode map[int]map[graph.Connection]struct{}
	watch  map[int]func()

	recomputed int
}

// NewPathCache creates a cache over the given registry and connection set.
func NewPathCache(nodes *graph.Registry, conns *graph.ConnectionSet, layout Layout) *PathCache {
	return &PathCache{
		nodes:  nodes,
		conns:  conns,
		layout: layout,
		curves: make(map[graph.Connection]Curve),
		dirty:  make(map[graph.Connection]bool),
		byNode: make(map[int]map[graph.Connection]struct{}),
		watch:  make(map[int]func()),
	}
}

// Connectors returns the curves of all connections in connection order.
// Connections whose endpoint node no longer exists are skipped.
func (pc *PathCache) Connectors() []Connector {
	list := pc.conns.List()
	live := make(map[graph.Connection]struct{}, len(list))
	out := make([]Connector, 0, len(list))

	for _, c := range list {
		live[c] = struct{}{}
		curve, ok := pc.curves[c]
		if !ok || pc.dirty[c] {
			from, okFrom := pc.nodes.Get(c.From.NodeID)
			to, okTo := pc.nodes.Get(c.To.NodeID)
			if !okFrom || !okTo {
				continue
			}
			curve = CurveFrom(pc.layout.OutputPort(from, c.From.Port), pc.layout.InputPort(to, c.To.Port))
			pc.curves[c] = curve
			delete(pc.dirty, c)
			pc.recomputed++
			pc.track(c)
		}
		out = append(out, Connector{Connection: c, Curve: curve})
	}

	pc.prune(live)
	return out
}

// Pending returns the curve from an output port to a free end point.
// It is not cached; the end point moves with every pointer event.
func (pc *PathCache) Pending(from graph.Endpoint, end Point) (Curve, bool) {
	n, ok := pc.nodes.Get(from.NodeID)
	if !ok {
		return Curve{}, false
	}
	return CurveFrom(pc.layout.OutputPort(n, from.Port), end), true
}

// Recomputed returns how many curves have been computed so far.
func (pc *PathCache) Recomputed() int { return pc.recomputed }

func (pc *PathCache) track(c graph.Connection) {
	for _, id := range []int{c.From.NodeID, c.To.NodeID} {
		set, ok := pc.byNode[id]
		if !ok {
			set = make(map[graph.Connection]struct{})
			pc.byNode[id] = set
		}
		set[c] = struct{}{}
		if _, watching := pc.watch[id]; !watching {
			id := id
			pc.watch[id] = pc.nodes.Subscribe(id, func(ch graph.Change) { pc.invalidate(id, ch.Removed) })
		}
	}
}

func (pc *PathCache) invalidate(id int, removed bool) {
	for c := range pc.byNode[id] {
		pc.dirty[c] = true
	}
	if removed {
		// The registry drops subscriptions of removed nodes itself.
		delete(pc.watch, id)
	}
}

// prune forgets curves for connections no longer in the set and stops
// watching nodes with no remaining cached connections.
func (pc *PathCache) prune(live map[graph.Connection]struct{}) {
	for c := range pc.curves {
		if _, ok := live[c]; ok {
			continue
		}
		delete(pc.curves, c)
		delete(pc.dirty, c)
		for _, id := range []int{c.From.NodeID, c.To.NodeID} {
			delete(pc.byNode[id], c)
			if len(pc.byNode[id]) == 0 {
				delete(pc.byNode, id)
				if cancel, ok := pc.watch[id]; ok {
					cancel()
					delete(pc.watch, id)
				}
			}
		}
	}
}
