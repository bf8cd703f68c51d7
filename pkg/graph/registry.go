package graph

// Change is delivered to subscribers of a node id.
type Change struct {
	Node    Node
	Removed bool
}

type subscriber struct {
	id int
	fn func(Change)
}

// Registry owns all nodes. Nodes live in an arena keyed by id; a separate id
// slice keeps insertion order for iteration.
//
// Registry is not safe for concurrent use. The interaction engine is
// single-threaded and hosts serialize events before they reach it.
type Registry struct {
	nodes   map[int]*Node
	order   []int
	nextID  int
	subs    map[int][]subscriber
	nextSub int
}

// NewRegistry creates a registry holding the given seed nodes with ids
// 0..len(seed)-1. The next added node gets id len(seed).
func NewRegistry(seed ...NodeSpec) *Registry {
	r := &Registry{
		nodes: make(map[int]*Node),
		order: make([]int, 0, len(seed)),
		subs:  make(map[int][]subscriber),
	}
	for _, s := range seed {
		r.Add(s)
	}
	return r
}

// Add inserts a node and returns its id. Ids are never reused.
func (r *Registry) Add(spec NodeSpec) int {
	id := r.nextID
	r.nextID++
	w := spec.Width
	if w <= 0 {
		w = DefaultWidth
	}
	r.nodes[id] = &Node{
		ID:      id,
		X:       spec.X,
		Y:       spec.Y,
		Width:   w,
		Label:   spec.Label,
		Inputs:  ports(spec.Inputs),
		Outputs: ports(spec.Outputs),
	}
	r.order = append(r.order, id)
	return id
}

// SetPosition moves a node. Unknown ids are ignored: a gesture may still
// reference a node that has gone away.
func (r *Registry) SetPosition(id int, x, y float64) {
	n, ok := r.nodes[id]
	if !ok {
		return
	}
	if n.X == x && n.Y == y {
		return
	}
	n.X, n.Y = x, y
	r.notify(id, Change{Node: n.clone()})
}

// Get returns a copy of the node with the given id.
func (r *Registry) Get(id int) (Node, bool) {
	n, ok := r.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Has reports whether id is present.
func (r *Registry) Has(id int) bool {
	_, ok := r.nodes[id]
	return ok
}

// All returns copies of all nodes in insertion order.
func (r *Registry) All() []Node {
	out := make([]Node, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.nodes[id].clone())
	}
	return out
}

// Len returns the number of nodes.
func (r *Registry) Len() int { return len(r.order) }

// NextID returns the id the next Add will assign.
func (r *Registry) NextID() int { return r.nextID }

// Remove deletes a node and tells its subscribers. Subscriptions on a
// removed id are dropped.
func (r *Registry) Remove(id int) bool {
	n, ok := r.nodes[id]
	if !ok {
		return false
	}
	delete(r.nodes, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.notify(id, Change{Node: n.clone(), Removed: true})
	delete(r.subs, id)
	return true
}

// Subscribe registers fn for changes to one node id. The returned function
// cancels the subscription; calling it more than once is harmless.
func (r *Registry) Subscribe(id int, fn func(Change)) (cancel func()) {
	sid := r.nextSub
	r.nextSub++
	r.subs[id] = append(r.subs[id], subscriber{id: sid, fn: fn})
	return func() {
		list := r.subs[id]
		for i, s := range list {
			if s.id == sid {
				r.subs[id] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(r.subs[id]) == 0 {
			delete(r.subs, id)
		}
	}
}

// Subscribers returns how many subscriptions exist for id.
func (r *Registry) Subscribers(id int) int { return len(r.subs[id]) }

func (r *Registry) notify(id int, c Change) {
	// Copy so a callback may cancel itself.
	list := append([]subscriber(nil), r.subs[id]...)
	for _, s := range list {
		s.fn(c)
	}
}
