package graph

// ConnectionSet holds finalized connections in append order. It stores
// endpoints by id and index only; it never holds node references.
type ConnectionSet struct {
	conns []Connection
}

// NewConnectionSet returns an empty set.
func NewConnectionSet() *ConnectionSet {
	return &ConnectionSet{conns: make([]Connection, 0)}
}

// Add appends a connection from an output port to an input port. It returns
// false, and changes nothing, for a self-connection or an exact duplicate.
func (s *ConnectionSet) Add(from, to Endpoint) bool {
	if from.NodeID == to.NodeID {
		return false
	}
	c := Connection{From: from, To: to}
	if s.Contains(c) {
		return false
	}
	s.conns = append(s.conns, c)
	return true
}

// Contains reports whether c is in the set.
func (s *ConnectionSet) Contains(c Connection) bool {
	for _, x := range s.conns {
		if x == c {
			return true
		}
	}
	return false
}

// List returns the connections in append order.
func (s *ConnectionSet) List() []Connection {
	return append([]Connection(nil), s.conns...)
}

// Len returns the number of connections.
func (s *ConnectionSet) Len() int { return len(s.conns) }

// Remove deletes c, keeping the order of the rest.
func (s *ConnectionSet) Remove(c Connection) bool {
	for i, x := range s.conns {
		if x == c {
			s.conns = append(s.conns[:i], s.conns[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveNode deletes every connection with an endpoint on node id and returns
// how many were removed.
func (s *ConnectionSet) RemoveNode(id int) int {
	kept := s.conns[:0]
	removed := 0
	for _, c := range s.conns {
		if c.From.NodeID == id || c.To.NodeID == id {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.conns = kept
	return removed
}

// Touching returns the connections with an endpoint on node id.
func (s *ConnectionSet) Touching(id int) []Connection {
	var out []Connection
	for _, c := range s.conns {
		if c.From.NodeID == id || c.To.NodeID == id {
			out = append(out, c)
		}
	}
	return out
}
