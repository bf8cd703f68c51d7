package graph

import "testing"

func TestSeededIDsAndNextID(t *testing.T) {
	r := NewRegistry(DefaultSeed()...)

	if r.Len() != 3 {
		t.Fatalf("Expected 3 seeded nodes, got %d", r.Len())
	}
	for i, n := range r.All() {
		if n.ID != i {
			t.Errorf("Seed node %d has id %d", i, n.ID)
		}
	}
	if r.NextID() != 3 {
		t.Errorf("NextID: got %d, want 3", r.NextID())
	}
}

func TestAddIDsStrictlyIncreasing(t *testing.T) {
	r := NewRegistry(DefaultSeed()...)
	prev := -1
	seen := make(map[int]bool)

	for i := 0; i < 50; i++ {
		id := r.Add(PlacementFor(r.NextID()))
		if id <= prev {
			t.Fatalf("Add #%d: id %d not greater than previous %d", i, id, prev)
		}
		if seen[id] {
			t.Fatalf("Add #%d: id %d reused", i, id)
		}
		seen[id] = true
		prev = id
	}
}

func TestIDsNotReusedAfterRemove(t *testing.T) {
	r := NewRegistry(DefaultSeed()...)
	r.Remove(2)
	id := r.Add(PlacementFor(r.NextID()))
	if id != 3 {
		t.Errorf("Expected id 3 after removing node 2, got %d", id)
	}
}

func TestPlacementForScenario(t *testing.T) {
	r := NewRegistry(DefaultSeed()...)
	id := r.Add(PlacementFor(r.NextID()))
	n, ok := r.Get(id)
	if !ok {
		t.Fatal("New node not found")
	}
	if id != 3 || n.X != 350 || n.Y != 290 {
		t.Errorf("Got node %d at (%.0f,%.0f), want 3 at (350,290)", id, n.X, n.Y)
	}
	if n.Label != "Node 3" {
		t.Errorf("Label: got %q, want %q", n.Label, "Node 3")
	}
	if len(n.Inputs) != 1 || len(n.Outputs) != 1 {
		t.Errorf("Expected one input and one output port, got %d/%d", len(n.Inputs), len(n.Outputs))
	}
}

func TestSetPositionUnknownIDIsNoop(t *testing.T) {
	r := NewRegistry(DefaultSeed()...)
	before := r.All()

	r.SetPosition(99, 1, 1)

	after := r.All()
	for i := range before {
		if before[i].X != after[i].X || before[i].Y != after[i].Y {
			t.Errorf("Node %d moved by SetPosition on unknown id", before[i].ID)
		}
	}
}

func TestGetReturnsCopy(t *testing.T) {
	r := NewRegistry(DefaultSeed()...)
	n, _ := r.Get(0)
	n.X = 999
	n.Inputs[0].Title = "changed"

	again, _ := r.Get(0)
	if again.X != 100 {
		t.Errorf("Registry node changed through copy: X=%.0f", again.X)
	}
	if again.Inputs[0].Title != "in1" {
		t.Errorf("Registry port changed through copy: %q", again.Inputs[0].Title)
	}
}

func TestAllKeepsInsertionOrder(t *testing.T) {
	r := NewRegistry(DefaultSeed()...)
	r.Add(PlacementFor(3))
	r.Remove(1)
	r.Add(PlacementFor(4))

	var ids []int
	for _, n := range r.All() {
		ids = append(ids, n.ID)
	}
	want := []int{0, 2, 3, 4}
	if len(ids) != len(want) {
		t.Fatalf("Got ids %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Got ids %v, want %v", ids, want)
			break
		}
	}
}

func TestSubscribeOnlyNotifiesThatID(t *testing.T) {
	r := NewRegistry(DefaultSeed()...)
	calls := map[int]int{}
	for _, id := range []int{0, 1, 2} {
		id := id
		r.Subscribe(id, func(Change) { calls[id]++ })
	}

	r.SetPosition(1, 10, 10)
	r.SetPosition(1, 20, 20)

	if calls[1] != 2 {
		t.Errorf("Node 1 subscriber: got %d calls, want 2", calls[1])
	}
	if calls[0] != 0 || calls[2] != 0 {
		t.Errorf("Other subscribers notified: %v", calls)
	}
}

func TestSetPositionSameValueDoesNotNotify(t *testing.T) {
	r := NewRegistry(DefaultSeed()...)
	calls := 0
	r.Subscribe(0, func(Change) { calls++ })

	r.SetPosition(0, 100, 100)

	if calls != 0 {
		t.Errorf("Expected no notification for unchanged position, got %d", calls)
	}
}

func TestSubscriptionCancel(t *testing.T) {
	r := NewRegistry(DefaultSeed()...)
	calls := 0
	cancel := r.Subscribe(0, func(Change) { calls++ })

	r.SetPosition(0, 1, 1)
	cancel()
	cancel()
	r.SetPosition(0, 2, 2)

	if calls != 1 {
		t.Errorf("Got %d calls, want 1", calls)
	}
	if r.Subscribers(0) != 0 {
		t.Errorf("Subscribers left after cancel: %d", r.Subscribers(0))
	}
}

func TestRemoveNotifiesAndDropsSubscribers(t *testing.T) {
	r := NewRegistry(DefaultSeed()...)
	var got Change
	r.Subscribe(1, func(c Change) { got = c })

	if !r.Remove(1) {
		t.Fatal("Remove returned false for existing node")
	}
	if !got.Removed || got.Node.ID != 1 {
		t.Errorf("Expected removal change for node 1, got %+v", got)
	}
	if r.Has(1) {
		t.Error("Node 1 still present")
	}
	if r.Subscribers(1) != 0 {
		t.Error("Subscribers kept for removed node")
	}
	if r.Remove(1) {
		t.Error("Second Remove returned true")
	}
}
