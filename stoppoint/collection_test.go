package stoppoint

import "testing"

type fakePoint struct {
	id      ID
	address uint64
	enabled bool
}

func (f *fakePoint) ID() ID          { return f.id }
func (f *fakePoint) Address() uint64 { return f.address }
func (f *fakePoint) IsEnabled() bool { return f.enabled }
func (f *fakePoint) Disable() error  { f.enabled = false; return nil }

func TestCollectionPushAndLookup(t *testing.T) {
	var c Collection[*fakePoint]
	p := c.Push(&fakePoint{id: 1, address: 0x400000, enabled: true})

	if !c.ContainsID(p.ID()) {
		t.Fatalf("expected collection to contain pushed id")
	}
	if !c.ContainsAddress(0x400000) {
		t.Fatalf("expected collection to contain pushed address")
	}
	if !c.EnabledStoppointAtAddress(0x400000) {
		t.Fatalf("expected the pushed point to be reported enabled")
	}

	got, err := c.GetByAddress(0x400000)
	if err != nil || got != p {
		t.Fatalf("GetByAddress returned %v, %v", got, err)
	}
}

func TestCollectionGetMissingErrors(t *testing.T) {
	var c Collection[*fakePoint]
	if _, err := c.GetByID(99); err == nil {
		t.Fatalf("expected error for missing id")
	}
	if _, err := c.GetByAddress(0x1234); err == nil {
		t.Fatalf("expected error for missing address")
	}
}

func TestCollectionRemoveDisablesFirst(t *testing.T) {
	var c Collection[*fakePoint]
	p := c.Push(&fakePoint{id: 1, address: 0x400000, enabled: true})

	if err := c.RemoveByID(p.ID()); err != nil {
		t.Fatalf("RemoveByID: %v", err)
	}
	if p.enabled {
		t.Fatalf("expected Disable to have been called before removal")
	}
	if c.ContainsID(p.ID()) {
		t.Fatalf("expected point to be gone after removal")
	}
	if !c.Empty() {
		t.Fatalf("expected collection to be empty after removing its only point")
	}
}

func TestCollectionInRegion(t *testing.T) {
	var c Collection[*fakePoint]
	c.Push(&fakePoint{id: 1, address: 0x1000})
	c.Push(&fakePoint{id: 2, address: 0x1010})
	c.Push(&fakePoint{id: 3, address: 0x2000})

	got := c.InRegion(0x1000, 0x1020)
	if len(got) != 2 {
		t.Fatalf("InRegion returned %d points, want 2", len(got))
	}
}

func TestCollectionForEach(t *testing.T) {
	var c Collection[*fakePoint]
	c.Push(&fakePoint{id: 1, address: 0x1000})
	c.Push(&fakePoint{id: 2, address: 0x2000})

	seen := map[ID]bool{}
	c.ForEach(func(p *fakePoint) { seen[p.ID()] = true })
	if !seen[1] || !seen[2] {
		t.Fatalf("ForEach did not visit all points: %v", seen)
	}
}
