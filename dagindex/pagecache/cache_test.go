package pagecache

import (
	"testing"

	"github.com/dagmesh/dagindexd/dagindex/dagindexapi"
)

func TestLookupMiss(t *testing.T) {
	c := New(2)
	if _, ok := c.Lookup(0); ok {
		t.Fatalf("Lookup on an empty cache reported a hit")
	}
}

func TestInsertThenLookup(t *testing.T) {
	c := New(2)
	record := dagindexapi.NewPageRecord()
	c.Insert(1, record)

	got, ok := c.Lookup(1)
	if !ok {
		t.Fatalf("Lookup missed right after Insert")
	}
	if got == nil {
		t.Fatalf("Lookup returned a nil record")
	}
}

func TestCapacityIsEnforced(t *testing.T) {
	c := New(2)
	c.Insert(1, dagindexapi.NewPageRecord())
	c.Insert(2, dagindexapi.NewPageRecord())
	c.Insert(3, dagindexapi.NewPageRecord())

	if got := c.Len(); got > 2 {
		t.Fatalf("cache grew to %d entries, capacity is 2", got)
	}
}

func TestEvictsLeastRecentlyAccessed(t *testing.T) {
	c := New(2)
	c.Insert(1, dagindexapi.NewPageRecord())
	c.Insert(2, dagindexapi.NewPageRecord())

	// Touch page 1 so page 2 becomes the least-recently-accessed entry.
	if _, ok := c.Lookup(1); !ok {
		t.Fatalf("Lookup(1) missed")
	}

	c.Insert(3, dagindexapi.NewPageRecord())

	if _, ok := c.Lookup(2); ok {
		t.Fatalf("page 2 should have been evicted, it was the least recently accessed")
	}
	if _, ok := c.Lookup(1); !ok {
		t.Fatalf("page 1 should still be cached, it was accessed more recently")
	}
	if _, ok := c.Lookup(3); !ok {
		t.Fatalf("page 3 should be cached, it was just inserted")
	}
}

func TestInvalidate(t *testing.T) {
	c := New(2)
	c.Insert(1, dagindexapi.NewPageRecord())
	c.Invalidate(1)
	if _, ok := c.Lookup(1); ok {
		t.Fatalf("Lookup hit after Invalidate")
	}
}
