package dagindex

import (
	"testing"

	"github.com/dagmesh/dagindexd/dagindex/backend"
	"github.com/dagmesh/dagindexd/dagindex/dagindexapi"
	"github.com/dagmesh/dagindexd/dagindex/kvstore"
)

func TestRebuildFromStableHashes(t *testing.T) {
	store := newFakeBlockInfoStore()
	genesis := testHash(0xAA)

	g := &fakeBlockInfo{hash: genesis, height: 0}
	a := &fakeBlockInfo{hash: testHash(1), height: 1, parents: []dagindexapi.BlockHash{genesis}}
	b := &fakeBlockInfo{hash: testHash(2), height: 2, parents: []dagindexapi.BlockHash{a.hash}}
	store.add(g)
	store.add(a)
	store.add(b)
	store.applied = []dagindexapi.BlockHash{b.hash}

	kv, err := kvstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("kvstore.Open: %+v", err)
	}
	defer kv.Close()
	be := backend.New(kv)

	index, err := Rebuild(store, be, 10, testStep, genesis)
	if err != nil {
		t.Fatalf("Rebuild: %+v", err)
	}

	for _, want := range []*fakeBlockInfo{g, a, b} {
		has, err := index.Has(want.hash)
		if err != nil {
			t.Fatalf("Has(%s): %+v", want.hash, err)
		}
		if !has {
			t.Fatalf("Rebuild did not index %s", want.hash)
		}
	}
}

func TestRebuildAbortsOnMissingBlockInfo(t *testing.T) {
	store := newFakeBlockInfoStore()
	genesis := testHash(0xAA)
	missing := testHash(0x77)
	store.applied = []dagindexapi.BlockHash{missing}

	kv, err := kvstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("kvstore.Open: %+v", err)
	}
	defer kv.Close()
	be := backend.New(kv)

	if _, err := Rebuild(store, be, 10, testStep, genesis); err == nil {
		t.Fatalf("expected Rebuild to abort on a missing BlockInfo")
	}
}
