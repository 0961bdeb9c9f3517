package dagindex

import (
	"sync"

	"github.com/dagmesh/dagindexd/dagindex/backend"
	"github.com/dagmesh/dagindexd/dagindex/dagindexapi"
	"github.com/dagmesh/dagindexd/dagindex/kvstore"
)

type fakeBlockInfo struct {
	hash    dagindexapi.BlockHash
	height  dagindexapi.BlockHeight
	parents []dagindexapi.BlockHash
	bad     bool
	final   bool
}

func (b *fakeBlockInfo) Hash() dagindexapi.BlockHash            { return b.hash }
func (b *fakeBlockInfo) Height() dagindexapi.BlockHeight        { return b.height }
func (b *fakeBlockInfo) ParentHashes() []dagindexapi.BlockHash  { return b.parents }
func (b *fakeBlockInfo) IsBad() bool                            { return b.bad }
func (b *fakeBlockInfo) IsFinal() bool                           { return b.final }
func (b *fakeBlockInfo) ConciliumID() uint32                    { return 0 }

func testHash(label byte) dagindexapi.BlockHash {
	var h dagindexapi.BlockHash
	h[0] = label
	return h
}

type fakeBlockInfoStore struct {
	mtx     sync.Mutex
	infos   map[dagindexapi.BlockHash]*fakeBlockInfo
	applied []dagindexapi.BlockHash
	pending []dagindexapi.BlockHash
}

func newFakeBlockInfoStore() *fakeBlockInfoStore {
	return &fakeBlockInfoStore{infos: make(map[dagindexapi.BlockHash]*fakeBlockInfo)}
}

func (s *fakeBlockInfoStore) add(b *fakeBlockInfo) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.infos[b.hash] = b
}

func (s *fakeBlockInfoStore) GetBlockInfo(hash dagindexapi.BlockHash) (dagindexapi.BlockInfo, bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	info, found := s.infos[hash]
	if !found {
		return nil, false, nil
	}
	return info, true, nil
}

func (s *fakeBlockInfoStore) HasBlock(hash dagindexapi.BlockHash) (bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	_, found := s.infos[hash]
	return found, nil
}

func (s *fakeBlockInfoStore) SaveBlockInfo(info dagindexapi.BlockInfo) error {
	return nil
}

func (s *fakeBlockInfoStore) GetLastAppliedBlockHashes() ([]dagindexapi.BlockHash, error) {
	return s.applied, nil
}

func (s *fakeBlockInfoStore) GetPendingBlockHashes() ([]dagindexapi.BlockHash, error) {
	return s.pending, nil
}

// newTestIndex builds a DagIndex over a throwaway on-disk LevelDB store
// (via t.TempDir semantics, supplied by the caller as dir) with the given
// step and genesis hash.
func newTestIndex(dir string, store dagindexapi.BlockInfoStore, step uint64, genesis dagindexapi.BlockHash) (*DagIndex, *backend.Backend, error) {
	kv, err := kvstore.Open(dir)
	if err != nil {
		return nil, nil, err
	}
	b := backend.New(kv)
	return New(store, b, 10, step, genesis), b, nil
}
