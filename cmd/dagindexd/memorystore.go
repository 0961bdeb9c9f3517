package main

import (
	"sync"

	"github.com/dagmesh/dagindexd/dagindex/dagindexapi"
)

// memoryBlockInfoStore is a minimal in-process BlockInfoStore, standing in
// for the real block store this daemon would otherwise be wired to. It
// exists only so dagindexd can boot standalone; a production deployment
// supplies its own BlockInfoStore backed by the node's persisted blocks.
type memoryBlockInfoStore struct {
	mtx     sync.Mutex
	infos   map[dagindexapi.BlockHash]dagindexapi.BlockInfo
	applied []dagindexapi.BlockHash
	pending []dagindexapi.BlockHash
}

func newMemoryBlockInfoStore() *memoryBlockInfoStore {
	return &memoryBlockInfoStore{infos: make(map[dagindexapi.BlockHash]dagindexapi.BlockInfo)}
}

func (s *memoryBlockInfoStore) GetBlockInfo(hash dagindexapi.BlockHash) (dagindexapi.BlockInfo, bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	info, found := s.infos[hash]
	return info, found, nil
}

func (s *memoryBlockInfoStore) HasBlock(hash dagindexapi.BlockHash) (bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	_, found := s.infos[hash]
	return found, nil
}

func (s *memoryBlockInfoStore) SaveBlockInfo(info dagindexapi.BlockInfo) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.infos[info.Hash()] = info
	s.pending = append(s.pending, info.Hash())
	return nil
}

func (s *memoryBlockInfoStore) GetLastAppliedBlockHashes() ([]dagindexapi.BlockHash, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	out := make([]dagindexapi.BlockHash, len(s.applied))
	copy(out, s.applied)
	return out, nil
}

func (s *memoryBlockInfoStore) GetPendingBlockHashes() ([]dagindexapi.BlockHash, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	out := make([]dagindexapi.BlockHash, len(s.pending))
	copy(out, s.pending)
	return out, nil
}
