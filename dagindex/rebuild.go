package dagindex

import (
	"github.com/dagmesh/dagindexd/dagindex/backend"
	"github.com/dagmesh/dagindexd/dagindex/dagindexapi"
)

// Rebuild constructs a fresh DagIndex (a new dag-prefix, isolating it from
// any previous generation still on disk) and re-hydrates it from store by
// walking parent pointers down from the pending/stable frontier toward
// genesis. It is the only writer of historical edges; at steady state only
// the block processor calls AddBlock.
//
// It aborts with an ErrInvariant the first time the frontier names a hash
// the store does not know, or knows as bad — both conditions that should
// be impossible for a hash the store itself reported as applied or
// pending.
func Rebuild(store dagindexapi.BlockInfoStore, b *backend.Backend, cacheCapacity int, step uint64, genesis dagindexapi.BlockHash) (*DagIndex, error) {
	index := New(store, b, cacheCapacity, step, genesis)

	pending, err := store.GetPendingBlockHashes()
	if err != nil {
		return nil, err
	}
	frontier := pending
	if len(frontier) == 0 {
		stable, err := store.GetLastAppliedBlockHashes()
		if err != nil {
			return nil, err
		}
		frontier = stable
	}

	seen := make(map[dagindexapi.BlockHash]struct{})
	for len(frontier) > 0 {
		if len(frontier) == 1 && frontier[0] == genesis {
			if _, err := rebuildOne(index, store, genesis, seen); err != nil {
				return nil, err
			}
			break
		}

		var next []dagindexapi.BlockHash
		for _, hash := range frontier {
			if _, already := seen[hash]; already {
				continue
			}
			info, err := rebuildOne(index, store, hash, seen)
			if err != nil {
				return nil, err
			}
			if info == nil {
				continue
			}
			for _, parent := range info.ParentHashes() {
				if _, ok := seen[parent]; ok {
					continue
				}
				if _, found, err := store.GetBlockInfo(parent); err != nil {
					return nil, err
				} else if found {
					next = append(next, parent)
				}
			}
		}
		frontier = next
	}

	return index, nil
}

// rebuildOne loads hash's BlockInfo, refusing to continue if it is missing
// or bad, calls AddBlock, and marks hash seen. It returns (nil, nil) only
// for a hash already marked seen by a concurrent branch of the frontier.
func rebuildOne(index *DagIndex, store dagindexapi.BlockInfoStore, hash dagindexapi.BlockHash, seen map[dagindexapi.BlockHash]struct{}) (dagindexapi.BlockInfo, error) {
	if _, already := seen[hash]; already {
		return nil, nil
	}
	info, found, err := store.GetBlockInfo(hash)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, dagindexapi.NewInvariantError("rebuild: block store has no BlockInfo for %s", hash)
	}
	if info.IsBad() {
		return nil, dagindexapi.NewInvariantError("rebuild: block %s is marked bad", hash)
	}
	seen[hash] = struct{}{}
	if err := index.AddBlock(info); err != nil {
		return nil, err
	}
	return info, nil
}
