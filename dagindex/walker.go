package dagindex

import "github.com/dagmesh/dagindexd/dagindex/dagindexapi"

// Walker is the Descendant Walker: given a set of hashes a peer already
// has, it yields the set of hashes reachable forward through direct-child
// edges, up to a cap. It holds no locks of its own; it sees whatever its
// DagIndex sub-calls observe, so a block added concurrently may be missed
// but nothing is ever fabricated.
type Walker struct {
	index    *DagIndex
	maxBlock int
}

// NewWalker builds a Walker over index whose responses stop growing once
// they hold more than maxBlocks hashes (see BlocksFromLastKnown).
func NewWalker(index *DagIndex, maxBlocks int) *Walker {
	return &Walker{index: index, maxBlock: maxBlocks}
}

type heightedHash struct {
	hash   dagindexapi.BlockHash
	height dagindexapi.BlockHeight
}

// BlocksFromLastKnown returns the hashes of blocks the index has that are
// height-forward descendants of lastKnown. The cap is soft: the walk stops
// as soon as the result holds more than maxBlocks hashes, so it returns at
// most maxBlocks+1 of them. If none of
// lastKnown resolves to a known height, it falls back to seeding from
// genesis (the peer is assumed to be on a divergent DAG); if genesis is
// also unindexed, it returns the empty set.
func (w *Walker) BlocksFromLastKnown(lastKnown []dagindexapi.BlockHash) (map[dagindexapi.BlockHash]struct{}, error) {
	known := make(map[dagindexapi.BlockHash]dagindexapi.BlockHeight)
	for _, h := range lastKnown {
		height, found, err := w.index.GetBlockHeight(h)
		if err != nil {
			return nil, err
		}
		if found {
			known[h] = height
		}
	}

	result := make(map[dagindexapi.BlockHash]struct{})
	frontier := make([]heightedHash, 0, len(known))
	for h, height := range known {
		frontier = append(frontier, heightedHash{hash: h, height: height})
	}

	if len(known) == 0 {
		genesisHeight, found, err := w.index.GetBlockHeight(w.index.genesis)
		if err != nil {
			return nil, err
		}
		if !found {
			return result, nil
		}
		result[w.index.genesis] = struct{}{}
		frontier = append(frontier, heightedHash{hash: w.index.genesis, height: genesisHeight})
	}

	for len(frontier) > 0 && len(result) <= w.maxBlock {
		var next []heightedHash
		for _, hh := range frontier {
			children, err := w.index.GetChildren(hh.hash, hh.height)
			if err != nil {
				return nil, err
			}
			for ch, chHeight := range children {
				if _, inKnown := known[ch]; inKnown {
					continue
				}
				if _, inResult := result[ch]; inResult {
					continue
				}
				next = append(next, heightedHash{hash: ch, height: chHeight})
			}

			_, inKnown := known[hh.hash]
			_, inResult := result[hh.hash]
			if !inKnown && !inResult {
				result[hh.hash] = struct{}{}
				if len(result) > w.maxBlock {
					break
				}
			}
		}
		frontier = next
	}

	return result, nil
}
