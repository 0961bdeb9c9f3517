// Package dagindex is the DagIndex: the public index API (addBlock,
// removeBlock, has, getBlockHeight, getBlockInfo, getChildren, getOrder)
// that the block processor and peer-sync handler call against. It owns the
// page cache and the dag-prefix, and is the only thing that reads or
// writes Backend pages and the order counter for a given generation.
package dagindex

import (
	"fmt"
	"sync/atomic"

	"github.com/dagmesh/dagindexd/dagindex/backend"
	"github.com/dagmesh/dagindexd/dagindex/dagindexapi"
	"github.com/dagmesh/dagindexd/dagindex/pagecache"
	"github.com/dagmesh/dagindexd/locks"
	"github.com/dagmesh/dagindexd/logger"
)

const lockNamePage = "dagIndexPage"

var log, _ = logger.Get(logger.SubsystemTags.DAGI)

// DagIndex is the authoritative in-process view of the Main DAG Index: a
// paged, cached map from block height to the blocks at that height and
// their direct children, backed by a Backend and namespaced under its own
// dag-prefix.
type DagIndex struct {
	store     dagindexapi.BlockInfoStore
	backend   *backend.Backend
	cache     *pagecache.Cache
	dagPrefix string
	step      uint64
	genesis   dagindexapi.BlockHash

	// missingParentRecoveries counts edges skipped because a parent's
	// BlockInfo was unavailable. Legitimate during a reorg; a sustained
	// climb points at store corruption, so it is surfaced through the
	// status endpoint rather than only debug-logged.
	missingParentRecoveries uint64
}

// MissingParentRecoveries returns the number of parent edges skipped so
// far because the parent's BlockInfo was unavailable at the time.
func (d *DagIndex) MissingParentRecoveries() uint64 {
	return atomic.LoadUint64(&d.missingParentRecoveries)
}

// New builds a DagIndex over store, persisting pages and the order counter
// through b, caching up to cacheCapacity pages, paging at the given step,
// under a freshly minted dag-prefix.
func New(store dagindexapi.BlockInfoStore, b *backend.Backend, cacheCapacity int, step uint64, genesis dagindexapi.BlockHash) *DagIndex {
	return &DagIndex{
		store:     store,
		backend:   b,
		cache:     pagecache.New(cacheCapacity),
		dagPrefix: newDagPrefix(),
		step:      step,
		genesis:   genesis,
	}
}

func (d *DagIndex) pageKey(pageIndex dagindexapi.PageIndex) string {
	return fmt.Sprintf("%s_%d", d.dagPrefix, int64(pageIndex))
}

// loadPageLocked returns the live, mutable page for pageIndex, falling back
// to the Backend on a cache miss. The caller must already hold the page
// lock; the returned record is safe to mutate in place, as long as it is
// handed to flushPageLocked before the lock is released.
func (d *DagIndex) loadPageLocked(pageIndex dagindexapi.PageIndex) (dagindexapi.PageRecord, error) {
	if record, ok := d.cache.Lookup(pageIndex); ok {
		return record, nil
	}
	record, err := d.backend.GetPageUnlocked(d.pageKey(pageIndex))
	if err != nil {
		return nil, err
	}
	return record, nil
}

// flushPageLocked writes record through to the Backend and the cache. The
// caller must already hold the page lock.
func (d *DagIndex) flushPageLocked(pageIndex dagindexapi.PageIndex, record dagindexapi.PageRecord) error {
	if err := d.backend.SetPageUnlocked(d.pageKey(pageIndex), record); err != nil {
		return err
	}
	d.cache.Insert(pageIndex, record)
	return nil
}

// AddBlock indexes blockInfo: it promotes or creates its own vertex entry,
// and for every parent at exactly height-1 records a direct-child edge
// back to it. Gap edges (parent more than one height below) are not
// indexed (I3). Re-adding an already-indexed block is a no-op beyond the
// work of confirming it (P1).
func (d *DagIndex) AddBlock(info dagindexapi.BlockInfo) error {
	release := locks.Acquire(d.backend.Locks(), lockNamePage)
	defer release()

	hash := info.Hash()
	height := info.Height()

	if hash != d.genesis {
		for _, parentHash := range info.ParentHashes() {
			if err := d.indexParentEdgeLocked(hash, height, parentHash); err != nil {
				return err
			}
		}
	}

	pageIndex := dagindexapi.ComputePageIndex(height, d.step)
	page, err := d.loadPageLocked(pageIndex)
	if err != nil {
		return err
	}
	if page == nil {
		page = dagindexapi.NewPageRecord()
	}

	entry, exists := page[hash]
	switch {
	case !exists:
		page[hash] = &dagindexapi.PageEntry{Processed: true, Children: make(map[dagindexapi.BlockHash]dagindexapi.BlockHeight)}
		if _, err := d.backend.AdjustOrder(d.dagPrefix, 1); err != nil {
			return err
		}
	case !entry.Processed:
		entry.Processed = true
	}

	return d.flushPageLocked(pageIndex, page)
}

func (d *DagIndex) indexParentEdgeLocked(childHash dagindexapi.BlockHash, childHeight dagindexapi.BlockHeight, parentHash dagindexapi.BlockHash) error {
	parentInfo, found, err := d.store.GetBlockInfo(parentHash)
	if err != nil {
		return err
	}
	if !found {
		atomic.AddUint64(&d.missingParentRecoveries, 1)
		log.Warnf("addBlock(%s): parent %s not found, skipping edge", childHash, parentHash)
		return nil
	}

	parentHeight := parentInfo.Height()
	if childHeight <= parentHeight || childHeight-parentHeight != 1 {
		return nil
	}

	pageIndex := dagindexapi.ComputePageIndex(parentHeight, d.step)
	page, err := d.loadPageLocked(pageIndex)
	if err != nil {
		return err
	}
	if page == nil {
		page = dagindexapi.NewPageRecord()
	}

	entry, exists := page[parentHash]
	if !exists {
		page[parentHash] = &dagindexapi.PageEntry{
			Processed: false,
			Children:  map[dagindexapi.BlockHash]dagindexapi.BlockHeight{childHash: childHeight},
		}
		if _, err := d.backend.AdjustOrder(d.dagPrefix, 1); err != nil {
			return err
		}
	} else {
		entry.Children[childHash] = childHeight
	}

	return d.flushPageLocked(pageIndex, page)
}

// RemoveBlock undoes AddBlock: it deletes blockInfo's own vertex entry and
// every direct-child edge parents hold pointing at it, decrementing the
// order counter for its own row and for any parent row this empties out
// entirely.
func (d *DagIndex) RemoveBlock(info dagindexapi.BlockInfo) error {
	release := locks.Acquire(d.backend.Locks(), lockNamePage)
	defer release()

	hash := info.Hash()
	height := info.Height()

	pageIndex := dagindexapi.ComputePageIndex(height, d.step)
	page, err := d.loadPageLocked(pageIndex)
	if err != nil {
		return err
	}
	if page == nil {
		return nil
	}

	if _, exists := page[hash]; exists {
		delete(page, hash)
		if _, err := d.backend.AdjustOrder(d.dagPrefix, -1); err != nil {
			return err
		}
		if err := d.flushPageLocked(pageIndex, page); err != nil {
			return err
		}
	}

	for _, parentHash := range info.ParentHashes() {
		if err := d.removeParentEdgeLocked(hash, parentHash); err != nil {
			return err
		}
	}
	return nil
}

func (d *DagIndex) removeParentEdgeLocked(childHash dagindexapi.BlockHash, parentHash dagindexapi.BlockHash) error {
	parentInfo, found, err := d.store.GetBlockInfo(parentHash)
	if err != nil {
		return err
	}
	if !found {
		atomic.AddUint64(&d.missingParentRecoveries, 1)
		log.Warnf("removeBlock(%s): parent %s not found, skipping edge", childHash, parentHash)
		return nil
	}

	pageIndex := dagindexapi.ComputePageIndex(parentInfo.Height(), d.step)
	page, err := d.loadPageLocked(pageIndex)
	if err != nil {
		return err
	}
	if page == nil {
		return nil
	}

	entry, exists := page[parentHash]
	if !exists {
		return nil
	}
	if _, childExists := entry.Children[childHash]; !childExists {
		return nil
	}
	delete(entry.Children, childHash)

	if len(entry.Children) == 0 && !entry.Processed {
		delete(page, parentHash)
		if _, err := d.backend.AdjustOrder(d.dagPrefix, -1); err != nil {
			return err
		}
	}

	return d.flushPageLocked(pageIndex, page)
}

// fetchEntry returns the live PageEntry for hash at height, or nil if its
// page or own row is absent. It acquires the page lock for the duration of
// the read.
func (d *DagIndex) fetchEntry(hash dagindexapi.BlockHash, height dagindexapi.BlockHeight) (*dagindexapi.PageEntry, error) {
	release := locks.Acquire(d.backend.Locks(), lockNamePage)
	defer release()

	pageIndex := dagindexapi.ComputePageIndex(height, d.step)
	page, err := d.loadPageLocked(pageIndex)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, nil
	}
	return page[hash], nil
}

// HasAtHeight reports whether hash is a processed vertex at height.
func (d *DagIndex) HasAtHeight(hash dagindexapi.BlockHash, height dagindexapi.BlockHeight) (bool, error) {
	entry, err := d.fetchEntry(hash, height)
	if err != nil {
		return false, err
	}
	return entry != nil && entry.Processed, nil
}

// Has resolves hash's height through the block store, then reports whether
// it is a processed vertex. It returns false, not an error, if the block
// store does not know hash.
func (d *DagIndex) Has(hash dagindexapi.BlockHash) (bool, error) {
	info, found, err := d.store.GetBlockInfo(hash)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return d.HasAtHeight(hash, info.Height())
}

// GetBlockHeight returns hash's height, confirming through the index that
// it is a processed vertex before returning it.
func (d *DagIndex) GetBlockHeight(hash dagindexapi.BlockHash) (dagindexapi.BlockHeight, bool, error) {
	info, found, err := d.store.GetBlockInfo(hash)
	if err != nil {
		return 0, false, err
	}
	if !found {
		return 0, false, nil
	}
	has, err := d.HasAtHeight(hash, info.Height())
	if err != nil {
		return 0, false, err
	}
	if !has {
		return 0, false, nil
	}
	return info.Height(), true, nil
}

// GetBlockInfo returns the external BlockInfo for hash, confirming through
// the index that it is a processed vertex before returning it.
func (d *DagIndex) GetBlockInfo(hash dagindexapi.BlockHash) (dagindexapi.BlockInfo, bool, error) {
	info, found, err := d.store.GetBlockInfo(hash)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	has, err := d.HasAtHeight(hash, info.Height())
	if err != nil {
		return nil, false, err
	}
	if !has {
		return nil, false, nil
	}
	return info, true, nil
}

// GetChildren returns a shallow copy of the direct children indexed
// against hash at height, or an empty map if hash's page or row is absent
// or not a processed vertex.
func (d *DagIndex) GetChildren(hash dagindexapi.BlockHash, height dagindexapi.BlockHeight) (map[dagindexapi.BlockHash]dagindexapi.BlockHeight, error) {
	entry, err := d.fetchEntry(hash, height)
	if err != nil {
		return nil, err
	}
	if entry == nil || !entry.Processed {
		return map[dagindexapi.BlockHash]dagindexapi.BlockHeight{}, nil
	}
	children := make(map[dagindexapi.BlockHash]dagindexapi.BlockHeight, len(entry.Children))
	for h, ht := range entry.Children {
		children[h] = ht
	}
	return children, nil
}

// GetOrder returns this generation's order counter.
func (d *DagIndex) GetOrder() (int64, error) {
	return d.backend.GetOrder(d.dagPrefix)
}
