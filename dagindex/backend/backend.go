// Package backend is the Index Backend: it wraps the KV Store Adapter with
// two logical namespaces, pages and order, serialises PageRecords, and
// acquires the named locks around every read and write. There is no staging
// buffer: every SetPage/SetPageUnlocked and AdjustOrder call issues its own
// KV write. A DagIndex operation that touches several pages writes each one
// as soon as it is done with it, all while holding the page lock, which is
// what keeps invariant I6 (write-through within the same critical section
// that produced a mutation) true.
package backend

import (
	"strconv"

	"github.com/dagmesh/dagindexd/dagindex/dagindexapi"
	"github.com/dagmesh/dagindexd/dagindex/kvstore"
	"github.com/dagmesh/dagindexd/locks"
	"github.com/dagmesh/dagindexd/logger"
)

const (
	lockNamePage  = "dagIndexPage"
	lockNameOrder = "dagIndexOrder"
)

var log, _ = logger.Get(logger.SubsystemTags.DAGI)

// Backend reads and writes PageRecords and the order counter through a
// kvstore.Store, guarded by a KeyedMutex.
type Backend struct {
	store *kvstore.Store
	locks *locks.KeyedMutex
}

// New wraps store with the named-lock discipline the index requires.
func New(store *kvstore.Store) *Backend {
	return &Backend{store: store, locks: locks.NewKeyedMutex()}
}

// Locks returns the KeyedMutex backing this Backend's named locks. DagIndex
// uses it to hold "dagIndexPage" across a whole addBlock/removeBlock
// operation (which may touch several pages) and then calls the *Unlocked
// variants below instead of re-acquiring the same lock.
func (b *Backend) Locks() *locks.KeyedMutex {
	return b.locks
}

// GetPage returns the page at pageKey, or an empty PageRecord if it has
// never been written. Read failures from the KV layer are treated as
// absent and debug-logged, per the index's failure semantics.
func (b *Backend) GetPage(pageKey string) (dagindexapi.PageRecord, error) {
	release := locks.Acquire(b.locks, lockNamePage)
	defer release()

	return b.GetPageUnlocked(pageKey)
}

// GetPageUnlocked is GetPage without acquiring the page lock. The caller
// must already hold it (via Locks()).
func (b *Backend) GetPageUnlocked(pageKey string) (dagindexapi.PageRecord, error) {
	raw, found, err := b.store.Get([]byte(pageKey))
	if err != nil {
		log.Debugf("GetPage(%s): treating read failure as absent: %+v", pageKey, err)
		return dagindexapi.NewPageRecord(), nil
	}
	if !found {
		return dagindexapi.NewPageRecord(), nil
	}

	var record dagindexapi.PageRecord
	if err := record.UnmarshalJSON(raw); err != nil {
		log.Debugf("GetPage(%s): treating deserialize failure as absent: %+v", pageKey, err)
		return dagindexapi.NewPageRecord(), nil
	}
	return record, nil
}

// SetPage serialises and writes record under pageKey. Write failures
// propagate to the caller.
func (b *Backend) SetPage(pageKey string, record dagindexapi.PageRecord) error {
	release := locks.Acquire(b.locks, lockNamePage)
	defer release()

	return b.SetPageUnlocked(pageKey, record)
}

// SetPageUnlocked is SetPage without acquiring the page lock. The caller
// must already hold it (via Locks()).
func (b *Backend) SetPageUnlocked(pageKey string, record dagindexapi.PageRecord) error {
	raw, err := record.MarshalJSON()
	if err != nil {
		return dagindexapi.NewIOError("failed to serialise page "+pageKey, err)
	}
	if err := b.store.Put([]byte(pageKey), raw); err != nil {
		return dagindexapi.NewIOError("failed to write page "+pageKey, err)
	}
	return nil
}

// GetOrder returns the current order counter for dagPrefix, or 0 if it has
// never been written.
func (b *Backend) GetOrder(dagPrefix string) (int64, error) {
	release := locks.Acquire(b.locks, lockNameOrder)
	defer release()

	return b.getOrderLocked(dagPrefix)
}

func (b *Backend) getOrderLocked(dagPrefix string) (int64, error) {
	raw, found, err := b.store.Get(orderKey(dagPrefix))
	if err != nil {
		log.Debugf("GetOrder(%s): treating read failure as absent: %+v", dagPrefix, err)
		return 0, nil
	}
	if !found {
		return 0, nil
	}
	order, parseErr := strconv.ParseInt(string(raw), 10, 64)
	if parseErr != nil {
		log.Debugf("GetOrder(%s): treating malformed value as absent: %+v", dagPrefix, parseErr)
		return 0, nil
	}
	return order, nil
}

// AdjustOrder reads, adjusts by delta, and writes back the order counter
// for dagPrefix, returning the new value. Write failures propagate.
func (b *Backend) AdjustOrder(dagPrefix string, delta int64) (int64, error) {
	release := locks.Acquire(b.locks, lockNameOrder)
	defer release()

	current, err := b.getOrderLocked(dagPrefix)
	if err != nil {
		return 0, err
	}
	next := current + delta
	if err := b.store.Put(orderKey(dagPrefix), []byte(strconv.FormatInt(next, 10))); err != nil {
		return 0, dagindexapi.NewIOError("failed to write order counter for "+dagPrefix, err)
	}
	return next, nil
}

func orderKey(dagPrefix string) []byte {
	return []byte(dagPrefix + "_order")
}
