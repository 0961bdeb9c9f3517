package dagindexapi

import (
	"encoding/json"
	"fmt"
)

// PageIndex identifies one page of the on-disk map from height to the
// blocks at that height and their direct children.
type PageIndex int64

// ComputePageIndex derives the page a given height belongs to.
//
// The formula is deliberately the legacy one, (h/step)*(step-1), not the
// more obvious (h/step)*step: it is embedded in every page key already
// written to disk, so reproducing it exactly is what keeps a reindex
// binary-compatible with an existing database. See the paging note in
// PageRecord's doc comment for the key shape this feeds.
func ComputePageIndex(height BlockHeight, step uint64) PageIndex {
	if step == 0 {
		step = 1
	}
	return PageIndex((uint64(height) / step) * (step - 1))
}

// PageEntry is one vertex's record inside a PageRecord: whether the vertex
// itself has been added (Processed), and the direct (height+1) children
// indexed against it so far.
type PageEntry struct {
	Processed bool
	Children  map[BlockHash]BlockHeight
}

// PageRecord is the deserialised form of one page: a mapping from block
// hash to that block's PageEntry. Keys composed of a dag-prefix and a
// PageIndex (see dagindex.pageKey) identify which PageRecord a given
// on-disk value belongs to.
type PageRecord map[BlockHash]*PageEntry

// NewPageRecord returns an empty page, ready to be populated.
func NewPageRecord() PageRecord {
	return make(PageRecord)
}

// Clone returns a deep copy of the page, safe to mutate independently of
// the original (used when handing a page back out of the cache).
func (p PageRecord) Clone() PageRecord {
	clone := make(PageRecord, len(p))
	for hash, entry := range p {
		childrenClone := make(map[BlockHash]BlockHeight, len(entry.Children))
		for h, height := range entry.Children {
			childrenClone[h] = height
		}
		clone[hash] = &PageEntry{Processed: entry.Processed, Children: childrenClone}
	}
	return clone
}

// jsonPageEntry mirrors the wire shape of a PageEntry, the value stored
// under its "<blockHashHex>" key in the page object:
// [processed, {"<childHashHex>": childHeight, ...}]
// i.e. the tuple is a JSON array of length exactly 2.
type jsonPageEntry struct {
	Processed bool
	Children  map[string]BlockHeight
}

func (e jsonPageEntry) MarshalJSON() ([]byte, error) {
	tuple := [2]interface{}{e.Processed, e.Children}
	return json.Marshal(tuple)
}

func (e *jsonPageEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("page entry must be a 2-element array, got %d elements", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.Processed); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &e.Children); err != nil {
		return err
	}
	return nil
}

// MarshalJSON renders the page as { "<hashHex>": [processed, children], ... }.
func (p PageRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]jsonPageEntry, len(p))
	for hash, entry := range p {
		children := make(map[string]BlockHeight, len(entry.Children))
		for h, height := range entry.Children {
			children[h.String()] = height
		}
		out[hash.String()] = jsonPageEntry{Processed: entry.Processed, Children: children}
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the { "<hashHex>": [processed, children], ... } shape
// back into a PageRecord.
func (p *PageRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]jsonPageEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	record := make(PageRecord, len(raw))
	for hashHex, entry := range raw {
		hash, err := HashFromString(hashHex)
		if err != nil {
			return err
		}
		children := make(map[BlockHash]BlockHeight, len(entry.Children))
		for childHex, height := range entry.Children {
			childHash, err := HashFromString(childHex)
			if err != nil {
				return err
			}
			children[childHash] = height
		}
		record[hash] = &PageEntry{Processed: entry.Processed, Children: children}
	}
	*p = record
	return nil
}
