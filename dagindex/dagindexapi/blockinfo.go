package dagindexapi

// BlockInfo is the minimal view the index needs of a block. Full block
// validation, transaction execution, and everything else about a block's
// contents is the external block store's concern, not the index's.
type BlockInfo interface {
	Hash() BlockHash
	Height() BlockHeight
	ParentHashes() []BlockHash
	IsBad() bool
	IsFinal() bool
	ConciliumID() uint32
}

// BlockInfoStore is the capability the index consumes from the rest of the
// node. GetBlockInfo returning (nil, false, nil) means "absent", which is
// not an error: during a reorg a parent may legitimately not be stored yet.
type BlockInfoStore interface {
	GetBlockInfo(hash BlockHash) (info BlockInfo, found bool, err error)
	HasBlock(hash BlockHash) (bool, error)
	SaveBlockInfo(info BlockInfo) error
	GetLastAppliedBlockHashes() ([]BlockHash, error)
	GetPendingBlockHashes() ([]BlockHash, error)
}
