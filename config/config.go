// Package config parses the dagindexd command-line flags into the
// configuration constants the Main DAG Index recognises: the paging
// stride, cache capacity, descendant-walker cap, genesis sentinel, and the
// index's data directory.
package config

import (
	"path/filepath"

	"github.com/dagmesh/dagindexd/dagindex/dagindexapi"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	defaultDagIndexStep      = 100
	defaultPagesInMemory     = 10
	defaultMaxBlocksInv      = 500
	defaultDBMainDagIndexDir = "dagindex"
)

// Config holds the recognised MAIN_DAG_INDEX_STEP, MAIN_DAG_PAGES_IN_MEMORY,
// MAX_BLOCKS_INV, GENESIS_BLOCK, and DB_MAIN_DAG_INDEX_DIR constants, plus
// the data directory they are relative to.
type Config struct {
	DataDir          string `short:"b" long:"datadir" description:"Directory to store data"`
	DagIndexStep     uint64 `long:"dagindexstep" description:"Paging stride: pages cover this many consecutive heights"`
	PagesInMemory    int    `long:"pagesinmemory" description:"Page cache capacity"`
	MaxBlocksInv     int    `long:"maxblocksinv" description:"Descendant walker response cap"`
	GenesisBlockHash string `long:"genesis" description:"Hex-encoded sentinel hash of the DAG root" required:"true"`
	IndexSubdir      string `long:"indexsubdir" description:"Subdirectory name of the index store, under datadir"`
	DebugLevel       string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical}"`

	// GenesisHash is GenesisBlockHash decoded and validated by Load.
	GenesisHash dagindexapi.BlockHash
}

// Load parses os.Args into a Config, applying defaults for every flag left
// unset and rejecting a malformed genesis hash at the boundary (InputError,
// per the error taxonomy).
func Load() (*Config, error) {
	cfg := &Config{
		DagIndexStep:  defaultDagIndexStep,
		PagesInMemory: defaultPagesInMemory,
		MaxBlocksInv:  defaultMaxBlocksInv,
		IndexSubdir:   defaultDBMainDagIndexDir,
		DebugLevel:    "info",
	}

	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	if cfg.DagIndexStep == 0 {
		return nil, errors.New("dagindexstep must be a positive stride")
	}
	if cfg.PagesInMemory < 1 {
		return nil, errors.New("pagesinmemory must be at least 1")
	}
	if cfg.MaxBlocksInv < 1 {
		return nil, errors.New("maxblocksinv must be at least 1")
	}

	genesisHash, err := dagindexapi.HashFromString(cfg.GenesisBlockHash)
	if err != nil {
		return nil, errors.Wrap(err, "genesis is not a valid block hash")
	}
	cfg.GenesisHash = genesisHash

	return cfg, nil
}

// IndexDir is the on-disk directory the KV Store Adapter should open.
func (c *Config) IndexDir() string {
	return filepath.Join(c.DataDir, c.IndexSubdir)
}
