// dagindexd is a minimal daemon wiring the KV Store Adapter, Index Backend,
// Page Cache, and DagIndex together, and exposing a read-only HTTP status
// endpoint over them. It does not itself run consensus or peer sync; those
// are the external collaborators the index is built to serve.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dagmesh/dagindexd/config"
	"github.com/dagmesh/dagindexd/dagindex"
	"github.com/dagmesh/dagindexd/dagindex/backend"
	"github.com/dagmesh/dagindexd/dagindex/kvstore"
	"github.com/dagmesh/dagindexd/logger"
	"github.com/dagmesh/dagindexd/util/panics"
)

var log, _ = logger.Get(logger.SubsystemTags.BTCD)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.InitLogRotators(
		cfg.DataDir+"/logs/dagindexd.log",
		cfg.DataDir+"/logs/dagindexd_err.log",
	)
	if err := logger.ParseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return err
	}
	defer panics.HandlePanic(log, nil)

	store, err := kvstore.Open(cfg.IndexDir())
	if err != nil {
		return err
	}
	defer store.Close()

	b := backend.New(store)
	blockInfoStore := newMemoryBlockInfoStore()
	index := dagindex.New(blockInfoStore, b, cfg.PagesInMemory, cfg.DagIndexStep, cfg.GenesisHash)
	walker := dagindex.NewWalker(index, cfg.MaxBlocksInv)

	status := newStatusServer(index, walker)
	spawn := panics.GoroutineWrapperFunc(log)
	spawn(func() {
		if err := status.ListenAndServe(":8080"); err != nil {
			log.Errorf("status server stopped: %+v", err)
		}
	})

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
	log.Infof("dagindexd shutting down")
	return nil
}
