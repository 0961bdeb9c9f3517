package panics

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/dagmesh/dagindexd/logs"
)

// count is the number of panics HandlePanic has recovered since process
// start, across every goroutine that installed it as a deferred recover.
// dagindexd's status endpoint surfaces it next to missingParentRecoveries.
// HandlePanic exits the process right after counting a panic, so a
// still-running process reports a nonzero value only while that exit is
// waiting on the log flush.
var count uint64

// Count returns the number of panics recovered so far.
func Count() uint64 {
	return atomic.LoadUint64(&count)
}

// shutdownGracePeriod bounds how long HandlePanic and Exit wait for the
// logging goroutine to flush before giving up and exiting anyway; a wedged
// log backend must never keep the process from dying.
const shutdownGracePeriod = 5 * time.Second

// HandlePanic recovers a panic on the calling goroutine, logs it at
// critical level along with an optional pre-captured stack trace, and exits
// the process. It does not resume the goroutine: the index's on-disk state
// is left to the next reindex to repair rather than risked on whatever
// invariant the panic broke.
func HandlePanic(log *logs.Logger, goroutineStackTrace []byte) {
	err := recover()
	if err == nil {
		return
	}
	atomic.AddUint64(&count, 1)

	done := make(chan struct{})
	go func() {
		log.Criticalf("dagindexd: fatal error: %+v", err)
		if goroutineStackTrace != nil {
			log.Criticalf("dagindexd: goroutine stack trace: %s", goroutineStackTrace)
		}
		log.Criticalf("dagindexd: stack trace: %s", debug.Stack())
		log.Backend().Close()
		close(done)
	}()

	select {
	case <-time.After(shutdownGracePeriod):
		fmt.Fprintln(os.Stderr, "dagindexd: couldn't flush logs after a fatal error, exiting anyway")
	case <-done:
	}
	log.Criticalf("dagindexd: exiting after panic")
	os.Exit(1)
}

// GoroutineWrapperFunc returns a launcher that runs f in a new goroutine
// with HandlePanic deferred, so a panic in f is recorded and fatal to the
// process rather than silently killing only that goroutine.
func GoroutineWrapperFunc(log *logs.Logger) func(func()) {
	return func(f func()) {
		stackTrace := debug.Stack()
		go func() {
			defer HandlePanic(log, stackTrace)
			f()
		}()
	}
}

// AfterFuncWrapperFunc returns a time.AfterFunc wrapper whose callback is
// guarded by HandlePanic the same way GoroutineWrapperFunc guards a plain
// goroutine launch.
func AfterFuncWrapperFunc(log *logs.Logger) func(d time.Duration, f func()) *time.Timer {
	return func(d time.Duration, f func()) *time.Timer {
		stackTrace := debug.Stack()
		return time.AfterFunc(d, func() {
			defer HandlePanic(log, stackTrace)
			f()
		})
	}
}

// Exit logs reason at critical level, waits up to shutdownGracePeriod for
// the log backend to flush, and terminates the process, reporting a fatal
// exit that is not a recovered panic the same way HandlePanic reports one.
// Nothing in this repository calls it.
func Exit(log *logs.Logger, reason string) {
	done := make(chan struct{})
	go func() {
		log.Criticalf("dagindexd: exiting: %s", reason)
		log.Backend().Close()
		close(done)
	}()

	select {
	case <-time.After(shutdownGracePeriod):
		fmt.Fprintln(os.Stderr, "dagindexd: couldn't exit gracefully")
	case <-done:
	}
	os.Exit(1)
}
