// Package assets loads files off the render goroutine and hands the results
// back to it.
package assets

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Loader runs each request on its own goroutine. Successful results are
// queued as completions and only delivered by Poll, so completion handlers
// run on whichever goroutine owns the scene.
type Loader struct {
	completions chan func()
	wg          sync.WaitGroup
	pending     atomic.Int32
}

// QueueSize bounds the completions waiting for Poll.
const QueueSize = 32

func NewLoader() *Loader {
	return &Loader{completions: make(chan func(), QueueSize)}
}

// Request starts load in the background. On success onLoad is queued for
// the next Poll; on failure the error is logged at debug level and nothing
// is queued.
func Request[T any](l *Loader, name string, load func() (T, error), onLoad func(T)) {
	l.pending.Add(1)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		start := time.Now()
		v, err := load()
		if err != nil {
			l.pending.Add(-1)
			slog.Debug("asset load failed", "asset", name, "err", err)
			return
		}
		slog.Debug("asset loaded", "asset", name, "took", time.Since(start))
		l.completions <- func() { onLoad(v) }
	}()
}

// Poll runs every queued completion on the calling goroutine without
// blocking and returns how many ran.
func (l *Loader) Poll() int {
	n := 0
	for {
		select {
		case fn := <-l.completions:
			l.pending.Add(-1)
			fn()
			n++
		default:
			return n
		}
	}
}

// Pending counts requests that have neither failed nor been delivered.
func (l *Loader) Pending() int {
	return int(l.pending.Load())
}

// Wait blocks until every load goroutine has finished or queued its
// completion. Completions still need a Poll. At most QueueSize results can
// wait in the queue before loaders block on it.
func (l *Loader) Wait() {
	l.wg.Wait()
}
