// Package filter runs fuzzy matching over a candidate source and emits
// display windows. Three drivers are provided: a synchronous collector,
// a single-threaded streaming driver, and a parallel streaming driver
// for sources cheap to drain in chunks.
package filter

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/entrepeneur4lyf/sift/internal/matcher"
	"github.com/entrepeneur4lyf/sift/internal/printer"
	"github.com/entrepeneur4lyf/sift/internal/ranker"
	"github.com/entrepeneur4lyf/sift/internal/source"
)

const (
	// emitInterval is the ceiling between two streaming emissions.
	emitInterval = 200 * time.Millisecond
	// emitThreshold forces an emission once this many new matches were
	// accepted since the last one.
	emitThreshold = 40
	// chunkSize is the unit of work distribution and the cancellation
	// check granularity.
	chunkSize = 1000
	// emitPoll is how often the parallel emitter re-evaluates the tick
	// policy.
	emitPoll = 20 * time.Millisecond
)

// Context carries the per-run display configuration shared by all three
// drivers. Running is shared with the owning session so Terminate can
// stop a driver between ticks.
type Context struct {
	Icon     printer.Icon
	Number   int
	Winwidth int
	Builder  *matcher.Builder
	Out      *printer.Writer

	running *atomic.Bool
}

// NewContext builds a Context with its own running flag, initially true.
func NewContext(icon printer.Icon, number, winwidth int, builder *matcher.Builder, out *printer.Writer) *Context {
	running := new(atomic.Bool)
	running.Store(true)
	return &Context{
		Icon:     icon,
		Number:   number,
		Winwidth: winwidth,
		Builder:  builder,
		Out:      out,
		running:  running,
	}
}

// ShareRunning replaces the context's running flag with one owned by the
// caller, typically the session's.
func (c *Context) ShareRunning(flag *atomic.Bool) { c.running = flag }

// Running reports whether the run should keep going.
func (c *Context) Running() bool { return c.running.Load() }

// Stop flips the running flag; in-flight drivers observe it at the next
// emit tick or chunk boundary.
func (c *Context) Stop() { c.running.Store(false) }

// SyncRun pulls the whole source into memory, matches every candidate,
// and prints the top window once. It returns when the source is
// exhausted.
func SyncRun(query string, c *Context, src source.Source) error {
	m := c.Builder.Build(query)
	st, err := src.Open(context.Background())
	if err != nil {
		return err
	}
	defer st.Close()

	var collected []matcher.MatchedItem
	for {
		item, ok := st.Next()
		if !ok {
			break
		}
		if mi, ok := m.Match(item); ok {
			collected = append(collected, mi)
		}
	}
	ranked := ranker.SortAll(collected)
	total := uint64(len(ranked))
	if len(ranked) > c.Number {
		ranked = ranked[:c.Number]
	}
	return c.Out.PrintSync(ranked, total, c.Winwidth, c.Icon)
}

func emitSnapshot(c *Context, rk *ranker.Ranker, totalMatched uint64) error {
	items := rk.Sorted()
	d := printer.Decorate(items, c.Winwidth, c.Icon)
	return c.Out.PrintProgress(d, totalMatched, totalMatched > uint64(len(items)))
}

// DynRun streams the source through the matcher on the calling
// goroutine, emitting progressive windows per the tick policy: 200 ms
// elapsed or 40 freshly accepted matches, whichever comes first, with
// the first window as soon as any match exists. The final window is
// emitted at exhaustion.
func DynRun(query string, c *Context, src source.Source) error {
	m := c.Builder.Build(query)
	st, err := src.Open(context.Background())
	if err != nil {
		return err
	}
	defer st.Close()

	rk := ranker.New(c.Number)
	var totalMatched uint64
	var processed uint64
	var fresh int
	var lastEmit time.Time

	for {
		if processed%chunkSize == 0 && !c.Running() {
			return nil
		}
		item, ok := st.Next()
		if !ok {
			break
		}
		processed++
		if mi, ok := m.Match(item); ok {
			totalMatched++
			if rk.Add(mi) {
				fresh++
			}
		}
		if fresh == 0 {
			continue
		}
		if lastEmit.IsZero() || fresh >= emitThreshold || time.Since(lastEmit) >= emitInterval {
			if !c.Running() {
				return nil
			}
			if err := emitSnapshot(c, rk, totalMatched); err != nil {
				return err
			}
			lastEmit = time.Now()
			fresh = 0
		}
	}
	if !c.Running() {
		return nil
	}
	return emitSnapshot(c, rk, totalMatched)
}

// ParDynRun distributes matching across a worker pool. A reader feeds
// FIFO chunks into a bounded channel, workers score them into a shared
// ranker behind a mutex, and an emitter publishes windows on the same
// tick policy as DynRun.
func ParDynRun(query string, c *Context, psrc source.ParSource) error {
	m := c.Builder.Build(query)
	st, err := psrc.Open(context.Background())
	if err != nil {
		return err
	}

	chunks := make(chan []matcher.Item, workerCount())

	// Reader: chunk boundaries double as cancellation checks; closing
	// the stream reaps any child process.
	go func() {
		defer close(chunks)
		defer st.Close()
		for c.Running() {
			chunk := make([]matcher.Item, 0, chunkSize)
			for len(chunk) < chunkSize {
				item, ok := st.Next()
				if !ok {
					break
				}
				chunk = append(chunk, item)
			}
			if len(chunk) == 0 {
				return
			}
			chunks <- chunk
		}
	}()

	var (
		mu           sync.Mutex
		rk           = ranker.New(c.Number)
		totalMatched atomic.Uint64
		accepted     atomic.Uint64
	)

	workers := newWorkerPool()
	for i := 0; i < workerCount(); i++ {
		workers.Go(func() {
			for chunk := range chunks {
				if !c.Running() {
					continue // keep draining so the reader never blocks
				}
				matched := make([]matcher.MatchedItem, 0, len(chunk))
				for _, item := range chunk {
					if mi, ok := m.Match(item); ok {
						matched = append(matched, mi)
					}
				}
				if len(matched) == 0 {
					continue
				}
				totalMatched.Add(uint64(len(matched)))
				mu.Lock()
				var fresh uint64
				for _, mi := range matched {
					if rk.Add(mi) {
						fresh++
					}
				}
				mu.Unlock()
				accepted.Add(fresh)
			}
		})
	}

	done := make(chan struct{})
	emitterStopped := make(chan struct{})
	go func() {
		defer close(emitterStopped)
		ticker := time.NewTicker(emitPoll)
		defer ticker.Stop()
		var emittedAt uint64
		var lastEmit time.Time
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
			}
			if !c.Running() {
				return
			}
			acc := accepted.Load()
			if acc == emittedAt {
				continue
			}
			first := lastEmit.IsZero()
			if !first && acc-emittedAt < emitThreshold && time.Since(lastEmit) < emitInterval {
				continue
			}
			mu.Lock()
			items := rk.Sorted()
			mu.Unlock()
			d := printer.Decorate(items, c.Winwidth, c.Icon)
			total := totalMatched.Load()
			_ = c.Out.PrintProgress(d, total, total > uint64(len(items)))
			emittedAt = acc
			lastEmit = time.Now()
		}
	}()

	workers.Wait()
	close(done)
	<-emitterStopped

	if !c.Running() {
		return nil
	}
	mu.Lock()
	defer mu.Unlock()
	return emitSnapshot(c, rk, totalMatched.Load())
}
