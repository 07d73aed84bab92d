// Package ranker maintains the bounded top-K of matched items by score.
package ranker

import (
	"container/heap"
	"sort"

	"github.com/entrepeneur4lyf/sift/internal/matcher"
)

type entry struct {
	matcher.MatchedItem
	seq uint64
}

// matchHeap is a min-heap whose root is the current worst entry: lowest
// score, and among equal scores the latest arrival, so that replacement
// evicts newcomers first and the earlier-submitted item keeps its rank.
type matchHeap []entry

func (h matchHeap) Len() int { return len(h) }

func (h matchHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].seq > h[j].seq
}

func (h matchHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *matchHeap) Push(x any) { *h = append(*h, x.(entry)) }

func (h *matchHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Ranker keeps at most Cap entries. Not safe for concurrent use; the
// parallel driver wraps it in its own lock.
type Ranker struct {
	cap int
	h   matchHeap
	seq uint64
}

// New returns a Ranker bounded at cap entries. cap must be positive.
func New(cap int) *Ranker {
	return &Ranker{cap: cap, h: make(matchHeap, 0, cap)}
}

// Len reports how many entries are currently held.
func (r *Ranker) Len() int { return len(r.h) }

// Cap reports the bound.
func (r *Ranker) Cap() int { return r.cap }

// Add offers an item. It reports whether the item was accepted: always
// while under capacity, otherwise only when it strictly beats the
// current minimum. An incoming item that merely ties the minimum loses.
func (r *Ranker) Add(item matcher.MatchedItem) bool {
	e := entry{MatchedItem: item, seq: r.seq}
	r.seq++
	if len(r.h) < r.cap {
		heap.Push(&r.h, e)
		return true
	}
	if item.Score <= r.h[0].Score {
		return false
	}
	r.h[0] = e
	heap.Fix(&r.h, 0)
	return true
}

// Sorted snapshots the current entries in rank order: score descending,
// earlier submission first on ties. The ranker is left untouched.
func (r *Ranker) Sorted() []matcher.MatchedItem {
	entries := make([]entry, len(r.h))
	copy(entries, r.h)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].seq < entries[j].seq
	})
	out := make([]matcher.MatchedItem, len(entries))
	for i, e := range entries {
		out[i] = e.MatchedItem
	}
	return out
}

// SortAll rank-orders a fully collected match set in place and returns
// it. Used by the synchronous driver, where memory is already bounded by
// the source itself. The sort is stable so equal scores keep their
// submission order.
func SortAll(items []matcher.MatchedItem) []matcher.MatchedItem {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	return items
}
