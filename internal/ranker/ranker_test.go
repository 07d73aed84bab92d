package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrepeneur4lyf/sift/internal/matcher"
)

func item(text string, score int64) matcher.MatchedItem {
	return matcher.MatchedItem{Item: matcher.NewSourceItem(text), Score: score}
}

func texts(items []matcher.MatchedItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Item.DisplayText()
	}
	return out
}

func TestRankerBound(t *testing.T) {
	r := New(3)
	for i := int64(0); i < 10; i++ {
		r.Add(item("x", i))
	}
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []int64{9, 8, 7}, scores(r.Sorted()))
}

func scores(items []matcher.MatchedItem) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.Score
	}
	return out
}

func TestRankerRejectsBelowMin(t *testing.T) {
	r := New(2)
	require.True(t, r.Add(item("a", 10)))
	require.True(t, r.Add(item("b", 20)))
	assert.False(t, r.Add(item("c", 5)))
	assert.Equal(t, []string{"b", "a"}, texts(r.Sorted()))
}

func TestRankerTieBreakIncumbentWins(t *testing.T) {
	t.Run("at capacity an equal score is rejected", func(t *testing.T) {
		r := New(2)
		r.Add(item("first", 10))
		r.Add(item("second", 10))
		assert.False(t, r.Add(item("third", 10)))
		assert.Equal(t, []string{"first", "second"}, texts(r.Sorted()))
	})

	t.Run("under capacity earlier submission ranks higher", func(t *testing.T) {
		r := New(10)
		r.Add(item("first", 10))
		r.Add(item("second", 10))
		r.Add(item("higher", 20))
		assert.Equal(t, []string{"higher", "first", "second"}, texts(r.Sorted()))
	})

	t.Run("replacement evicts the worst entry only", func(t *testing.T) {
		r := New(2)
		r.Add(item("low", 1))
		r.Add(item("high", 100))
		require.True(t, r.Add(item("mid", 50)))
		assert.Equal(t, []string{"high", "mid"}, texts(r.Sorted()))
	})
}

func TestSortedLeavesRankerIntact(t *testing.T) {
	r := New(5)
	r.Add(item("a", 1))
	r.Add(item("b", 2))
	first := texts(r.Sorted())
	second := texts(r.Sorted())
	assert.Equal(t, first, second)
	assert.Equal(t, 2, r.Len())
}

func TestSortAllStable(t *testing.T) {
	items := []matcher.MatchedItem{
		item("a", 5), item("b", 9), item("c", 5), item("d", 9),
	}
	sorted := SortAll(items)
	assert.Equal(t, []string{"b", "d", "a", "c"}, texts(sorted))
}

// The streaming ranker must agree with full sort-then-truncate on any
// input: its contents are a prefix of the descending sort.
func TestRankerMatchesSortPrefix(t *testing.T) {
	inputs := []int64{4, 9, 1, 9, 7, 3, 8, 2, 8, 6, 0, 5}
	r := New(5)
	var all []matcher.MatchedItem
	for _, s := range inputs {
		mi := item("x", s)
		r.Add(mi)
		all = append(all, mi)
	}
	want := scores(SortAll(all))[:5]
	assert.Equal(t, want, scores(r.Sorted()))
}
