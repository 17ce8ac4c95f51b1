package skiplist

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intCmp(a, b int) int { return a - b }

func TestInsertContainsDelete(t *testing.T) {
	sl := New(intCmp)
	for _, v := range []int{5, 3, 8, 1, 9} {
		sl.Insert(v)
	}
	assert.Equal(t, 5, sl.Size())
	assert.True(t, sl.Contains(8))
	assert.False(t, sl.Contains(100))

	assert.True(t, sl.Delete(8))
	assert.False(t, sl.Contains(8))
	assert.False(t, sl.Delete(8))
}

func TestOrderedIteration(t *testing.T) {
	sl := New(intCmp)
	values := []int{50, 10, 40, 20, 30}
	for _, v := range values {
		sl.Insert(v)
	}
	var out []int
	k, ok := sl.First()
	for ok {
		out = append(out, k)
		k, ok = sl.AtRank(sl.RankOf(k) + 1)
	}
	assert.Equal(t, []int{10, 20, 30, 40, 50}, out)
}

func TestRankOfAndAtRank(t *testing.T) {
	sl := New(intCmp)
	for i := 0; i < 100; i++ {
		sl.Insert(i * 2)
	}
	for i := 0; i < 100; i++ {
		r := sl.RankOf(i * 2)
		require.Equal(t, i, r)
		v, ok := sl.AtRank(r)
		require.True(t, ok)
		assert.Equal(t, i*2, v)
	}
	// negative rank counts from the end
	last, ok := sl.AtRank(-1)
	require.True(t, ok)
	assert.Equal(t, 198, last)
}

func TestSpanInvariant(t *testing.T) {
	sl := New(intCmp)
	n := 200
	for i := 0; i < n; i++ {
		sl.Insert(i)
	}
	for i := 0; i < n; i++ {
		rank := sl.RankOf(i)
		for lvl := 0; lvl < 1; lvl++ {
			span, ok := sl.SpanAt(i, lvl)
			require.True(t, ok)
			// at level 0 every span must be exactly 1 (or reach to end).
			if rank < n-1 {
				assert.Equal(t, 1, span)
			}
		}
	}
}

func TestRangeByRank(t *testing.T) {
	sl := New(intCmp)
	for i := 0; i < 10; i++ {
		sl.Insert(i)
	}
	out := sl.RangeByRank(RankRange{Min: 2, Max: 5, Limit: Limit{Count: -1}})
	assert.Equal(t, []int{2, 3, 4, 5}, out)

	out = sl.RangeByRank(RankRange{Min: -3, Max: -1, Limit: Limit{Count: -1}})
	assert.Equal(t, []int{7, 8, 9}, out)

	out = sl.RangeByRank(RankRange{Min: 0, Max: -1, Reverse: true, Limit: Limit{Count: 3}})
	assert.Equal(t, []int{9, 8, 7}, out)
}

func TestRangeByKey(t *testing.T) {
	sl := New(intCmp)
	for i := 0; i < 20; i += 2 {
		sl.Insert(i)
	}
	out := sl.RangeByKey(KeyRange[int]{Min: 4, Max: 12, Limit: Limit{Count: -1}})
	assert.Equal(t, []int{4, 6, 8, 10, 12}, out)

	out = sl.RangeByKey(KeyRange[int]{Min: 4, Max: 12, MinEx: true, MaxEx: true, Limit: Limit{Count: -1}})
	assert.Equal(t, []int{6, 8, 10}, out)

	out = sl.RangeByKey(KeyRange[int]{NoMin: true, NoMax: true, Reverse: true, Limit: Limit{Count: 3}})
	assert.Equal(t, []int{18, 16, 14}, out)
}

func TestCount(t *testing.T) {
	sl := New(intCmp)
	for i := 0; i < 50; i++ {
		sl.Insert(i)
	}
	n := sl.Count(KeyRange[int]{Min: 10, Max: 20, Limit: Limit{Count: -1}})
	assert.Equal(t, 11, n)
}

func TestUpdateMovesNode(t *testing.T) {
	sl := New(intCmp)
	sl.Insert(1)
	sl.Insert(2)
	sl.Insert(3)
	require.True(t, sl.Update(2, 10))
	assert.False(t, sl.Contains(2))
	assert.True(t, sl.Contains(10))
	last, _ := sl.Last()
	assert.Equal(t, 10, last)
}

func TestLargeRandomizedInsertKeepsOrder(t *testing.T) {
	sl := New(intCmp)
	present := map[int]bool{}
	for i := 0; i < 500; i++ {
		v := (i * 37) % 1000
		if !present[v] {
			sl.Insert(v)
			present[v] = true
		}
	}
	var out []int
	k, ok := sl.First()
	for ok {
		out = append(out, k)
		nr := sl.RankOf(k) + 1
		k, ok = sl.AtRank(nr)
	}
	for i := 1; i < len(out); i++ {
		assert.Less(t, out[i-1], out[i])
	}
	assert.Equal(t, fmt.Sprint(len(present)), fmt.Sprint(sl.Size()))
}
