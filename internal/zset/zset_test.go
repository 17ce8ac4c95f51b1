package zset

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertOrUpdateAndScoreOf(t *testing.T) {
	z := New()
	assert.True(t, z.InsertOrUpdate("alice", 5))
	assert.False(t, z.InsertOrUpdate("alice", 10))
	score, ok := z.ScoreOf("alice")
	require.True(t, ok)
	assert.Equal(t, 10.0, score)
}

func TestDelete(t *testing.T) {
	z := New()
	z.InsertOrUpdate("a", 1)
	assert.True(t, z.Delete("a"))
	assert.False(t, z.Delete("a"))
	_, ok := z.ScoreOf("a")
	assert.False(t, ok)
}

func TestRankOrdersByScoreThenKey(t *testing.T) {
	z := New()
	z.InsertOrUpdate("b", 1)
	z.InsertOrUpdate("a", 1)
	z.InsertOrUpdate("c", 2)

	rb, _ := z.RankOf("b")
	ra, _ := z.RankOf("a")
	rc, _ := z.RankOf("c")
	assert.Equal(t, 0, ra)
	assert.Equal(t, 1, rb)
	assert.Equal(t, 2, rc)
}

func TestPromotionToSkiplist(t *testing.T) {
	z := New()
	for i := 0; i < 200; i++ {
		z.InsertOrUpdate(fmt.Sprintf("m%04d", i), float64(i))
	}
	assert.Equal(t, EncodingSkiplist, z.Encoding())
	assert.Equal(t, 200, z.Size())

	r, ok := z.RankOf("m0000")
	require.True(t, ok)
	assert.Equal(t, 0, r)
}

func TestRangeByRankBothEncodings(t *testing.T) {
	for _, n := range []int{10, 200} {
		z := New()
		for i := 0; i < n; i++ {
			z.InsertOrUpdate(fmt.Sprintf("m%04d", i), float64(i))
		}
		got := z.RangeByRank(RankRange{Min: 0, Max: 2, Limit: Limit{Count: -1}})
		require.Len(t, got, 3)
		assert.Equal(t, "m0000", got[0].Key)
		assert.Equal(t, "m0002", got[2].Key)
	}
}

func TestRangeByScoreInclusiveAndExclusive(t *testing.T) {
	z := New()
	z.InsertOrUpdate("a", 1)
	z.InsertOrUpdate("b", 2)
	z.InsertOrUpdate("c", 2)
	z.InsertOrUpdate("d", 3)

	got := z.RangeByScore(RangeByScoreSpec{Min: 1, Max: 3, Limit: Limit{Count: -1}})
	require.Len(t, got, 4)

	got = z.RangeByScore(RangeByScoreSpec{Min: 1, Max: 3, MinEx: true, MaxEx: true, Limit: Limit{Count: -1}})
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Key)
	assert.Equal(t, "c", got[1].Key)
}

func TestRangeByScoreUnbounded(t *testing.T) {
	z := New()
	z.InsertOrUpdate("a", -10)
	z.InsertOrUpdate("b", 0)
	z.InsertOrUpdate("c", 10)
	got := z.RangeByScore(RangeByScoreSpec{Min: math.Inf(-1), Max: math.Inf(1), Limit: Limit{Count: -1}})
	assert.Len(t, got, 3)
}

func TestCountWithinScoreRange(t *testing.T) {
	z := New()
	for i := 0; i < 300; i++ {
		z.InsertOrUpdate(fmt.Sprintf("m%04d", i), float64(i))
	}
	n := z.Count(RangeByScoreSpec{Min: 10, Max: 20})
	assert.Equal(t, 11, n)
}
