// Package zset implements the polymorphic sorted-set value type: a small
// listpack form (adjacent key,score entries sorted by score then key) promoted once
// to a skiplist+dict form once it grows past the small-set threshold. There
// is no demotion.
package zset

import (
	"strconv"
	"strings"

	"github.com/armandparser/goredis/internal/dict"
	"github.com/armandparser/goredis/internal/listpack"
	"github.com/armandparser/goredis/internal/skiplist"
)

// Encoding identifies the current backing representation.
type Encoding uint8

const (
	EncodingListPack Encoding = iota
	EncodingSkiplist
)

const promoteThreshold = 128

// maxKeySentinel sorts after any realistic member key; used to collapse
// equal-score ties at an exclusive range boundary (see RangeByScore).
var maxKeySentinel = strings.Repeat("\xff", 256)

// member is the (score,key) composite ordering key used by the skiplist
// form: score ascending, then key byte-lexicographically ascending. Go's
// string comparison is already byte-wise, matching the spec's
// byte-lexicographic (non-Unicode-aware) collation requirement with no
// extra dependency.
type member struct {
	score float64
	key   string
}

func compareMember(a, b member) int {
	switch {
	case a.score < b.score:
		return -1
	case a.score > b.score:
		return 1
	case a.key < b.key:
		return -1
	case a.key > b.key:
		return 1
	default:
		return 0
	}
}

// ZSet is a polymorphic ordered set of (key,score) pairs.
type ZSet struct {
	enc Encoding
	lp  *listpack.ListPack

	byKey *dict.Dict[string, float64]
	order *skiplist.Skiplist[member]
}

// New creates an empty zset in the small (listpack) form.
func New() *ZSet {
	return &ZSet{enc: EncodingListPack, lp: listpack.New()}
}

// Encoding reports the current backing.
func (z *ZSet) Encoding() Encoding { return z.enc }

// Size returns the number of members.
func (z *ZSet) Size() int {
	if z.enc == EncodingListPack {
		return z.lp.Size() / 2
	}
	return z.byKey.Size()
}

func formatScore(s float64) string {
	return strconv.FormatFloat(s, 'g', -1, 64)
}

func (z *ZSet) promote() {
	byKey := dict.NewStringDict[float64]()
	order := skiplist.New(compareMember)

	idx := z.lp.First()
	for idx != -1 {
		kv, _ := z.lp.Get(idx)
		key := string(kv.Bytes())
		idx = z.lp.Next(idx)
		sv, _ := z.lp.Get(idx)
		idx = z.lp.Next(idx)

		score, _ := strconv.ParseFloat(string(sv.Bytes()), 64)
		byKey.Add(key, score)
		order.Insert(member{score: score, key: key})
	}

	z.byKey = byKey
	z.order = order
	z.lp = nil
	z.enc = EncodingSkiplist
}

// listPackFind locates the key's (key,score) pair and returns the key
// entry's offset, its current score, and whether it was found.
func (z *ZSet) listPackFind(key string) (int, float64, bool) {
	idx, found := z.lp.Find([]byte(key), 1)
	if !found {
		return -1, 0, false
	}
	scoreIdx := z.lp.Next(idx)
	sv, _ := z.lp.Get(scoreIdx)
	score, _ := strconv.ParseFloat(string(sv.Bytes()), 64)
	return idx, score, true
}

func (z *ZSet) listPackDelete(keyIdx int) {
	scoreIdx := z.lp.Next(keyIdx)
	z.lp.Delete(scoreIdx)
	z.lp.Delete(keyIdx)
}

func (z *ZSet) listPackInsertSorted(key string, score float64) {
	target := member{score: score, key: key}
	idx := z.lp.First()
	for idx != -1 {
		kv, _ := z.lp.Get(idx)
		scoreIdx := z.lp.Next(idx)
		sv, _ := z.lp.Get(scoreIdx)
		existingScore, _ := strconv.ParseFloat(string(sv.Bytes()), 64)
		existing := member{score: existingScore, key: string(kv.Bytes())}
		if compareMember(target, existing) < 0 {
			z.lp.InsertBytesBefore(idx, []byte(key))
			keyIdx := idx
			scoreIdx2 := z.lp.Next(keyIdx)
			// InsertBytesBefore shifted everything after idx; insert score
			// right after the just-inserted key entry.
			_, _ = z.lp.InsertBytesBefore(scoreIdx2, []byte(formatScore(score)))
			return
		}
		idx = z.lp.Next(scoreIdx)
	}
	// Append at the end.
	z.lp.AppendBytes([]byte(key))
	z.lp.AppendBytes([]byte(formatScore(score)))
}

// InsertOrUpdate sets key's score, inserting it if absent or repositioning
// it if the score changed. Returns true iff key was newly inserted.
func (z *ZSet) InsertOrUpdate(key string, score float64) bool {
	var inserted bool
	switch z.enc {
	case EncodingListPack:
		if idx, oldScore, found := z.listPackFind(key); found {
			if oldScore != score {
				z.listPackDelete(idx)
				z.listPackInsertSorted(key, score)
			}
			inserted = false
		} else {
			z.listPackInsertSorted(key, score)
			inserted = true
		}
	default:
		if oldScore, found := z.byKey.Find(key); found {
			if oldScore != score {
				z.order.Delete(member{score: oldScore, key: key})
				z.order.Insert(member{score: score, key: key})
				z.byKey.Replace(key, score)
			}
			inserted = false
		} else {
			z.byKey.Add(key, score)
			z.order.Insert(member{score: score, key: key})
			inserted = true
		}
	}

	if inserted && z.enc == EncodingListPack && z.Size() > promoteThreshold {
		z.promote()
	}
	return inserted
}

// Delete removes key, reporting whether it was present.
func (z *ZSet) Delete(key string) bool {
	switch z.enc {
	case EncodingListPack:
		idx, _, found := z.listPackFind(key)
		if !found {
			return false
		}
		z.listPackDelete(idx)
		return true
	default:
		score, found := z.byKey.Find(key)
		if !found {
			return false
		}
		z.byKey.Delete(key)
		z.order.Delete(member{score: score, key: key})
		return true
	}
}

// ScoreOf returns key's score.
func (z *ZSet) ScoreOf(key string) (float64, bool) {
	if z.enc == EncodingListPack {
		_, score, found := z.listPackFind(key)
		return score, found
	}
	return z.byKey.Find(key)
}

// RankOf returns key's 0-based rank in ascending (score,key) order.
func (z *ZSet) RankOf(key string) (int, bool) {
	switch z.enc {
	case EncodingListPack:
		_, score, found := z.listPackFind(key)
		if !found {
			return 0, false
		}
		rank := 0
		idx := z.lp.First()
		for idx != -1 {
			kv, _ := z.lp.Get(idx)
			scoreIdx := z.lp.Next(idx)
			sv, _ := z.lp.Get(scoreIdx)
			s, _ := strconv.ParseFloat(string(sv.Bytes()), 64)
			if string(kv.Bytes()) == key && s == score {
				return rank, true
			}
			rank++
			idx = z.lp.Next(scoreIdx)
		}
		return 0, false
	default:
		score, found := z.byKey.Find(key)
		if !found {
			return 0, false
		}
		r := z.order.RankOf(member{score: score, key: key})
		if r < 0 {
			return 0, false
		}
		return r, true
	}
}

// orderedMembers returns the full ordered member list, building it for the
// listpack form (which has no index structure) or delegating to the
// skiplist for the large form.
func (z *ZSet) orderedMembers() []member {
	if z.enc == EncodingSkiplist {
		out := make([]member, 0, z.order.Size())
		k, ok := z.order.First()
		for ok {
			out = append(out, k)
			r := z.order.RankOf(k) + 1
			k, ok = z.order.AtRank(r)
		}
		return out
	}
	out := make([]member, 0, z.Size())
	idx := z.lp.First()
	for idx != -1 {
		kv, _ := z.lp.Get(idx)
		scoreIdx := z.lp.Next(idx)
		sv, _ := z.lp.Get(scoreIdx)
		s, _ := strconv.ParseFloat(string(sv.Bytes()), 64)
		out = append(out, member{score: s, key: string(kv.Bytes())})
		idx = z.lp.Next(scoreIdx)
	}
	return out
}

// RankRange mirrors skiplist.RankRange for the polymorphic zset.
type RankRange = skiplist.RankRange

// Limit mirrors skiplist.Limit.
type Limit = skiplist.Limit

// RangeByRank returns (key,score) pairs within spec.
func (z *ZSet) RangeByRank(spec RankRange) []KeyScore {
	if z.enc == EncodingSkiplist {
		ms := z.order.RangeByRank(spec)
		out := make([]KeyScore, len(ms))
		for i, m := range ms {
			out[i] = KeyScore{Key: m.key, Score: m.score}
		}
		return out
	}
	all := z.orderedMembers()
	size := len(all)
	min, max := rebase(spec.Min, size), rebase(spec.Max, size)
	if spec.MinEx {
		min++
	}
	if spec.MaxEx {
		max--
	}
	if min < 0 {
		min = 0
	}
	if max > size-1 {
		max = size - 1
	}
	if min > max {
		return nil
	}
	window := all[min : max+1]
	if spec.Reverse {
		reversed := make([]member, len(window))
		for i, m := range window {
			reversed[len(window)-1-i] = m
		}
		window = reversed
	}
	return applyLimit(window, spec.Limit)
}

func rebase(i, size int) int {
	if i < 0 {
		i += size
	}
	return i
}

func applyLimit(ms []member, l Limit) []KeyScore {
	out := make([]KeyScore, 0, len(ms))
	skipped := 0
	for _, m := range ms {
		if skipped < l.Offset {
			skipped++
			continue
		}
		if l.Count >= 0 && len(out) >= l.Count {
			break
		}
		out = append(out, KeyScore{Key: m.key, Score: m.score})
	}
	return out
}

// KeyScore is one (member,score) result pair.
type KeyScore struct {
	Key   string
	Score float64
}

// RangeByScoreSpec selects members by score bound; Min/Max accept ±Inf via
// math.Inf(±1) to mean unbounded.
type RangeByScoreSpec struct {
	Min, Max     float64
	MinEx, MaxEx bool
	Limit        Limit
	Reverse      bool
}

// RangeByScore returns (key,score) pairs within spec. Exclusive score
// boundaries collapse every tie at that score by pinning the composite
// boundary's key component to an extremal sentinel (see maxKeySentinel).
func (z *ZSet) RangeByScore(spec RangeByScoreSpec) []KeyScore {
	if z.enc == EncodingSkiplist {
		kr := skiplist.KeyRange[member]{
			Limit:   spec.Limit,
			Reverse: spec.Reverse,
		}
		if isNegInf(spec.Min) {
			kr.NoMin = true
		} else {
			kr.Min = member{score: spec.Min, key: ""}
			if spec.MinEx {
				kr.Min.key = maxKeySentinel
			}
		}
		if isPosInf(spec.Max) {
			kr.NoMax = true
		} else {
			kr.Max = member{score: spec.Max, key: maxKeySentinel}
			if spec.MaxEx {
				kr.Max.key = ""
			}
		}
		ms := z.order.RangeByKey(kr)
		out := make([]KeyScore, len(ms))
		for i, m := range ms {
			out[i] = KeyScore{Key: m.key, Score: m.score}
		}
		return out
	}

	all := z.orderedMembers()
	var window []member
	for _, m := range all {
		if !isNegInf(spec.Min) {
			if m.score < spec.Min || (spec.MinEx && m.score == spec.Min) {
				continue
			}
		}
		if !isPosInf(spec.Max) {
			if m.score > spec.Max || (spec.MaxEx && m.score == spec.Max) {
				continue
			}
		}
		window = append(window, m)
	}
	if spec.Reverse {
		reversed := make([]member, len(window))
		for i, m := range window {
			reversed[len(window)-1-i] = m
		}
		window = reversed
	}
	return applyLimit(window, spec.Limit)
}

func isNegInf(f float64) bool { return f < 0 && isInf(f) }
func isPosInf(f float64) bool { return f > 0 && isInf(f) }
func isInf(f float64) bool    { return f > 1e308 || f < -1e308 }

// Count returns the number of members whose score falls within spec.
func (z *ZSet) Count(spec RangeByScoreSpec) int {
	return len(z.RangeByScore(RangeByScoreSpec{
		Min: spec.Min, Max: spec.Max, MinEx: spec.MinEx, MaxEx: spec.MaxEx,
		Limit: Limit{Count: -1},
	}))
}
