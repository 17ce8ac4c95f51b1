// Package skiplist implements an ordered, probabilistic skip list with
// span-indexed random access, the backing structure for the large-zset form
// and for any ordered index that needs O(log n) rank queries.
package skiplist

import "math/rand"

// MaxLevel is the hard cap on a node's level count.
const MaxLevel = 16

// p is the per-level promotion probability.
const p = 0.5

type level[K any] struct {
	next *node[K]
	span int
}

type node[K any] struct {
	key    K
	levels []level[K]
	prev   *node[K]
}

// Compare orders two keys: negative if a<b, zero if equal, positive if a>b.
type Compare[K any] func(a, b K) int

// Skiplist is an ordered list of unique keys (as determined by cmp) with
// O(log n) rank and random-access operations.
type Skiplist[K any] struct {
	header *node[K]
	tail   *node[K]
	level  int
	length int
	cmp    Compare[K]
}

// New creates an empty Skiplist ordered by cmp.
func New[K any](cmp Compare[K]) *Skiplist[K] {
	var zero K
	h := &node[K]{key: zero, levels: make([]level[K], MaxLevel)}
	return &Skiplist[K]{header: h, level: 1, cmp: cmp}
}

// Size returns the number of keys.
func (sl *Skiplist[K]) Size() int { return sl.length }

func randomLevel() int {
	lvl := 1
	for lvl < MaxLevel && rand.Float64() < p {
		lvl++
	}
	return lvl
}

// Insert adds k, assumed not already present (callers needing upsert
// semantics must Delete first). Returns the inserted node's rank.
func (sl *Skiplist[K]) Insert(k K) int {
	var update [MaxLevel]*node[K]
	var rank [MaxLevel]int

	x := sl.header
	for i := sl.level - 1; i >= 0; i-- {
		if i == sl.level-1 {
			rank[i] = 0
		} else {
			rank[i] = rank[i+1]
		}
		for x.levels[i].next != nil && sl.cmp(x.levels[i].next.key, k) < 0 {
			rank[i] += x.levels[i].span
			x = x.levels[i].next
		}
		update[i] = x
	}

	lvl := randomLevel()
	if lvl > sl.level {
		for i := sl.level; i < lvl; i++ {
			rank[i] = 0
			update[i] = sl.header
			update[i].levels[i].span = sl.length
		}
		sl.level = lvl
	}

	nn := &node[K]{key: k, levels: make([]level[K], lvl)}
	for i := 0; i < lvl; i++ {
		nn.levels[i].next = update[i].levels[i].next
		update[i].levels[i].next = nn
		nn.levels[i].span = update[i].levels[i].span - (rank[0] - rank[i])
		update[i].levels[i].span = (rank[0] - rank[i]) + 1
	}
	for i := lvl; i < sl.level; i++ {
		update[i].levels[i].span++
	}

	if update[0] == sl.header {
		nn.prev = nil
	} else {
		nn.prev = update[0]
	}
	if nn.levels[0].next != nil {
		nn.levels[0].next.prev = nn
	} else {
		sl.tail = nn
	}
	sl.length++
	return rank[0]
}

func (sl *Skiplist[K]) search(k K) (x *node[K], update [MaxLevel]*node[K]) {
	x = sl.header
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].next != nil && sl.cmp(x.levels[i].next.key, k) < 0 {
			x = x.levels[i].next
		}
		update[i] = x
	}
	return x, update
}

// Contains reports whether k is present.
func (sl *Skiplist[K]) Contains(k K) bool {
	x, _ := sl.search(k)
	cand := x.levels[0].next
	return cand != nil && sl.cmp(cand.key, k) == 0
}

// Delete removes k, reporting whether it was present.
func (sl *Skiplist[K]) Delete(k K) bool {
	x, update := sl.search(k)
	target := x.levels[0].next
	if target == nil || sl.cmp(target.key, k) != 0 {
		return false
	}
	sl.deleteNode(target, update)
	return true
}

func (sl *Skiplist[K]) deleteNode(x *node[K], update [MaxLevel]*node[K]) {
	for i := 0; i < sl.level; i++ {
		if update[i].levels[i].next == x {
			update[i].levels[i].span += x.levels[i].span - 1
			update[i].levels[i].next = x.levels[i].next
		} else {
			update[i].levels[i].span--
		}
	}
	if x.levels[0].next != nil {
		x.levels[0].next.prev = x.prev
	} else {
		sl.tail = x.prev
	}
	for sl.level > 1 && sl.header.levels[sl.level-1].next == nil {
		sl.level--
	}
	sl.length--
}

// Update removes k and reinserts k2 in one logical step (k2 may sort
// elsewhere); k must be present.
func (sl *Skiplist[K]) Update(k, k2 K) bool {
	if !sl.Delete(k) {
		return false
	}
	sl.Insert(k2)
	return true
}

// RankOf returns the 0-based rank of k, or -1 if absent.
func (sl *Skiplist[K]) RankOf(k K) int {
	x := sl.header
	rank := 0
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].next != nil && sl.cmp(x.levels[i].next.key, k) <= 0 {
			rank += x.levels[i].span
			if sl.cmp(x.levels[i].next.key, k) == 0 {
				return rank - 1
			}
			x = x.levels[i].next
		}
	}
	return -1
}

// AtRank returns the key at 0-based rank r; negative r counts from the end.
func (sl *Skiplist[K]) AtRank(r int) (K, bool) {
	if r < 0 {
		r += sl.length
	}
	if r < 0 || r >= sl.length {
		var zero K
		return zero, false
	}
	target := r + 1
	x := sl.header
	traversed := 0
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].next != nil && traversed+x.levels[i].span <= target {
			traversed += x.levels[i].span
			x = x.levels[i].next
		}
		if traversed == target {
			return x.key, true
		}
	}
	var zero K
	return zero, false
}

// First and Last return the smallest/largest key.
func (sl *Skiplist[K]) First() (K, bool) {
	if sl.length == 0 {
		var zero K
		return zero, false
	}
	return sl.header.levels[0].next.key, true
}

func (sl *Skiplist[K]) Last() (K, bool) {
	if sl.tail == nil {
		var zero K
		return zero, false
	}
	return sl.tail.key, true
}

// ForwardFrom iterates at level 0 from start, calling visit until it
// returns false or the list is exhausted.
func (sl *Skiplist[K]) ForwardFrom(start *node[K], visit func(K) bool) {
	for x := start; x != nil; x = x.levels[0].next {
		if !visit(x.key) {
			return
		}
	}
}

// Limit bounds a range: Offset skips that many qualifying entries; Count<0
// means unbounded.
type Limit struct {
	Offset int
	Count  int
}

// RankRange selects entries by 0-based rank, rebasing negative bounds
// against size; Min/Max are inclusive unless the matching ex flag is set.
type RankRange struct {
	Min, Max     int
	MinEx, MaxEx bool
	Limit        Limit
	Reverse      bool
}

func rebase(i, size int) int {
	if i < 0 {
		i += size
	}
	return i
}

// RangeByRank returns the keys within spec, rebasing and clamping bounds
// against the current size.
func (sl *Skiplist[K]) RangeByRank(spec RankRange) []K {
	size := sl.length
	min := rebase(spec.Min, size)
	max := rebase(spec.Max, size)
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
	if min > max || size == 0 {
		return nil
	}

	out := make([]K, 0, max-min+1)
	if !spec.Reverse {
		x := sl.nodeAtRank(min)
		count := max - min + 1
		skipped := 0
		for x != nil && count > 0 {
			if skipped < spec.Limit.Offset {
				skipped++
				x = x.levels[0].next
				count--
				continue
			}
			if spec.Limit.Count >= 0 && len(out) >= spec.Limit.Count {
				break
			}
			out = append(out, x.key)
			x = x.levels[0].next
			count--
		}
		return out
	}

	x := sl.nodeAtRank(max)
	count := max - min + 1
	skipped := 0
	for x != nil && count > 0 {
		if skipped < spec.Limit.Offset {
			skipped++
			x = x.prev
			count--
			continue
		}
		if spec.Limit.Count >= 0 && len(out) >= spec.Limit.Count {
			break
		}
		out = append(out, x.key)
		x = x.prev
		count--
	}
	return out
}

func (sl *Skiplist[K]) nodeAtRank(r int) *node[K] {
	if r < 0 || r >= sl.length {
		return nil
	}
	target := r + 1
	x := sl.header
	traversed := 0
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].next != nil && traversed+x.levels[i].span <= target {
			traversed += x.levels[i].span
			x = x.levels[i].next
		}
		if traversed == target {
			return x
		}
	}
	return nil
}

// KeyRange selects entries by key bound, with NoMin/NoMax standing in for
// ±∞ since K is not itself ordered against sentinels generically.
type KeyRange[K any] struct {
	Min, Max         K
	NoMin, NoMax     bool
	MinEx, MaxEx     bool
	Limit            Limit
	Reverse          bool
}

// firstQualifying returns the first node satisfying the lower bound.
func (sl *Skiplist[K]) firstQualifying(spec KeyRange[K]) *node[K] {
	if spec.NoMin {
		return sl.header.levels[0].next
	}
	x := sl.header
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].next != nil {
			c := sl.cmp(x.levels[i].next.key, spec.Min)
			if c < 0 || (c == 0 && spec.MinEx) {
				x = x.levels[i].next
			} else {
				break
			}
		}
	}
	return x.levels[0].next
}

// lastQualifying returns the last node satisfying the upper bound.
func (sl *Skiplist[K]) lastQualifying(spec KeyRange[K]) *node[K] {
	if spec.NoMax {
		return sl.tail
	}
	x := sl.header
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].next != nil {
			c := sl.cmp(x.levels[i].next.key, spec.Max)
			if c < 0 || (c == 0 && !spec.MaxEx) {
				x = x.levels[i].next
			} else {
				break
			}
		}
	}
	if x == sl.header {
		return nil
	}
	return x
}

func (sl *Skiplist[K]) inUpperBound(k K, spec KeyRange[K]) bool {
	if spec.NoMax {
		return true
	}
	c := sl.cmp(k, spec.Max)
	if spec.MaxEx {
		return c < 0
	}
	return c <= 0
}

func (sl *Skiplist[K]) inLowerBound(k K, spec KeyRange[K]) bool {
	if spec.NoMin {
		return true
	}
	c := sl.cmp(k, spec.Min)
	if spec.MinEx {
		return c > 0
	}
	return c >= 0
}

// RangeByKey returns the keys within [Min,Max] (respecting ex flags and
// ±∞ sentinels), honoring Limit and Reverse.
func (sl *Skiplist[K]) RangeByKey(spec KeyRange[K]) []K {
	var out []K
	skipped := 0
	if !spec.Reverse {
		start := sl.firstQualifying(spec)
		for x := start; x != nil && sl.inUpperBound(x.key, spec); x = x.levels[0].next {
			if skipped < spec.Limit.Offset {
				skipped++
				continue
			}
			if spec.Limit.Count >= 0 && len(out) >= spec.Limit.Count {
				break
			}
			out = append(out, x.key)
		}
		return out
	}

	end := sl.lastQualifying(spec)
	for x := end; x != nil && sl.inLowerBound(x.key, spec); x = x.prev {
		if skipped < spec.Limit.Offset {
			skipped++
			continue
		}
		if spec.Limit.Count >= 0 && len(out) >= spec.Limit.Count {
			break
		}
		out = append(out, x.key)
	}
	return out
}

// Count returns the number of keys satisfying spec's bounds (ignoring
// Limit/Reverse, which only affect RangeByKey's output window).
func (sl *Skiplist[K]) Count(spec KeyRange[K]) int {
	start := sl.firstQualifying(spec)
	if start == nil || !sl.inUpperBound(start.key, spec) {
		return 0
	}
	end := sl.lastQualifying(spec)
	if end == nil {
		return 0
	}
	return sl.RankOf(end.key) - sl.RankOf(start.key) + 1
}

// SpanAt returns level i's span for the node holding k, for invariant
// tests; ok is false if k is absent.
func (sl *Skiplist[K]) SpanAt(k K, i int) (int, bool) {
	x := sl.header
	for lvl := sl.level - 1; lvl >= 0; lvl-- {
		for x.levels[lvl].next != nil && sl.cmp(x.levels[lvl].next.key, k) < 0 {
			x = x.levels[lvl].next
		}
	}
	cand := x.levels[0].next
	if cand == nil || sl.cmp(cand.key, k) != 0 {
		return 0, false
	}
	if i >= len(cand.levels) {
		return 0, false
	}
	return cand.levels[i].span, true
}
