// Package dict implements a generic hash table with incremental rehashing,
// modeled on the keyspace map the core keeps key-object data in.
package dict

import "math/bits"

const (
	initialExponent = 2 // minimum table capacity is 1<<2 = 4 buckets
	loadFactor      = 2.0
	emptyVisitCap   = 10 // bounded allowance for walking empty buckets during a rehash step
)

// entry is one chained bucket slot.
type entry[K comparable, V any] struct {
	key  K
	val  V
	next *entry[K, V]
}

type table[K comparable, V any] struct {
	buckets  []*entry[K, V]
	exponent uint
	used     int
}

func newTable[K comparable, V any](exponent uint) *table[K, V] {
	return &table[K, V]{
		buckets:  make([]*entry[K, V], 1<<exponent),
		exponent: exponent,
	}
}

func (t *table[K, V]) mask() uint64 {
	return uint64(len(t.buckets) - 1)
}

// Dict is a map[K]V with amortized O(1) operations and incremental rehash.
// The hash function is supplied by the caller and keys are compared with
// ==; there is no reflection-based
// default, matching the spec's "customization points are optional, sensible
// defaults apply when the key has a natural hash" only for the concrete
// instantiations this module provides (see NewStringDict).
type Dict[K comparable, V any] struct {
	ht        [2]*table[K, V]
	rehashIdx int // -1 means not rehashing
	pauseDepth int
	hash      func(K) uint64
}

// New creates an empty Dict using hash as the key hash function.
func New[K comparable, V any](hash func(K) uint64) *Dict[K, V] {
	d := &Dict[K, V]{
		rehashIdx: -1,
		hash:      hash,
	}
	d.ht[0] = newTable[K, V](initialExponent)
	d.ht[1] = nil
	return d
}

func (d *Dict[K, V]) isRehashing() bool { return d.rehashIdx >= 0 }

// Size returns used[0]+used[1].
func (d *Dict[K, V]) Size() int {
	n := d.ht[0].used
	if d.ht[1] != nil {
		n += d.ht[1].used
	}
	return n
}

// PauseRehash suppresses rehash steps until ResumeRehash is called the same
// number of times; used by Scan so iteration does not miss entries.
func (d *Dict[K, V]) PauseRehash()  { d.pauseDepth++ }
func (d *Dict[K, V]) ResumeRehash() {
	if d.pauseDepth > 0 {
		d.pauseDepth--
	}
}

func (d *Dict[K, V]) maybeStartRehash() {
	if d.isRehashing() {
		return
	}
	t0 := d.ht[0]
	if float64(t0.used)/float64(len(t0.buckets)) < loadFactor {
		return
	}
	targetExp := uint(bits.Len(uint(t0.used + 1)))
	if targetExp < initialExponent {
		targetExp = initialExponent
	}
	d.ht[1] = newTable[K, V](targetExp)
	d.rehashIdx = 0
}

// rehashStep walks at most one non-empty bucket of ht[0] into ht[1], with a
// bounded allowance for skipping empty buckets along the way.
func (d *Dict[K, V]) rehashStep() {
	if !d.isRehashing() || d.pauseDepth > 0 {
		return
	}
	t0, t1 := d.ht[0], d.ht[1]
	empties := 0
	for d.rehashIdx < len(t0.buckets) && t0.buckets[d.rehashIdx] == nil {
		d.rehashIdx++
		empties++
		if empties >= emptyVisitCap {
			return
		}
	}
	if d.rehashIdx >= len(t0.buckets) {
		d.finishRehash()
		return
	}
	// Move every entry of this bucket to ht[1].
	e := t0.buckets[d.rehashIdx]
	t0.buckets[d.rehashIdx] = nil
	for e != nil {
		next := e.next
		idx := d.hash(e.key) & t1.mask()
		e.next = t1.buckets[idx]
		t1.buckets[idx] = e
		t0.used--
		t1.used++
		e = next
	}
	d.rehashIdx++
	if d.rehashIdx >= len(t0.buckets) || t0.used == 0 {
		d.finishRehash()
	}
}

func (d *Dict[K, V]) finishRehash() {
	d.ht[0] = d.ht[1]
	d.ht[1] = nil
	d.rehashIdx = -1
}

func (d *Dict[K, V]) findEntry(k K) (*entry[K, V], *table[K, V]) {
	d.rehashStep()
	h := d.hash(k)
	for i := 0; i < 2; i++ {
		t := d.ht[i]
		if t == nil {
			continue
		}
		idx := h & t.mask()
		for e := t.buckets[idx]; e != nil; e = e.next {
			if e.key == k {
				return e, t
			}
		}
		if !d.isRehashing() {
			break
		}
	}
	return nil, nil
}

// Find looks up k, consulting ht[0] then ht[1] while rehashing.
func (d *Dict[K, V]) Find(k K) (V, bool) {
	e, _ := d.findEntry(k)
	if e == nil {
		var zero V
		return zero, false
	}
	return e.val, true
}

// Add inserts k with value v. Fails if k already exists.
func (d *Dict[K, V]) Add(k K, v V) bool {
	d.rehashStep()
	if e, _ := d.findEntry(k); e != nil {
		return false
	}
	d.maybeStartRehash()
	t := d.ht[0]
	if d.isRehashing() {
		t = d.ht[1]
	}
	h := d.hash(k)
	idx := h & t.mask()
	t.buckets[idx] = &entry[K, V]{key: k, val: v, next: t.buckets[idx]}
	t.used++
	return true
}

// Replace is an idempotent upsert: inserts if absent, overwrites if present.
func (d *Dict[K, V]) Replace(k K, v V) {
	d.rehashStep()
	if e, _ := d.findEntry(k); e != nil {
		e.val = v
		return
	}
	d.maybeStartRehash()
	t := d.ht[0]
	if d.isRehashing() {
		t = d.ht[1]
	}
	h := d.hash(k)
	idx := h & t.mask()
	t.buckets[idx] = &entry[K, V]{key: k, val: v, next: t.buckets[idx]}
	t.used++
}

// Delete removes k. Fails if k is absent.
func (d *Dict[K, V]) Delete(k K) bool {
	_, ok := d.Unlink(k)
	return ok
}

// Unlink removes k and returns its value for deferred destruction by the
// caller (e.g. releasing a value-object's refcount).
func (d *Dict[K, V]) Unlink(k K) (V, bool) {
	d.rehashStep()
	h := d.hash(k)
	for i := 0; i < 2; i++ {
		t := d.ht[i]
		if t == nil {
			continue
		}
		idx := h & t.mask()
		var prev *entry[K, V]
		for e := t.buckets[idx]; e != nil; e = e.next {
			if e.key == k {
				if prev == nil {
					t.buckets[idx] = e.next
				} else {
					prev.next = e.next
				}
				t.used--
				return e.val, true
			}
			prev = e
		}
		if !d.isRehashing() {
			break
		}
	}
	var zero V
	return zero, false
}

// Cursor is an opaque stateless scan position.
type Cursor uint64

// Scan visits a slice of entries reachable from cursor and returns the next
// cursor. It is safe to call repeatedly until the returned cursor is 0 (after
// at least one call). With no mutation between calls every entry is visited
// exactly once. Every entry present for the whole scan is visited at least
// once; the cursor is a plain bucket index, so if a rehash completes between
// calls (ht[0] grows) some of those entries are visited again. Entries
// added/removed mid-scan may be visited 0 or more times.
func (d *Dict[K, V]) Scan(cursor Cursor, visit func(k K, v V)) Cursor {
	d.PauseRehash()
	defer d.ResumeRehash()

	t0 := d.ht[0]
	idx := uint64(cursor) & t0.mask()
	for e := t0.buckets[idx]; e != nil; e = e.next {
		visit(e.key, e.val)
	}
	if t1 := d.ht[1]; t1 != nil {
		// Reverse binary iteration would be required for bucket masks that
		// differ in size; since ht[1] is always a strict superset of bits,
		// walk every bucket whose low bits match idx against t0's mask.
		step := uint64(len(t0.buckets))
		for j := idx; j < uint64(len(t1.buckets)); j += step {
			for e := t1.buckets[j]; e != nil; e = e.next {
				visit(e.key, e.val)
			}
		}
	}
	idx++
	if idx >= uint64(len(t0.buckets)) {
		return 0
	}
	return Cursor(idx)
}

// ForEach visits every entry currently present (a non-incremental full
// traversal), used by callers that do not need cursor-resumable iteration.
func (d *Dict[K, V]) ForEach(visit func(k K, v V)) {
	d.PauseRehash()
	defer d.ResumeRehash()
	for _, t := range d.ht {
		if t == nil {
			continue
		}
		for _, b := range t.buckets {
			for e := b; e != nil; e = e.next {
				visit(e.key, e.val)
			}
		}
	}
}

// IsRehashing reports whether a rehash is in progress, for tests.
func (d *Dict[K, V]) IsRehashing() bool { return d.isRehashing() }

// Used0 and Used1 expose the internal bucket-use counters for invariant tests.
func (d *Dict[K, V]) Used0() int { return d.ht[0].used }
func (d *Dict[K, V]) Used1() int {
	if d.ht[1] == nil {
		return 0
	}
	return d.ht[1].used
}
