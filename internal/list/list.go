// Package list implements the listpack-backed sequence value type. Unlike
// set and zset, list has a single encoding — it is always a listpack — so
// this package is a thin, index-aware wrapper rather than a polymorphic
// dispatcher.
package list

import (
	"errors"

	"github.com/armandparser/goredis/internal/listpack"
)

// ErrEmpty is returned by pop operations against an empty list.
var ErrEmpty = errors.New("list is empty")

// ErrOutOfRange is returned when an index-based accessor is out of bounds.
var ErrOutOfRange = errors.New("list index out of range")

// List is an ordered sequence of byte-string elements.
type List struct {
	lp *listpack.ListPack
}

// New creates an empty list.
func New() *List {
	return &List{lp: listpack.New()}
}

// Size returns the number of elements.
func (l *List) Size() int { return l.lp.Size() }

// LPush prepends values, in the order given, so that the last value ends
// up at the head.
func (l *List) LPush(values ...[]byte) {
	for _, v := range values {
		l.lp.PrependBytes(v)
	}
}

// RPush appends values, in the order given, to the tail.
func (l *List) RPush(values ...[]byte) {
	for _, v := range values {
		l.lp.AppendBytes(v)
	}
}

// LPop removes and returns the head element.
func (l *List) LPop() ([]byte, error) {
	idx := l.lp.First()
	if idx == -1 {
		return nil, ErrEmpty
	}
	v, _ := l.lp.Get(idx)
	l.lp.Delete(idx)
	return v.Bytes(), nil
}

// RPop removes and returns the tail element.
func (l *List) RPop() ([]byte, error) {
	idx := l.lp.Last()
	if idx == -1 {
		return nil, ErrEmpty
	}
	v, _ := l.lp.Get(idx)
	l.lp.Delete(idx)
	return v.Bytes(), nil
}

// Index returns the element at the given 0-based index, negative indices
// counting from the tail.
func (l *List) Index(i int) ([]byte, error) {
	size := l.Size()
	if i < 0 {
		i += size
	}
	if i < 0 || i >= size {
		return nil, ErrOutOfRange
	}
	idx := l.lp.First()
	for n := 0; n < i; n++ {
		idx = l.lp.Next(idx)
	}
	v, ok := l.lp.Get(idx)
	if !ok {
		return nil, ErrOutOfRange
	}
	return v.Bytes(), nil
}

// Range returns elements [start,stop] inclusive, Redis-style, clamped to
// the list's bounds; negative indices count from the tail.
func (l *List) Range(start, stop int) [][]byte {
	size := l.Size()
	if size == 0 {
		return nil
	}
	if start < 0 {
		start += size
	}
	if stop < 0 {
		stop += size
	}
	if start < 0 {
		start = 0
	}
	if stop > size-1 {
		stop = size - 1
	}
	if start > stop {
		return nil
	}
	out := make([][]byte, 0, stop-start+1)
	idx := l.lp.First()
	for n := 0; n < start; n++ {
		idx = l.lp.Next(idx)
	}
	for n := start; n <= stop; n++ {
		v, _ := l.lp.Get(idx)
		out = append(out, v.Bytes())
		idx = l.lp.Next(idx)
	}
	return out
}

// All returns every element head-to-tail.
func (l *List) All() [][]byte {
	return l.Range(0, l.Size()-1)
}
