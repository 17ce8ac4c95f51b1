// Package intset implements a sorted, packed array of signed integers with
// an adaptive per-element width, used as the smallest-encoding backing for
// polymorphic sets of purely integral members.
package intset

import (
	"encoding/binary"
	"sort"
)

// Width is the per-element width in bits.
type Width uint8

const (
	Width16 Width = 16
	Width32 Width = 32
	Width64 Width = 64
)

// IntSet is a sorted sequence of int64 values sharing one Width.
type IntSet struct {
	width Width
	data  []byte
}

// New creates an empty IntSet at the narrowest width.
func New() *IntSet {
	return &IntSet{width: Width16}
}

// Size returns the number of elements.
func (s *IntSet) Size() int {
	return len(s.data) / int(s.width/8)
}

// Width reports the current element width in bits.
func (s *IntSet) Width() Width { return s.width }

func valueEncoding(v int64) Width {
	switch {
	case v >= -(1<<15) && v < (1<<15):
		return Width16
	case v >= -(1<<31) && v < (1<<31):
		return Width32
	default:
		return Width64
	}
}

func (s *IntSet) get(i int) int64 {
	stride := int(s.width / 8)
	off := i * stride
	switch s.width {
	case Width16:
		return int64(int16(binary.LittleEndian.Uint16(s.data[off:])))
	case Width32:
		return int64(int32(binary.LittleEndian.Uint32(s.data[off:])))
	default:
		return int64(binary.LittleEndian.Uint64(s.data[off:]))
	}
}

func (s *IntSet) set(i int, v int64) {
	stride := int(s.width / 8)
	off := i * stride
	switch s.width {
	case Width16:
		binary.LittleEndian.PutUint16(s.data[off:], uint16(int16(v)))
	case Width32:
		binary.LittleEndian.PutUint32(s.data[off:], uint32(int32(v)))
	default:
		binary.LittleEndian.PutUint64(s.data[off:], uint64(v))
	}
}

// Get returns the element at sorted index i.
func (s *IntSet) Get(i int) (int64, bool) {
	if i < 0 || i >= s.Size() {
		return 0, false
	}
	return s.get(i), true
}

// Min and Max return the smallest and largest elements.
func (s *IntSet) Min() (int64, bool) { return s.Get(0) }
func (s *IntSet) Max() (int64, bool) { return s.Get(s.Size() - 1) }

// Find does a binary search for v, returning its index if present.
func (s *IntSet) Find(v int64) (int, bool) {
	n := s.Size()
	idx := sort.Search(n, func(i int) bool { return s.get(i) >= v })
	if idx < n && s.get(idx) == v {
		return idx, true
	}
	return idx, false
}

// upgrade widens the array to newWidth, re-reading old elements at the old
// width and writing them at the new width (in reverse index order) into a
// freshly allocated array, then places v first or last.
func (s *IntSet) upgrade(newWidth Width, prepend bool, v int64) {
	n := s.Size()
	oldStride := int(s.width / 8)
	newStride := int(newWidth / 8)

	newData := make([]byte, (n+1)*newStride)

	destStart := 0
	if prepend {
		destStart = 1
	}

	oldWidth := s.width
	readAt := func(i int) int64 {
		off := i * oldStride
		switch oldWidth {
		case Width16:
			return int64(int16(binary.LittleEndian.Uint16(s.data[off:])))
		case Width32:
			return int64(int32(binary.LittleEndian.Uint32(s.data[off:])))
		default:
			return int64(binary.LittleEndian.Uint64(s.data[off:]))
		}
	}
	writeAt := func(buf []byte, i int, val int64) {
		off := i * newStride
		switch newWidth {
		case Width16:
			binary.LittleEndian.PutUint16(buf[off:], uint16(int16(val)))
		case Width32:
			binary.LittleEndian.PutUint32(buf[off:], uint32(int32(val)))
		default:
			binary.LittleEndian.PutUint64(buf[off:], uint64(val))
		}
	}

	for i := n - 1; i >= 0; i-- {
		writeAt(newData, destStart+i, readAt(i))
	}

	if prepend {
		writeAt(newData, 0, v)
	} else {
		writeAt(newData, n, v)
	}

	s.width = newWidth
	s.data = newData
}

// Add inserts v in sorted order, widening the array if v needs a wider
// encoding than the set currently uses. Returns true iff v was not already
// present.
func (s *IntSet) Add(v int64) bool {
	enc := valueEncoding(v)
	if enc > s.width {
		s.upgrade(enc, v < 0, v)
		return true
	}

	idx, found := s.Find(v)
	if found {
		return false
	}

	n := s.Size()
	stride := int(s.width / 8)
	s.data = append(s.data, make([]byte, stride)...)
	// Shift [idx, n) right by one element to make room.
	copy(s.data[(idx+1)*stride:], s.data[idx*stride:n*stride])
	s.set(idx, v)
	return true
}

// Remove deletes v if present, returning whether it was found.
func (s *IntSet) Remove(v int64) bool {
	if s.width < valueEncoding(v) {
		return false
	}
	idx, found := s.Find(v)
	if !found {
		return false
	}
	stride := int(s.width / 8)
	n := s.Size()
	copy(s.data[idx*stride:], s.data[(idx+1)*stride:n*stride])
	s.data = s.data[:(n-1)*stride]
	return true
}

// All returns every element in sorted order (for migration to another
// backing when a set is upgraded beyond IntSet).
func (s *IntSet) All() []int64 {
	n := s.Size()
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		out[i] = s.get(i)
	}
	return out
}
