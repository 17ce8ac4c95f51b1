// Package set implements the polymorphic set value type: IntSet for purely
// integral small sets, ListPack for small mixed sets, and Dict for large or
// long-element sets. Transitions are monotone; once upgraded, a set never
// downgrades.
package set

import (
	"strconv"

	"github.com/armandparser/goredis/internal/dict"
	"github.com/armandparser/goredis/internal/intset"
	"github.com/armandparser/goredis/internal/listpack"
)

// Encoding identifies the current backing representation.
type Encoding uint8

const (
	EncodingIntSet Encoding = iota
	EncodingListPack
	EncodingDict
)

const (
	maxListPackEntries   = 128
	maxListPackEltLen    = 64
	maxListPackSafeBytes = 8 * 1024
	maxIntSetEntries     = 512
)

// Set is a polymorphic member set; exactly one backing is non-empty at a
// time.
type Set struct {
	enc Encoding
	is  *intset.IntSet
	lp  *listpack.ListPack
	d   *dict.Dict[string, struct{}]
}

// New creates an empty set, starting in the narrowest (IntSet) encoding.
func New() *Set {
	return &Set{enc: EncodingIntSet, is: intset.New()}
}

// Encoding reports the current backing.
func (s *Set) Encoding() Encoding { return s.enc }

func parseInt(member string) (int64, bool) {
	n, err := strconv.ParseInt(member, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, strconv.FormatInt(n, 10) == member
}

func (s *Set) migrateToListPack() {
	lp := listpack.New()
	for _, v := range s.is.All() {
		lp.AppendInt(v)
	}
	s.lp = lp
	s.is = nil
	s.enc = EncodingListPack
}

func (s *Set) migrateToDict() {
	d := dict.NewStringDict[struct{}]()
	switch s.enc {
	case EncodingIntSet:
		for _, v := range s.is.All() {
			d.Add(strconv.FormatInt(v, 10), struct{}{})
		}
		s.is = nil
	case EncodingListPack:
		idx := s.lp.First()
		for idx != -1 {
			v, _ := s.lp.Get(idx)
			d.Add(string(v.Bytes()), struct{}{})
			idx = s.lp.Next(idx)
		}
		s.lp = nil
	}
	s.d = d
	s.enc = EncodingDict
}

func (s *Set) listPackWouldFit(extra string) bool {
	if s.lp.Size()+1 > maxListPackEntries {
		return false
	}
	if len(extra) > maxListPackEltLen {
		return false
	}
	return s.lp.TotalBytes()+len(extra)+11 <= maxListPackSafeBytes
}

// Add inserts member, migrating the backing if required. Returns true iff
// member was not already present.
func (s *Set) Add(member string) bool {
	switch s.enc {
	case EncodingIntSet:
		if n, ok := parseInt(member); ok {
			if s.is.Size()+1 > maxIntSetEntries {
				// Would exceed IntSet's own cap; widen straight to Dict
				// unless a ListPack would still fit everything.
				if s.is.Size()+1 <= maxListPackEntries && len(member) <= maxListPackEltLen {
					s.migrateToListPack()
					return s.Add(member)
				}
				s.migrateToDict()
				return s.Add(member)
			}
			return s.is.Add(n)
		}
		// Non-integer: upgrade to ListPack if it would fit, else Dict.
		if s.is.Size()+1 <= maxListPackEntries && len(member) <= maxListPackEltLen {
			s.migrateToListPack()
		} else {
			s.migrateToDict()
		}
		return s.Add(member)

	case EncodingListPack:
		if _, found := s.lp.Find([]byte(member), 0); found {
			return false
		}
		if !s.listPackWouldFit(member) {
			s.migrateToDict()
			return s.Add(member)
		}
		s.lp.AppendBytes([]byte(member))
		return true

	default: // EncodingDict
		return s.d.Add(member, struct{}{})
	}
}

// Remove deletes member, returning whether it was present.
func (s *Set) Remove(member string) bool {
	switch s.enc {
	case EncodingIntSet:
		n, ok := parseInt(member)
		if !ok {
			return false
		}
		return s.is.Remove(n)
	case EncodingListPack:
		idx, found := s.lp.Find([]byte(member), 0)
		if !found {
			return false
		}
		s.lp.Delete(idx)
		return true
	default:
		return s.d.Delete(member)
	}
}

// Contains reports whether member is in the set.
func (s *Set) Contains(member string) bool {
	switch s.enc {
	case EncodingIntSet:
		n, ok := parseInt(member)
		if !ok {
			return false
		}
		_, found := s.is.Find(n)
		return found
	case EncodingListPack:
		_, found := s.lp.Find([]byte(member), 0)
		return found
	default:
		_, found := s.d.Find(member)
		return found
	}
}

// Size returns the number of members.
func (s *Set) Size() int {
	switch s.enc {
	case EncodingIntSet:
		return s.is.Size()
	case EncodingListPack:
		return s.lp.Size()
	default:
		return s.d.Size()
	}
}

// ListAll returns every member as a string, in backing-defined order.
func (s *Set) ListAll() []string {
	switch s.enc {
	case EncodingIntSet:
		vals := s.is.All()
		out := make([]string, len(vals))
		for i, v := range vals {
			out[i] = strconv.FormatInt(v, 10)
		}
		return out
	case EncodingListPack:
		out := make([]string, 0, s.lp.Size())
		idx := s.lp.First()
		for idx != -1 {
			v, _ := s.lp.Get(idx)
			out = append(out, string(v.Bytes()))
			idx = s.lp.Next(idx)
		}
		return out
	default:
		out := make([]string, 0, s.d.Size())
		s.d.ForEach(func(k string, _ struct{}) { out = append(out, k) })
		return out
	}
}
