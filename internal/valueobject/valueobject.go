// Package valueobject implements the tagged, reference-counted header that
// every keyspace entry's payload is wrapped in.
package valueobject

import (
	"errors"

	"github.com/armandparser/goredis/internal/list"
	"github.com/armandparser/goredis/internal/set"
	"github.com/armandparser/goredis/internal/zset"
)

// ErrWrongType is returned when a payload is read through the wrong
// accessor for its tag.
var ErrWrongType = errors.New("wrongtype: operation against a key holding the wrong kind of value")

// Kind tags the payload a Value carries.
type Kind uint8

const (
	KindString Kind = iota + 1
	KindSet
	KindZSet
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindSet:
		return "set"
	case KindZSet:
		return "zset"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a reference-counted tagged union over {string, set, zset, list}.
// The keyspace holds the owning reference; transient readers may Incref to
// extend its lifetime across an operation and must Decref exactly once.
type Value struct {
	kind    Kind
	refs    int32
	str     []byte
	set     *set.Set
	zset    *zset.ZSet
	list    *list.List
}

// CreateString wraps a byte string with refcount 1.
func CreateString(b []byte) *Value {
	return &Value{kind: KindString, refs: 1, str: b}
}

// CreateSet wraps a new empty polymorphic set with refcount 1.
func CreateSet() *Value {
	return &Value{kind: KindSet, refs: 1, set: set.New()}
}

// CreateZSet wraps a new empty polymorphic zset with refcount 1.
func CreateZSet() *Value {
	return &Value{kind: KindZSet, refs: 1, zset: zset.New()}
}

// CreateList wraps a new empty list with refcount 1.
func CreateList() *Value {
	return &Value{kind: KindList, refs: 1, list: list.New()}
}

// Kind reports the payload's tag.
func (v *Value) Kind() Kind { return v.kind }

// Incref increments the reference count; every Incref must be matched by a
// Decref.
func (v *Value) Incref() { v.refs++ }

// Decref decrements the reference count, releasing the payload when it
// reaches zero. Returns true if this call released the payload.
func (v *Value) Decref() bool {
	v.refs--
	if v.refs <= 0 {
		v.str = nil
		v.set = nil
		v.zset = nil
		v.list = nil
		return true
	}
	return false
}

// Refs reports the current reference count, for invariant tests.
func (v *Value) Refs() int32 { return v.refs }

// AsString returns the string payload, failing with ErrWrongType if v is not
// a string.
func (v *Value) AsString() ([]byte, error) {
	if v.kind != KindString {
		return nil, ErrWrongType
	}
	return v.str, nil
}

// SetString replaces the string payload in place, without a new keyspace
// insert. No command in the registry calls it.
func (v *Value) SetString(b []byte) error {
	if v.kind != KindString {
		return ErrWrongType
	}
	v.str = b
	return nil
}

// AsSet returns the set payload, failing with ErrWrongType if v is not a set.
func (v *Value) AsSet() (*set.Set, error) {
	if v.kind != KindSet {
		return nil, ErrWrongType
	}
	return v.set, nil
}

// AsZSet returns the zset payload, failing with ErrWrongType if v is not a
// zset.
func (v *Value) AsZSet() (*zset.ZSet, error) {
	if v.kind != KindZSet {
		return nil, ErrWrongType
	}
	return v.zset, nil
}

// AsList returns the list payload, failing with ErrWrongType if v is not a
// list.
func (v *Value) AsList() (*list.List, error) {
	if v.kind != KindList {
		return nil, ErrWrongType
	}
	return v.list, nil
}
