// Package listpack implements the single-contiguous-blob, variable-width
// encoding used as the compact backing for small sets, sorted sets, and
// lists.
package listpack

import (
	"encoding/binary"
	"errors"
	"strconv"
)

const (
	headerBytes    = 6 // 4 bytes total_bytes + 2 bytes num_elements
	terminatorByte = 0xff
	maxNumElements = 0xffff // header field saturates; Size() tracks the true count
	maxTotalBytes  = 1<<32 - 1
)

// ErrSizeLimit is returned when an operation would grow the blob past
// maxTotalBytes.
var ErrSizeLimit = errors.New("listpack: size limit exceeded")

// ErrOutOfRange is returned for an invalid index.
var ErrOutOfRange = errors.New("listpack: index out of range")

// Value is the decoded contents of one entry, keeping both an integer and a
// byte-string view so Get can hand back whichever representation the
// caller asked for regardless of how the entry was actually encoded.
type Value struct {
	IsInt bool
	Int   int64
	Str   []byte // nil when IsInt and the caller hasn't requested the string form
}

// Bytes renders the value as its canonical byte-string representation.
func (v Value) Bytes() []byte {
	if !v.IsInt {
		return v.Str
	}
	return []byte(strconv.FormatInt(v.Int, 10))
}

// ListPack is a single contiguous byte blob of variable-encoded entries.
type ListPack struct {
	blob  []byte
	count int
}

// New creates an empty listpack.
func New() *ListPack {
	lp := &ListPack{blob: make([]byte, headerBytes+1), count: 0}
	lp.blob[headerBytes] = terminatorByte
	lp.writeHeader()
	return lp
}

func (lp *ListPack) writeHeader() {
	binary.BigEndian.PutUint32(lp.blob[0:4], uint32(len(lp.blob)))
	n := lp.count
	if n > maxNumElements {
		n = maxNumElements
	}
	binary.BigEndian.PutUint16(lp.blob[4:6], uint16(n))
}

// TotalBytes returns the blob's total length, matching the encoded header
// field plus the 1-byte terminator already counted within the blob.
func (lp *ListPack) TotalBytes() int { return len(lp.blob) }

// Size returns the number of entries.
func (lp *ListPack) Size() int { return lp.count }

// ---- entry encode/decode ----

// encodeEntry returns the encoding+payload bytes for val (not including
// backlen). A string that parses cleanly as an int64 is demoted to an
// integer encoding.
func encodeEntry(isInt bool, i int64, s []byte) []byte {
	if !isInt {
		if n, err := strconv.ParseInt(string(s), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(s) {
			isInt = true
			i = n
		}
	}

	if isInt {
		switch {
		case i >= 0 && i <= 0x7f:
			return []byte{byte(i)}
		case i >= -4096 && i <= 4095:
			u := uint16(i) & 0x1fff
			return []byte{0xc0 | byte(u>>8), byte(u)}
		case i >= -(1<<15) && i <= (1<<15)-1:
			b := make([]byte, 3)
			b[0] = 0xf1
			binary.BigEndian.PutUint16(b[1:], uint16(int16(i)))
			return b
		case i >= -(1<<23) && i <= (1<<23)-1:
			b := make([]byte, 4)
			b[0] = 0xf2
			u := uint32(i) & 0xffffff
			b[1] = byte(u >> 16)
			b[2] = byte(u >> 8)
			b[3] = byte(u)
			return b
		case i >= -(1<<31) && i <= (1<<31)-1:
			b := make([]byte, 5)
			b[0] = 0xf3
			binary.BigEndian.PutUint32(b[1:], uint32(int32(i)))
			return b
		default:
			b := make([]byte, 9)
			b[0] = 0xf4
			binary.BigEndian.PutUint64(b[1:], uint64(i))
			return b
		}
	}

	l := len(s)
	switch {
	case l <= 63:
		b := make([]byte, 1+l)
		b[0] = 0x80 | byte(l)
		copy(b[1:], s)
		return b
	case l <= 4095:
		b := make([]byte, 2+l)
		b[0] = 0xe0 | byte(l>>8)
		b[1] = byte(l)
		copy(b[2:], s)
		return b
	default:
		b := make([]byte, 5+l)
		b[0] = 0xf0
		binary.BigEndian.PutUint32(b[1:5], uint32(l))
		copy(b[5:], s)
		return b
	}
}

// decodeEntry decodes the encoding+payload starting at off, returning the
// value and the number of bytes consumed (not including backlen).
func decodeEntry(blob []byte, off int) (Value, int) {
	b0 := blob[off]
	switch {
	case b0&0x80 == 0: // 0xxxxxxx: 7-bit unsigned int
		return Value{IsInt: true, Int: int64(b0)}, 1
	case b0&0xc0 == 0x80: // 10xxxxxx: 6-bit length string
		l := int(b0 & 0x3f)
		return Value{Str: cloneBytes(blob[off+1 : off+1+l])}, 1 + l
	case b0&0xe0 == 0xc0: // 110xxxxx xxxxxxxx: 13-bit signed int
		u := uint16(b0&0x1f)<<8 | uint16(blob[off+1])
		v := int64(u)
		if u&0x1000 != 0 {
			v -= 1 << 13
		}
		return Value{IsInt: true, Int: v}, 2
	case b0&0xf0 == 0xe0: // 1110xxxx xxxxxxxx: 12-bit length string
		l := int(b0&0x0f)<<8 | int(blob[off+1])
		return Value{Str: cloneBytes(blob[off+2 : off+2+l])}, 2 + l
	case b0 == 0xf0: // 32-bit length string
		l := int(binary.BigEndian.Uint32(blob[off+1 : off+5]))
		return Value{Str: cloneBytes(blob[off+5 : off+5+l])}, 5 + l
	case b0 == 0xf1:
		v := int64(int16(binary.BigEndian.Uint16(blob[off+1 : off+3])))
		return Value{IsInt: true, Int: v}, 3
	case b0 == 0xf2:
		u := uint32(blob[off+1])<<16 | uint32(blob[off+2])<<8 | uint32(blob[off+3])
		v := int64(u)
		if u&0x800000 != 0 {
			v -= 1 << 24
		}
		return Value{IsInt: true, Int: v}, 4
	case b0 == 0xf3:
		v := int64(int32(binary.BigEndian.Uint32(blob[off+1 : off+5])))
		return Value{IsInt: true, Int: v}, 5
	case b0 == 0xf4:
		v := int64(binary.BigEndian.Uint64(blob[off+1 : off+9]))
		return Value{IsInt: true, Int: v}, 9
	default:
		panic("listpack: invalid encoding byte")
	}
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// ---- backlen ----

func backlenSize(l uint64) int {
	switch {
	case l <= 127:
		return 1
	case l < 16384:
		return 2
	case l < 2097152:
		return 3
	case l < 268435456:
		return 4
	default:
		return 5
	}
}

// encodeBacklen writes l's backlen encoding to buf (len(buf) must equal
// backlenSize(l)). buf[0] (the byte adjacent to the entry payload) carries
// no continuation bit -- it is the stop marker when later read backwards.
// Every subsequent byte carries the continuation bit.
func encodeBacklen(buf []byte, l uint64) {
	n := len(buf)
	for i := 0; i < n; i++ {
		shift := uint(7 * (n - 1 - i))
		chunk := byte((l >> shift) & 0x7f)
		if i > 0 {
			chunk |= 0x80
		}
		buf[i] = chunk
	}
}

// decodeBacklenBackward reads the backlen ending just before endPos (i.e.
// endPos is the offset of the next entry / terminator), walking backwards
// byte by byte using the continuation-bit convention. This is the entry
// point used when the caller only knows where the NEXT entry starts, not
// how many backlen bytes precede it (e.g. Prev navigation).
func decodeBacklenBackward(blob []byte, endPos int) (value uint64, nbytes int) {
	shift := uint(0)
	p := endPos - 1
	for {
		b := blob[p]
		value |= uint64(b&0x7f) << shift
		nbytes++
		if b&0x80 == 0 {
			break
		}
		shift += 7
		p--
	}
	return value, nbytes
}

// decodeBacklenForward reads n backlen bytes forward starting at start,
// where n is already known (e.g. from backlenSize of the entry's encoded
// length), avoiding the backward scan. Nothing in this package calls it;
// navigation uses decodeBacklenBackward and entryTotalLen.
func decodeBacklenForward(blob []byte, start, n int) uint64 {
	var value uint64
	for i := 0; i < n; i++ {
		value = value<<7 | uint64(blob[start+i]&0x7f)
	}
	return value
}

// entryTotalLen returns the full on-disk length (encoding+payload+backlen)
// of the entry starting at off.
func entryTotalLen(blob []byte, off int) int {
	_, encLen := decodeEntry(blob, off)
	return encLen + backlenSize(uint64(encLen))
}

// ---- navigation ----

// First returns the byte offset of the first entry, or -1 if empty.
func (lp *ListPack) First() int {
	if lp.count == 0 {
		return -1
	}
	return headerBytes
}

// Last returns the byte offset of the last entry, or -1 if empty.
func (lp *ListPack) Last() int {
	if lp.count == 0 {
		return -1
	}
	end := len(lp.blob) - 1 // position of terminator
	backlenVal, backlenBytes := decodeBacklenBackward(lp.blob, end)
	encLen := int(backlenVal)
	return end - backlenBytes - encLen
}

// Next returns the offset of the entry after idx, or -1 if idx is last.
func (lp *ListPack) Next(idx int) int {
	total := entryTotalLen(lp.blob, idx)
	next := idx + total
	if lp.blob[next] == terminatorByte {
		return -1
	}
	return next
}

// Prev returns the offset of the entry before idx, or -1 if idx is first.
func (lp *ListPack) Prev(idx int) int {
	if idx == headerBytes {
		return -1
	}
	backlenVal, backlenBytes := decodeBacklenBackward(lp.blob, idx)
	encLen := int(backlenVal)
	return idx - backlenBytes - encLen
}

// Get decodes the value at idx.
func (lp *ListPack) Get(idx int) (Value, bool) {
	if idx < headerBytes || idx >= len(lp.blob)-1 {
		return Value{}, false
	}
	v, _ := decodeEntry(lp.blob, idx)
	return v, true
}

// ---- mutation ----

func buildEntryBytes(isInt bool, i int64, s []byte) []byte {
	enc := encodeEntry(isInt, i, s)
	bl := make([]byte, backlenSize(uint64(len(enc))))
	encodeBacklen(bl, uint64(len(enc)))
	return append(enc, bl...)
}

func (lp *ListPack) growBy(n int) error {
	if len(lp.blob)+n > maxTotalBytes {
		return ErrSizeLimit
	}
	return nil
}

// insertAt splices entryBytes into the blob at byte offset at (at must be a
// valid entry boundary or the terminator position for append).
func (lp *ListPack) insertAt(at int, entryBytes []byte) error {
	if err := lp.growBy(len(entryBytes)); err != nil {
		return err
	}
	newBlob := make([]byte, len(lp.blob)+len(entryBytes))
	copy(newBlob, lp.blob[:at])
	copy(newBlob[at:], entryBytes)
	copy(newBlob[at+len(entryBytes):], lp.blob[at:])
	lp.blob = newBlob
	lp.count++
	lp.writeHeader()
	return nil
}

// AppendInt appends an integer entry and returns its offset.
func (lp *ListPack) AppendInt(v int64) (int, error) {
	at := len(lp.blob) - 1
	eb := buildEntryBytes(true, v, nil)
	if err := lp.insertAt(at, eb); err != nil {
		return -1, err
	}
	return at, nil
}

// AppendBytes appends a string entry (demoted to int encoding if it parses
// as one) and returns its offset.
func (lp *ListPack) AppendBytes(v []byte) (int, error) {
	at := len(lp.blob) - 1
	eb := buildEntryBytes(false, 0, v)
	if err := lp.insertAt(at, eb); err != nil {
		return -1, err
	}
	return at, nil
}

// PrependBytes inserts a string entry at the front.
func (lp *ListPack) PrependBytes(v []byte) (int, error) {
	eb := buildEntryBytes(false, 0, v)
	if err := lp.insertAt(headerBytes, eb); err != nil {
		return -1, err
	}
	return headerBytes, nil
}

// PrependInt inserts an integer entry at the front.
func (lp *ListPack) PrependInt(v int64) (int, error) {
	eb := buildEntryBytes(true, v, nil)
	if err := lp.insertAt(headerBytes, eb); err != nil {
		return -1, err
	}
	return headerBytes, nil
}

// InsertBytesBefore inserts a string entry immediately before idx.
func (lp *ListPack) InsertBytesBefore(idx int, v []byte) (int, error) {
	if idx < headerBytes || idx >= len(lp.blob)-1 {
		return -1, ErrOutOfRange
	}
	eb := buildEntryBytes(false, 0, v)
	if err := lp.insertAt(idx, eb); err != nil {
		return -1, err
	}
	return idx, nil
}

// Replace overwrites the entry at idx with a new string value, returning the
// (possibly different) offset of the replaced entry.
func (lp *ListPack) Replace(idx int, v []byte) (int, error) {
	if idx < headerBytes || idx >= len(lp.blob)-1 {
		return -1, ErrOutOfRange
	}
	oldLen := entryTotalLen(lp.blob, idx)
	eb := buildEntryBytes(false, 0, v)
	if len(eb) != oldLen {
		if err := lp.growBy(len(eb) - oldLen); err != nil {
			return -1, err
		}
	}
	newBlob := make([]byte, len(lp.blob)-oldLen+len(eb))
	copy(newBlob, lp.blob[:idx])
	copy(newBlob[idx:], eb)
	copy(newBlob[idx+len(eb):], lp.blob[idx+oldLen:])
	lp.blob = newBlob
	lp.writeHeader()
	return idx, nil
}

// Delete removes the entry at idx.
func (lp *ListPack) Delete(idx int) error {
	if idx < headerBytes || idx >= len(lp.blob)-1 {
		return ErrOutOfRange
	}
	total := entryTotalLen(lp.blob, idx)
	newBlob := make([]byte, len(lp.blob)-total)
	copy(newBlob, lp.blob[:idx])
	copy(newBlob[idx:], lp.blob[idx+total:])
	lp.blob = newBlob
	lp.count--
	lp.writeHeader()
	return nil
}

// Find does a linear scan for needle (matched against each entry's byte
// representation), advancing by (skip+1) entries between comparisons so
// zset key/score pairs can be matched on keys only (skip=1).
func (lp *ListPack) Find(needle []byte, skip int) (int, bool) {
	idx := lp.First()
	for idx != -1 {
		v, _ := lp.Get(idx)
		if string(v.Bytes()) == string(needle) {
			return idx, true
		}
		for i := 0; i <= skip && idx != -1; i++ {
			idx = lp.Next(idx)
		}
	}
	return -1, false
}
