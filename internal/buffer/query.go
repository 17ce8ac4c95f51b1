// Package buffer implements the per-connection query buffer (inbound,
// line-oriented) and reply buffer (outbound, vectored-write friendly).
package buffer

import "bytes"

const growThreshold = 32 * 1024

// QueryBuffer accumulates inbound bytes and peels off complete lines.
// It exclusively owns its backing storage.
type QueryBuffer struct {
	buf       []byte
	processed int
}

// NewQuery creates an empty query buffer.
func NewQuery() *QueryBuffer {
	return &QueryBuffer{buf: make([]byte, 0, 4096)}
}

// Write appends bytes to the buffer, growing geometrically (×2) below
// 32 KiB and by a flat +10000 bytes above that.
func (q *QueryBuffer) Write(b []byte) {
	need := len(q.buf) + len(b)
	if cap(q.buf) < need {
		q.grow(need)
	}
	q.buf = append(q.buf, b...)
}

func (q *QueryBuffer) grow(need int) {
	newCap := cap(q.buf)
	if newCap == 0 {
		newCap = 4096
	}
	for newCap < need {
		if newCap < growThreshold {
			newCap *= 2
		} else {
			newCap += 10000
		}
	}
	grown := make([]byte, len(q.buf), newCap)
	copy(grown, q.buf)
	q.buf = grown
}

// ProcessInline returns the next complete line (terminator stripped,
// including a preceding \r) starting at the processed offset, advancing
// it past the terminator. The second return is false when no complete
// line is currently buffered.
func (q *QueryBuffer) ProcessInline() ([]byte, bool) {
	rest := q.buf[q.processed:]
	nl := bytes.IndexByte(rest, '\n')
	if nl == -1 {
		return nil, false
	}
	end := nl
	if end > 0 && rest[end-1] == '\r' {
		end--
	}
	line := rest[:end]
	q.processed += nl + 1
	return line, true
}

// TrimProcessed memmoves the unprocessed tail to offset 0.
func (q *QueryBuffer) TrimProcessed() {
	if q.processed == 0 {
		return
	}
	remaining := copy(q.buf, q.buf[q.processed:])
	q.buf = q.buf[:remaining]
	q.processed = 0
}

// Len reports the number of unprocessed bytes still buffered.
func (q *QueryBuffer) Len() int { return len(q.buf) - q.processed }
