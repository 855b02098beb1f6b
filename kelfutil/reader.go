package kelfutil

import (
	"io"
)

// Reader reads a container sequentially and knows the position of its next byte, so that
// regions sized relative to the start of the container can be located.
type Reader struct {
	inner  io.Reader
	offset int64
	err    error
}

var _ io.Reader = &Reader{}

// NewReader starts counting at the current position of inner, which becomes offset 0.
// An unread Reader is reused instead of being wrapped twice.
func NewReader(inner io.Reader) *Reader {
	if inner, ok := inner.(*Reader); ok && inner.offset == 0 {
		return inner
	}

	return &Reader{
		inner:  inner,
		offset: 0,
		err:    nil,
	}
}

// Read implements io.Reader. The first error is sticky.
func (r *Reader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}

	n, err := r.inner.Read(p)
	r.offset += int64(n)
	r.err = err
	return n, err
}

// Offset returns the number of bytes consumed so far, which is also the position of the next
// field in the container.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Next reads exactly n bytes.
//
// Returns ErrUnexpectedEOF if EOF is reached after some but not all bytes.
func (r *Reader) Next(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := io.ReadFull(r, buf)
	if err != nil {
		return nil, err
	}
	return buf, nil
}
