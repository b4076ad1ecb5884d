package errio

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/joomcode/errorx"
)

// PropertyMissing holds the number of bytes the stream still owed when it ended
var PropertyMissing = errorx.RegisterPrintableProperty("missing")

// Reader is a wrapper for io.Reader that reads exact byte counts.
//
// If an error occurs during the reading, Err() != nil.
// Subsequent reading operations are no-ops and return zero values
type Reader struct {
	rd io.Reader

	err     error
	missing int // bytes still expected when the stream ended early
	count   int // bytes consumed so far
}

func NewReader(rd io.Reader) *Reader {
	if erd, ok := rd.(*Reader); ok {
		return erd
	}

	return &Reader{
		rd: rd,
	}
}

// Read implements io.Reader, so a Reader can be passed to message decoders
func (r *Reader) Read(p []byte) (n int, err error) {
	if r.err != nil {
		return 0, r.err
	}

	n, err = r.rd.Read(p)
	r.count += n
	if err != nil {
		r.err = err
	}

	return n, err
}

// Fill p completely, looping over partial reads of the underlying reader
func (r *Reader) ReadFull(p []byte) {
	if r.err != nil {
		return
	}

	got := 0
	for got < len(p) {
		n, err := r.rd.Read(p[got:])
		got += n
		r.count += n

		if got == len(p) {
			// a reader may return the last bytes together with io.EOF
			return
		}

		if err != nil {
			r.err = err
			if errors.Is(err, io.EOF) {
				r.missing = len(p) - got
			}

			return
		}
	}
}

// Next reads exactly n bytes
func (r *Reader) Next(n int) []byte {
	b := make([]byte, n)
	r.ReadFull(b)

	return b
}

func (r *Reader) Byte() byte {
	var b [1]byte
	r.ReadFull(b[:])

	return b[0]
}

// Big-endian uint16
func (r *Reader) Uint16() uint16 {
	var b [2]byte
	r.ReadFull(b[:])

	return binary.BigEndian.Uint16(b[:])
}

func (r *Reader) Err() error {
	return r.err
}

// Bytes still expected, when the stream ended early
func (r *Reader) Missing() int {
	return r.missing
}

func (r *Reader) Count() int {
	return r.count
}

// EndedEarly is true, if the underlying stream returned io.EOF before a read was satisfied
func (r *Reader) EndedEarly() bool {
	return r.missing > 0
}

// Wrap returns nil, if no error occurred.
//
// If the stream ended early, a t error with PropertyMissing is returned.
// Other errors are wrapped by other
func (r *Reader) Wrap(t, other *errorx.Type, msg string, args ...interface{}) error {
	if r.err == nil {
		return nil
	}

	if r.EndedEarly() {
		return t.Wrap(r.err, msg, args...).WithProperty(PropertyMissing, r.missing)
	}

	return other.Wrap(r.err, msg, args...)
}
