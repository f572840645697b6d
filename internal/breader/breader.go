// Package breader implements the Byte Reader: a thin typed layer over a
// seekable byte source providing the fixed-width little-endian integer
// reads and length-prefixed string reads the BGEN wire format is built out
// of. It is layered on top of internal/bufseekio the same way the teacher's
// meta.readBytes reuses a shared buffer across reads to reduce garbage.
package breader

import (
	"encoding/binary"
	"io"

	"github.com/mewkiz/bgen/internal/bufseekio"
	"github.com/mewkiz/pkg/errutil"
)

// Reader reads BGEN's little-endian primitive fields from a seekable
// source.
type Reader struct {
	rs  *bufseekio.ReadSeeker
	buf []byte
}

// New wraps r in a Reader. If r is not already buffered, a default-sized
// buffer is installed.
func New(r io.ReadSeeker) *Reader {
	return &Reader{
		rs:  bufseekio.NewReadSeeker(r),
		buf: make([]byte, 4096),
	}
}

// wrapEOF turns any EOF/UnexpectedEOF from a short read into TruncatedFile
// for the caller; breader itself doesn't know about bgen.Kind, so it
// returns a plain error and the facade/codec layers classify it.
func wrapEOF(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errutil.Newf("breader: truncated file: %v", err)
	}
	return errutil.Err(err)
}

// ReadExact reads and returns exactly n bytes. The returned slice is only
// valid until the next call to Reader; callers that need to retain it must
// copy.
func (r *Reader) ReadExact(n int) ([]byte, error) {
	if n > len(r.buf) {
		r.buf = make([]byte, n)
	}
	if _, err := io.ReadFull(r.rs, r.buf[:n]); err != nil {
		return nil, wrapEOF(err)
	}
	return r.buf[:n], nil
}

// ReadU8 reads one unsigned byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.ReadExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads one little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.ReadExact(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads one little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.ReadExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadLengthPrefixedString reads a UTF-8 string prefixed by a little-endian
// length field of the given width, which must be 2 or 4 bytes.
func (r *Reader) ReadLengthPrefixedString(prefixWidth int) (string, error) {
	var n int
	switch prefixWidth {
	case 2:
		v, err := r.ReadU16()
		if err != nil {
			return "", err
		}
		n = int(v)
	case 4:
		v, err := r.ReadU32()
		if err != nil {
			return "", err
		}
		n = int(v)
	default:
		return "", errutil.Newf("breader: unsupported length prefix width %d", prefixWidth)
	}

	b, err := r.ReadExact(n)
	if err != nil {
		return "", err
	}
	// Copy out: ReadExact's buffer is reused by the next call.
	return string(b), nil
}

// Seek moves to an absolute byte offset from the start of the source.
func (r *Reader) Seek(absOffset int64) error {
	if _, err := r.rs.Seek(absOffset, io.SeekStart); err != nil {
		return errutil.Err(err)
	}
	return nil
}

// Tell returns the current absolute byte offset.
func (r *Reader) Tell() (int64, error) {
	return r.rs.Seek(0, io.SeekCurrent)
}

// Discard skips n bytes forward without retaining them, used for BGEN's
// header "free area".
func (r *Reader) Discard(n int64) error {
	if n < 0 {
		return errutil.Newf("breader: negative discard length %d", n)
	}
	pos, err := r.Tell()
	if err != nil {
		return err
	}
	return r.Seek(pos + n)
}
