package kv

import (
	"encoding/binary"
)

// Buffer is a growable byte buffer used by the wire codec to serialize
// Key/Value pairs and message bodies with length-prefixed fields. It wraps
// a plain []byte rather than bytes.Buffer so Bytes() never needs to copy.
type Buffer struct {
	b []byte
}

// NewBuffer wraps an existing slice for decoding.
func NewBuffer(b []byte) *Buffer { return &Buffer{b: b} }

// Bytes returns the buffer's current contents.
func (buf *Buffer) Bytes() []byte { return buf.b }

// Len returns the number of unread/written bytes.
func (buf *Buffer) Len() int { return len(buf.b) }

// PutUint16/32/64 append a big-endian integer.
func (buf *Buffer) PutUint16(v uint16) { buf.b = binary.BigEndian.AppendUint16(buf.b, v) }
func (buf *Buffer) PutUint32(v uint32) { buf.b = binary.BigEndian.AppendUint32(buf.b, v) }
func (buf *Buffer) PutUint64(v uint64) { buf.b = binary.BigEndian.AppendUint64(buf.b, v) }
func (buf *Buffer) PutByte(v uint8)    { buf.b = append(buf.b, v) }

// PutBytes appends a u32-length-prefixed byte slice.
func (buf *Buffer) PutBytes(v []byte) {
	buf.PutUint32(uint32(len(v)))
	buf.b = append(buf.b, v...)
}

// PutKey appends a key as a length-prefixed byte slice.
func (buf *Buffer) PutKey(k Key) { buf.PutBytes(k.Bytes()) }

// PutValue appends a value as a length-prefixed byte slice plus the
// deleted flag.
func (buf *Buffer) PutValue(v Value) {
	buf.PutBytes(v.b)
	if v.Deleted {
		buf.PutByte(1)
	} else {
		buf.PutByte(0)
	}
}

// Reader tracks a read cursor over the same backing slice.
type Reader struct {
	b   []byte
	pos int
}

// NewReader returns a cursor for decoding a previously-encoded Buffer.
func NewReader(b []byte) *Reader { return &Reader{b: b} }

func (r *Reader) err(need int) error {
	if r.pos+need > len(r.b) {
		return errShortBuffer
	}
	return nil
}

func (r *Reader) Uint16() (uint16, error) {
	if err := r.err(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.b[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *Reader) Uint32() (uint32, error) {
	if err := r.err(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.b[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *Reader) Uint64() (uint64, error) {
	if err := r.err(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.b[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *Reader) Byte() (uint8, error) {
	if err := r.err(1); err != nil {
		return 0, err
	}
	v := r.b[r.pos]
	r.pos++
	return v, nil
}

func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if err := r.err(int(n)); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.b[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return out, nil
}

func (r *Reader) Key() (Key, error) {
	b, err := r.Bytes()
	if err != nil {
		return Key{}, err
	}
	return NewKey(b), nil
}

func (r *Reader) Value() (Value, error) {
	b, err := r.Bytes()
	if err != nil {
		return Value{}, err
	}
	del, err := r.Byte()
	if err != nil {
		return Value{}, err
	}
	v := NewValue(b)
	v.Deleted = del != 0
	return v, nil
}

// Remaining returns the unread tail of the buffer (e.g. an opaque message
// body after the common frame header has been consumed).
func (r *Reader) Remaining() []byte { return r.b[r.pos:] }

type bufErr string

func (e bufErr) Error() string { return string(e) }

const errShortBuffer = bufErr("kv: short buffer")

