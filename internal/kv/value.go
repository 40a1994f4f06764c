package kv

// Value is a variable-length opaque byte payload plus a tombstone bit.
// Delete is modeled as a write of a tombstone value (zero-length payload,
// Deleted=true) rather than a distinct wire operation on the engine.
type Value struct {
	b       []byte
	Deleted bool
}

// NewValue copies b into an immutable Value.
func NewValue(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{b: cp}
}

// Tombstone returns the zero-length deleted value written on DEL.
func Tombstone() Value { return Value{Deleted: true} }

// Bytes returns the payload. Callers must not mutate the slice.
func (v Value) Bytes() []byte { return v.b }

// ValueSize is the payload byte count (32-bit per the data model).
func (v Value) ValueSize() uint32 { return uint32(len(v.b)) }

// ObjectSize is KeySize+ValueSize for a given key, the unit capacity
// accounting is expressed in before any policy-private metadata is added.
func ObjectSize(k Key, v Value) uint32 {
	return uint32(k.Len()) + v.ValueSize()
}
