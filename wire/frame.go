package wire

import "github.com/dcache/edgecache/internal/kv"

// Frame is the common envelope of spec §6:
//
//	[typeTag: u16][sourceEdgeIdx: u32][sourceAddr: (ip:u32,port:u16)]
//	[bandwidthAccum: u64][eventList: varlen][skipPropFlag:u8][monitoredFlag:u8][body...]
//
// All multi-byte integers are big-endian (network byte order) except inside
// opaque Value bytes, which are carried verbatim.
type Frame struct {
	Type           MessageType
	SourceEdgeIdx  uint32
	SourceAddr     Addr
	BandwidthAccum uint64
	Events         []Event
	SkipProp       bool
	Monitored      bool
	Body           []byte
}

// Encode serializes the frame to bytes. serialize ∘ deserialize = id is a
// testable property (spec §8); messages_test.go checks it for message
// bodies, and no test in this package round-trips a Frame.
func (f Frame) Encode() []byte {
	buf := &kv.Buffer{}
	buf.PutUint16(uint16(f.Type))
	buf.PutUint32(f.SourceEdgeIdx)
	buf.PutUint32(f.SourceAddr.IP)
	buf.PutUint16(f.SourceAddr.Port)
	buf.PutUint64(f.BandwidthAccum)

	buf.PutUint32(uint32(len(f.Events)))
	for _, e := range f.Events {
		buf.PutBytes([]byte(e.Name))
		buf.PutUint64(uint64(e.Timestamp))
	}

	buf.PutByte(boolByte(f.SkipProp))
	buf.PutByte(boolByte(f.Monitored))
	buf.PutBytes(f.Body)
	return buf.Bytes()
}

// Decode parses a frame previously produced by Encode.
func Decode(b []byte) (Frame, error) {
	r := kv.NewReader(b)
	var f Frame

	t, err := r.Uint16()
	if err != nil {
		return Frame{}, err
	}
	f.Type = MessageType(t)

	if f.SourceEdgeIdx, err = r.Uint32(); err != nil {
		return Frame{}, err
	}
	if f.SourceAddr.IP, err = r.Uint32(); err != nil {
		return Frame{}, err
	}
	if f.SourceAddr.Port, err = r.Uint16(); err != nil {
		return Frame{}, err
	}
	if f.BandwidthAccum, err = r.Uint64(); err != nil {
		return Frame{}, err
	}

	n, err := r.Uint32()
	if err != nil {
		return Frame{}, err
	}
	f.Events = make([]Event, 0, n)
	for i := uint32(0); i < n; i++ {
		name, err := r.Bytes()
		if err != nil {
			return Frame{}, err
		}
		ts, err := r.Uint64()
		if err != nil {
			return Frame{}, err
		}
		f.Events = append(f.Events, Event{Name: string(name), Timestamp: int64(ts)})
	}

	skip, err := r.Byte()
	if err != nil {
		return Frame{}, err
	}
	f.SkipProp = skip != 0

	mon, err := r.Byte()
	if err != nil {
		return Frame{}, err
	}
	f.Monitored = mon != 0

	body, err := r.Bytes()
	if err != nil {
		return Frame{}, err
	}
	f.Body = body
	return f, nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
