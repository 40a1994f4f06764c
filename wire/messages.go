package wire

import "github.com/dcache/edgecache/internal/kv"

// Each body type below implements Encode/Decode so dispatcher handlers can
// marshal a Frame.Body without hand-rolling offsets per call site. Bodies
// compose the same kv.Buffer/Reader primitives Frame itself uses.

type LocalGetReq struct{ Key kv.Key }

func (m LocalGetReq) Encode() []byte {
	b := &kv.Buffer{}
	b.PutKey(m.Key)
	return b.Bytes()
}
func DecodeLocalGetReq(b []byte) (LocalGetReq, error) {
	r := kv.NewReader(b)
	k, err := r.Key()
	return LocalGetReq{Key: k}, err
}

type LocalGetResp struct {
	Key     kv.Key
	Value   kv.Value
	Hit     Hitflag
}

func (m LocalGetResp) Encode() []byte {
	b := &kv.Buffer{}
	b.PutKey(m.Key)
	b.PutValue(m.Value)
	b.PutByte(uint8(m.Hit))
	return b.Bytes()
}
func DecodeLocalGetResp(b []byte) (LocalGetResp, error) {
	r := kv.NewReader(b)
	k, err := r.Key()
	if err != nil {
		return LocalGetResp{}, err
	}
	v, err := r.Value()
	if err != nil {
		return LocalGetResp{}, err
	}
	hit, err := r.Byte()
	return LocalGetResp{Key: k, Value: v, Hit: Hitflag(hit)}, err
}

type KeyValueReq struct {
	Key   kv.Key
	Value kv.Value
}

func (m KeyValueReq) Encode() []byte {
	b := &kv.Buffer{}
	b.PutKey(m.Key)
	b.PutValue(m.Value)
	return b.Bytes()
}
func DecodeKeyValueReq(b []byte) (KeyValueReq, error) {
	r := kv.NewReader(b)
	k, err := r.Key()
	if err != nil {
		return KeyValueReq{}, err
	}
	v, err := r.Value()
	return KeyValueReq{Key: k, Value: v}, err
}

// KeyReq is the shared shape of DelRequest/GlobalGetRequest/RedirectedGetRequest.
type KeyReq struct{ Key kv.Key }

func (m KeyReq) Encode() []byte {
	b := &kv.Buffer{}
	b.PutKey(m.Key)
	return b.Bytes()
}
func DecodeKeyReq(b []byte) (KeyReq, error) {
	r := kv.NewReader(b)
	k, err := r.Key()
	return KeyReq{Key: k}, err
}

// DirLookupStatus enumerates DirectoryLookupResponse's status field.
type DirLookupStatus uint8

const (
	DirStatusNone DirLookupStatus = iota
	DirStatusBeingWritten
	DirStatusReplica
)

type DirectoryLookupReq struct {
	Key           kv.Key
	SourceEdgeIdx uint32
}

func (m DirectoryLookupReq) Encode() []byte {
	b := &kv.Buffer{}
	b.PutKey(m.Key)
	b.PutUint32(m.SourceEdgeIdx)
	return b.Bytes()
}
func DecodeDirectoryLookupReq(b []byte) (DirectoryLookupReq, error) {
	r := kv.NewReader(b)
	k, err := r.Key()
	if err != nil {
		return DirectoryLookupReq{}, err
	}
	idx, err := r.Uint32()
	return DirectoryLookupReq{Key: k, SourceEdgeIdx: idx}, err
}

type DirectoryLookupResp struct {
	Key          kv.Key
	Status       DirLookupStatus
	TargetEdgeIdx uint32 // valid iff Status == DirStatusReplica
}

func (m DirectoryLookupResp) Encode() []byte {
	b := &kv.Buffer{}
	b.PutKey(m.Key)
	b.PutByte(uint8(m.Status))
	b.PutUint32(m.TargetEdgeIdx)
	return b.Bytes()
}
func DecodeDirectoryLookupResp(b []byte) (DirectoryLookupResp, error) {
	r := kv.NewReader(b)
	k, err := r.Key()
	if err != nil {
		return DirectoryLookupResp{}, err
	}
	st, err := r.Byte()
	if err != nil {
		return DirectoryLookupResp{}, err
	}
	idx, err := r.Uint32()
	return DirectoryLookupResp{Key: k, Status: DirLookupStatus(st), TargetEdgeIdx: idx}, err
}

type DirectoryUpdateReq struct {
	Key           kv.Key
	IsAdmit       bool
	TargetEdgeIdx uint32
}

func (m DirectoryUpdateReq) Encode() []byte {
	b := &kv.Buffer{}
	b.PutKey(m.Key)
	b.PutByte(boolByte(m.IsAdmit))
	b.PutUint32(m.TargetEdgeIdx)
	return b.Bytes()
}
func DecodeDirectoryUpdateReq(b []byte) (DirectoryUpdateReq, error) {
	r := kv.NewReader(b)
	k, err := r.Key()
	if err != nil {
		return DirectoryUpdateReq{}, err
	}
	admit, err := r.Byte()
	if err != nil {
		return DirectoryUpdateReq{}, err
	}
	idx, err := r.Uint32()
	return DirectoryUpdateReq{Key: k, IsAdmit: admit != 0, TargetEdgeIdx: idx}, err
}

// AcquireResult enumerates AcquireWritelockResponse's outcome.
type AcquireResult uint8

const (
	AcquireNoneed AcquireResult = iota
	AcquireSuccess
	AcquireFailure
)

type AcquireWritelockReq struct {
	Key           kv.Key
	SourceEdgeIdx uint32
}

func (m AcquireWritelockReq) Encode() []byte {
	b := &kv.Buffer{}
	b.PutKey(m.Key)
	b.PutUint32(m.SourceEdgeIdx)
	return b.Bytes()
}
func DecodeAcquireWritelockReq(b []byte) (AcquireWritelockReq, error) {
	r := kv.NewReader(b)
	k, err := r.Key()
	if err != nil {
		return AcquireWritelockReq{}, err
	}
	idx, err := r.Uint32()
	return AcquireWritelockReq{Key: k, SourceEdgeIdx: idx}, err
}

type AcquireWritelockResp struct {
	Key        kv.Key
	Result     AcquireResult
	PeerEdges  []uint32 // edges whose dirinfo was invalidated (Result==Success)
}

func (m AcquireWritelockResp) Encode() []byte {
	b := &kv.Buffer{}
	b.PutKey(m.Key)
	b.PutByte(uint8(m.Result))
	b.PutUint32(uint32(len(m.PeerEdges)))
	for _, e := range m.PeerEdges {
		b.PutUint32(e)
	}
	return b.Bytes()
}
func DecodeAcquireWritelockResp(b []byte) (AcquireWritelockResp, error) {
	r := kv.NewReader(b)
	k, err := r.Key()
	if err != nil {
		return AcquireWritelockResp{}, err
	}
	res, err := r.Byte()
	if err != nil {
		return AcquireWritelockResp{}, err
	}
	n, err := r.Uint32()
	if err != nil {
		return AcquireWritelockResp{}, err
	}
	peers := make([]uint32, 0, n)
	for i := uint32(0); i < n; i++ {
		e, err := r.Uint32()
		if err != nil {
			return AcquireWritelockResp{}, err
		}
		peers = append(peers, e)
	}
	return AcquireWritelockResp{Key: k, Result: AcquireResult(res), PeerEdges: peers}, nil
}

type ReleaseWritelockReq struct {
	Key           kv.Key
	SenderEdgeIdx uint32
}

func (m ReleaseWritelockReq) Encode() []byte {
	b := &kv.Buffer{}
	b.PutKey(m.Key)
	b.PutUint32(m.SenderEdgeIdx)
	return b.Bytes()
}
func DecodeReleaseWritelockReq(b []byte) (ReleaseWritelockReq, error) {
	r := kv.NewReader(b)
	k, err := r.Key()
	if err != nil {
		return ReleaseWritelockReq{}, err
	}
	idx, err := r.Uint32()
	return ReleaseWritelockReq{Key: k, SenderEdgeIdx: idx}, err
}

// BgplacePlacementNotifyReq is the covered/bestguess placement push: an
// edge proactively tells a peer "admit this key, I estimate it's popular
// enough to be worth replicating here", carrying the value itself so the
// peer doesn't need a redundant origin round trip just to host it.
type BgplacePlacementNotifyReq struct {
	Key           kv.Key
	Value         kv.Value
	SourceEdgeIdx uint32
}

func (m BgplacePlacementNotifyReq) Encode() []byte {
	b := &kv.Buffer{}
	b.PutKey(m.Key)
	b.PutValue(m.Value)
	b.PutUint32(m.SourceEdgeIdx)
	return b.Bytes()
}
func DecodeBgplacePlacementNotifyReq(b []byte) (BgplacePlacementNotifyReq, error) {
	r := kv.NewReader(b)
	k, err := r.Key()
	if err != nil {
		return BgplacePlacementNotifyReq{}, err
	}
	v, err := r.Value()
	if err != nil {
		return BgplacePlacementNotifyReq{}, err
	}
	idx, err := r.Uint32()
	return BgplacePlacementNotifyReq{Key: k, Value: v, SourceEdgeIdx: idx}, err
}
