package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcache/edgecache/internal/kv"
)

func TestDirectoryLookupRoundTrip(t *testing.T) {
	req := DirectoryLookupReq{Key: kv.KeyString("k"), SourceEdgeIdx: 7}
	got, err := DecodeDirectoryLookupReq(req.Encode())
	require.NoError(t, err)
	require.Equal(t, req, got)

	resp := DirectoryLookupResp{Key: kv.KeyString("k"), Status: DirStatusReplica, TargetEdgeIdx: 3}
	gotResp, err := DecodeDirectoryLookupResp(resp.Encode())
	require.NoError(t, err)
	require.Equal(t, resp, gotResp)
}

func TestDirectoryUpdateRoundTrip(t *testing.T) {
	req := DirectoryUpdateReq{Key: kv.KeyString("k"), IsAdmit: true, TargetEdgeIdx: 9}
	got, err := DecodeDirectoryUpdateReq(req.Encode())
	require.NoError(t, err)
	require.Equal(t, req, got)
}

func TestAcquireWritelockRoundTrip(t *testing.T) {
	resp := AcquireWritelockResp{Key: kv.KeyString("k"), Result: AcquireSuccess, PeerEdges: []uint32{1, 2, 5}}
	got, err := DecodeAcquireWritelockResp(resp.Encode())
	require.NoError(t, err)
	require.Equal(t, resp, got)
}

func TestReleaseWritelockRoundTrip(t *testing.T) {
	req := ReleaseWritelockReq{Key: kv.KeyString("k"), SenderEdgeIdx: 4}
	got, err := DecodeReleaseWritelockReq(req.Encode())
	require.NoError(t, err)
	require.Equal(t, req, got)
}

func TestBgplacePlacementNotifyRoundTrip(t *testing.T) {
	req := BgplacePlacementNotifyReq{
		Key:           kv.KeyString("hot"),
		Value:         kv.NewValue([]byte("payload")),
		SourceEdgeIdx: 2,
	}
	got, err := DecodeBgplacePlacementNotifyReq(req.Encode())
	require.NoError(t, err)
	require.Equal(t, req, got)
}
