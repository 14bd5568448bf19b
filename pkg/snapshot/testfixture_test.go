package snapshot_test

import (
	"path/filepath"
	"testing"

	"github.com/deffrian/silkworm/pkg/recsplit"
	"github.com/deffrian/silkworm/pkg/rlp"
	"github.com/deffrian/silkworm/pkg/seg"
)

// encodeTestHeader builds a minimal but structurally valid 15-field RLP
// header list, varying only parentHash and number.
func encodeTestHeader(number uint64, parentHash [32]byte) []byte {
	zero32 := make([]byte, 32)
	zero20 := make([]byte, 20)
	return rlp.EncodeList(
		rlp.EncodeBytes(parentHash[:]),
		rlp.EncodeBytes(zero32),
		rlp.EncodeBytes(zero20),
		rlp.EncodeBytes(zero32),
		rlp.EncodeBytes(zero32),
		rlp.EncodeBytes(zero32),
		rlp.EncodeBytes(nil),
		rlp.EncodeUint64(0),
		rlp.EncodeUint64(number),
		rlp.EncodeUint64(30000000),
		rlp.EncodeUint64(21000),
		rlp.EncodeUint64(1700000000+number),
		rlp.EncodeBytes(nil),
		rlp.EncodeBytes(zero32),
		rlp.EncodeBytes([]byte{0, 0, 0, 0, 0, 0, 0, byte(number)}),
	)
}

// collectOffsets opens path and returns the byte offset of every word, in
// encounter order, matching what a real index builder would record.
func collectOffsets(t *testing.T, path string) []int64 {
	t.Helper()
	dec, err := seg.Open(path)
	if err != nil {
		t.Fatalf("seg.Open(%s): %v", path, err)
	}
	defer dec.Close()

	var offsets []int64
	it := dec.MakeIterator()
	for it.HasNext() {
		off := it.Offset()
		if _, _, err := it.Next(nil); err != nil {
			t.Fatalf("Next: %v", err)
		}
		offsets = append(offsets, off)
	}
	return offsets
}

// buildFixtureIndexFile writes a RecSplitIndex over keys/offsets and returns
// its path.
func buildFixtureIndexFile(t *testing.T, dir, name string, baseDataID uint64, keys [][]byte, offsets []uint64) string {
	t.Helper()
	const bucketCount = 4
	path := filepath.Join(dir, name)
	if err := recsplit.BuildIndexFile(path, baseDataID, bucketCount, 8, keys, offsets); err != nil {
		t.Fatalf("BuildIndexFile: %v", err)
	}
	return path
}

func u64sToU64(offs []int64) []uint64 {
	out := make([]uint64, len(offs))
	for i, o := range offs {
		out[i] = uint64(o)
	}
	return out
}

func legacyTxEnvelope(nonce uint64) []byte {
	return rlp.EncodeList(
		rlp.EncodeUint64(nonce),
		rlp.EncodeUint64(20000000000),
		rlp.EncodeUint64(21000),
		rlp.EncodeBytes(make([]byte, 20)),
		rlp.EncodeUint64(0),
		rlp.EncodeBytes(nil),
	)
}

// typedTxEnvelope builds an EIP-2718 dynamic-fee-style envelope: a type tag
// byte (0x02) followed by an RLP list payload.
func typedTxEnvelope(nonce uint64) []byte {
	payload := rlp.EncodeList(
		rlp.EncodeUint64(1), // chainID
		rlp.EncodeUint64(nonce),
		rlp.EncodeUint64(1000000000),
		rlp.EncodeUint64(20000000000),
		rlp.EncodeUint64(21000),
		rlp.EncodeBytes(make([]byte, 20)),
		rlp.EncodeUint64(0),
		rlp.EncodeBytes(nil),
		rlp.EncodeList(),
	)
	return append([]byte{0x02}, payload...)
}
