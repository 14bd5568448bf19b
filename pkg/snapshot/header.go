package snapshot

import (
	"fmt"

	"github.com/deffrian/silkworm/pkg/ethtypes"
	"github.com/deffrian/silkworm/pkg/metrics"
	"github.com/deffrian/silkworm/pkg/snaperr"
	"github.com/deffrian/silkworm/util"
)

const roleHeaderHash = "primary"

// HeaderSnapshot layers header decoding and the by-hash/by-number lookup
// disciplines on top of a Snapshot. Its index is keyed by the full 32-byte
// block hash; base_data_id is block_from.
type HeaderSnapshot struct {
	*Snapshot
}

// NewHeaderSnapshot constructs a closed header reader for [blockFrom, blockTo).
func NewHeaderSnapshot(segPath, idxPath string, blockFrom, blockTo uint64) (*HeaderSnapshot, error) {
	base, err := New(segPath, map[string]string{roleHeaderHash: idxPath}, blockFrom, blockTo)
	if err != nil {
		return nil, err
	}
	return &HeaderSnapshot{Snapshot: base}, nil
}

func decodeHeaderWord(word []byte) (*ethtypes.Header, error) {
	if len(word) < 1 {
		return nil, fmt.Errorf("%w: header word shorter than hash-byte prefix", snaperr.ErrDecodeFailure)
	}
	return ethtypes.DecodeHeader(word[1:])
}

// HeaderByHash performs an MPH lookup and then mandatorily revalidates the
// decoded header's actual hash against the query key: MPH accepts any
// 32-byte input, so a hit on a non-member key must not be returned as if
// it were real.
func (h *HeaderSnapshot) HeaderByHash(hash ethtypes.Hash) (*ethtypes.Header, bool) {
	idx := h.index(roleHeaderHash)
	if idx == nil {
		return nil, false
	}

	metrics.LookupsByHash.Inc()
	ord := idx.Lookup(hash.Bytes())
	off, err := idx.OrdinalLookup(ord)
	if err != nil {
		return nil, false
	}
	word, _, ok := h.NextItem(int64(off))
	if !ok {
		return nil, false
	}
	hdr, err := decodeHeaderWord(word)
	if err != nil {
		util.Warn("header_snapshot: decode failure: %v", err)
		metrics.DecodeFailures.Inc()
		return nil, false
	}
	if hdr.Hash() != hash {
		metrics.RevalidationMismatches.Inc()
		return nil, false
	}
	return hdr, true
}

// HeaderByNumber is ordinal-authoritative: no revalidation is needed since
// the offset came from the block number directly, not from an MPH guess.
func (h *HeaderSnapshot) HeaderByNumber(n uint64) (*ethtypes.Header, bool) {
	if n < h.BlockFrom || n >= h.BlockTo {
		return nil, false
	}
	idx := h.index(roleHeaderHash)
	if idx == nil {
		return nil, false
	}
	metrics.LookupsByOrdinal.Inc()
	ord := n - idx.BaseDataID()
	off, err := idx.OrdinalLookup(ord)
	if err != nil {
		return nil, false
	}
	word, _, ok := h.NextItem(int64(off))
	if !ok {
		return nil, false
	}
	hdr, err := decodeHeaderWord(word)
	if err != nil {
		util.Warn("header_snapshot: decode failure: %v", err)
		metrics.DecodeFailures.Inc()
		return nil, false
	}
	return hdr, true
}

// ForEachHeader walks all words and decodes each to a Header, in ascending
// block-number order. A header violating block_from during iteration aborts
// the walk (CorruptSnapshot), matching other per-record failures that log
// and halt rather than propagate.
func (h *HeaderSnapshot) ForEachHeader(walker func(*ethtypes.Header) bool) bool {
	return h.ForEachItem(func(item Item) bool {
		hdr, err := decodeHeaderWord(item.Bytes)
		if err != nil {
			util.Warn("header_snapshot: decode failure at offset %d: %v", item.Offset, err)
			return false
		}
		if hdr.Number < h.BlockFrom {
			util.Warn("header_snapshot: %v: header %d below block_from %d", snaperr.ErrCorruptSnapshot, hdr.Number, h.BlockFrom)
			return false
		}
		return walker(hdr)
	})
}
