package snapshot

import (
	"fmt"

	"github.com/deffrian/silkworm/pkg/ethtypes"
	"github.com/deffrian/silkworm/pkg/metrics"
	"github.com/deffrian/silkworm/pkg/snaperr"
	"github.com/deffrian/silkworm/util"
)

const roleBodyNumber = "primary"

// BodySnapshot layers stored-body decoding and by-number lookup on top of a
// Snapshot. Its index is keyed by block number; base_data_id is block_from.
// There is no by-hash path — bodies are not independently content-addressed.
type BodySnapshot struct {
	*Snapshot
}

// NewBodySnapshot constructs a closed body reader for [blockFrom, blockTo).
func NewBodySnapshot(segPath, idxPath string, blockFrom, blockTo uint64) (*BodySnapshot, error) {
	base, err := New(segPath, map[string]string{roleBodyNumber: idxPath}, blockFrom, blockTo)
	if err != nil {
		return nil, err
	}
	return &BodySnapshot{Snapshot: base}, nil
}

// BodyByNumber is ordinal-authoritative: no MPH lookup involved, so no
// revalidation is needed.
func (b *BodySnapshot) BodyByNumber(n uint64) (*ethtypes.StoredBody, bool) {
	if n < b.BlockFrom || n >= b.BlockTo {
		return nil, false
	}
	idx := b.index(roleBodyNumber)
	if idx == nil {
		return nil, false
	}
	metrics.LookupsByOrdinal.Inc()
	ord := n - idx.BaseDataID()
	off, err := idx.OrdinalLookup(ord)
	if err != nil {
		return nil, false
	}
	word, _, ok := b.NextItem(int64(off))
	if !ok {
		return nil, false
	}
	body, err := ethtypes.DecodeStoredBody(word)
	if err != nil {
		util.Warn("body_snapshot: decode failure: %v", err)
		metrics.DecodeFailures.Inc()
		return nil, false
	}
	if body.BaseTxnID < idx.BaseDataID() {
		return nil, false
	}
	return body, true
}

// ForEachBody walks all words and decodes each to a StoredBody.
func (b *BodySnapshot) ForEachBody(walker func(*ethtypes.StoredBody) bool) bool {
	return b.ForEachItem(func(item Item) bool {
		body, err := ethtypes.DecodeStoredBody(item.Bytes)
		if err != nil {
			util.Warn("body_snapshot: decode failure at offset %d: %v", item.Offset, err)
			return false
		}
		return walker(body)
	})
}

// ComputeTxsAmount scans the full segment once and returns the first
// transaction id (the base_txn_id of the body at block_from) and the total
// transaction count spanned by this body range.
func (b *BodySnapshot) ComputeTxsAmount() (firstTxID uint64, totalCount uint64, err error) {
	var first, lastBase, lastCount uint64
	seen := false

	ok := b.ForEachBody(func(body *ethtypes.StoredBody) bool {
		if !seen {
			first = body.BaseTxnID
			seen = true
		}
		lastBase = body.BaseTxnID
		lastCount = body.TxnCount
		return true
	})
	if !ok && !seen {
		return 0, 0, fmt.Errorf("%w: compute_txs_amount aborted before any body decoded", snaperr.ErrEmptySnapshot)
	}
	if !seen {
		return 0, 0, snaperr.ErrEmptySnapshot
	}
	return first, lastBase + lastCount - first, nil
}
