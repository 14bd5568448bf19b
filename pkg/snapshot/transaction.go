package snapshot

import (
	"fmt"

	"github.com/deffrian/silkworm/pkg/ethtypes"
	"github.com/deffrian/silkworm/pkg/metrics"
	"github.com/deffrian/silkworm/pkg/snaperr"
	"github.com/deffrian/silkworm/util"
)

const (
	roleTxnHash        = "txn_hash"
	roleTxnHashToBlock = "txn_hash_to_block"

	senderLen = 20
)

// TransactionSnapshot layers transaction-envelope decoding and the
// by-hash/by-id/range lookup disciplines on top of a Snapshot. It carries
// two independent indexes — idx_txn_hash (base_data_id = first_tx_id) and
// idx_txn_hash_to_block (hash -> block number, for reverse lookup) — either
// of which may be absent or stale without affecting the other.
type TransactionSnapshot struct {
	*Snapshot
}

// NewTransactionSnapshot constructs a closed transaction reader. Either
// index path may be left empty if that auxiliary index is not produced for
// this segment.
func NewTransactionSnapshot(segPath, idxHashPath, idxHashToBlockPath string, blockFrom, blockTo uint64) (*TransactionSnapshot, error) {
	roles := map[string]string{}
	if idxHashPath != "" {
		roles[roleTxnHash] = idxHashPath
	}
	if idxHashToBlockPath != "" {
		roles[roleTxnHashToBlock] = idxHashToBlockPath
	}
	base, err := New(segPath, roles, blockFrom, blockTo)
	if err != nil {
		return nil, err
	}
	return &TransactionSnapshot{Snapshot: base}, nil
}

func decodeTxnWord(word []byte) (sender [senderLen]byte, tx *ethtypes.Transaction, err error) {
	if len(word) < 1+senderLen {
		return sender, nil, fmt.Errorf("%w: transaction word shorter than hash-byte+sender prefix", snaperr.ErrDecodeFailure)
	}
	copy(sender[:], word[1:1+senderLen])
	tx, err = ethtypes.DecodeTxEnvelope(word[1+senderLen:])
	return sender, tx, err
}

// TxnByHash performs an MPH lookup on idx_txn_hash and mandatorily
// revalidates the decoded transaction's actual hash.
func (t *TransactionSnapshot) TxnByHash(hash ethtypes.Hash) (*ethtypes.Transaction, bool) {
	idx := t.index(roleTxnHash)
	if idx == nil {
		return nil, false
	}
	metrics.LookupsByHash.Inc()
	ord := idx.Lookup(hash.Bytes())
	off, err := idx.OrdinalLookup(ord)
	if err != nil {
		return nil, false
	}
	word, _, ok := t.NextItem(int64(off))
	if !ok {
		return nil, false
	}
	sender, tx, err := decodeTxnWord(word)
	if err != nil {
		util.Warn("transaction_snapshot: decode failure: %v", err)
		metrics.DecodeFailures.Inc()
		return nil, false
	}
	full := tx.WithSender(sender)
	if full.Hash() != hash {
		metrics.RevalidationMismatches.Inc()
		return nil, false
	}
	return &full, true
}

// TxnBlockByHash resolves a transaction hash to its owning block number via
// idx_txn_hash_to_block. Unlike TxnByHash there is no decoded record here to
// re-check the queried key against — the index's stored values are block
// numbers, not transaction envelopes — so a non-member hash that happens to
// land in a populated bucket returns a plausible but unvalidated block
// number. Callers that need certainty should follow up with TxnByHash
// against the returned block's transaction range.
func (t *TransactionSnapshot) TxnBlockByHash(hash ethtypes.Hash) (uint64, bool) {
	idx := t.index(roleTxnHashToBlock)
	if idx == nil {
		return 0, false
	}
	metrics.LookupsByHash.Inc()
	ord := idx.Lookup(hash.Bytes())
	blockNumber, err := idx.OrdinalLookup(ord)
	if err != nil {
		return 0, false
	}
	return blockNumber, true
}

// TxnByID is ordinal-authoritative: no revalidation needed.
func (t *TransactionSnapshot) TxnByID(id uint64) (*ethtypes.Transaction, bool) {
	idx := t.index(roleTxnHash)
	if idx == nil {
		return nil, false
	}
	if id < idx.BaseDataID() {
		return nil, false
	}
	metrics.LookupsByOrdinal.Inc()
	off, err := idx.OrdinalLookup(id - idx.BaseDataID())
	if err != nil {
		return nil, false
	}
	word, _, ok := t.NextItem(int64(off))
	if !ok {
		return nil, false
	}
	sender, tx, err := decodeTxnWord(word)
	if err != nil {
		util.Warn("transaction_snapshot: decode failure: %v", err)
		return nil, false
	}
	full := tx.WithSender(sender)
	return &full, true
}

// TxnRange yields count consecutive transactions starting at baseTxnID,
// threading each word's returned next-offset into the following read
// instead of re-consulting the index per record.
func (t *TransactionSnapshot) TxnRange(baseTxnID uint64, count int, readSenders bool) ([]*ethtypes.Transaction, bool) {
	idx := t.index(roleTxnHash)
	if idx == nil || count <= 0 {
		return nil, false
	}
	if baseTxnID < idx.BaseDataID() {
		return nil, false
	}
	off, err := idx.OrdinalLookup(baseTxnID - idx.BaseDataID())
	if err != nil {
		return nil, false
	}

	txns := make([]*ethtypes.Transaction, 0, count)
	offset := int64(off)
	for i := 0; i < count; i++ {
		word, next, ok := t.NextItem(offset)
		if !ok {
			return nil, false
		}
		sender, tx, err := decodeTxnWord(word)
		if err != nil {
			util.Warn("transaction_snapshot: decode failure at offset %d: %v", offset, err)
			return nil, false
		}
		full := *tx
		if readSenders {
			full = tx.WithSender(sender)
		}
		txns = append(txns, &full)
		offset = next
	}
	return txns, true
}

// TxnRLPRange performs the same traversal as TxnRange but returns each
// transaction's raw RLP payload instead of a decoded Transaction: for typed
// transactions both the type byte and the list header are stripped, and a
// legacy envelope is returned whole (see Transaction.RLP).
func (t *TransactionSnapshot) TxnRLPRange(baseTxnID uint64, count int) ([][]byte, bool) {
	txns, ok := t.TxnRange(baseTxnID, count, false)
	if !ok {
		return nil, false
	}
	out := make([][]byte, len(txns))
	for i, tx := range txns {
		out[i] = tx.RLP()
	}
	return out, true
}

// ForEachTxn walks all words and decodes each to a Transaction, restoring
// the sender when readSenders is true.
func (t *TransactionSnapshot) ForEachTxn(readSenders bool, walker func(*ethtypes.Transaction) bool) bool {
	return t.ForEachItem(func(item Item) bool {
		sender, tx, err := decodeTxnWord(item.Bytes)
		if err != nil {
			util.Warn("transaction_snapshot: decode failure at offset %d: %v", item.Offset, err)
			return false
		}
		full := *tx
		if readSenders {
			full = tx.WithSender(sender)
		}
		return walker(&full)
	})
}
