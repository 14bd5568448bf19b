// Package snapshot implements the Snapshot base and its typed readers
// (HeaderSnapshot, BodySnapshot, TransactionSnapshot): each owns one
// Decompressor plus zero or more RecSplitIndex instances for one segment,
// and enforces the open/close lifecycle and staleness discipline described
// in the store's design. Grounded on the teacher's ReadSession/activeReaders
// pattern (pkg/disk/retention.go) for the read-scope-vs-open/close locking
// split, and on DiskManager (pkg/disk/manager.go) for the multi-instance
// registry adapted below in registry.go.
package snapshot

import (
	"fmt"
	"os"
	"sync"

	"github.com/deffrian/silkworm/pkg/metrics"
	"github.com/deffrian/silkworm/pkg/recsplit"
	"github.com/deffrian/silkworm/pkg/seg"
	"github.com/deffrian/silkworm/pkg/snaperr"
	"github.com/deffrian/silkworm/util"
)

// State is the reader's lifecycle state, moving monotonically forward on
// each reopen_* call; CloseSegment forces a transition back to Closed.
type State int

const (
	StateClosed State = iota
	StateSegmentOpen
	StateIndexesOpen
)

// Snapshot owns one segment's Decompressor and its sibling indexes, keyed
// by role (e.g. "primary", "txn_hash_to_block"). It is the common base
// underneath HeaderSnapshot, BodySnapshot, and TransactionSnapshot.
type Snapshot struct {
	mu sync.RWMutex

	segPath  string
	idxPaths map[string]string

	BlockFrom uint64
	BlockTo   uint64

	dec     *seg.Decompressor
	indexes map[string]*recsplit.Index
	state   State
}

// New constructs a closed Snapshot for the half-open block range
// [blockFrom, blockTo). idxPaths maps a caller-chosen role name to the
// sibling index file path for that role.
func New(segPath string, idxPaths map[string]string, blockFrom, blockTo uint64) (*Snapshot, error) {
	if blockTo < blockFrom {
		return nil, fmt.Errorf("%w: block_to %d < block_from %d", snaperr.ErrCorruptSnapshot, blockTo, blockFrom)
	}
	return &Snapshot{
		segPath:   segPath,
		idxPaths:  idxPaths,
		BlockFrom: blockFrom,
		BlockTo:   blockTo,
		indexes:   make(map[string]*recsplit.Index),
	}, nil
}

// ReopenSegment is idempotent: it closes any existing mapping then opens
// the segment fresh.
func (s *Snapshot) ReopenSegment() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dec != nil {
		s.dec.Close()
		s.dec = nil
	}
	for role, idx := range s.indexes {
		idx.Close()
		delete(s.indexes, role)
	}

	dec, err := seg.Open(s.segPath)
	if err != nil {
		s.state = StateClosed
		return err
	}
	s.dec = dec
	s.state = StateSegmentOpen
	metrics.SegmentOpens.Inc()
	return nil
}

// ReopenIndex opens (or re-validates) every configured sibling index.
// Precondition: the segment must already be open. An index whose mtime is
// strictly older than the segment's mtime is discarded — lookups through
// that role silently return "not found" until a fresher index is opened.
// This check runs on every call, not only the first, per the staleness
// discipline.
func (s *Snapshot) ReopenIndex() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dec == nil {
		return fmt.Errorf("%w: reopen_index requires an open segment", snaperr.ErrCorruptSnapshot)
	}

	segMtime := s.dec.LastWriteTime()
	for role, path := range s.idxPaths {
		if old, ok := s.indexes[role]; ok {
			old.Close()
			delete(s.indexes, role)
		}

		info, err := os.Stat(path)
		if err != nil {
			util.Debug("snapshot: index %s (%s) unavailable: %v", role, path, err)
			continue
		}
		if info.ModTime().Before(segMtime) {
			util.Warn("snapshot: index %s (%s) is stale (mtime < segment mtime); discarding", role, path)
			metrics.IndexStaleRejections.Inc()
			continue
		}

		idx, err := recsplit.Open(path)
		if err != nil {
			util.Warn("snapshot: failed to open index %s (%s): %v", role, path, err)
			continue
		}
		s.indexes[role] = idx
		metrics.IndexOpens.Inc()
	}

	s.state = StateIndexesOpen
	return nil
}

// CloseIndex drops all open index mappings, leaving the segment mapped.
func (s *Snapshot) CloseIndex() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for role, idx := range s.indexes {
		idx.Close()
		delete(s.indexes, role)
	}
	if s.state == StateIndexesOpen {
		s.state = StateSegmentOpen
	}
}

// CloseSegment unmaps the segment and implicitly drops all indexes,
// forcing the reader back to Closed.
func (s *Snapshot) CloseSegment() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for role, idx := range s.indexes {
		idx.Close()
		delete(s.indexes, role)
	}
	if s.dec != nil {
		s.dec.Close()
		s.dec = nil
	}
	s.state = StateClosed
}

// State returns the reader's current lifecycle state.
func (s *Snapshot) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// index returns the open index for role, or nil if absent/stale/unopened.
func (s *Snapshot) index(role string) *recsplit.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexes[role]
}

// Item is one decoded word plus its framing position in the segment.
type Item struct {
	Offset   int64
	Position uint64
	Bytes    []byte
}

// ForEachItem iterates every word in the segment under a single read-ahead
// scope, in strictly ascending offset order. walker returns false to halt
// iteration early; ForEachItem returns whether iteration completed.
func (s *Snapshot) ForEachItem(walker func(Item) bool) bool {
	s.mu.RLock()
	dec := s.dec
	s.mu.RUnlock()
	if dec == nil {
		return false
	}

	completed := true
	dec.ReadAhead(func(it *seg.Iterator) bool {
		position := uint64(0)
		for it.HasNext() {
			offset := it.Offset()
			word, next, err := it.Next(nil)
			if err != nil {
				util.Warn("snapshot: decode failure at offset %d: %v", offset, err)
				completed = false
				return false
			}
			if !walker(Item{Offset: offset, Position: position, Bytes: word}) {
				completed = false
				return false
			}
			_ = next
			position++
		}
		return true
	})
	return completed
}

// NextItem returns the single word at offset, or ok=false if decoding
// fails. Failure is logged, never returned as an error: a malformed record
// does not poison the rest of the snapshot.
func (s *Snapshot) NextItem(offset int64) (word []byte, next int64, ok bool) {
	s.mu.RLock()
	dec := s.dec
	s.mu.RUnlock()
	if dec == nil {
		return nil, offset, false
	}

	it := dec.MakeIterator()
	it.Reset(offset)
	if !it.HasNext() {
		return nil, offset, false
	}
	w, n, err := it.Next(nil)
	if err != nil {
		util.Warn("snapshot: decode failure at offset %d: %v", offset, err)
		return nil, offset, false
	}
	return w, n, true
}
