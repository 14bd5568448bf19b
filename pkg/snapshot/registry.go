package snapshot

import (
	"fmt"
	"sync"
)

// Registry tracks every open Snapshot-backed reader by segment path so a
// caller walking many segments doesn't reopen one twice. Adapted from the
// teacher's DiskManager (pkg/disk/manager.go), which played the same role
// for per-partition DiskHandlers.
type Registry struct {
	mu      sync.Mutex
	headers map[string]*HeaderSnapshot
	bodies  map[string]*BodySnapshot
	txns    map[string]*TransactionSnapshot
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		headers: make(map[string]*HeaderSnapshot),
		bodies:  make(map[string]*BodySnapshot),
		txns:    make(map[string]*TransactionSnapshot),
	}
}

// HeaderSnapshot returns the registry's reader for segPath, opening it
// (segment + index) on first use.
func (r *Registry) HeaderSnapshot(segPath, idxPath string, blockFrom, blockTo uint64) (*HeaderSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if hs, ok := r.headers[segPath]; ok {
		return hs, nil
	}
	hs, err := NewHeaderSnapshot(segPath, idxPath, blockFrom, blockTo)
	if err != nil {
		return nil, err
	}
	if err := hs.ReopenSegment(); err != nil {
		return nil, fmt.Errorf("reopen segment %s: %w", segPath, err)
	}
	if err := hs.ReopenIndex(); err != nil {
		return nil, fmt.Errorf("reopen index for %s: %w", segPath, err)
	}
	r.headers[segPath] = hs
	return hs, nil
}

// BodySnapshot returns the registry's reader for segPath, opening it on
// first use.
func (r *Registry) BodySnapshot(segPath, idxPath string, blockFrom, blockTo uint64) (*BodySnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bs, ok := r.bodies[segPath]; ok {
		return bs, nil
	}
	bs, err := NewBodySnapshot(segPath, idxPath, blockFrom, blockTo)
	if err != nil {
		return nil, err
	}
	if err := bs.ReopenSegment(); err != nil {
		return nil, fmt.Errorf("reopen segment %s: %w", segPath, err)
	}
	if err := bs.ReopenIndex(); err != nil {
		return nil, fmt.Errorf("reopen index for %s: %w", segPath, err)
	}
	r.bodies[segPath] = bs
	return bs, nil
}

// TransactionSnapshot returns the registry's reader for segPath, opening it
// on first use.
func (r *Registry) TransactionSnapshot(segPath, idxHashPath, idxHashToBlockPath string, blockFrom, blockTo uint64) (*TransactionSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ts, ok := r.txns[segPath]; ok {
		return ts, nil
	}
	ts, err := NewTransactionSnapshot(segPath, idxHashPath, idxHashToBlockPath, blockFrom, blockTo)
	if err != nil {
		return nil, err
	}
	if err := ts.ReopenSegment(); err != nil {
		return nil, fmt.Errorf("reopen segment %s: %w", segPath, err)
	}
	if err := ts.ReopenIndex(); err != nil {
		return nil, fmt.Errorf("reopen index for %s: %w", segPath, err)
	}
	r.txns[segPath] = ts
	return ts, nil
}

// CloseAll closes every reader the registry has opened.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for path, hs := range r.headers {
		hs.CloseSegment()
		delete(r.headers, path)
	}
	for path, bs := range r.bodies {
		bs.CloseSegment()
		delete(r.bodies, path)
	}
	for path, ts := range r.txns {
		ts.CloseSegment()
		delete(r.txns, path)
	}
}
