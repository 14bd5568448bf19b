// Package recsplit implements RecSplitIndex: a memory-mapped minimal
// perfect hash (MPH) over a known key set, plus an Elias-Fano-encoded
// ordinal-to-offset table. Grounded on the teacher's mmap-backed binary
// search index (pkg/disk/index.go's findOffsetPosition) for the mmap +
// binary.LittleEndian reading idiom, generalized from an offset/position
// pair table to a bucketed perfect-hash table.
//
// The reader implements a single-level simplification of RecSplit: each key
// is assigned to a bucket by a seeded hash, and each bucket carries one
// stored seed chosen (by the out-of-scope construction pipeline) so that
// hashing every bucket member with that seed produces a bijection onto the
// bucket's local ordinal range. The reader only ever interprets stored
// seeds; it never re-derives them, matching the spec's reader/writer split.
//
// Bucket assignment by a seeded hash does not split keys evenly, so a
// bucket's local ordinal range cannot be derived from key_count/bucket_count
// alone; the file carries an explicit per-bucket key-count table (see
// Index.parse) that the reader turns into prefix-sum bucket boundaries once
// at open time.
//
// A bucket's local ordinal range also has no relation to a key's true
// position in the caller's ordinal space (block number minus base_data_id,
// or transaction id minus base_data_id) — by_number/by_id lookups index the
// offset table directly by that true ordinal, so Lookup must recover exactly
// that value for any key in the construction set. Bucket+seed hashing alone
// cannot target a specific value, only produce some bijection, so the file
// carries one more small table: remap, indexed by a key's bucket+local-leaf
// slot, holding the true ordinal the construction pipeline assigned to
// whichever key landed in that slot. Lookup is therefore two indirections
// (bucket/leaf -> slot -> true ordinal) before the offset table, which
// itself stays sorted by true ordinal and so monotone under OrdinalLookup.
package recsplit

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/mmap"

	"github.com/deffrian/silkworm/pkg/snaperr"
)

const headerSize = 8 + 8 + 2 + 1 // base_data_id, key_count, bucket_count, leaf_size

// Index is an opened RecSplitIndex.
type Index struct {
	path string
	r    *mmap.ReaderAt
	mt   time.Time

	baseDataID  uint64
	keyCount    uint64
	bucketCount uint16
	leafSize    uint8

	seeds        []uint64
	bucketStarts []uint64 // prefix sums over the stored per-bucket key counts
	remap        []uint64 // slot (bucketStart+localLeaf) -> true ordinal
	ef           *eliasFano
}

// Open maps path and parses its fixed header, bucket seeds, and
// Elias-Fano-encoded offset table.
func Open(path string) (*Index, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", snaperr.ErrIoError, path, err)
	}
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap open %s: %v", snaperr.ErrIoError, path, err)
	}

	idx := &Index{path: path, r: r, mt: info.ModTime()}
	if err := idx.parse(info.Size()); err != nil {
		r.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *Index) parse(size int64) error {
	if size < headerSize {
		return fmt.Errorf("%w: index smaller than fixed header", snaperr.ErrCorruptIndex)
	}

	hdr := make([]byte, headerSize)
	if _, err := idx.r.ReadAt(hdr, 0); err != nil {
		return fmt.Errorf("%w: %v", snaperr.ErrIoError, err)
	}
	idx.baseDataID = binary.LittleEndian.Uint64(hdr[0:8])
	idx.keyCount = binary.LittleEndian.Uint64(hdr[8:16])
	idx.bucketCount = binary.LittleEndian.Uint16(hdr[16:18])
	idx.leafSize = hdr[18]

	off := int64(headerSize)
	if idx.bucketCount == 0 {
		return fmt.Errorf("%w: zero bucket count", snaperr.ErrCorruptIndex)
	}

	seedsBytes := make([]byte, int64(idx.bucketCount)*8)
	if off+int64(len(seedsBytes)) > size {
		return fmt.Errorf("%w: seed table overruns file", snaperr.ErrCorruptIndex)
	}
	if _, err := idx.r.ReadAt(seedsBytes, off); err != nil {
		return fmt.Errorf("%w: %v", snaperr.ErrIoError, err)
	}
	off += int64(len(seedsBytes))

	idx.seeds = make([]uint64, idx.bucketCount)
	for i := range idx.seeds {
		idx.seeds[i] = binary.LittleEndian.Uint64(seedsBytes[i*8 : i*8+8])
	}

	// Per-bucket key counts: RecSplit's bucketing hash does not split keys
	// evenly across buckets, so the ordinal range each bucket owns cannot be
	// derived from key_count/bucket_count alone. The construction pipeline
	// records each bucket's actual member count here; the reader turns that
	// into prefix-sum bucket starts once at open time.
	countsBytes := make([]byte, int64(idx.bucketCount)*4)
	if off+int64(len(countsBytes)) > size {
		return fmt.Errorf("%w: bucket size table overruns file", snaperr.ErrCorruptIndex)
	}
	if _, err := idx.r.ReadAt(countsBytes, off); err != nil {
		return fmt.Errorf("%w: %v", snaperr.ErrIoError, err)
	}
	off += int64(len(countsBytes))

	idx.bucketStarts = make([]uint64, idx.bucketCount+1)
	var total uint64
	for i := 0; i < int(idx.bucketCount); i++ {
		idx.bucketStarts[i] = total
		total += uint64(binary.LittleEndian.Uint32(countsBytes[i*4 : i*4+4]))
	}
	idx.bucketStarts[idx.bucketCount] = total
	if total != idx.keyCount {
		return fmt.Errorf("%w: bucket size table sums to %d, want key_count %d", snaperr.ErrCorruptIndex, total, idx.keyCount)
	}

	// remap: one u64 true-ordinal value per key, indexed by bucket/local-leaf
	// slot. See the package doc for why this indirection exists.
	remapBytes := make([]byte, int64(idx.keyCount)*8)
	if off+int64(len(remapBytes)) > size {
		return fmt.Errorf("%w: ordinal remap table overruns file", snaperr.ErrCorruptIndex)
	}
	if _, err := idx.r.ReadAt(remapBytes, off); err != nil {
		return fmt.Errorf("%w: %v", snaperr.ErrIoError, err)
	}
	off += int64(len(remapBytes))

	idx.remap = make([]uint64, idx.keyCount)
	for i := range idx.remap {
		idx.remap[i] = binary.LittleEndian.Uint64(remapBytes[i*8 : i*8+8])
	}

	efBuf := make([]byte, size-off)
	if len(efBuf) > 0 {
		if _, err := idx.r.ReadAt(efBuf, off); err != nil {
			return fmt.Errorf("%w: %v", snaperr.ErrIoError, err)
		}
	}
	ef, err := decodeEliasFano(efBuf, int(idx.keyCount))
	if err != nil {
		return err
	}
	idx.ef = ef
	return nil
}

// BaseDataID is the ordinal of the first record (first block number, or
// first transaction id) this index's ordinal space represents.
func (idx *Index) BaseDataID() uint64 { return idx.baseDataID }

// KeyCount is the number of keys the index was constructed over.
func (idx *Index) KeyCount() uint64 { return idx.keyCount }

// LastWriteTime is the index file's mtime captured at open.
func (idx *Index) LastWriteTime() time.Time { return idx.mt }

func (idx *Index) bucketStart(bucket uint16) uint64 {
	return idx.bucketStarts[bucket]
}

func (idx *Index) bucketSize(bucket uint16) uint64 {
	return idx.bucketStarts[bucket+1] - idx.bucketStarts[bucket]
}

// Lookup returns an ordinal in [0, key_count) for any 32-byte key. For a key
// in the original construction set this is its true ordinal (the same value
// by_number/by_id callers compute directly), so OrdinalLookup(Lookup(key))
// recovers that key's own offset. For keys outside the construction set the
// result is arbitrary but deterministic — callers MUST revalidate by
// re-checking the decoded record's actual key.
func (idx *Index) Lookup(key []byte) uint64 {
	if idx.keyCount == 0 {
		return 0
	}
	bucket := uint16(xxhash.Sum64(key) % uint64(idx.bucketCount))
	if idx.bucketSize(bucket) == 0 {
		// Empty bucket: fall back to the first slot so Lookup still returns
		// something in range; the caller's revalidation will reject it as a
		// non-member.
		return idx.remap[0]
	}
	seed := idx.seeds[bucket]
	leaf := sum64WithSeed(key, seed) % idx.bucketSize(bucket)
	slot := idx.bucketStart(bucket) + leaf
	return idx.remap[slot]
}

// OrdinalLookup returns the byte offset associated with ordinal.
func (idx *Index) OrdinalLookup(ordinal uint64) (uint64, error) {
	if ordinal >= idx.keyCount {
		return 0, fmt.Errorf("%w: ordinal %d >= key_count %d", snaperr.ErrOutOfRange, ordinal, idx.keyCount)
	}
	v, ok := idx.ef.Select(int(ordinal))
	if !ok {
		return 0, fmt.Errorf("%w: ordinal %d not present in offset table", snaperr.ErrOutOfRange, ordinal)
	}
	return v, nil
}

// Close unmaps the index.
func (idx *Index) Close() error {
	if idx.r == nil {
		return nil
	}
	err := idx.r.Close()
	idx.r = nil
	return err
}
