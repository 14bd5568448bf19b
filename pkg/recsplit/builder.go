package recsplit

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
)

// BuildSeeds assigns each key to a bucket via the same seeded hash Lookup
// uses, then searches for a per-bucket seed producing some bijection onto
// that bucket's slot range (bucketStart(bucket)..bucketStart(bucket)+size).
// Which specific bijection that seed happens to realize doesn't matter: the
// returned remap table records, for every slot, the true ordinal (keys[i]'s
// position i) of whichever key the seed routed there, so Lookup can recover
// keys[i]'s true ordinal regardless of which slot it landed on. This is the
// construction half of RecSplit; it exists here only to synthesize test
// fixtures for the reader above — real index construction is a separate,
// out-of-scope pipeline per the store's read-only contract.
func BuildSeeds(keys [][]byte, bucketCount uint16) (seeds []uint64, bucketSizes []uint32, remap []uint64, err error) {
	buckets := make([][][]byte, bucketCount)
	origIdx := make([][]int, bucketCount)
	for i, k := range keys {
		b := xxhash.Sum64(k) % uint64(bucketCount)
		buckets[b] = append(buckets[b], k)
		origIdx[b] = append(origIdx[b], i)
	}

	seeds = make([]uint64, bucketCount)
	bucketSizes = make([]uint32, bucketCount)
	remap = make([]uint64, len(keys))

	var bucketStart uint64
	for b, members := range buckets {
		n := uint64(len(members))
		bucketSizes[b] = uint32(n)
		if n == 0 {
			continue
		}
		seed, serr := findBijectiveSeed(members)
		if serr != nil {
			return nil, nil, nil, fmt.Errorf("bucket %d: %w", b, serr)
		}
		seeds[b] = seed
		for j, k := range members {
			leaf := sum64WithSeed(k, seed) % n
			remap[bucketStart+leaf] = uint64(origIdx[b][j])
		}
		bucketStart += n
	}
	return seeds, bucketSizes, remap, nil
}

func findBijectiveSeed(members [][]byte) (uint64, error) {
	n := uint64(len(members))
	for seed := uint64(0); seed < 1<<20; seed++ {
		seen := make(map[uint64]bool, len(members))
		ok := true
		for _, k := range members {
			v := sum64WithSeed(k, seed) % n
			if seen[v] {
				ok = false
				break
			}
			seen[v] = true
		}
		if ok {
			return seed, nil
		}
	}
	return 0, fmt.Errorf("no bijective seed found after 2^20 attempts")
}

// WriteIndexFile writes a RecSplitIndex file: header, bucket seeds, the
// per-bucket key-count table, the ordinal remap table, and the
// Elias-Fano-encoded ordinal->offset table. offsets must already be ordered
// by true ordinal (offsets[i] is the record offset for ordinal i). Test
// fixture support only.
func WriteIndexFile(path string, baseDataID uint64, bucketCount uint16, leafSize uint8, seeds []uint64, bucketSizes []uint32, remap []uint64, offsets []uint64) error {
	var buf []byte

	hdr := make([]byte, headerSize)
	binary.LittleEndian.PutUint64(hdr[0:8], baseDataID)
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(len(offsets)))
	binary.LittleEndian.PutUint16(hdr[16:18], bucketCount)
	hdr[18] = leafSize
	buf = append(buf, hdr...)

	seedBytes := make([]byte, len(seeds)*8)
	for i, s := range seeds {
		binary.LittleEndian.PutUint64(seedBytes[i*8:i*8+8], s)
	}
	buf = append(buf, seedBytes...)

	countBytes := make([]byte, len(bucketSizes)*4)
	for i, c := range bucketSizes {
		binary.LittleEndian.PutUint32(countBytes[i*4:i*4+4], c)
	}
	buf = append(buf, countBytes...)

	remapBytes := make([]byte, len(remap)*8)
	for i, v := range remap {
		binary.LittleEndian.PutUint64(remapBytes[i*8:i*8+8], v)
	}
	buf = append(buf, remapBytes...)

	ef := buildEliasFano(offsets)
	buf = append(buf, encodeEliasFano(ef)...)

	return os.WriteFile(path, buf, 0o644)
}

// BuildIndexFile is the fixture-building entry point tests use: keys[i] and
// offsets[i] describe the same record at true ordinal i (e.g. block number
// minus baseDataID). It runs BuildSeeds and writes the resulting index file,
// with offsets passed straight through since the offset table is always
// ordered by true ordinal.
func BuildIndexFile(path string, baseDataID uint64, bucketCount uint16, leafSize uint8, keys [][]byte, offsets []uint64) error {
	if len(keys) != len(offsets) {
		return fmt.Errorf("keys/offsets length mismatch: %d vs %d", len(keys), len(offsets))
	}
	seeds, bucketSizes, remap, err := BuildSeeds(keys, bucketCount)
	if err != nil {
		return err
	}
	return WriteIndexFile(path, baseDataID, bucketCount, leafSize, seeds, bucketSizes, remap, offsets)
}
