package recsplit

import "github.com/cespare/xxhash/v2"

// sum64WithSeed hashes data with the given seed, matching the semantics of
// xxhash.NewWithSeed(seed) fed with data.
func sum64WithSeed(data []byte, seed uint64) uint64 {
	d := xxhash.NewWithSeed(seed)
	d.Write(data)
	return d.Sum64()
}
