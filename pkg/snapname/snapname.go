// Package snapname parses and builds the canonical snapshot file name
// grammar: v{N}-{FROM:06}-{TO:06}-{type}.{ext}.
package snapname

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/deffrian/silkworm/pkg/snaperr"
)

// Type identifies which kind of record a segment holds.
type Type int

const (
	Headers Type = iota
	Bodies
	Transactions
	TransactionsToBlock
)

func (t Type) String() string {
	switch t {
	case Headers:
		return "headers"
	case Bodies:
		return "bodies"
	case Transactions:
		return "transactions"
	case TransactionsToBlock:
		return "transactions-to-block"
	default:
		return "unknown"
	}
}

func ParseType(s string) (Type, error) {
	switch s {
	case "headers":
		return Headers, nil
	case "bodies":
		return Bodies, nil
	case "transactions":
		return Transactions, nil
	case "transactions-to-block":
		return TransactionsToBlock, nil
	default:
		return 0, fmt.Errorf("%w: unknown snapshot type %q", snaperr.ErrInvalidName, s)
	}
}

// granularity is the native block-range unit: FROM/TO in the file name are
// block numbers divided by this value.
const granularity = 1000

var nameRE = regexp.MustCompile(`^v(\d+)-(\d{6})-(\d{6})-([a-z-]+)\.(seg|idx)$`)

// Path is a parsed canonical snapshot file name.
type Path struct {
	Dir     string
	Version int
	From    uint64 // block number, inclusive
	To      uint64 // block number, exclusive
	Type    Type
	Ext     string // "seg" or "idx"
}

// From constructs a segment Path for the half-open block range [from, to).
func From(dir string, version int, from, to uint64, t Type) Path {
	return Path{Dir: dir, Version: version, From: from, To: to, Type: t, Ext: "seg"}
}

// Parse parses a canonical file name (base name only, no directory) into a Path.
func Parse(dir, name string) (Path, error) {
	m := nameRE.FindStringSubmatch(name)
	if m == nil {
		return Path{}, fmt.Errorf("%w: %q does not match canonical grammar", snaperr.ErrInvalidName, name)
	}

	version, err := strconv.Atoi(m[1])
	if err != nil {
		return Path{}, fmt.Errorf("%w: bad version in %q", snaperr.ErrInvalidName, name)
	}
	fromUnits, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return Path{}, fmt.Errorf("%w: bad FROM in %q", snaperr.ErrInvalidName, name)
	}
	toUnits, err := strconv.ParseUint(m[3], 10, 64)
	if err != nil {
		return Path{}, fmt.Errorf("%w: bad TO in %q", snaperr.ErrInvalidName, name)
	}

	t, err := ParseType(m[4])
	if err != nil {
		return Path{}, err
	}

	return Path{
		Dir:     dir,
		Version: version,
		From:    fromUnits * granularity,
		To:      toUnits * granularity,
		Type:    t,
		Ext:     m[5],
	}, nil
}

// String renders the canonical file name (base name only, no directory).
func (p Path) String() string {
	return fmt.Sprintf("v%d-%06d-%06d-%s.%s",
		p.Version, p.From/granularity, p.To/granularity, p.Type, p.Ext)
}

// FullPath joins the directory and file name.
func (p Path) FullPath() string {
	return filepath.Join(p.Dir, p.String())
}

// IndexFile returns the sibling .idx path for this segment's own type.
func (p Path) IndexFile() string {
	idx := p
	idx.Ext = "idx"
	return idx.FullPath()
}

// IndexFileForType returns the sibling .idx path for an auxiliary index of
// a different logical type (e.g. the transactions-to-block reverse index
// living alongside a transactions segment).
func (p Path) IndexFileForType(t Type) string {
	idx := p
	idx.Type = t
	idx.Ext = "idx"
	return idx.FullPath()
}
