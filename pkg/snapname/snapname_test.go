package snapname_test

import (
	"errors"
	"testing"

	"github.com/deffrian/silkworm/pkg/snaperr"
	"github.com/deffrian/silkworm/pkg/snapname"
)

func TestFromAndString(t *testing.T) {
	p := snapname.From("/data", 1, 500000, 600000, snapname.Headers)
	got := p.String()
	want := "v1-000500-000600-headers.seg"
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestParseRoundTrip(t *testing.T) {
	name := "v1-000000-000500-headers.seg"
	p, err := snapname.Parse("/data", name)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.From != 0 || p.To != 500000 || p.Type != snapname.Headers || p.Version != 1 {
		t.Fatalf("parsed %+v", p)
	}
	if p.String() != name {
		t.Fatalf("round trip: got %q, want %q", p.String(), name)
	}
}

func TestParseInvalidName(t *testing.T) {
	_, err := snapname.Parse("/data", "not-a-snapshot-name.txt")
	if !errors.Is(err, snaperr.ErrInvalidName) {
		t.Fatalf("expected InvalidName, got %v", err)
	}
}

func TestIndexFilePaths(t *testing.T) {
	p := snapname.From("/data", 1, 7000000, 7100000, snapname.Transactions)
	if p.IndexFile() != "/data/v1-007000-007100-transactions.idx" {
		t.Fatalf("IndexFile() = %q", p.IndexFile())
	}
	rev := p.IndexFileForType(snapname.TransactionsToBlock)
	if rev != "/data/v1-007000-007100-transactions-to-block.idx" {
		t.Fatalf("IndexFileForType() = %q", rev)
	}
}
