package config

import (
	"testing"

	"github.com/deffrian/silkworm/util"
)

func TestNormalizeAppliesDefaults(t *testing.T) {
	c := &Config{}
	c.normalize()
	if c.SnapshotDir != "snapshots" {
		t.Fatalf("SnapshotDir default = %q, want \"snapshots\"", c.SnapshotDir)
	}
	if c.ExporterPort != 9101 {
		t.Fatalf("ExporterPort default = %d, want 9101", c.ExporterPort)
	}
}

func TestNormalizePreservesExplicitValues(t *testing.T) {
	c := &Config{SnapshotDir: "/custom", ExporterPort: 7000}
	c.normalize()
	if c.SnapshotDir != "/custom" || c.ExporterPort != 7000 {
		t.Fatalf("normalize overwrote explicit values: %+v", c)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]util.LogLevel{
		"debug":   util.LogLevelDebug,
		"warn":    util.LogLevelWarn,
		"warning": util.LogLevelWarn,
		"error":   util.LogLevelError,
		"info":    util.LogLevelInfo,
		"bogus":   util.LogLevelInfo,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
