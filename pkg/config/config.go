// Package config loads the snapshot store's ambient configuration: where
// segments live, how mmap pages are advised, the log level, and the
// metrics exporter port. Scoped down from the teacher's broker Config
// (pkg/config/properties.go), keeping its flag-defaults-then-optional-file
// loading shape.
package config

import (
	"encoding/json"
	"flag"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deffrian/silkworm/util"
)

// Config holds the snapshot store's ambient settings.
type Config struct {
	SnapshotDir string        `yaml:"snapshot_dir" json:"snapshot_dir"`
	LogLevel    util.LogLevel `yaml:"log_level" json:"log_level"`

	EnableExporter bool `yaml:"enable_exporter" json:"enable_exporter"`
	ExporterPort   int  `yaml:"exporter_port" json:"exporter_port"`

	// MadviseRandom records whether segment/index mappings are to be treated
	// as random access (MPH lookups, not sequential scans). It is only loaded
	// and stored here: the mmap readers in pkg/seg and pkg/recsplit do not
	// read it and issue no madvise call.
	MadviseRandom bool `yaml:"madvise_random" json:"madvise_random"`
}

func (c *Config) normalize() {
	if c.SnapshotDir == "" {
		c.SnapshotDir = "snapshots"
	}
	if c.ExporterPort == 0 {
		c.ExporterPort = 9101
	}
}

// LoadConfig parses flags, applies an optional YAML/JSON override file, and
// normalizes defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	configPath := flag.String("config", "", "Path to YAML/JSON config file")
	dirStr := flag.String("snapshot-dir", "snapshots", "Directory containing segment and index files")
	logLevelStr := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	exporterStr := flag.String("exporter", "false", "Enable Prometheus exporter")
	exporterPortStr := flag.String("exporter-port", "9101", "Exporter port")
	madviseStr := flag.String("madvise-random", "true", "Advise the OS that mmap reads are random access")

	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" && *configPath == "" {
		*configPath = envPath
	}

	flag.Parse()

	cfg.SnapshotDir = *dirStr
	cfg.LogLevel = parseLogLevel(*logLevelStr)
	if v, err := strconv.ParseBool(*exporterStr); err == nil {
		cfg.EnableExporter = v
	}
	if v, err := strconv.Atoi(*exporterPortStr); err == nil {
		cfg.ExporterPort = v
	}
	if v, err := strconv.ParseBool(*madviseStr); err == nil {
		cfg.MadviseRandom = v
	}

	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return nil, err
		}
		if strings.HasSuffix(*configPath, ".json") {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.normalize()
	util.SetLevel(cfg.LogLevel)
	return cfg, nil
}

func parseLogLevel(s string) util.LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return util.LogLevelDebug
	case "warn", "warning":
		return util.LogLevelWarn
	case "error":
		return util.LogLevelError
	default:
		return util.LogLevelInfo
	}
}
