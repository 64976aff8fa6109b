package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/justapithecus/reprox/lode"
)

func TestLoad_FullConfig(t *testing.T) {
	yaml := `source_root: /data/processed
destination_root: /data/production
group: analysts
depth: deep
mode: "0o770"
log_level: warn

lineage:
  data_types:
    raw:
      plugin: ingest
      version: "2.1"
    peaks:
      plugin: peakfinder
      version: "1.4"
      options:
        threshold: 0.5
      depends_on: [raw]
  pinned:
    legacy: abcdefghij

ledger:
  dataset: reprox
  backend: s3
  path: my-bucket/ledger
  region: us-east-1
  endpoint: https://example.com
  s3_path_style: true

adapter:
  type: webhook
  url: https://hooks.example.com/reprox
  headers:
    Authorization: Bearer token123
  timeout: 10s
  retries: 3
  backoff: 250ms
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	assertEqual(t, "source_root", cfg.SourceRoot, "/data/processed")
	assertEqual(t, "destination_root", cfg.DestinationRoot, "/data/production")
	assertEqual(t, "group", cfg.Group, "analysts")
	assertEqual(t, "depth", cfg.Depth, "deep")
	assertEqual(t, "mode", cfg.Mode, "0o770")
	assertEqual(t, "log_level", cfg.LogLevel, "warn")

	peaks := cfg.Lineage.DataTypes["peaks"]
	assertEqual(t, "lineage.peaks.plugin", peaks.Plugin, "peakfinder")
	if len(peaks.DependsOn) != 1 || peaks.DependsOn[0] != "raw" {
		t.Errorf("lineage.peaks.depends_on = %v", peaks.DependsOn)
	}
	assertEqual(t, "lineage.pinned.legacy", cfg.Lineage.Pinned["legacy"], "abcdefghij")

	if !cfg.Ledger.Enabled() {
		t.Error("expected ledger enabled")
	}
	sc := cfg.Ledger.StoreConfig()
	want := lode.StoreConfig{
		Backend:      "s3",
		Path:         "my-bucket/ledger",
		Region:       "us-east-1",
		Endpoint:     "https://example.com",
		UsePathStyle: true,
	}
	if sc != want {
		t.Errorf("ledger store config = %+v, want %+v", sc, want)
	}

	assertEqual(t, "adapter.type", cfg.Adapter.Type, "webhook")
	assertEqual(t, "adapter.url", cfg.Adapter.URL, "https://hooks.example.com/reprox")
	if cfg.Adapter.Timeout.Duration != 10*time.Second {
		t.Errorf("expected adapter.timeout=10s, got %v", cfg.Adapter.Timeout.Duration)
	}
	if cfg.Adapter.Backoff.Duration != 250*time.Millisecond {
		t.Errorf("expected adapter.backoff=250ms, got %v", cfg.Adapter.Backoff.Duration)
	}
	if cfg.Adapter.Retries == nil || *cfg.Adapter.Retries != 3 {
		t.Errorf("expected adapter.retries=3")
	}
	if cfg.Adapter.Headers["Authorization"] != "Bearer token123" {
		t.Errorf("expected Authorization header")
	}
}

func TestLoad_EmptyConfig(t *testing.T) {
	for name, content := range map[string]string{
		"empty":      "",
		"whitespace": "   \n  \n  \n",
		"comments":   "# This is a comment\n# Another comment\n",
	} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeTemp(t, content))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.SourceRoot != "" || cfg.Ledger.Enabled() {
				t.Errorf("expected zero config, got %+v", cfg)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/reprox.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "{{invalid yaml")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_SOURCE_ROOT", "/mnt/processed")

	path := writeTemp(t, `source_root: ${TEST_SOURCE_ROOT}
destination_root: ${TEST_DEST_ROOT:-/mnt/production}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "source_root", cfg.SourceRoot, "/mnt/processed")
	assertEqual(t, "destination_root", cfg.DestinationRoot, "/mnt/production")
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	yaml := `source_root: /data
bogus_key: should_fail
`
	path := writeTemp(t, yaml)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
	if !strings.Contains(err.Error(), "bogus_key") {
		t.Errorf("error should mention the unknown key, got: %v", err)
	}
}

func TestLoad_UnknownNestedKeyRejected(t *testing.T) {
	yaml := `ledger:
  backend: fs
  path: ./ledger
  unknown_field: bad
`
	path := writeTemp(t, yaml)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown nested key, got nil")
	}
	if !strings.Contains(err.Error(), "unknown_field") {
		t.Errorf("error should mention the unknown key, got: %v", err)
	}
}

func TestLoad_RetriesZeroDistinctFromNil(t *testing.T) {
	yaml := `adapter:
  type: webhook
  url: https://example.com
  retries: 0
`
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Adapter.Retries == nil {
		t.Fatal("expected retries to be non-nil (*int(0)), got nil")
	}
	if *cfg.Adapter.Retries != 0 {
		t.Errorf("expected retries=0, got %d", *cfg.Adapter.Retries)
	}

	cfg, err = Load(writeTemp(t, "adapter:\n  type: webhook\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Adapter.Retries != nil {
		t.Errorf("expected retries to be nil, got %d", *cfg.Adapter.Retries)
	}
}

func TestDuration_InvalidFormat(t *testing.T) {
	yaml := `adapter:
  timeout: not-a-duration
`
	_, err := Load(writeTemp(t, yaml))
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error should mention invalid duration, got: %v", err)
	}
}

func TestDuration_EmptyIsZero(t *testing.T) {
	yaml := `adapter:
  type: webhook
  timeout: ""
`
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Adapter.Timeout.Duration != 0 {
		t.Errorf("expected zero duration, got %v", cfg.Adapter.Timeout.Duration)
	}
}

func TestLoad_RedisAdapterConfig(t *testing.T) {
	yaml := `adapter:
  type: redis
  url: redis://localhost:6379/0
  channel: reprox:promotions
  timeout: 5s
`
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "adapter.type", cfg.Adapter.Type, "redis")
	assertEqual(t, "adapter.url", cfg.Adapter.URL, "redis://localhost:6379/0")
	assertEqual(t, "adapter.channel", cfg.Adapter.Channel, "reprox:promotions")
	if cfg.Adapter.Timeout.Duration != 5*time.Second {
		t.Errorf("expected adapter.timeout=5s, got %v", cfg.Adapter.Timeout.Duration)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    fs.FileMode
		wantErr bool
	}{
		{"", 0, false},
		{"775", 0o775, false},
		{"0775", 0o775, false},
		{"0o750", 0o750, false},
		{"999", 0, true},
		{"1777", 0, true},
		{"rwx", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLineageRegistry(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		r, err := LineageConfig{}.Registry()
		if err != nil || r != nil {
			t.Errorf("Registry() = %v, %v; want nil, nil", r, err)
		}
	})

	t.Run("inline", func(t *testing.T) {
		cfg := LineageConfig{Pinned: map[string]string{"peaks": "abcdefghij"}}
		r, err := cfg.Registry()
		if err != nil {
			t.Fatalf("Registry failed: %v", err)
		}
		if h, err := r.Hash("peaks"); err != nil || h != "abcdefghij" {
			t.Errorf("Hash(peaks) = %q, %v", h, err)
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lineage.yaml")
		content := "data_types:\n  raw:\n    plugin: ingest\n    version: \"1\"\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		r, err := LineageConfig{File: path}.Registry()
		if err != nil {
			t.Fatalf("Registry failed: %v", err)
		}
		if h, err := r.Hash("raw"); err != nil || len(h) != 10 {
			t.Errorf("Hash(raw) = %q, %v", h, err)
		}
	})

	t.Run("both", func(t *testing.T) {
		cfg := LineageConfig{File: "x.yaml", Pinned: map[string]string{"a": "b"}}
		if _, err := cfg.Registry(); err == nil {
			t.Error("expected error when file and inline are both set")
		}
	})
}

// writeTemp writes content to a temp file and returns the path.
func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "reprox.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func assertEqual(t *testing.T, field, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %q, want %q", field, got, want)
	}
}
