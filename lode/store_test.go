package lode

import "testing"

func TestParseS3Path(t *testing.T) {
	tests := []struct {
		path       string
		wantBucket string
		wantPrefix string
	}{
		{path: "bucket", wantBucket: "bucket"},
		{path: "bucket/ledger", wantBucket: "bucket", wantPrefix: "ledger"},
		{path: "bucket/a/b/c", wantBucket: "bucket", wantPrefix: "a/b/c"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			bucket, prefix := ParseS3Path(tt.path)
			if bucket != tt.wantBucket || prefix != tt.wantPrefix {
				t.Errorf("ParseS3Path(%q) = (%q, %q), want (%q, %q)",
					tt.path, bucket, prefix, tt.wantBucket, tt.wantPrefix)
			}
		})
	}
}

func TestNewStoreFactory_Validation(t *testing.T) {
	if _, err := NewStoreFactory(StoreConfig{Backend: BackendFS}); err == nil {
		t.Error("expected error for missing path")
	}
	if _, err := NewStoreFactory(StoreConfig{Backend: "gcs", Path: "x"}); err == nil {
		t.Error("expected error for unsupported backend")
	}
	if _, err := NewS3StoreFactory(S3Config{}); err == nil {
		t.Error("expected error for missing bucket")
	}
}

func TestNewStoreFactory_FS(t *testing.T) {
	factory, err := NewStoreFactory(StoreConfig{Backend: BackendFS, Path: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStoreFactory failed: %v", err)
	}
	if _, err := factory(); err != nil {
		t.Fatalf("factory() failed: %v", err)
	}
}
