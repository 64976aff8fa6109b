package lode

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/justapithecus/lode/lode"

	"github.com/justapithecus/reprox/types"
)

func putFile(t *testing.T, store lode.Store, key, content string) {
	t.Helper()
	if err := store.Put(context.Background(), key, strings.NewReader(content)); err != nil {
		t.Fatalf("put %s: %v", key, err)
	}
}

var testKey = types.RunKey{Run: "run1", DataType: "peaks", LineageHash: "abc123"}

func TestRunReader_Records(t *testing.T) {
	store := lode.NewMemory()
	dir := testKey.DirName()
	putFile(t, store, dir+"/peaks-abc123-metadata.json",
		`{"chunks":[{"n":2,"filename":"peaks-abc123-000000.jsonl"},{"n":0},{"n":1,"filename":"peaks-abc123-000002.jsonl"}]}`)
	putFile(t, store, dir+"/peaks-abc123-000000.jsonl", "{\"t\":1}\n{\"t\":2}\n")
	putFile(t, store, dir+"/peaks-abc123-000002.jsonl", "{\"t\":3}\n")

	r := NewRunReader(store)
	var times []float64
	for rec, err := range r.Records(t.Context(), testKey) {
		if err != nil {
			t.Fatalf("Records yielded error: %v", err)
		}
		times = append(times, rec["t"].(float64))
	}

	if len(times) != 3 || times[0] != 1 || times[2] != 3 {
		t.Errorf("records = %v, want [1 2 3]", times)
	}
}

func TestRunReader_PositionalChunks(t *testing.T) {
	store := lode.NewMemory()
	dir := testKey.DirName()
	putFile(t, store, dir+"/metadata.json", `{"chunks":[{"n":1},{"n":1}]}`)
	putFile(t, store, dir+"/b.jsonl", "{\"t\":2}\n")
	putFile(t, store, dir+"/a.jsonl", "{\"t\":1}\n")

	n, err := NewRunReader(store).Count(t.Context(), testKey)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestRunReader_Failures(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr error
	}{
		{
			name:    "no metadata",
			files:   map[string]string{"a.jsonl": "{}\n"},
			wantErr: ErrNoMetadata,
		},
		{
			name: "declared file missing",
			files: map[string]string{
				"metadata.json": `{"chunks":[{"n":1,"filename":"gone.jsonl"}]}`,
				"a.jsonl":       "{}\n",
			},
			wantErr: ErrMissingChunk,
		},
		{
			name: "fewer files than chunks",
			files: map[string]string{
				"metadata.json": `{"chunks":[{"n":1},{"n":1}]}`,
				"a.jsonl":       "{}\n",
			},
			wantErr: ErrMissingChunk,
		},
		{
			name: "record count mismatch",
			files: map[string]string{
				"metadata.json": `{"chunks":[{"n":5}]}`,
				"a.jsonl":       "{}\n{}\n",
			},
			wantErr: ErrRecordCount,
		},
		{
			name: "unsupported codec",
			files: map[string]string{
				"metadata.json": `{"chunks":[{"n":1}]}`,
				"a.blosc":       "\x00\x01",
			},
			wantErr: ErrUnsupportedCodec,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := lode.NewMemory()
			for name, content := range tt.files {
				putFile(t, store, testKey.DirName()+"/"+name, content)
			}

			_, err := NewRunReader(store).Count(t.Context(), testKey)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Count error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunReader_CorruptRecord(t *testing.T) {
	store := lode.NewMemory()
	dir := testKey.DirName()
	putFile(t, store, dir+"/metadata.json", `{"chunks":[{"n":2}]}`)
	putFile(t, store, dir+"/a.jsonl", "{\"t\":1}\n{oops\n")

	n, err := NewRunReader(store).Count(t.Context(), testKey)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if n != 1 {
		t.Errorf("records before failure = %d, want 1", n)
	}
}

func TestRunReader_CanceledContext(t *testing.T) {
	store := lode.NewMemory()
	dir := testKey.DirName()
	putFile(t, store, dir+"/metadata.json", `{"chunks":[{"n":1}]}`)
	putFile(t, store, dir+"/a.jsonl", "{}\n")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := NewRunReader(store).Count(ctx, testKey); !errors.Is(err, context.Canceled) {
		t.Errorf("Count error = %v, want context.Canceled", err)
	}
}

func TestRunReader_StopEarly(t *testing.T) {
	store := lode.NewMemory()
	dir := testKey.DirName()
	putFile(t, store, dir+"/metadata.json", `{"chunks":[{"n":3}]}`)
	putFile(t, store, dir+"/a.jsonl", "{}\n{}\n{}\n")

	seen := 0
	for _, err := range NewRunReader(store).Records(t.Context(), testKey) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen++
		break
	}
	if seen != 1 {
		t.Errorf("seen = %d, want 1", seen)
	}
}
