package lode

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/justapithecus/lode/lode"
)

// FailingStore is a lode.Store that returns configurable errors.
type FailingStore struct {
	PutErr    error
	GetErr    error
	ExistsErr error
	ListErr   error
	DeleteErr error

	// Keys returned by List when ListErr is nil.
	Keys []string

	PutCalls int
	PutPaths []string
}

func (s *FailingStore) Put(_ context.Context, path string, _ io.Reader) error {
	s.PutCalls++
	s.PutPaths = append(s.PutPaths, path)
	return s.PutErr
}

func (s *FailingStore) Get(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, s.GetErr
}

func (s *FailingStore) Exists(_ context.Context, _ string) (bool, error) {
	return false, s.ExistsErr
}

func (s *FailingStore) List(_ context.Context, _ string) ([]string, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return s.Keys, nil
}

func (s *FailingStore) Delete(_ context.Context, _ string) error {
	return s.DeleteErr
}

func (s *FailingStore) ReadRange(_ context.Context, _ string, _, _ int64) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (s *FailingStore) ReaderAt(_ context.Context, _ string) (io.ReaderAt, error) {
	return nil, errors.New("not implemented")
}

var _ lode.Store = (*FailingStore)(nil)

// FailingStoreFactory creates a factory that returns store.
func FailingStoreFactory(store *FailingStore) lode.StoreFactory {
	return func() (lode.Store, error) {
		return store, nil
	}
}

// FailingFactoryFactory creates a factory that fails to create a store.
func FailingFactoryFactory(err error) lode.StoreFactory {
	return func() (lode.Store, error) {
		return nil, err
	}
}

// timeoutError implements the Timeout() interface.
type timeoutError struct {
	msg string
}

func (e *timeoutError) Error() string   { return e.msg }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }

func summaryAt() SummaryRecord {
	return testSummary("b-fail", 1, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
}

func TestLedger_WriteFailures(t *testing.T) {
	tests := []struct {
		name     string
		putErr   error
		wantKind error
	}{
		{"timeout", &timeoutError{msg: "RequestTimeout: PutObject timed out after 30s"}, ErrTimeout},
		{"access denied", errors.New("AccessDenied: Access Denied (403 Forbidden)"), ErrAccessDenied},
		{"disk full", errors.New("write /data/ledger: no space left on device"), ErrDiskFull},
		{"throttled", errors.New("SlowDown: Please reduce your request rate"), ErrThrottled},
		{"credentials", errors.New("NoCredentialProviders: no valid providers in chain"), ErrAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &FailingStore{PutErr: tt.putErr}
			ledger, err := NewLedger("reprox", FailingStoreFactory(store))
			if err != nil {
				t.Fatalf("NewLedger failed: %v", err)
			}

			err = ledger.RecordSummary(t.Context(), summaryAt())
			if err == nil {
				t.Fatal("expected write error, got nil")
			}
			if !errors.Is(err, tt.wantKind) {
				t.Errorf("expected errors.Is(err, %v), got: %v", tt.wantKind, err)
			}

			var storageErr *StorageError
			if !errors.As(err, &storageErr) {
				t.Fatalf("expected *StorageError, got %T", err)
			}
			if storageErr.Op != "write" {
				t.Errorf("Op = %q, want %q", storageErr.Op, "write")
			}
			if store.PutCalls == 0 {
				t.Error("expected at least one Put call")
			}
		})
	}
}

func TestLedger_FactoryFailure(t *testing.T) {
	ledger, err := NewLedger("reprox", FailingFactoryFactory(errors.New("permission denied: /ledger")))

	// Failure can surface at dataset creation or at first write.
	if err == nil {
		err = ledger.RecordSummary(t.Context(), summaryAt())
	}
	if err == nil {
		t.Fatal("expected error from failing factory")
	}
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got: %v", err)
	}
}

func TestRunReader_StoreFailures(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		store := &FailingStore{ListErr: errors.New("dial tcp 10.0.0.1:443: connection refused")}
		_, err := NewRunReader(store).Count(t.Context(), testKey)

		var storageErr *StorageError
		if !errors.As(err, &storageErr) {
			t.Fatalf("expected *StorageError, got %T: %v", err, err)
		}
		if storageErr.Op != "list" || !errors.Is(err, ErrNetwork) {
			t.Errorf("got op=%s kind=%v, want list/ErrNetwork", storageErr.Op, storageErr.Kind)
		}
	})

	t.Run("get metadata", func(t *testing.T) {
		dir := testKey.DirName()
		store := &FailingStore{
			Keys:   []string{dir + "/metadata.json", dir + "/a.jsonl"},
			GetErr: &timeoutError{msg: "GetObject timed out"},
		}
		_, err := NewRunReader(store).Count(t.Context(), testKey)
		if !errors.Is(err, ErrTimeout) {
			t.Errorf("expected ErrTimeout, got: %v", err)
		}
	})
}
