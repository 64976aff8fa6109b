package types //nolint:revive // types is a valid package name

import (
	"errors"
	"testing"
)

func TestParseRunKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RunKey
		wantErr bool
	}{
		{
			name:  "three segments",
			input: "run1-tempA-abc123",
			want:  RunKey{Run: "run1", DataType: "tempA", LineageHash: "abc123"},
		},
		{
			name:  "numeric run id",
			input: "024399-peaks-7fk2p3aq1x",
			want:  RunKey{Run: "024399", DataType: "peaks", LineageHash: "7fk2p3aq1x"},
		},
		{name: "no dashes", input: "weirdname", wantErr: true},
		{name: "two segments", input: "run1-peaks", wantErr: true},
		{name: "four segments", input: "run1-peaks-abc-def", wantErr: true},
		{
			name:  "empty data type",
			input: "run1--abc",
			want:  RunKey{Run: "run1", LineageHash: "abc"},
		},
		{
			name:  "leading dash",
			input: "-tempA-abc123",
			want:  RunKey{DataType: "tempA", LineageHash: "abc123"},
		},
		{
			name:  "trailing dash",
			input: "run1-peaks-",
			want:  RunKey{Run: "run1", DataType: "peaks"},
		},
		{name: "only dashes too many", input: "---", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRunKey(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedRunKey) {
					t.Fatalf("ParseRunKey(%q) error = %v, want ErrMalformedRunKey", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRunKey(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRunKey(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRunKey_DirNameRoundTrip(t *testing.T) {
	key := RunKey{Run: "run7", DataType: "records", LineageHash: "zz9plural"}
	parsed, err := ParseRunKey(key.DirName())
	if err != nil {
		t.Fatalf("ParseRunKey failed: %v", err)
	}
	if parsed != key {
		t.Errorf("round trip = %+v, want %+v", parsed, key)
	}
	if key.String() != "run7-records-zz9plural" {
		t.Errorf("String() = %q", key.String())
	}
}
