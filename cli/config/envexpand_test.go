package config

import (
	"testing"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("REPROX_PROD", "/data/prod")
	t.Setenv("REPROX_EMPTY", "")
	t.Setenv("REPROX_GROUP", "analysts")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set", "destination_root: ${REPROX_PROD}", "destination_root: /data/prod"},
		{"unset expands empty", "group: ${REPROX_UNSET_12345}", "group: "},
		{"default when unset", "mode: ${REPROX_UNSET_12345:-775}", "mode: 775"},
		{"default when empty", "depth: ${REPROX_EMPTY:-shallow}", "depth: shallow"},
		{"value beats default", "group: ${REPROX_GROUP:-staff}", "group: analysts"},
		{"several on one line", "${REPROX_PROD}/${REPROX_GROUP}", "/data/prod/analysts"},
		{"plain text untouched", "source_root: /data/incoming", "source_root: /data/incoming"},
		{"bare dollar untouched", "path: $REPROX_PROD", "path: $REPROX_PROD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnv(tt.input); got != tt.want {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExpandEnv_AdapterSection(t *testing.T) {
	t.Setenv("REPROX_HOOK_TOKEN", "secret")

	input := `adapter:
  type: webhook
  headers:
    Authorization: Bearer ${REPROX_HOOK_TOKEN}
  url: ${REPROX_HOOK_URL:-https://hooks.internal/promoted}`

	want := `adapter:
  type: webhook
  headers:
    Authorization: Bearer secret
  url: https://hooks.internal/promoted`

	if got := ExpandEnv(input); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}
