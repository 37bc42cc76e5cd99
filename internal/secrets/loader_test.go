package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("OUTLET_MATCHER_TEST_SECRET", " from-env ")

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr bool
	}{
		{name: "file beats value", src: Source{File: keyFile, Value: "inline", Env: "OUTLET_MATCHER_TEST_SECRET"}, want: "from-file"},
		{name: "value beats env", src: Source{Value: " inline ", Env: "OUTLET_MATCHER_TEST_SECRET"}, want: "inline"},
		{name: "env fallback", src: Source{Env: "OUTLET_MATCHER_TEST_SECRET"}, want: "from-env"},
		{name: "empty file", src: Source{File: emptyFile, Value: "inline"}, wantErr: true},
		{name: "missing file", src: Source{File: filepath.Join(dir, "missing")}, wantErr: true},
		{name: "nothing set", src: Source{Name: "api key", Env: "OUTLET_MATCHER_TEST_UNSET"}, wantErr: true},
	}

	for _, tt := range tests {
		got, err := Load(tt.src)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error, got %q", tt.name, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: expected %q, got %q", tt.name, tt.want, got)
		}
	}

	if _, err := Load(Source{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
