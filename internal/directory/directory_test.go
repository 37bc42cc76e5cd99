package directory

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"testing"
)

func TestFetchFollowsPages(t *testing.T) {
	t.Parallel()

	pages := [][]map[string]any{
		{{"Outlet Name": "EdSurge", "Keywords": "edtech", "AI Partnered": "yes"}},
		{{"Outlet Name": "Dark Reading", "id": "dark-reading"}},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected authorization header %q", got)
		}
		n, _ := strconv.Atoi(r.URL.Query().Get("page"))
		body := page{Items: pages[n], Found: 2, Pages: len(pages), Page: n, PerPage: 1}

		// The second page comes back compressed.
		if n == 1 {
			w.Header().Set("Content-Encoding", "gzip")
			gz := gzip.NewWriter(w)
			defer gz.Close()
			_ = json.NewEncoder(gz).Encode(body)
			return
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	outlets, err := New(nil, "secret").Load(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := outlets.Names(); !reflect.DeepEqual(got, []string{"EdSurge", "Dark Reading"}) {
		t.Fatalf("unexpected outlets: %v", got)
	}
	if !outlets.Items[0].AIPartnered || outlets.Items[1].ID != "dark-reading" {
		t.Fatalf("unexpected decoded records: %+v %+v", outlets.Items[0], outlets.Items[1])
	}
}

func TestFetchBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	if _, err := New(nil, "").Fetch(context.Background(), server.URL); err == nil {
		t.Fatalf("expected error for forbidden response")
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
		want    []string
		wantErr bool
	}{
		{
			name:    "json list",
			file:    "outlets.json",
			content: `[{"Outlet Name": "EdSurge"}, {"Outlet Name": "Wired", "Prestige": "High"}]`,
			want:    []string{"EdSurge", "Wired"},
		},
		{
			name:    "yaml wrapped",
			file:    "outlets.yaml",
			content: "outlets:\n  - Outlet Name: TechCrunch\n    AI Partnered: no\n",
			want:    []string{"TechCrunch"},
		},
		{
			name:    "record without a name",
			file:    "broken.json",
			content: `[{"Keywords": "security"}]`,
			wantErr: true,
		},
		{
			name:    "no outlets key",
			file:    "other.yaml",
			content: "items: []\n",
			wantErr: true,
		},
		{
			name:    "empty",
			file:    "empty.json",
			content: "  ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}

			outlets, err := ReadFile(path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", outlets.Names())
				}
				return
			}
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if !reflect.DeepEqual(outlets.Names(), tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, outlets.Names())
			}
		})
	}
}

func TestIsRemote(t *testing.T) {
	t.Parallel()

	for source, want := range map[string]bool{
		"https://example.com/outlets": true,
		"http://localhost:8080":       true,
		"outlets.json":                false,
		"/tmp/outlets.yaml":           false,
	} {
		if got := IsRemote(source); got != want {
			t.Fatalf("%s: expected %v, got %v", source, want, got)
		}
	}
}
