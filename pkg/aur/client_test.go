package aur

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"archpm/pkg/manager"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClientWithOptions(srv.URL+"/rpc/v5", 5*time.Second)
}

func writeResponse(t *testing.T, w http.ResponseWriter, resp Response) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestSearch(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rpc/v5/search/visual studio" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if by := r.URL.Query().Get("by"); by != "name-desc" {
			t.Errorf("by = %q, want name-desc", by)
		}
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "archpm/") {
			t.Errorf("User-Agent = %q", ua)
		}

		writeResponse(t, w, Response{
			Version:     5,
			Type:        "search",
			ResultCount: 1,
			Results: []Package{{
				Name:         "visual-studio-code-bin",
				Version:      "1.90.0-1",
				Description:  "Visual Studio Code (vscode)",
				Maintainer:   "dcelasun",
				URL:          "https://code.visualstudio.com/",
				LastModified: 1717200000,
			}},
		})
	})

	results, err := client.Search(context.Background(), "visual studio")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	got := results[0]
	if got.Repository != manager.RepoAUR {
		t.Errorf("Repository = %q, want AUR", got.Repository)
	}
	if got.UpstreamURL != "https://code.visualstudio.com/" {
		t.Errorf("UpstreamURL = %q", got.UpstreamURL)
	}
	if got.LastUpdated != "Jun. 1, 2024, 12:00 AM UTC" {
		t.Errorf("LastUpdated = %q", got.LastUpdated)
	}
}

func TestInfoBatches(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []int
	)

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rpc/v5/info" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		args := r.URL.Query()["arg[]"]

		mu.Lock()
		calls = append(calls, len(args))
		mu.Unlock()

		var results []Package
		for _, name := range args {
			results = append(results, Package{Name: name, Version: "1.0-1"})
		}
		writeResponse(t, w, Response{Version: 5, Type: "multiinfo", ResultCount: len(results), Results: results})
	})

	names := make([]string, 250)
	for i := range names {
		names[i] = "pkg" + strings.Repeat("x", i%7) + string(rune('a'+i%26))
	}

	results, err := client.InfoPackages(context.Background(), names...)
	if err != nil {
		t.Fatalf("InfoPackages() error: %v", err)
	}
	if len(results) != 250 {
		t.Errorf("expected 250 results, got %d", len(results))
	}
	if !reflect.DeepEqual(calls, []int{100, 100, 50}) {
		t.Errorf("batch sizes = %v, want [100 100 50]", calls)
	}
}

func TestInfoEmpty(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty names")
	})

	results, err := client.Info(context.Background())
	if err != nil {
		t.Fatalf("Info() error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestGetPackage(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var results []Package
		if r.URL.Query().Get("arg[]") == "yay" {
			results = []Package{{
				Name:    "yay",
				Version: "12.3.5-1",
				Depends: []string{"pacman>6.1", "git"},
			}}
		}
		writeResponse(t, w, Response{Version: 5, Type: "multiinfo", ResultCount: len(results), Results: results})
	})

	pkg, err := client.GetPackage(context.Background(), "yay")
	if err != nil {
		t.Fatalf("GetPackage() error: %v", err)
	}
	info := ToPackageInfo(*pkg)
	if !reflect.DeepEqual(info.DependList, []string{"pacman", "git"}) {
		t.Errorf("DependList = %v", info.DependList)
	}

	if _, err := client.GetPackage(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPackage(missing) error = %v, want ErrNotFound", err)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "rpc error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"version":5,"type":"error","resultcount":0,"results":[],"error":"Too many package results."}`))
			},
			want: "Too many package results.",
		},
		{
			name: "http status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "maintenance", http.StatusServiceUnavailable)
			},
			want: "status 503",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>"))
			},
			want: "failed to parse response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, tt.handler)
			_, err := client.Search(context.Background(), "a")
			if err == nil {
				t.Fatal("Search() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want to contain %q", err, tt.want)
			}
		})
	}
}

func TestContextCancelled(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(t, w, Response{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Search(ctx, "vim"); err == nil {
		t.Error("Search() should fail with a cancelled context")
	}
}

func TestToPackageInfoFlags(t *testing.T) {
	ts := int64(1700000000)
	info := ToPackageInfo(Package{Name: "yay-bin", PackageBase: "yay-bin", OutOfDate: &ts})

	if info.OutOfDate != manager.FormatUnix(ts) {
		t.Errorf("OutOfDate = %q, want %q", info.OutOfDate, manager.FormatUnix(ts))
	}
	if !info.Orphan {
		t.Error("Orphan should be true without a maintainer")
	}

	info = ToPackageInfo(Package{Name: "yay", Maintainer: "jguer"})
	if info.OutOfDate != "" || info.Orphan {
		t.Errorf("maintained package flagged: %+v", info)
	}
}
