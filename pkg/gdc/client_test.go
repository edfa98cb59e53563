package gdc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/oncoweave/pipeline/pkg/common/config"
	"github.com/oncoweave/pipeline/pkg/common/logger"
)

func TestMain(m *testing.M) {
	logger.Init("gdc-test")
	os.Exit(m.Run())
}

func testClient(baseURL string, pageSize int) *Client {
	return NewClient(&config.Config{
		GDCBaseURL:  baseURL,
		GDCPageSize: pageSize,
		GDCTimeout:  5 * time.Second,
	})
}

func TestCasesPagesThroughResults(t *testing.T) {
	total := 5
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cases" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("filters") == "" {
			t.Error("filters param missing")
		}

		from := 0
		fmt.Sscanf(r.URL.Query().Get("from"), "%d", &from)
		size := 2

		var hits []map[string]interface{}
		for i := from; i < from+size && i < total; i++ {
			hits = append(hits, map[string]interface{}{
				"submitter_id": fmt.Sprintf("TCGA-XX-%04d", i),
			})
		}

		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"hits": hits,
				"pagination": map[string]interface{}{
					"count": len(hits),
					"total": total,
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := testClient(server.URL, 2)
	hits, err := client.Cases(context.Background(), "TCGA-BRCA", nil)
	if err != nil {
		t.Fatalf("Cases: %v", err)
	}
	if len(hits) != total {
		t.Fatalf("hits = %d, want %d", len(hits), total)
	}
}

func TestCasesSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := testClient(server.URL, 10)
	if _, err := client.Cases(context.Background(), "TCGA-BRCA", nil); err == nil {
		t.Fatal("expected an error on 503")
	}
}

func TestDownloadWritesFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/abc-123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, "file-content")
	}))
	defer server.Close()

	client := testClient(server.URL, 10)
	dir := t.TempDir()
	dest, err := client.Download(context.Background(), FileMeta{ID: "abc-123", Name: "clinical.tsv"}, dir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}

	raw, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(raw) != "file-content" {
		t.Fatalf("downloaded content = %q", raw)
	}
}
