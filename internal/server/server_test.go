package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/stephansanders/citation-overlap/internal/overlap"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv, err := New(overlap.DefaultConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return srv.Router()
}

func TestGreeting(t *testing.T) {
	router := newTestRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.String() != "Hello my friend!" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestFindOverlaps(t *testing.T) {
	medline := "Title,Description,Details,ShortDetails,Identifiers,Properties\n" +
		"A shared title,Smith J,J Med Genet. 2019,J Med Genet. 2019,PMID:11111111,\n"
	scopus := "Authors,Title,Year,Source title,Volume,Issue,PubMed ID\n" +
		"Smith J.,A shared title,2019,J Med Genet,,,11111111\n"

	body, err := json.Marshal(map[string]string{
		"medline": medline,
		"scopus":  scopus,
	})
	if err != nil {
		t.Fatal(err)
	}

	router := newTestRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var response struct {
		Medline  []map[string]string `json:"medline"`
		Scopus   []map[string]string `json:"scopus"`
		Overlaps []map[string]string `json:"overlaps"`
		Stats    overlap.Stats       `json:"stats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(response.Medline) != 1 || len(response.Scopus) != 1 {
		t.Fatalf("clean tables = %d medline, %d scopus rows", len(response.Medline), len(response.Scopus))
	}
	if len(response.Overlaps) != 2 {
		t.Fatalf("overlaps rows = %d, want 2", len(response.Overlaps))
	}
	for _, row := range response.Overlaps {
		if row["Group"] != "1" {
			t.Errorf("row %s Group = %q, want 1", row["Paper_ID"], row["Group"])
		}
		if row["Grp_Size"] != "2" {
			t.Errorf("row %s Grp_Size = %q, want 2", row["Paper_ID"], row["Grp_Size"])
		}
	}
	if response.Stats.Records != 2 {
		t.Errorf("Stats.Records = %d, want 2", response.Stats.Records)
	}
}

func TestFindOverlapsRejectsBadRequests(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "plain text"},
		{"empty object", "{}"},
		{"unknown source", `{"nosuchdb": "A,B\n1,2\n"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}
