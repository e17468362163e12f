package restapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/QuerthDP/mimdb/pkg/metastore"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	store, err := metastore.Open(filepath.Join(dir, "metastore.json"))
	if err != nil {
		t.Fatalf("metastore.Open: %v", err)
	}
	return New(store, dir, 2, 3, zap.NewNop())
}

func TestCreateAndLoadAndScan(t *testing.T) {
	s := newTestServer(t)
	handler := s.Routes()

	createReq := httptest.NewRequest(http.MethodPut, "/tables/events", nil)
	createRec := httptest.NewRecorder()
	handler.ServeHTTP(createRec, createReq)
	if createRec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", createRec.Code, createRec.Body.String())
	}

	csv := "id,name\n1,alice\n2,bob\n3,carol\n"
	loadReq := httptest.NewRequest(http.MethodPost, "/tables/events/load", strings.NewReader(csv))
	loadRec := httptest.NewRecorder()
	handler.ServeHTTP(loadRec, loadReq)
	if loadRec.Code != http.StatusOK {
		t.Fatalf("load: status = %d, body = %s", loadRec.Code, loadRec.Body.String())
	}

	scanReq := httptest.NewRequest(http.MethodGet, "/tables/events/scan", nil)
	scanRec := httptest.NewRecorder()
	handler.ServeHTTP(scanRec, scanReq)
	if scanRec.Code != http.StatusOK {
		t.Fatalf("scan: status = %d, body = %s", scanRec.Code, scanRec.Body.String())
	}

	var scanned map[string]any
	if err := json.Unmarshal(scanRec.Body.Bytes(), &scanned); err != nil {
		t.Fatalf("unmarshal scan response: %v", err)
	}
	if _, ok := scanned["id"]; !ok {
		t.Fatalf("scan response missing id column: %v", scanned)
	}
	if _, ok := scanned["name"]; !ok {
		t.Fatalf("scan response missing name column: %v", scanned)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	handler := s.Routes()

	csv := "id,name\n1,alice\n2,bob\n3,carol\n"
	loadReq := httptest.NewRequest(http.MethodPost, "/tables/events/load", strings.NewReader(csv))
	loadRec := httptest.NewRecorder()
	handler.ServeHTTP(loadRec, loadReq)
	if loadRec.Code != http.StatusOK {
		t.Fatalf("load: status = %d, body = %s", loadRec.Code, loadRec.Body.String())
	}

	metricsReq := httptest.NewRequest(http.MethodGet, "/tables/events/metrics", nil)
	metricsRec := httptest.NewRecorder()
	handler.ServeHTTP(metricsRec, metricsReq)
	if metricsRec.Code != http.StatusOK {
		t.Fatalf("metrics: status = %d, body = %s", metricsRec.Code, metricsRec.Body.String())
	}

	var resp metricsResponse
	if err := json.Unmarshal(metricsRec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal metrics response: %v", err)
	}
	if resp.Averages["id"] != 2.0 {
		t.Fatalf("average(id) = %v, want 2.0", resp.Averages["id"])
	}
	if resp.AsciiCount["name"] != len("alice")+len("bob")+len("carol") {
		t.Fatalf("ascii_byte_counts[name] = %d, want %d", resp.AsciiCount["name"], len("alicebobcarol"))
	}
}

func TestScanMissingTable(t *testing.T) {
	s := newTestServer(t)
	handler := s.Routes()

	req := httptest.NewRequest(http.MethodGet, "/tables/nope/scan", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestListTables(t *testing.T) {
	s := newTestServer(t)
	handler := s.Routes()

	csv := "id\n1\n2\n"
	loadReq := httptest.NewRequest(http.MethodPost, "/tables/a/load", strings.NewReader(csv))
	loadRec := httptest.NewRecorder()
	handler.ServeHTTP(loadRec, loadReq)
	if loadRec.Code != http.StatusOK {
		t.Fatalf("load: status = %d", loadRec.Code)
	}

	listReq := httptest.NewRequest(http.MethodGet, "/tables", nil)
	listRec := httptest.NewRecorder()
	handler.ServeHTTP(listRec, listReq)
	if listRec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", listRec.Code)
	}

	var summaries []tableSummary
	if err := json.Unmarshal(listRec.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("unmarshal list response: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Name != "a" {
		t.Fatalf("summaries = %+v", summaries)
	}
}
