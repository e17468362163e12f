// Package restapi exposes a thin synchronous HTTP facade over a table
// store: create a table, bulk-load CSV data into it, run a full-column
// scan, and compute metrics. Each request runs start to finish on its
// own goroutine, stdlib net/http's default model — no request spans
// multiple columns or tables concurrently.
package restapi

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/QuerthDP/mimdb/pkg/apimetrics"
	"github.com/QuerthDP/mimdb/pkg/csvload"
	"github.com/QuerthDP/mimdb/pkg/format"
	"github.com/QuerthDP/mimdb/pkg/metastore"
	"github.com/QuerthDP/mimdb/pkg/metrics"
	"github.com/QuerthDP/mimdb/pkg/mimdberrors"
	"github.com/QuerthDP/mimdb/pkg/table"
)

// Server holds the state backing the REST facade: a metastore mapping
// table names to file paths, the data directory files live under, and
// the codec settings used for every write.
type Server struct {
	store        *metastore.Store
	dataDir      string
	rowsPerBatch int
	zstdLevel    int
	logger       *zap.Logger

	mu     sync.RWMutex
	tables map[string]*table.Table
}

// New creates a Server backed by store, writing .mimdb files under
// dataDir using rowsPerBatch and zstdLevel.
func New(store *metastore.Store, dataDir string, rowsPerBatch, zstdLevel int, logger *zap.Logger) *Server {
	return &Server{
		store:        store,
		dataDir:      dataDir,
		rowsPerBatch: rowsPerBatch,
		zstdLevel:    zstdLevel,
		logger:       logger,
		tables:       make(map[string]*table.Table),
	}
}

// Routes returns the server's handler, wired onto a stdlib ServeMux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tables", s.handleTables)
	mux.HandleFunc("/tables/", s.handleTable)
	return mux
}

type tableSummary struct {
	Name     string `json:"name"`
	RowCount int    `json:"row_count"`
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	timer := apimetrics.NewTimer("list_tables")
	defer func() { timer.Stop(true) }()

	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries := s.store.List()
	summaries := make([]tableSummary, len(entries))
	for i, e := range entries {
		summaries[i] = tableSummary{Name: e.Name, RowCount: e.RowCount}
	}
	respondJSON(w, http.StatusOK, summaries)
}

// handleTable dispatches /tables/{name} and /tables/{name}/{action}.
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	rest := r.URL.Path[len("/tables/"):]
	name, action := splitOnce(rest)

	switch action {
	case "load":
		s.handleLoadCSV(w, r, name)
	case "scan":
		s.handleScan(w, r, name)
	case "metrics":
		s.handleMetrics(w, r, name)
	case "":
		s.handleCreateTable(w, r, name)
	default:
		respondError(w, http.StatusNotFound, "unknown action")
	}
}

func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request, name string) {
	timer := apimetrics.NewTimer("create_table")
	ok := true
	defer func() { timer.Stop(ok) }()

	if r.Method != http.MethodPut {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		ok = false
		return
	}
	if name == "" {
		respondError(w, http.StatusBadRequest, "table name required")
		ok = false
		return
	}

	s.mu.Lock()
	s.tables[name] = table.New()
	s.mu.Unlock()

	apimetrics.TablesLoaded.Set(float64(len(s.store.List()) + 1))
	respondJSON(w, http.StatusCreated, tableSummary{Name: name})
}

func (s *Server) handleLoadCSV(w http.ResponseWriter, r *http.Request, name string) {
	timer := apimetrics.NewTimer("load_csv")
	ok := false
	defer func() { timer.Stop(ok) }()

	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	throughput := apimetrics.NewThroughputTracker(name)

	tbl, err := csvload.Load(r.Body)
	if err != nil {
		s.logger.Warn("csv load failed", zap.String("table", name), zap.Error(err))
		respondMimdbError(w, err)
		return
	}
	throughput.Increment(int64(tbl.RowCount()))

	path := filepath.Join(s.dataDir, name+".mimdb")
	file, err := os.Create(path)
	if err != nil {
		respondMimdbError(w, mimdberrors.Wrap(err, mimdberrors.IoFailure, "creating table file"))
		return
	}
	defer file.Close()

	if err := format.Write(file, tbl, s.rowsPerBatch, s.zstdLevel); err != nil {
		respondMimdbError(w, err)
		return
	}

	if err := s.store.Put(metastore.Entry{Name: name, Path: path, RowCount: tbl.RowCount()}); err != nil {
		respondMimdbError(w, err)
		return
	}

	s.mu.Lock()
	s.tables[name] = tbl
	s.mu.Unlock()

	apimetrics.TableRows.WithLabelValues(name).Set(float64(tbl.RowCount()))
	apimetrics.LoadThroughputRowsPerSecond.WithLabelValues(name).Set(throughput.GetAndReset())
	ok = true
	respondJSON(w, http.StatusOK, tableSummary{Name: name, RowCount: tbl.RowCount()})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request, name string) {
	timer := apimetrics.NewTimer("scan")
	ok := false
	defer func() { timer.Stop(ok) }()

	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	tbl, err := s.loadTable(name)
	if err != nil {
		respondMimdbError(w, err)
		return
	}

	out := make(map[string]any, tbl.ColumnCount())
	for _, col := range tbl.Columns() {
		switch col.Type {
		case table.Int64:
			out[col.Name] = col.Int64Values
		case table.Varchar:
			strs := make([]string, len(col.VarcharValues))
			for i, v := range col.VarcharValues {
				strs[i] = string(v)
			}
			out[col.Name] = strs
		}
	}
	ok = true
	respondJSON(w, http.StatusOK, out)
}

type metricsResponse struct {
	Averages   map[string]float64 `json:"averages"`
	AsciiCount map[string]int     `json:"ascii_byte_counts"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request, name string) {
	timer := apimetrics.NewTimer("metrics")
	ok := false
	defer func() { timer.Stop(ok) }()

	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	tbl, err := s.loadTable(name)
	if err != nil {
		respondMimdbError(w, err)
		return
	}

	resp := metricsResponse{Averages: make(map[string]float64), AsciiCount: make(map[string]int)}
	for _, col := range tbl.Columns() {
		switch col.Type {
		case table.Int64:
			if avg, defined := metrics.IntAverage(tbl, col.Name); defined {
				resp.Averages[col.Name] = avg
			}
		case table.Varchar:
			resp.AsciiCount[col.Name] = metrics.AsciiByteCount(tbl, col.Name)
		}
	}
	ok = true
	respondJSON(w, http.StatusOK, resp)
}

// loadTable returns an in-memory table for name, caching it after the
// first load from disk.
func (s *Server) loadTable(name string) (*table.Table, error) {
	s.mu.RLock()
	if tbl, ok := s.tables[name]; ok {
		s.mu.RUnlock()
		return tbl, nil
	}
	s.mu.RUnlock()

	entry, ok := s.store.Get(name)
	if !ok {
		return nil, mimdberrors.New(mimdberrors.IoFailure, "table not found").WithDetail("name", name)
	}

	file, err := os.Open(entry.Path)
	if err != nil {
		return nil, mimdberrors.Wrap(err, mimdberrors.IoFailure, "opening table file").
			WithDetail("path", entry.Path)
	}
	defer file.Close()

	tbl, err := format.Read(file)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.tables[name] = tbl
	s.mu.Unlock()
	return tbl, nil
}

func splitOnce(path string) (string, string) {
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			return path[:i], path[i+1:]
		}
	}
	return path, ""
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

func respondMimdbError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if mimdberrors.Is(err, mimdberrors.DuplicateColumn) ||
		mimdberrors.Is(err, mimdberrors.ColumnLengthMismatch) ||
		mimdberrors.Is(err, mimdberrors.EmptyColumnName) ||
		mimdberrors.Is(err, mimdberrors.InvalidMagic) ||
		mimdberrors.Is(err, mimdberrors.UnsupportedVersion) ||
		mimdberrors.Is(err, mimdberrors.MalformedMetadata) ||
		mimdberrors.Is(err, mimdberrors.SizeMismatch) {
		status = http.StatusBadRequest
	}
	respondError(w, status, err.Error())
}
