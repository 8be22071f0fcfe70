package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nanobeam-data/exitwave/internal/measure"
	"github.com/nanobeam-data/exitwave/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Run) {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	run, err := db.CreateRun(ctx, "graphene-haadf", "energy: 60000")
	if err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}

	m, err := measure.New([]int{2, 2}, []measure.Calibration{
		{Sampling: 1, Units: "Å", Name: "x"},
		{Sampling: 1, Units: "Å", Name: "y"},
	}, "haadf")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	copy(m.Data, []float64{0.1, 0.2, 0.3, 0.4})
	if err := db.SaveMeasurement(ctx, run.ID, "haadf", m); err != nil {
		t.Fatalf("SaveMeasurement() error = %v", err)
	}

	return NewServer(db), run
}

func TestListRuns(t *testing.T) {
	srv, run := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var runs []store.Run
	if err := json.NewDecoder(rec.Body).Decode(&runs); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}
	if runs[0].ID != run.ID {
		t.Errorf("runs[0].ID = %s, want %s", runs[0].ID, run.ID)
	}
}

func TestListRunsMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestGetRun(t *testing.T) {
	srv, run := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/run?id="+run.ID, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got store.Run
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Name != "graphene-haadf" {
		t.Errorf("Name = %s, want graphene-haadf", got.Name)
	}
}

func TestGetRunNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/run?id=missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestListMeasurements(t *testing.T) {
	srv, run := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/measurements?run="+run.ID, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var names []string
	if err := json.NewDecoder(rec.Body).Decode(&names); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(names) != 1 || names[0] != "haadf" {
		t.Errorf("names = %v, want [haadf]", names)
	}
}

func TestGetMeasurementCSV(t *testing.T) {
	srv, run := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/measurement?run="+run.ID+"&name=haadf", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %s, want text/csv", ct)
	}
	if body := rec.Body.String(); !strings.Contains(body, "0.1") {
		t.Errorf("body does not contain measurement data: %q", body)
	}
}

func TestGetMeasurementGob(t *testing.T) {
	srv, run := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/measurement?run="+run.ID+"&name=haadf&format=gob", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	m, err := measure.Decode(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if m.Data[3] != 0.4 {
		t.Errorf("Data[3] = %v, want 0.4", m.Data[3])
	}
}

func TestGetMeasurementBadFormat(t *testing.T) {
	srv, run := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/measurement?run="+run.ID+"&name=haadf&format=hdf5", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestReport(t *testing.T) {
	srv, run := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report?run="+run.ID, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "echarts") {
		t.Errorf("report body does not look like a chart page")
	}
	if !strings.Contains(body, "graphene-haadf") {
		t.Errorf("report body does not mention the run name")
	}
}
