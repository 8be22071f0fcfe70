// Package api serves archived simulation runs over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nanobeam-data/exitwave/internal/measure"
	"github.com/nanobeam-data/exitwave/internal/render"
	"github.com/nanobeam-data/exitwave/internal/store"
)

type Server struct {
	db *store.Store
}

func NewServer(db *store.Store) *Server {
	return &Server{db: db}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/runs", s.listRuns)
	mux.HandleFunc("/run", s.getRun)
	mux.HandleFunc("/measurements", s.listMeasurements)
	mux.HandleFunc("/measurement", s.getMeasurement)
	mux.HandleFunc("/report", s.report)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("exitwave simulation archive"))
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runs, err := s.db.ListRuns(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list runs: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing run id", http.StatusBadRequest)
		return
	}
	run, err := s.db.Run(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "No such run", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch run: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, run)
}

func (s *Server) listMeasurements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runID := r.URL.Query().Get("run")
	if runID == "" {
		http.Error(w, "Missing run id", http.StatusBadRequest)
		return
	}
	names, err := s.db.ListMeasurements(r.Context(), runID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list measurements: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, names)
}

func (s *Server) getMeasurement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runID := r.URL.Query().Get("run")
	name := r.URL.Query().Get("name")
	if runID == "" || name == "" {
		http.Error(w, "Missing run id or measurement name", http.StatusBadRequest)
		return
	}

	m, err := s.db.Measurement(r.Context(), runID, name)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "No such measurement", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch measurement: %v", err), http.StatusInternalServerError)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", name))
		if err := m.WriteCSV(w); err != nil {
			http.Error(w, "Failed to write measurement", http.StatusInternalServerError)
		}
	case "gob":
		payload, err := m.Encode()
		if err != nil {
			http.Error(w, "Failed to encode measurement", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(payload)
	default:
		http.Error(w, fmt.Sprintf("Unknown format %q", format), http.StatusBadRequest)
	}
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runID := r.URL.Query().Get("run")
	if runID == "" {
		http.Error(w, "Missing run id", http.StatusBadRequest)
		return
	}
	run, err := s.db.Run(r.Context(), runID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "No such run", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch run: %v", err), http.StatusInternalServerError)
		return
	}

	names, err := s.db.ListMeasurements(r.Context(), runID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list measurements: %v", err), http.StatusInternalServerError)
		return
	}
	ms := make([]*measure.Measurement, 0, len(names))
	for _, name := range names {
		m, err := s.db.Measurement(r.Context(), runID, name)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to fetch measurement %s: %v", name, err), http.StatusInternalServerError)
			return
		}
		ms = append(ms, m)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.WriteReport(w, run.Name, ms); err != nil {
		http.Error(w, "Failed to render report", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
