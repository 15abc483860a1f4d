package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coreman2200/arcaluminis-opc/internal/pattern"
)

// Router wires the status endpoints. g may be nil to leave out /metrics.
func (s *State) Router(g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(withCORS)

	r.Get("/health", s.HandleHealth)
	r.Get("/ws", s.HandleFramesWS)
	r.Get("/diag", s.HandleDiagWS)
	r.Get("/patterns", s.handlePatterns)
	r.Post("/pattern/{name}", s.handleSetPattern)
	if g != nil {
		r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *State) handlePatterns(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"active":    s.Pattern(),
		"available": pattern.Names(),
	})
}

func (s *State) handleSetPattern(w http.ResponseWriter, r *http.Request) {
	if err := s.SetPattern(chi.URLParam(r, "name")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
