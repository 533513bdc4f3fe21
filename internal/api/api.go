package api

import (
	"encoding/json"
	"net/http"

	"github.com/jmahler/bugtrack/internal/models"
	"github.com/jmahler/bugtrack/internal/store"
	"github.com/jmahler/bugtrack/internal/validate"
)

// Server provides the REST API handlers.
type Server struct {
	store store.Store
}

// NewServer creates a new API server.
func NewServer(s store.Store) *Server {
	return &Server{store: s}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/bugs", s.listBugs)
	mux.HandleFunc("POST /api/bugs", s.createBug)
	mux.HandleFunc("GET /api/bugs/{id}", s.getBug)
	mux.HandleFunc("PUT /api/bugs/{id}", s.updateBug)
	mux.HandleFunc("DELETE /api/bugs/{id}", s.deleteBug)

	mux.HandleFunc("GET /api/health", s.health)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// listResponse is the wire shape of a successful list call.
type listResponse struct {
	Bugs        []*models.Bug `json:"bugs"`
	Total       int           `json:"total"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
}

func (s *Server) listBugs(w http.ResponseWriter, r *http.Request) {
	filter, page, limit, err := parseListQuery(r.URL.Query())
	if err != nil {
		fail(w, err)
		return
	}

	bugs, total, err := s.store.ListBugs(r.Context(), filter, limit, (page-1)*limit)
	if err != nil {
		fail(w, err)
		return
	}
	if bugs == nil {
		bugs = []*models.Bug{}
	}

	totalPages := (total + limit - 1) / limit

	writeJSON(w, http.StatusOK, listResponse{
		Bugs:        bugs,
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: page,
	})
}

func (s *Server) getBug(w http.ResponseWriter, r *http.Request) {
	bug, err := s.store.GetBug(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bug)
}

func (s *Server) createBug(w http.ResponseWriter, r *http.Request) {
	var payload validate.CreatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := payload.Validate(); err != nil {
		fail(w, err)
		return
	}

	bug := payload.Normalize()
	if err := s.store.CreateBug(r.Context(), &bug); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, &bug)
}

func (s *Server) updateBug(w http.ResponseWriter, r *http.Request) {
	var payload validate.UpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := payload.Validate(); err != nil {
		fail(w, err)
		return
	}

	// Validation happens before any store mutation; the fetch-merge-write
	// below is last-write-wins per record.
	bug, err := s.store.GetBug(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, err)
		return
	}

	payload.Apply(bug)
	if err := s.store.UpdateBug(r.Context(), bug); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bug)
}

func (s *Server) deleteBug(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteBug(r.Context(), r.PathValue("id")); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Bug deleted successfully"})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
