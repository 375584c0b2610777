// Package api provides the HTTP server: the REST surface the two partner
// clients consume.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eojedapilchik/couples-app/internal/app/auth"
	"github.com/eojedapilchik/couples-app/internal/app/credit"
	"github.com/eojedapilchik/couples-app/internal/app/period"
	"github.com/eojedapilchik/couples-app/internal/app/proposal"
	"github.com/eojedapilchik/couples-app/internal/domain"
	"github.com/eojedapilchik/couples-app/internal/infra/catalog"
	"github.com/eojedapilchik/couples-app/internal/infra/sqlite"
)

// Server is the HTTP API server.
type Server struct {
	db             *sqlite.DB
	auth           *auth.Service
	proposals      *proposal.Service
	ledger         *credit.Service
	periods        *period.Service
	catalog        *catalog.Catalog
	currencyName   string
	metricsEnabled bool
}

// NewServer creates an API server over the given services.
func NewServer(db *sqlite.DB, authSvc *auth.Service, proposals *proposal.Service,
	ledger *credit.Service, periods *period.Service, cat *catalog.Catalog, currencyName string) *Server {
	return &Server{
		db:           db,
		auth:         authSvc,
		proposals:    proposals,
		ledger:       ledger,
		periods:      periods,
		catalog:      cat,
		currencyName: currencyName,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/users", s.handleListUsers)
		r.Post("/login", s.handleLogin)
	})

	r.Route("/cards", func(r chi.Router) {
		r.Get("/", s.handleListCards)
		r.Get("/{id}", s.handleGetCard)
	})

	r.Route("/proposals", func(r chi.Router) {
		r.Post("/", s.handleCreateProposal)
		r.Get("/", s.handleListProposals)
		r.Get("/{id}", s.handleGetProposal)
		r.Patch("/{id}", s.handleUpdateProposal)
		r.Delete("/{id}", s.handleDeleteProposal)
		r.Patch("/{id}/respond", s.handleRespondProposal)
		r.Patch("/{id}/complete", s.handleCompleteProposal)
		r.Patch("/{id}/confirm", s.handleConfirmProposal)
	})

	r.Route("/credits", func(r chi.Router) {
		r.Get("/balance", s.handleBalance)
		r.Get("/ledger", s.handleLedger)
	})

	r.Route("/periods", func(r chi.Router) {
		r.Post("/", s.handleCreatePeriod)
		r.Get("/", s.handleListPeriods)
		r.Get("/active", s.handleActivePeriod)
		r.Get("/{id}", s.handleGetPeriod)
		r.Patch("/{id}/activate", s.handleActivatePeriod)
		r.Patch("/{id}/complete", s.handleCompletePeriod)
		r.Get("/{id}/proposals", s.handlePeriodProposals)
		r.Post("/{id}/grant-weekly-credits", s.handleGrantWeekly)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/reset", s.handleAdminReset)
		r.Post("/adjust", s.handleAdminAdjust)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── Request Helpers ────────────────────────────────────────────────────────

// actingUser resolves the acting user: a bearer session token when present,
// else the user_id query parameter.
func (s *Server) actingUser(r *http.Request) (int64, error) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return s.auth.ParseToken(strings.TrimPrefix(h, "Bearer "))
	}
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		return 0, domain.NewError(domain.CodeValidation, "user_id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.NewError(domain.CodeValidation, "user_id must be an integer")
	}
	return id, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, domain.NewError(domain.CodeValidation, "id must be an integer")
	}
	return id, nil
}

// queryInt returns a bounded integer query parameter with a default.
func queryInt(r *http.Request, name string, def, min, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min {
		return def
	}
	if v > max {
		return max
	}
	return v
}

// ─── Response Helpers ───────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps a domain error to its HTTP status and writes it.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := domain.CodeOf(err)
	switch code {
	case domain.CodeValidation:
		status = http.StatusBadRequest
	case domain.CodeUnauthorizedActor:
		status = http.StatusForbidden
	case domain.CodeConflict:
		status = http.StatusConflict
	case domain.CodeNotFound:
		status = http.StatusNotFound
	case domain.CodeDependencyUnavailable:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    string(code),
			"message": err.Error(),
		},
	})
}

// corsMiddleware adds CORS headers for the local frontend.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
