// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/kickoff/internal/domain/balance"
	"github.com/okian/kickoff/internal/domain/model"
	"github.com/okian/kickoff/internal/domain/types"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Balance partitions a roster that is not stored.
	Balance(ctx context.Context, in types.BalanceInput) (balance.PartitionResult, error)

	CreateMatch(ctx context.Context, in types.MatchInput) (*model.Match, error)
	GetMatch(ctx context.Context, id string) (*model.Match, error)
	UpdateRoster(ctx context.Context, id string, roster []model.RosterEntry) (*model.Match, error)
	SetLocks(ctx context.Context, id string, locks map[string]balance.Side) (*model.Match, error)
	BalanceMatch(ctx context.Context, id string, preferRandomTies *bool) (*model.Match, error)

	// FinalizeMatch freezes the lineup and queues player notifications.
	FinalizeMatch(ctx context.Context, id string) (*model.Match, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	balanceHandler *BalanceHandler
	matchesHandler *MatchesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		balanceHandler: NewBalanceHandler(deps),
		matchesHandler: NewMatchesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /balance", MetricsMiddleware(s.balanceHandler.HandleBalance, "balance"))

	m := s.matchesHandler
	mux.HandleFunc("POST /matches", MetricsMiddleware(m.HandleCreate, "matches_create"))
	mux.HandleFunc("GET /matches/{id}", MetricsMiddleware(m.HandleGet, "matches_get"))
	mux.HandleFunc("PUT /matches/{id}/roster", MetricsMiddleware(m.HandleRoster, "matches_roster"))
	mux.HandleFunc("PUT /matches/{id}/locks", MetricsMiddleware(m.HandleLocks, "matches_locks"))
	mux.HandleFunc("POST /matches/{id}/balance", MetricsMiddleware(m.HandleBalance, "matches_balance"))
	mux.HandleFunc("POST /matches/{id}/finalize", MetricsMiddleware(m.HandleFinalize, "matches_finalize"))
}

// lockRequest is a lock map as clients send it: player key to "A" or "B".
type lockRequest map[string]string

func (l lockRequest) parse() (map[string]balance.Side, error) {
	if l == nil {
		return nil, nil
	}
	out := make(map[string]balance.Side, len(l))
	for key, raw := range l {
		side, ok := balance.ParseSide(raw)
		if !ok {
			return nil, fmt.Errorf("lock for %q: side %q is not A or B", key, raw)
		}
		out[key] = side
	}
	return out, nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decodeJSON reads one JSON value from the body. An empty body is allowed
// when optional is set.
func decodeJSON(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusOf(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
