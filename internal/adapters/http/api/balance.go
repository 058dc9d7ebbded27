package api

import (
	"context"
	"net/http"

	"github.com/okian/kickoff/internal/domain/balance"
	"github.com/okian/kickoff/internal/domain/model"
	"github.com/okian/kickoff/internal/domain/types"
)

// balanceRequest mirrors the OpenAPI schema for POST /balance.
type balanceRequest struct {
	Players          []model.RosterEntry `json:"players"`
	Locks            lockRequest         `json:"locks,omitempty"`
	TeamAName        string              `json:"team_a_name,omitempty"`
	TeamBName        string              `json:"team_b_name,omitempty"`
	PreferRandomTies *bool               `json:"prefer_random_ties,omitempty"`
}

// BalanceDependencies is what the stateless balance endpoint needs.
type BalanceDependencies interface {
	Balance(ctx context.Context, in types.BalanceInput) (balance.PartitionResult, error)
}

// BalanceHandler handles stateless balance requests.
type BalanceHandler struct {
	deps BalanceDependencies
}

// NewBalanceHandler creates a new balance handler.
func NewBalanceHandler(deps BalanceDependencies) *BalanceHandler {
	return &BalanceHandler{deps: deps}
}

// HandleBalance handles POST /balance requests.
func (h *BalanceHandler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	const op = "api.balance"
	var req balanceRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	locks, err := req.Locks.parse()
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Balance(r.Context(), types.BalanceInput{
		Roster:           req.Players,
		Locks:            balance.LockMap(locks),
		TeamAName:        req.TeamAName,
		TeamBName:        req.TeamBName,
		PreferRandomTies: req.PreferRandomTies,
	})
	if err != nil {
		writeError(w, classify(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
