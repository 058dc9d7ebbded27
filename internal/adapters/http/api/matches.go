package api

import (
	"net/http"

	"github.com/okian/kickoff/internal/domain/model"
	"github.com/okian/kickoff/internal/domain/types"
)

type createMatchRequest struct {
	Name      string              `json:"name"`
	Players   []model.RosterEntry `json:"players"`
	Locks     lockRequest         `json:"locks,omitempty"`
	TeamAName string              `json:"team_a_name,omitempty"`
	TeamBName string              `json:"team_b_name,omitempty"`
}

type rosterRequest struct {
	Players []model.RosterEntry `json:"players"`
}

type locksRequest struct {
	Locks lockRequest `json:"locks"`
}

type balanceMatchRequest struct {
	PreferRandomTies *bool `json:"prefer_random_ties,omitempty"`
}

// MatchesHandler serves the stored match resources.
type MatchesHandler struct {
	deps Dependencies
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps Dependencies) *MatchesHandler {
	return &MatchesHandler{deps: deps}
}

// HandleCreate handles POST /matches.
func (h *MatchesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_match"
	var req createMatchRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	locks, err := req.Locks.parse()
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	m, err := h.deps.CreateMatch(r.Context(), types.MatchInput{
		Name:      req.Name,
		Roster:    req.Players,
		Locks:     locks,
		TeamAName: req.TeamAName,
		TeamBName: req.TeamBName,
	})
	if err != nil {
		writeError(w, classify(op, err))
		return
	}
	w.Header().Set("Location", "/matches/"+m.ID)
	writeJSON(w, http.StatusCreated, types.NewMatchView(m))
}

// HandleGet handles GET /matches/{id}.
func (h *MatchesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	m, err := h.deps.GetMatch(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, classify("api.get_match", err))
		return
	}
	writeJSON(w, http.StatusOK, types.NewMatchView(m))
}

// HandleRoster handles PUT /matches/{id}/roster.
func (h *MatchesHandler) HandleRoster(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_roster"
	var req rosterRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	m, err := h.deps.UpdateRoster(r.Context(), r.PathValue("id"), req.Players)
	if err != nil {
		writeError(w, classify(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.NewMatchView(m))
}

// HandleLocks handles PUT /matches/{id}/locks.
func (h *MatchesHandler) HandleLocks(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_locks"
	var req locksRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	locks, err := req.Locks.parse()
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	m, err := h.deps.SetLocks(r.Context(), r.PathValue("id"), locks)
	if err != nil {
		writeError(w, classify(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.NewMatchView(m))
}

// HandleBalance handles POST /matches/{id}/balance. The body is optional.
func (h *MatchesHandler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	const op = "api.balance_match"
	var req balanceMatchRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	m, err := h.deps.BalanceMatch(r.Context(), r.PathValue("id"), req.PreferRandomTies)
	if err != nil {
		writeError(w, classify(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.NewMatchView(m))
}

// HandleFinalize handles POST /matches/{id}/finalize. Notifications are
// delivered asynchronously, hence 202.
func (h *MatchesHandler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	m, err := h.deps.FinalizeMatch(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, classify("api.finalize_match", err))
		return
	}
	writeJSON(w, http.StatusAccepted, types.NewMatchView(m))
}
