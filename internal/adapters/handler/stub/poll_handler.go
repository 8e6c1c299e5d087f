package stub

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
	"github.com/vncsmyrnk/pollctl/internal/core/ports"
	"github.com/vncsmyrnk/pollctl/internal/core/services"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

type PollHandler struct {
	store *Store
}

func NewPollHandler(store *Store) *PollHandler {
	return &PollHandler{store: store}
}

func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req ports.CreatePollInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := services.NormalizeCreatePoll(req)
	if err := services.ValidateCreatePoll(input); err != nil {
		writeValidationError(w, err)
		return
	}

	ownerID, _ := userIDFrom(r.Context())
	writeJSON(w, http.StatusCreated, h.store.CreatePoll(ownerID, input))
}

func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, 0)
}

func (h *PollHandler) MyPolls(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := userIDFrom(r.Context())
	h.list(w, r, ownerID)
}

func (h *PollHandler) list(w http.ResponseWriter, r *http.Request, ownerID int64) {
	q := r.URL.Query()
	skip, err := intParam(q.Get("skip"), 0)
	if err != nil || skip < 0 {
		writeError(w, http.StatusUnprocessableEntity, "skip must be a non-negative integer")
		return
	}
	limit, err := intParam(q.Get("limit"), defaultListLimit)
	if err != nil || limit < 1 || limit > maxListLimit {
		writeError(w, http.StatusUnprocessableEntity, "limit must be between 1 and 100")
		return
	}

	viewerID, _ := userIDFrom(r.Context())
	polls := h.store.ListPolls(ListFilter{
		OwnerID: ownerID,
		Search:  q.Get("search"),
		Skip:    skip,
		Limit:   limit,
	}, viewerID)
	writeJSON(w, http.StatusOK, polls)
}

// GetPoll serves both the poll detail and its results, which share a shape.
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pollIDParam(w, r)
	if !ok {
		return
	}

	viewerID, _ := userIDFrom(r.Context())
	poll, err := h.store.Poll(pollID, viewerID)
	if err != nil {
		if errors.Is(err, domain.ErrPollNotFound) {
			writeError(w, http.StatusNotFound, "Poll not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, poll)
}

func pollIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusUnprocessableEntity, domain.ErrInvalidPollID.Error())
		return 0, false
	}
	return id, true
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
