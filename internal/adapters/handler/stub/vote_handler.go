package stub

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
)

type VoteHandler struct {
	store  *Store
	hub    *Hub
	logger *zap.Logger
}

func NewVoteHandler(store *Store, hub *Hub, logger *zap.Logger) *VoteHandler {
	return &VoteHandler{store: store, hub: hub, logger: logger}
}

type voteRequest struct {
	OptionID int64 `json:"option_id"`
}

func (h *VoteHandler) VoteOnPoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pollIDParam(w, r)
	if !ok {
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, _ := userIDFrom(r.Context())
	result, err := h.store.Vote(pollID, req.OptionID, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPollNotFound):
			writeError(w, http.StatusNotFound, "Poll not found")
		case errors.Is(err, domain.ErrInvalidOption):
			writeError(w, http.StatusBadRequest, "Invalid option for this poll")
		case errors.Is(err, domain.ErrAlreadyVoted):
			writeError(w, http.StatusConflict, "You have already voted on this poll")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	h.hub.Broadcast(domain.UpdateMessage{
		PollID:     pollID,
		OptionID:   result.OptionID,
		VotesCount: result.VotesCount,
		TotalVotes: result.TotalVotes,
	})
	h.logger.Debug("vote recorded",
		zap.Int64("poll_id", pollID),
		zap.Int64("option_id", result.OptionID),
		zap.Int64("total_votes", result.TotalVotes),
	)
	writeJSON(w, http.StatusOK, result)
}
