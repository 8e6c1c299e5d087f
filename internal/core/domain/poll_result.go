package domain

import "fmt"

// UpdateMessage is the delta pushed over the real-time channel after a vote:
// the new count of one option and the new poll total.
type UpdateMessage struct {
	PollID     int64 `json:"poll_id"`
	OptionID   int64 `json:"option_id"`
	VotesCount int64 `json:"votes_count"`
	TotalVotes int64 `json:"total_votes"`
}

func (m UpdateMessage) Validate() error {
	if m.PollID <= 0 {
		return fmt.Errorf("invalid poll_id %d", m.PollID)
	}
	if m.OptionID <= 0 {
		return fmt.Errorf("invalid option_id %d", m.OptionID)
	}
	if m.VotesCount < 0 || m.TotalVotes < 0 {
		return fmt.Errorf("negative counts (votes_count=%d, total_votes=%d)", m.VotesCount, m.TotalVotes)
	}
	if m.VotesCount > m.TotalVotes {
		return fmt.Errorf("votes_count %d exceeds total_votes %d", m.VotesCount, m.TotalVotes)
	}
	return nil
}
