package domain

import (
	"fmt"
	"time"
)

type Poll struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Options     []Option  `json:"options"`
	TotalVotes  int64     `json:"total_votes"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`

	// Viewer state, filled by the server when the request is authenticated
	// and kept sticky by the client for the rest of the session.
	HasVoted bool   `json:"hasVoted"`
	UserVote *int64 `json:"userVote,omitempty"`
}

type Option struct {
	ID         int64  `json:"id"`
	Text       string `json:"text"`
	VotesCount int64  `json:"votes_count"`
}

// Option returns the option with the given id, if the poll has it.
func (p *Poll) Option(id int64) (*Option, bool) {
	for i := range p.Options {
		if p.Options[i].ID == id {
			return &p.Options[i], true
		}
	}
	return nil, false
}

// CheckTotals reports an error when the option counts do not add up to
// TotalVotes.
func (p *Poll) CheckTotals() error {
	var sum int64
	for _, opt := range p.Options {
		sum += opt.VotesCount
	}
	if sum != p.TotalVotes {
		return fmt.Errorf("poll %d: option votes sum to %d, total is %d", p.ID, sum, p.TotalVotes)
	}
	return nil
}

// SameOptions reports whether both polls carry the same option ids in the
// same order.
func (p *Poll) SameOptions(other *Poll) bool {
	if len(p.Options) != len(other.Options) {
		return false
	}
	for i := range p.Options {
		if p.Options[i].ID != other.Options[i].ID {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so snapshots handed to callers can't be mutated
// behind the owner's back.
func (p *Poll) Clone() *Poll {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Options = append([]Option(nil), p.Options...)
	if p.UserVote != nil {
		v := *p.UserVote
		cp.UserVote = &v
	}
	return &cp
}

type PollOptionStats struct {
	OptionID   int64
	Text       string
	VoteCount  int64
	Percentage int
}

// Stats computes the per-option share of the total, rounded to whole
// percents. Every option gets 0 when nobody voted yet.
func (p *Poll) Stats() []PollOptionStats {
	stats := make([]PollOptionStats, 0, len(p.Options))
	for _, opt := range p.Options {
		percentage := 0
		if p.TotalVotes > 0 {
			percentage = int(float64(opt.VotesCount)/float64(p.TotalVotes)*100 + 0.5)
		}
		stats = append(stats, PollOptionStats{
			OptionID:   opt.ID,
			Text:       opt.Text,
			VoteCount:  opt.VotesCount,
			Percentage: percentage,
		})
	}
	return stats
}
