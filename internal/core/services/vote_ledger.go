package services

import (
	"sync"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
)

// VoteLedger remembers which polls the viewer voted on during this session.
// Once a poll is recorded it stays voted, whatever later snapshots say.
type VoteLedger struct {
	mu    sync.Mutex
	votes map[int64]int64
}

func NewVoteLedger() *VoteLedger {
	return &VoteLedger{votes: make(map[int64]int64)}
}

func (l *VoteLedger) Record(pollID, optionID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.votes[pollID]; ok {
		return
	}
	l.votes[pollID] = optionID
}

func (l *VoteLedger) Lookup(pollID int64) (int64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	optionID, ok := l.votes[pollID]
	return optionID, ok
}

// Apply merges the viewer state of p with the ledger: a server-reported vote
// is recorded, and a recorded vote is written back onto p.
func (l *VoteLedger) Apply(p *domain.Poll) {
	if p == nil {
		return
	}
	if p.HasVoted {
		var optionID int64
		if p.UserVote != nil {
			optionID = *p.UserVote
		}
		l.Record(p.ID, optionID)
	}

	optionID, ok := l.Lookup(p.ID)
	if !ok {
		return
	}
	p.HasVoted = true
	if p.UserVote == nil && optionID != 0 {
		p.UserVote = &optionID
	}
}

func (l *VoteLedger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.votes)
}
