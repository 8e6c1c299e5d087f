package domain

type VoteResult struct {
	OptionID   int64 `json:"option_id"`
	VotesCount int64 `json:"votes_count"`
	TotalVotes int64 `json:"total_votes"`
}
