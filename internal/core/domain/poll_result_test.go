package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     UpdateMessage
		wantErr bool
	}{
		{"valid", UpdateMessage{PollID: 1, OptionID: 2, VotesCount: 3, TotalVotes: 5}, false},
		{"first vote", UpdateMessage{PollID: 1, OptionID: 2, VotesCount: 1, TotalVotes: 1}, false},
		{"missing poll", UpdateMessage{OptionID: 2, VotesCount: 1, TotalVotes: 1}, true},
		{"missing option", UpdateMessage{PollID: 1, VotesCount: 1, TotalVotes: 1}, true},
		{"negative count", UpdateMessage{PollID: 1, OptionID: 2, VotesCount: -1, TotalVotes: 1}, true},
		{"count above total", UpdateMessage{PollID: 1, OptionID: 2, VotesCount: 4, TotalVotes: 3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
