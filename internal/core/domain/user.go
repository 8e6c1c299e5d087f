package domain

import "time"

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Session is what the client keeps between runs for one profile.
type Session struct {
	Profile     string    `json:"profile"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        *User     `json:"user,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != ""
}
