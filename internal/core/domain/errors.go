package domain

import "errors"

var (
	ErrPollNotFound   = errors.New("poll not found")
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidPollID  = errors.New("invalid poll id")
	ErrInvalidOption  = errors.New("invalid option for this poll")
	ErrAlreadyVoted   = errors.New("user has already voted")
	ErrValidation     = errors.New("validation failed")
	ErrUnauthorized   = errors.New("authentication required")
	ErrSessionExpired = errors.New("session expired")
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrUnavailable    = errors.New("service unavailable, try again later")
	ErrOptionsChanged = errors.New("poll option set changed")
)
