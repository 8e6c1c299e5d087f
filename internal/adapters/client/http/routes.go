package http

import "fmt"

// Paths of the polls service, relative to the API base URL.
const (
	loginPath    = "/auth/login"
	registerPath = "/auth/register"
	refreshPath  = "/auth/refresh"
	mePath       = "/auth/me"
	pollsPath    = "/polls/"
	myPollsPath  = "/polls/me"
)

func pollPath(id int64) string        { return fmt.Sprintf("/polls/%d", id) }
func pollResultsPath(id int64) string { return fmt.Sprintf("/polls/%d/results", id) }
func votePath(id int64) string        { return fmt.Sprintf("/polls/%d/vote", id) }
