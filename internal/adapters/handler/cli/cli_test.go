package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/pollctl/internal/adapters/handler/stub"
	"github.com/vncsmyrnk/pollctl/internal/config"
	"github.com/vncsmyrnk/pollctl/internal/core/domain"
)

type cliEnv struct {
	env   map[string]string
	store *stub.Store
}

func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	store := stub.NewStore()
	hub := stub.NewHub(context.Background(), nil)
	tokens := stub.NewTokenIssuer([]byte("test-secret"), time.Hour)

	server := httptest.NewServer(stub.NewHandler(store, tokens, hub, nil, nil))
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})

	return &cliEnv{
		store: store,
		env: map[string]string{
			"POLLS_API_BASE":         server.URL,
			"POLLS_WS_BASE":          server.URL,
			"POLLS_SESSION_DSN":      "file:" + filepath.Join(t.TempDir(), "session.db"),
			"POLLS_REFRESH_INTERVAL": "100ms",
			"POLLS_RECONNECT_BASE":   "10ms",
			"POLLS_LOG_LEVEL":        "error",
		},
	}
}

func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	app := NewApp(func() (*config.Config, error) {
		return config.FromEnv(func(key string) string { return e.env[key] })
	}, nil)

	var out bytes.Buffer
	cmd := NewRootCommand(app)
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	require.NoError(t, app.Close())
	return out.String(), err
}

func TestCommandsEndToEnd(t *testing.T) {
	e := setupCLI(t)

	// 1. Register and check the stored session
	out, err := e.run(t, "", "register", "--name", "Ana", "--email", "ana@example.com", "--password", "secret123")
	require.NoError(t, err)
	assert.Contains(t, out, "welcome, Ana <ana@example.com>")

	out, err = e.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana <ana@example.com> (id 1)")

	// 2. Create a poll
	out, err = e.run(t, "", "create",
		"--title", "Lunch spot",
		"--description", "Where should we eat on friday",
		"--option", "Pizza", "--option", "Sushi")
	require.NoError(t, err)
	assert.Contains(t, out, "created poll 1")

	out, err = e.run(t, "", "list", "--search", "lunch")
	require.NoError(t, err)
	assert.Contains(t, out, "Lunch spot")

	out, err = e.run(t, "", "mine")
	require.NoError(t, err)
	assert.Contains(t, out, "Lunch spot")

	// 3. Vote once
	out, err = e.run(t, "", "vote", "1", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "vote recorded")
	assert.Contains(t, out, `you voted for "Sushi"`)

	// 4. A second vote is refused by the server
	_, err = e.run(t, "", "vote", "1", "1")
	require.ErrorIs(t, err, domain.ErrAlreadyVoted)
	assert.Equal(t, "you already voted on this poll", UserMessage(err))

	poll, err := e.store.Poll(1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), poll.TotalVotes)

	out, err = e.run(t, "", "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "1 vote\n")
	assert.Contains(t, out, "* [2] Sushi")

	// 5. Logout forgets the session
	out, err = e.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "logged out")

	_, err = e.run(t, "", "whoami")
	require.Error(t, err)
	assert.Equal(t, "you need to be logged in, run `pollctl login`", UserMessage(err))
}

func TestLoginReadsPasswordFromStdin(t *testing.T) {
	e := setupCLI(t)
	_, err := e.store.CreateUser("Bea", "bea@example.com", "secret123")
	require.NoError(t, err)

	out, err := e.run(t, "secret123\n", "login", "--email", "bea@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "logged in as Bea <bea@example.com>")

	_, err = e.run(t, "wrong-pass\n", "login", "--email", "bea@example.com")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestValidationErrorsStayLocal(t *testing.T) {
	e := setupCLI(t)

	_, err := e.run(t, "", "login", "--email", "nope", "--password", "1")
	require.ErrorIs(t, err, domain.ErrValidation)
	msg := UserMessage(err)
	assert.Contains(t, msg, "email: invalid email format")
	assert.Contains(t, msg, "password:")

	_, err = e.run(t, "", "show", "abc")
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, UserMessage(err), "poll: must be a positive number")

	_, err = e.run(t, "", "vote", "1")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestAnonymousCanBrowse(t *testing.T) {
	e := setupCLI(t)

	out, err := e.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no polls found")

	_, err = e.run(t, "", "show", "9")
	require.ErrorIs(t, err, domain.ErrPollNotFound)
	assert.Equal(t, "poll not found", UserMessage(err))

	_, err = e.run(t, "", "create", "--title", "Lunch spot", "--description", "Where should we eat", "--option", "A1", "--option", "B2")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, "you need to be logged in, run `pollctl login`", UserMessage(err))
}

func TestWatchVotesAndRedraws(t *testing.T) {
	e := setupCLI(t)
	_, err := e.run(t, "", "register", "--name", "Ana", "--email", "ana@example.com", "--password", "secret123")
	require.NoError(t, err)
	_, err = e.run(t, "", "create",
		"--title", "Lunch spot",
		"--description", "Where should we eat on friday",
		"--option", "Pizza", "--option", "Sushi")
	require.NoError(t, err)

	out, err := e.run(t, "", "watch", "1", "--vote", "1", "--for", "2s")
	require.NoError(t, err)
	assert.Contains(t, out, "#1 Lunch spot")
	assert.Contains(t, out, "vote recorded")
	assert.Contains(t, out, `you voted for "Pizza"`)

	poll, err := e.store.Poll(1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), poll.TotalVotes)
}

func TestWatchStopsAfterUpdates(t *testing.T) {
	e := setupCLI(t)
	_, err := e.run(t, "", "register", "--name", "Ana", "--email", "ana@example.com", "--password", "secret123")
	require.NoError(t, err)
	_, err = e.run(t, "", "create",
		"--title", "Lunch spot",
		"--description", "Where should we eat on friday",
		"--option", "Pizza", "--option", "Sushi")
	require.NoError(t, err)

	start := time.Now()
	out, err := e.run(t, "", "watch", "1", "--updates", "1", "--for", "5s")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "#1 Lunch spot"))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWatchUnknownPollFails(t *testing.T) {
	e := setupCLI(t)

	start := time.Now()
	out, err := e.run(t, "", "watch", "999", "--for", "5s")
	require.ErrorIs(t, err, domain.ErrPollNotFound)
	assert.Equal(t, "poll not found", UserMessage(err))
	assert.Empty(t, out)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWatchServerDownFails(t *testing.T) {
	e := setupCLI(t)
	down := httptest.NewServer(nil)
	down.Close()
	e.env["POLLS_API_BASE"] = down.URL
	e.env["POLLS_WS_BASE"] = down.URL

	_, err := e.run(t, "", "watch", "1", "--for", "5s")
	require.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Equal(t, "the polls service is unavailable, try again later", UserMessage(err))
}
