package stub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
)

type testApp struct {
	Server *httptest.Server
	Store  *Store
	Hub    *Hub
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	store := newTestStore()
	hub := NewHub(context.Background(), nil)
	tokens := NewTokenIssuer([]byte("test-secret"), time.Minute)

	server := httptest.NewServer(NewHandler(store, tokens, hub, nil, nil))
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return &testApp{Server: server, Store: store, Hub: hub}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, a.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.Server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (a *testApp) register(t *testing.T, name, email string) string {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[domain.Token](t, resp).AccessToken
}

func (a *testApp) createPoll(t *testing.T, token string) domain.Poll {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/polls/", token, map[string]any{
		"title":       "Lunch spot",
		"description": "Where should we eat on friday",
		"options":     []string{" Pizza ", "Sushi"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[domain.Poll](t, resp)
}

func TestAuthFlow(t *testing.T) {
	app := setupTestApp(t)

	// 1. Register
	token := app.register(t, "Ana", "ana@example.com")

	// 2. Same email again
	resp := app.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// 3. Login
	resp = app.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bearer", decode[domain.Token](t, resp).TokenType)

	resp = app.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// 4. Me
	resp = app.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ana", decode[domain.User](t, resp).Name)

	resp = app.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = app.do(t, http.MethodGet, "/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// 5. Refresh
	resp = app.do(t, http.MethodPost, "/auth/refresh", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decode[domain.Token](t, resp).AccessToken)
}

func TestRegisterValidation(t *testing.T) {
	app := setupTestApp(t)

	resp := app.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "A", "email": "not-an-email", "password": "123",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body := decode[struct {
		Detail map[string]string `json:"detail"`
	}](t, resp)
	assert.Contains(t, body.Detail, "name")
	assert.Contains(t, body.Detail, "email")
	assert.Contains(t, body.Detail, "password")
}

func TestPollLifecycle(t *testing.T) {
	app := setupTestApp(t)
	owner := app.register(t, "Ana", "ana@example.com")
	voter := app.register(t, "Bea", "bea@example.com")

	// 1. Create poll, options are trimmed
	poll := app.createPoll(t, owner)
	require.Len(t, poll.Options, 2)
	assert.Equal(t, "Pizza", poll.Options[0].Text)

	// 2. Anonymous users cannot create
	resp := app.do(t, http.MethodPost, "/polls/", "", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// 3. Invalid polls are rejected
	resp = app.do(t, http.MethodPost, "/polls/", owner, map[string]any{
		"title": "Lunch spot", "description": "Where should we eat", "options": []string{"Pizza", "pizza"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// 4. Vote, exactly one vote lands
	path := fmt.Sprintf("/polls/%d/vote", poll.ID)
	resp = app.do(t, http.MethodPost, path, voter, map[string]int64{"option_id": poll.Options[1].ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[domain.VoteResult](t, resp)
	assert.Equal(t, int64(1), result.VotesCount)
	assert.Equal(t, int64(1), result.TotalVotes)

	// 5. Second vote is rejected and changes nothing
	resp = app.do(t, http.MethodPost, path, voter, map[string]int64{"option_id": poll.Options[0].ID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = app.do(t, http.MethodPost, path, owner, map[string]int64{"option_id": 999})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = app.do(t, http.MethodPost, "/polls/999/vote", owner, map[string]int64{"option_id": 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = app.do(t, http.MethodPost, path, "", map[string]int64{"option_id": poll.Options[0].ID})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// 6. Results reflect the voter's choice
	resp = app.do(t, http.MethodGet, fmt.Sprintf("/polls/%d/results", poll.ID), voter, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results := decode[domain.Poll](t, resp)
	assert.Equal(t, int64(1), results.TotalVotes)
	assert.True(t, results.HasVoted)
	require.NotNil(t, results.UserVote)
	assert.Equal(t, poll.Options[1].ID, *results.UserVote)

	resp = app.do(t, http.MethodGet, fmt.Sprintf("/polls/%d", poll.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[domain.Poll](t, resp).HasVoted)

	resp = app.do(t, http.MethodGet, "/polls/abc", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp = app.do(t, http.MethodGet, "/polls/404", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListEndpoints(t *testing.T) {
	app := setupTestApp(t)
	owner := app.register(t, "Ana", "ana@example.com")
	other := app.register(t, "Bea", "bea@example.com")
	app.createPoll(t, owner)
	app.createPoll(t, other)

	resp := app.do(t, http.MethodGet, "/polls/?skip=0&limit=1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.Poll](t, resp), 1)

	resp = app.do(t, http.MethodGet, "/polls/?search=LUNCH", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.Poll](t, resp), 2)

	resp = app.do(t, http.MethodGet, "/polls/me", other, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	mine := decode[[]domain.Poll](t, resp)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(2), mine[0].OwnerID)

	resp = app.do(t, http.MethodGet, "/polls/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	for _, query := range []string{"limit=0", "limit=101", "skip=-1", "limit=ten"} {
		resp = app.do(t, http.MethodGet, "/polls/?"+query, "", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, query)
	}
}

func TestWebsocketReceivesVotes(t *testing.T) {
	app := setupTestApp(t)
	owner := app.register(t, "Ana", "ana@example.com")
	poll := app.createPoll(t, owner)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(app.Server.URL, "http") + fmt.Sprintf("/polls/ws/%d", poll.ID)
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.Eventually(t, func() bool { return app.Hub.Subscribers(poll.ID) == 1 },
		time.Second, 10*time.Millisecond)

	resp := app.do(t, http.MethodPost, fmt.Sprintf("/polls/%d/vote", poll.ID), owner,
		map[string]int64{"option_id": poll.Options[0].ID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var msg domain.UpdateMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, domain.UpdateMessage{
		PollID:     poll.ID,
		OptionID:   poll.Options[0].ID,
		VotesCount: 1,
		TotalVotes: 1,
	}, msg)

	// Closing the socket releases the subscription.
	conn.Close(websocket.StatusNormalClosure, "")
	assert.Eventually(t, func() bool { return app.Hub.Subscribers(poll.ID) == 0 },
		time.Second, 10*time.Millisecond)
}

func TestWebsocketUnknownPoll(t *testing.T) {
	app := setupTestApp(t)

	wsURL := "ws" + strings.TrimPrefix(app.Server.URL, "http") + "/polls/ws/77"
	_, resp, err := websocket.Dial(context.Background(), wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
