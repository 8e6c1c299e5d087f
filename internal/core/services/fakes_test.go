package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
	"github.com/vncsmyrnk/pollctl/internal/core/ports"
)

type fakePollAPI struct {
	mu       sync.Mutex
	polls    map[int64]*domain.Poll
	list     []*domain.Poll
	created  []ports.CreatePollInput
	getCalls int
	lists    int
	err      error
}

func newFakePollAPI(polls ...*domain.Poll) *fakePollAPI {
	f := &fakePollAPI{polls: make(map[int64]*domain.Poll)}
	for _, p := range polls {
		f.polls[p.ID] = p
		f.list = append(f.list, p)
	}
	return f
}

func (f *fakePollAPI) List(ctx context.Context, input ports.ListPollsInput) ([]*domain.Poll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*domain.Poll, len(f.list))
	for i, p := range f.list {
		out[i] = p.Clone()
	}
	return out, nil
}

func (f *fakePollAPI) Mine(ctx context.Context, input ports.ListPollsInput) ([]*domain.Poll, error) {
	return f.List(ctx, input)
}

func (f *fakePollAPI) Get(ctx context.Context, id int64) (*domain.Poll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.polls[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	return p.Clone(), nil
}

func (f *fakePollAPI) Results(ctx context.Context, id int64) (*domain.Poll, error) {
	return f.Get(ctx, id)
}

func (f *fakePollAPI) Create(ctx context.Context, input ports.CreatePollInput) (*domain.Poll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, input)
	p := &domain.Poll{ID: int64(100 + len(f.created)), Title: input.Title, Description: input.Description}
	for i, text := range input.Options {
		p.Options = append(p.Options, domain.Option{ID: int64(i + 1), Text: text})
	}
	f.polls[p.ID] = p
	return p.Clone(), nil
}

type fakeVoteAPI struct {
	mu    sync.Mutex
	calls int
	err   error
	total int64
}

func (f *fakeVoteAPI) Vote(ctx context.Context, pollID, optionID int64) (*domain.VoteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.total++
	return &domain.VoteResult{OptionID: optionID, VotesCount: 1, TotalVotes: f.total}, nil
}

func (f *fakeVoteAPI) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeAuthAPI struct {
	token   *domain.Token
	user    *domain.User
	err     error
	meErr   error
	logins  int
	refresh int
}

func (f *fakeAuthAPI) Login(ctx context.Context, email, password string) (*domain.Token, error) {
	f.logins++
	if f.err != nil {
		return nil, f.err
	}
	return f.token, nil
}

func (f *fakeAuthAPI) Register(ctx context.Context, name, email, password string) (*domain.Token, error) {
	return f.Login(ctx, email, password)
}

func (f *fakeAuthAPI) Refresh(ctx context.Context) (*domain.Token, error) {
	f.refresh++
	if f.err != nil {
		return nil, f.err
	}
	return f.token, nil
}

func (f *fakeAuthAPI) Me(ctx context.Context) (*domain.User, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.user, nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]domain.Session)}
}

func (m *memSessions) Get(ctx context.Context, profile string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[profile]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memSessions) Save(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.Profile] = *session
	return nil
}

func (m *memSessions) Delete(ctx context.Context, profile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, profile)
	return nil
}

// fakeConn serves frames pushed by the test until it is dropped or closed.
type fakeConn struct {
	frames    chan []byte
	dropped   chan struct{}
	dropOnce  sync.Once
	closeOnce sync.Once
	closed    atomic.Bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan []byte, 16), dropped: make(chan struct{})}
}

func (c *fakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.dropped:
		return nil, io.ErrUnexpectedEOF
	case data := <-c.frames:
		return data, nil
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { c.closed.Store(true) })
	return nil
}

func (c *fakeConn) push(data string) { c.frames <- []byte(data) }

func (c *fakeConn) drop() { c.dropOnce.Do(func() { close(c.dropped) }) }

var errDialRefused = errors.New("connection refused")

// fakeDialer hands out the scripted connections in order, then refuses.
type fakeDialer struct {
	mu      sync.Mutex
	results []dialResult
	dials   int
	dialed  chan int
}

type dialResult struct {
	conn *fakeConn
	err  error
}

func newFakeDialer(results ...dialResult) *fakeDialer {
	return &fakeDialer{results: results, dialed: make(chan int, 64)}
}

func (d *fakeDialer) Dial(ctx context.Context, pollID int64) (ports.ChannelConn, error) {
	d.mu.Lock()
	d.dials++
	n := d.dials
	var res dialResult
	if len(d.results) > 0 {
		res = d.results[0]
		d.results = d.results[1:]
	} else {
		res = dialResult{err: errDialRefused}
	}
	d.mu.Unlock()

	d.dialed <- n
	if res.err != nil {
		return nil, res.err
	}
	return res.conn, nil
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}
