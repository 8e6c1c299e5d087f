package stub

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
	"github.com/vncsmyrnk/pollctl/internal/core/ports"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect email or password")
)

type storedUser struct {
	user         domain.User
	passwordHash []byte
}

type storedPoll struct {
	poll  domain.Poll
	votes map[int64]int64 // user id -> option id
}

// Store keeps users, polls and votes in memory.
type Store struct {
	mu sync.Mutex

	users   map[int64]*storedUser
	byEmail map[string]int64
	polls   map[int64]*storedPoll

	nextUserID   int64
	nextPollID   int64
	nextOptionID int64

	hashCost int
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:    make(map[int64]*storedUser),
		byEmail:  make(map[string]int64),
		polls:    make(map[int64]*storedPoll),
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

func (s *Store) CreateUser(name, email, password string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	key := strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[key]; ok {
		return nil, ErrEmailTaken
	}
	s.nextUserID++
	u := &storedUser{
		user: domain.User{
			ID:        s.nextUserID,
			Email:     strings.TrimSpace(email),
			Name:      name,
			CreatedAt: s.now().UTC(),
		},
		passwordHash: hash,
	}
	s.users[u.user.ID] = u
	s.byEmail[key] = u.user.ID

	user := u.user
	return &user, nil
}

func (s *Store) Authenticate(email, password string) (*domain.User, error) {
	s.mu.Lock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	var u *storedUser
	if ok {
		u = s.users[id]
	}
	s.mu.Unlock()

	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	user := u.user
	return &user, nil
}

func (s *Store) User(id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	user := u.user
	return &user, nil
}

// CreatePoll stores a poll whose input was already validated.
func (s *Store) CreatePoll(ownerID int64, input ports.CreatePollInput) *domain.Poll {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPollID++
	p := &storedPoll{
		poll: domain.Poll{
			ID:          s.nextPollID,
			Title:       input.Title,
			Description: input.Description,
			OwnerID:     ownerID,
			CreatedAt:   s.now().UTC(),
			Options:     make([]domain.Option, 0, len(input.Options)),
		},
		votes: make(map[int64]int64),
	}
	for _, text := range input.Options {
		s.nextOptionID++
		p.poll.Options = append(p.poll.Options, domain.Option{ID: s.nextOptionID, Text: text})
	}
	s.polls[p.poll.ID] = p
	return p.view(ownerID)
}

// ListFilter narrows a listing. OwnerID 0 means every owner.
type ListFilter struct {
	OwnerID int64
	Search  string
	Skip    int
	Limit   int
}

func (s *Store) ListPolls(filter ListFilter, viewerID int64) []*domain.Poll {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(filter.Search)
	ids := make([]int64, 0, len(s.polls))
	for id, p := range s.polls {
		if filter.OwnerID != 0 && p.poll.OwnerID != filter.OwnerID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.poll.Title), search) &&
			!strings.Contains(strings.ToLower(p.poll.Description), search) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	polls := make([]*domain.Poll, 0, filter.Limit)
	for i := filter.Skip; i < len(ids) && len(polls) < filter.Limit; i++ {
		polls = append(polls, s.polls[ids[i]].view(viewerID))
	}
	return polls
}

func (s *Store) Poll(id, viewerID int64) (*domain.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.polls[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	return p.view(viewerID), nil
}

// Vote records one vote per user per poll.
func (s *Store) Vote(pollID, optionID, userID int64) (*domain.VoteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.polls[pollID]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	opt, ok := p.poll.Option(optionID)
	if !ok {
		return nil, domain.ErrInvalidOption
	}
	if _, voted := p.votes[userID]; voted {
		return nil, domain.ErrAlreadyVoted
	}

	p.votes[userID] = optionID
	opt.VotesCount++
	p.poll.TotalVotes++

	return &domain.VoteResult{
		OptionID:   optionID,
		VotesCount: opt.VotesCount,
		TotalVotes: p.poll.TotalVotes,
	}, nil
}

// view copies the poll with the viewer's vote filled in. Callers hold s.mu.
func (p *storedPoll) view(viewerID int64) *domain.Poll {
	out := p.poll.Clone()
	if viewerID == 0 {
		return out
	}
	if optionID, ok := p.votes[viewerID]; ok {
		out.HasVoted = true
		out.UserVote = &optionID
	}
	return out
}
