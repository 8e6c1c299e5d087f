package stub

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewHandler wires the polls API routes. Paths mirror the real service so
// the client can point at either.
func NewHandler(store *Store, tokens *TokenIssuer, hub *Hub, logger *zap.Logger, originPatterns []string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	authHandler := NewAuthHandler(store, tokens)
	pollHandler := NewPollHandler(store)
	voteHandler := NewVoteHandler(store, hub, logger)
	wsHandler := NewWSHandler(store, hub, logger, originPatterns)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(tokens))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.With(RequireUser).Post("/refresh", authHandler.Refresh)
			r.With(RequireUser).Get("/me", authHandler.Me)
		})

		r.Route("/polls", func(r chi.Router) {
			r.Get("/", pollHandler.ListPolls)
			r.With(RequireUser).Get("/me", pollHandler.MyPolls)
			r.With(RequireUser).Post("/", pollHandler.CreatePoll)
			r.Get("/{id}", pollHandler.GetPoll)
			r.Get("/{id}/results", pollHandler.GetPoll)
			r.With(RequireUser).Post("/{id}/vote", voteHandler.VoteOnPoll)
			r.Get("/ws/{id}", wsHandler.Watch)
		})
	})

	return r
}
