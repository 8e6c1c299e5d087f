package stub

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
	"github.com/vncsmyrnk/pollctl/internal/core/ports"
	"github.com/vncsmyrnk/pollctl/internal/core/services"
)

type AuthHandler struct {
	store  *Store
	tokens *TokenIssuer
}

func NewAuthHandler(store *Store, tokens *TokenIssuer) *AuthHandler {
	return &AuthHandler{store: store, tokens: tokens}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := ports.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password, ConfirmPassword: req.Password}
	if err := services.ValidateRegister(input); err != nil {
		writeValidationError(w, err)
		return
	}

	user, err := h.store.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, "Email already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondToken(w, http.StatusCreated, user.ID)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.store.Authenticate(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	h.respondToken(w, http.StatusOK, user.ID)
}

// Refresh issues a new token for the caller's still-valid token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	h.respondToken(w, http.StatusOK, userID)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	user, err := h.store.User(userID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) respondToken(w http.ResponseWriter, status int, userID int64) {
	token, err := h.tokens.Issue(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, status, domain.Token{AccessToken: token, TokenType: "bearer"})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusUnprocessableEntity, verr.Fields)
		return
	}
	writeError(w, http.StatusUnprocessableEntity, err.Error())
}
