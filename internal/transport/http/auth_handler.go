package http

import (
	"net/http"
	"time"

	"quiz-testing-service/internal/app"
	"quiz-testing-service/internal/auth"
	"quiz-testing-service/internal/domain"

	"github.com/jinzhu/copier"
)

type AuthHandler struct {
	users  *app.UserService
	tokens *auth.TokenIssuer
}

func NewAuthHandler(users *app.UserService, tokens *auth.TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

type signupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

type authResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.users.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respondWithToken(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respondWithToken(w, r, http.StatusOK, user)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	user, err := h.users.Get(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var resp userResponse
	if err := copier.Copy(&resp, &user); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, resp)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user domain.User) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := authResponse{Token: token}
	if err := copier.Copy(&resp.User, &user); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, status, resp)
}
