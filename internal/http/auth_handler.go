package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/nfcstore/internal/apperr"
	"github.com/tuanvumaihuynh/nfcstore/internal/auth"
	"github.com/tuanvumaihuynh/nfcstore/internal/model"
	"github.com/tuanvumaihuynh/nfcstore/internal/service"
)

type registerResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

type userResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	IsStaff     bool      `json:"is_staff"`
	IsSuperuser bool      `json:"is_superuser"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func newUserResponse(u model.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	}
}

type authHandler struct {
	s       *Service
	authSvc service.AuthService
}

func newAuthHandler(s *Service, authSvc service.AuthService) *authHandler {
	return &authHandler{
		s:       s,
		authSvc: authSvc,
	}
}

func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterParams
	if err := decodeJSON(w, r, &req); err != nil {
		h.s.writeError(w, r, err)
		return
	}

	user, err := h.authSvc.Register(r.Context(), req)
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	h.s.writeJSON(w, r, http.StatusCreated, registerResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	})
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginParams
	if err := decodeJSON(w, r, &req); err != nil {
		h.s.writeError(w, r, err)
		return
	}

	user, pair, err := h.authSvc.Login(r.Context(), req)
	if err != nil {
		outcome := "error"
		if errors.Is(err, apperr.InvalidCredentialsErr) {
			outcome = "invalid_credentials"
		}
		h.s.metrics.LoginAttempts.WithLabelValues(outcome).Inc()
		h.s.writeError(w, r, err)
		return
	}
	h.s.metrics.LoginAttempts.WithLabelValues("success").Inc()

	h.setTokenCookies(w, pair)
	h.s.writeJSON(w, r, http.StatusOK, newUserResponse(user))
}

func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cfg := h.s.cfg.Auth
	http.SetCookie(w, h.cookie(cfg.AccessCookie, "", -1))
	http.SetCookie(w, h.cookie(cfg.RefreshCookie, "", -1))

	h.s.writeJSON(w, r, http.StatusOK, detailResponse{Detail: "Successfully logged out"})
}

func (h *authHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(h.s.cfg.Auth.RefreshCookie); err == nil {
		token = c.Value
	}
	if token == "" {
		var req refreshRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.s.writeError(w, r, err)
			return
		}
		token = req.Refresh
	}

	access, err := h.authSvc.Refresh(r.Context(), token)
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	http.SetCookie(w, h.cookie(h.s.cfg.Auth.AccessCookie, access, h.s.cfg.Auth.AccessTTL))
	h.s.writeJSON(w, r, http.StatusOK, detailResponse{Detail: "Token refreshed"})
}

func (h *authHandler) Me(w http.ResponseWriter, r *http.Request, caller *model.User) {
	h.s.writeJSON(w, r, http.StatusOK, newUserResponse(*caller))
}

func (h *authHandler) setTokenCookies(w http.ResponseWriter, pair auth.TokenPair) {
	cfg := h.s.cfg.Auth
	http.SetCookie(w, h.cookie(cfg.AccessCookie, pair.Access, cfg.AccessTTL))
	http.SetCookie(w, h.cookie(cfg.RefreshCookie, pair.Refresh, cfg.RefreshTTL))
}

// cookie builds an auth cookie; a negative ttl expires it immediately.
func (h *authHandler) cookie(name, value string, ttl time.Duration) *http.Cookie {
	cfg := h.s.cfg.Auth
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSite(cfg.CookieSameSite),
	}

	if ttl < 0 {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	} else {
		c.MaxAge = int(ttl.Seconds())
		c.Expires = time.Now().Add(ttl)
	}

	return c
}
