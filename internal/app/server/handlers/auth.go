package handlers

import (
	"net/http"
	"time"

	"github.com/KelvCodes/real-time-chat-app/internal/core/domain"
	"github.com/KelvCodes/real-time-chat-app/internal/core/services"
	"github.com/KelvCodes/real-time-chat-app/pkg/logging"
	"github.com/KelvCodes/real-time-chat-app/pkg/middleware"
)

// CookieOptions controls how the session cookie is written.
type CookieOptions struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	authSvc  *services.AuthService
	tokenSvc *services.TokenService
	cookie   CookieOptions
}

func NewAuthHandler(a *services.AuthService, t *services.TokenService, cookie CookieOptions) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = middleware.DefaultCookieName
	}
	return &AuthHandler{authSvc: a, tokenSvc: t, cookie: cookie}
}

func (h *AuthHandler) setSession(w http.ResponseWriter, userID string) error {
	token, err := h.tokenSvc.GenerateToken(userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenSvc.TTL() / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.cookie.Secure,
	})
	return nil
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	var req struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		log.WarnContext(r.Context(), "auth handler - signup - bad request", logging.Err(err))
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}
	user, err := h.authSvc.Signup(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.setSession(w, user.ID); err != nil {
		log.ErrorContext(r.Context(), "auth handler - signup - generate token failed", logging.Err(err))
		writeError(w, err)
		return
	}
	log.InfoContext(r.Context(), "auth handler - signup - success", logging.User(user.ID))
	writeJSON(w, http.StatusCreated, domain.NewUserResponse(user))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}
	user, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.setSession(w, user.ID); err != nil {
		log.ErrorContext(r.Context(), "auth handler - login - generate token failed", logging.Err(err))
		writeError(w, err)
		return
	}
	log.InfoContext(r.Context(), "auth handler - login - success", logging.User(user.ID))
	writeJSON(w, http.StatusOK, domain.NewUserResponse(user))
}

// Logout clears the cookie and revokes the token it carried.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	if token := middleware.TokenFromRequest(r, h.cookie.Name); token != "" {
		if err := h.tokenSvc.Revoke(r.Context(), token); err != nil {
			log.WarnContext(r.Context(), "auth handler - logout - revoke failed", logging.Err(err))
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.cookie.Secure,
	})
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req struct {
		ProfilePic string `json:"profile_pic"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}
	user, err := h.authSvc.UpdateProfilePic(r.Context(), userID, req.ProfilePic)
	if err != nil {
		log.WarnContext(r.Context(), "auth handler - update profile - failed", logging.Err(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.NewUserResponse(user))
}

func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	user, err := h.authSvc.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.NewUserResponse(user))
}
