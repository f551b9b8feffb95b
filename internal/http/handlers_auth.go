package http

import (
	"errors"
	"net/http"
	"time"

	"boutique/internal/auth"
	"boutique/internal/log"
)

type loginView struct {
	User      auth.User `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
	Redirect  string    `json:"redirect"`
}

// handleLogin signs in for the requested role and sets the session cookie.
// The token is also returned for clients that prefer a bearer header.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if !decode(w, r, &form) {
		return
	}
	role, err := auth.ParseRole(form.Role)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	session, err := s.auth.SignIn(r.Context(), role, form.Email, form.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrRoleMismatch):
		log.FromContext(r.Context()).WarnContext(r.Context(), "Sign-in rejected",
			log.FieldOperation, log.OpSignIn,
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldError, err)
		ErrorResponse(http.StatusUnauthorized, err.Error()).Write(w)
		return
	case err != nil:
		s.respondError(w, r, err, "failed to sign in")
		return
	}

	http.SetCookie(w, auth.SessionCookie(session, s.secureCookies))
	NewResponse().
		Header("Authorization", "Bearer "+session.Token).
		JSON(loginView{User: session.User, ExpiresAt: session.ExpiresAt, Redirect: role.Home()}).
		Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.SignOut(r.Context(), auth.TokenFromRequest(r)); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Sign-out with unusable token", log.FieldError, err)
	}
	http.SetCookie(w, auth.ClearedCookie(s.secureCookies))
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	NewResponse().JSON(map[string]any{"user": u, "redirect": u.Role.Home()}).Write(w)
}
