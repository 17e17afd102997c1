package http

import (
	"net/http"

	applog "spendlog/internal/log"
)

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err, applog.ComponentAuth, applog.OpSignUp)
		return
	}

	u, err := s.accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err, applog.ComponentAuth, applog.OpSignUp)
		return
	}

	s.logger.InfoContext(r.Context(), "User registered", applog.FieldUserID, u.ID)
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "User created successfully",
		"id":      u.ID,
	})
}

func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err, applog.ComponentAuth, applog.OpSignIn)
		return
	}

	session, err := s.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err, applog.ComponentAuth, applog.OpSignIn)
		return
	}

	NewJSONResponse().
		Cookie(s.sessionCookie(session.Token, session.ExpiresAt)).
		Body(session).
		Write(w)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.SignOut(r.Context(), identityFrom(r.Context())); err != nil {
		writeServiceError(w, r, err, applog.ComponentAuth, applog.OpSignOut)
		return
	}
	NewJSONResponse().
		Cookie(s.clearedSessionCookie()).
		Message("Signed out").
		Write(w)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.accounts.Profile(r.Context(), identityFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, applog.ComponentAuth, applog.OpProfile)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err, applog.ComponentAuth, applog.OpProfile)
		return
	}

	u, err := s.accounts.UpdateProfile(r.Context(), identityFrom(r.Context()), req.Name, req.Email)
	if err != nil {
		writeServiceError(w, r, err, applog.ComponentAuth, applog.OpProfile)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    u,
	})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err, applog.ComponentAuth, applog.OpPassword)
		return
	}

	if err := s.accounts.ChangePassword(r.Context(), identityFrom(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, err, applog.ComponentAuth, applog.OpPassword)
		return
	}
	writeMessage(w, http.StatusOK, "Password updated successfully")
}
