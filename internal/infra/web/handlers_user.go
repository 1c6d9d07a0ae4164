package web

import (
	"net/http"
	"time"

	"image-edit-saas/internal/domain"
	"image-edit-saas/internal/domain/model"
)

type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserView(u *model.User) userView {
	return userView{ID: u.ID, Email: u.Email, Points: u.Points, CreatedAt: u.CreatedAt}
}

type signupRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.userUC.Signup(r.Context(), req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "verification code sent"})
}

type verifyOTPRequest struct {
	Email    string `json:"email" validate:"required,email"`
	OTP      string `json:"otp" validate:"required,len=6,numeric"`
	Password string `json:"password" validate:"required,min=8"`
}

type authResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.userUC.VerifyOTP(r.Context(), req.Email, req.OTP, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	token, err := s.jwt.Issue(user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, authResponse{Token: token, User: toUserView(user)})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.userUC.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	token, err := s.jwt.Issue(user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, authResponse{Token: token, User: toUserView(user)})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		s.writeError(w, r, domain.ErrUnauthorized)
		return
	}
	s.writeJSON(w, http.StatusOK, toUserView(user))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		s.writeError(w, r, domain.ErrUnauthorized)
		return
	}
	if err := s.userUC.DeleteAccount(r.Context(), user.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}
