// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package httpapi

import (
	"net/http"
	"net/mail"
	"strconv"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/internal/observability"
)

func (s *Server) recordLogin(isAdmin bool, outcome string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues(observability.RealmLabel(isAdmin), outcome).Inc()
	}
}

func (s *Server) recordRegistration(outcome string) {
	if s.metrics != nil {
		s.metrics.RegistrationsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) recordRefresh(isAdmin bool, outcome string) {
	if s.metrics != nil {
		s.metrics.RefreshesTotal.WithLabelValues(observability.RealmLabel(isAdmin), outcome).Inc()
	}
}

func (s *Server) recordChallenge(purpose, outcome string) {
	if s.metrics != nil {
		s.metrics.ChallengesTotal.WithLabelValues(purpose, outcome).Inc()
	}
}

func (s *Server) handleRegisterCaptcha(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if _, err := mail.ParseAddress(email); err != nil {
		writeError(w, http.StatusBadRequest, "a valid email address is required")
		return
	}

	if err := s.service.SendRegisterCaptcha(r.Context(), email); err != nil {
		s.recordChallenge("registration", observability.OutcomeError)
		s.writeServiceError(w, err)
		return
	}

	s.recordChallenge("registration", observability.OutcomeSuccess)
	writeJSON(w, http.StatusOK, messageResponse{Message: "captcha sent"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid registration request")
		return
	}

	res, err := s.service.Register(r.Context(), account.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		NickName: req.NickName,
		Captcha:  req.Captcha,
	})
	if err != nil {
		s.recordRegistration(observability.OutcomeRejected)
		s.writeServiceError(w, err)
		return
	}

	// A storage failure is a soft failure: 200 with the failure text.
	if res.Succeeded {
		s.recordRegistration(observability.OutcomeSuccess)
	} else {
		s.recordRegistration(observability.OutcomeError)
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: res.Message})
}

func (s *Server) handleInitData(w http.ResponseWriter, r *http.Request) {
	if err := s.service.InitData(r.Context()); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "initialization complete"})
}

func (s *Server) handleLogin(isAdmin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := s.decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		res, err := s.service.Login(r.Context(), req.Username, req.Password, isAdmin)
		if err != nil {
			s.recordLogin(isAdmin, observability.OutcomeRejected)
			s.writeServiceError(w, err)
			return
		}

		s.recordLogin(isAdmin, observability.OutcomeSuccess)
		writeJSON(w, http.StatusOK, newLoginResponse(res))
	}
}

func (s *Server) handleRefresh(isAdmin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refreshToken := r.URL.Query().Get("refreshToken")

		accessToken, err := s.service.RefreshAccessToken(r.Context(), refreshToken, isAdmin)
		if err != nil {
			s.recordRefresh(isAdmin, observability.OutcomeRejected)
			// One message per flow; expiry and tampering are not
			// distinguished.
			if isAdmin {
				writeError(w, http.StatusUnauthorized, "session expired, please log in again")
			} else {
				writeError(w, http.StatusUnauthorized, "refresh token is invalid")
			}
			return
		}

		s.recordRefresh(isAdmin, observability.OutcomeSuccess)
		writeJSON(w, http.StatusOK, refreshResponse{AccessToken: accessToken})
	}
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	claims, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}

	acct, err := s.service.Detail(r.Context(), claims.AccountID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newUserDetail(acct))
}

func (s *Server) handleUpdatePasswordCaptcha(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if _, err := mail.ParseAddress(address); err != nil {
		writeError(w, http.StatusBadRequest, "a valid email address is required")
		return
	}

	if err := s.service.SendPasswordResetCaptcha(r.Context(), address); err != nil {
		s.recordChallenge("password-reset", observability.OutcomeError)
		s.writeServiceError(w, err)
		return
	}

	s.recordChallenge("password-reset", observability.OutcomeSuccess)
	writeJSON(w, http.StatusOK, messageResponse{Message: "captcha sent"})
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}

	var req updatePasswordRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid password change request")
		return
	}

	if err := s.service.UpdatePassword(r.Context(), claims.AccountID, req.Email, req.Captcha, req.NewPassword); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "password updated"})
}

func (s *Server) handleFreeze(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "userId must be an integer")
		return
	}

	if err := s.service.Freeze(r.Context(), userID); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "success"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	pageNo, err := strconv.Atoi(r.URL.Query().Get("pageNo"))
	if err != nil || pageNo < 1 {
		writeError(w, http.StatusBadRequest, "pageNo must be a positive integer")
		return
	}
	pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if err != nil || pageSize < 1 {
		writeError(w, http.StatusBadRequest, "pageSize must be a positive integer")
		return
	}

	page, err := s.service.List(r.Context(), pageNo, pageSize)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	users := make([]userDetail, 0, len(page.Accounts))
	for i := range page.Accounts {
		users = append(users, newUserDetail(&page.Accounts[i]))
	}
	writeJSON(w, http.StatusOK, listResponse{Users: users, TotalCount: page.Total})
}
