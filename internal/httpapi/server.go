// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package httpapi exposes the account service over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/internal/observability"
	"github.com/accountd/accountd/pkg/errutil"
)

// AccountService is the account operations surface the HTTP layer calls.
// Implemented by account.Service.
type AccountService interface {
	SendRegisterCaptcha(ctx context.Context, email string) error
	SendPasswordResetCaptcha(ctx context.Context, email string) error
	Register(ctx context.Context, input account.RegisterInput) (account.RegisterResult, error)
	Login(ctx context.Context, username, password string, isAdmin bool) (*account.LoginResult, error)
	RefreshAccessToken(ctx context.Context, refreshToken string, isAdmin bool) (string, error)
	UpdatePassword(ctx context.Context, accountID int64, email, captcha, newPassword string) error
	Freeze(ctx context.Context, accountID int64) error
	Detail(ctx context.Context, accountID int64) (*account.Account, error)
	List(ctx context.Context, pageNo, pageSize int) (*account.Page, error)
	InitData(ctx context.Context) error
}

// Server serves the account API.
type Server struct {
	addr     string
	service  AccountService
	verifier AccessVerifier
	metrics  *observability.Metrics
	validate *validator.Validate
	logger   *slog.Logger

	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates a Server. metrics may be nil; logger defaults to
// slog.Default().
func NewServer(addr string, service AccountService, verifier AccessVerifier, metrics *observability.Metrics, logger *slog.Logger) (*Server, error) {
	if service == nil {
		return nil, oops.Errorf("account service is required")
	}
	if verifier == nil {
		return nil, oops.Errorf("access verifier is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:     addr,
		service:  service,
		verifier: verifier,
		metrics:  metrics,
		validate: validator.New(),
		logger:   logger,
	}, nil
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /user/register-captcha", s.handleRegisterCaptcha)
	mux.HandleFunc("POST /user/register", s.handleRegister)
	mux.HandleFunc("GET /user/init-data", s.handleInitData)
	mux.HandleFunc("POST /user/login", s.handleLogin(false))
	mux.HandleFunc("POST /user/admin/login", s.handleLogin(true))
	mux.HandleFunc("GET /user/refresh", s.handleRefresh(false))
	mux.HandleFunc("GET /user/admin/refresh", s.handleRefresh(true))
	mux.HandleFunc("GET /user/info", s.requireAuth(s.handleInfo))
	mux.HandleFunc("GET /user/update_password/captcha", s.handleUpdatePasswordCaptcha)
	mux.HandleFunc("POST /user/update_password", s.requireAuth(s.handleUpdatePassword))
	mux.HandleFunc("GET /user/freeze", s.handleFreeze)
	mux.HandleFunc("GET /user/list", s.handleList)

	return requestID(accessLog(s.logger, mux))
}

// Start begins serving the API. It returns an error channel that receives
// any errors from the HTTP server after it starts; the channel is closed
// when the server stops gracefully.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_api_server").Wrap(err)
		}
	}

	s.logger.Info("api server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // response write error means the client went away
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// writeServiceError maps service failures to responses. Validation-failure
// sentinels become 400s with their user-facing text; everything else is an
// internal failure.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, account.ErrCaptchaExpired):
		writeError(w, http.StatusBadRequest, "captcha has expired")
	case errors.Is(err, account.ErrCaptchaMismatch):
		writeError(w, http.StatusBadRequest, "captcha is incorrect")
	case errors.Is(err, account.ErrDuplicateUsername):
		writeError(w, http.StatusBadRequest, "username already exists")
	case errors.Is(err, account.ErrAccountNotFound):
		writeError(w, http.StatusBadRequest, "account does not exist")
	case errors.Is(err, account.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, "incorrect password")
	default:
		errutil.LogError(s.logger, "request failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return oops.Errorf("invalid request body")
	}
	if err := s.validate.Struct(dst); err != nil {
		return oops.Wrap(err)
	}
	return nil
}
