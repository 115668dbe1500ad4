// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/challenge"
)

// Challenger issues and verifies one-time challenge codes.
// Implemented by challenge.Cache.
type Challenger interface {
	Issue(ctx context.Context, purpose challenge.Purpose, identifier string) (string, error)
	Verify(ctx context.Context, purpose challenge.Purpose, identifier, submitted string) error
}

// TokenIssuer mints and verifies the two token classes.
// Implemented by token.Issuer.
type TokenIssuer interface {
	IssueAccess(claims Claims) (string, error)
	IssueRefresh(accountID int64) (string, error)

	// VerifyRefresh returns the subject account id. Expiry and tampering
	// failures are not distinguished by callers.
	VerifyRefresh(tokenStr string) (int64, error)
}

// Mailer delivers a one-shot message to an address.
// Implemented by mail.Sender.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Service orchestrates registration, login, token renewal, password
// update, and freezing. Every public operation is an independent
// request-response unit; the only shared state lives in the store and
// cache collaborators.
type Service struct {
	repo       Repository
	seeder     Seeder
	challenges Challenger
	tokens     TokenIssuer
	mailer     Mailer
	hasher     PasswordHasher
	logger     *slog.Logger
}

// NewService creates a Service. All collaborators are required except
// logger, which defaults to slog.Default().
func NewService(
	repo Repository,
	seeder Seeder,
	challenges Challenger,
	tokens TokenIssuer,
	mailer Mailer,
	hasher PasswordHasher,
	logger *slog.Logger,
) (*Service, error) {
	switch {
	case repo == nil:
		return nil, oops.Errorf("account repository is required")
	case seeder == nil:
		return nil, oops.Errorf("seeder is required")
	case challenges == nil:
		return nil, oops.Errorf("challenger is required")
	case tokens == nil:
		return nil, oops.Errorf("token issuer is required")
	case mailer == nil:
		return nil, oops.Errorf("mailer is required")
	case hasher == nil:
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		seeder:     seeder,
		challenges: challenges,
		tokens:     tokens,
		mailer:     mailer,
		hasher:     hasher,
		logger:     logger,
	}, nil
}

// RegisterInput carries the registration request fields.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	NickName string
	Captcha  string
}

// RegisterResult reports the registration outcome. A storage failure is a
// soft failure: Succeeded is false, Message carries the user-facing text,
// and no error is returned. Validation failures are returned as errors.
type RegisterResult struct {
	Succeeded bool
	Message   string
}

// LoginResult carries the authenticated identity and its token pair.
// Account.Password is always blank.
type LoginResult struct {
	Account      *Account
	Claims       Claims
	AccessToken  string
	RefreshToken string
}

// Page is one page of accounts plus the total count. Password digests
// are blanked.
type Page struct {
	Accounts []Account
	Total    int64
}

// SendRegisterCaptcha issues a registration challenge code for the email
// address and delivers it.
func (s *Service) SendRegisterCaptcha(ctx context.Context, email string) error {
	return s.sendCaptcha(ctx, challenge.PurposeRegistration, email, "Registration verification code")
}

// SendPasswordResetCaptcha issues a password-reset challenge code for the
// email address and delivers it.
func (s *Service) SendPasswordResetCaptcha(ctx context.Context, email string) error {
	return s.sendCaptcha(ctx, challenge.PurposePasswordReset, email, "Password change verification code")
}

func (s *Service) sendCaptcha(ctx context.Context, purpose challenge.Purpose, email, subject string) error {
	code, err := s.challenges.Issue(ctx, purpose, email)
	if err != nil {
		return oops.Code("CAPTCHA_ISSUE_FAILED").With("purpose", string(purpose)).Wrap(err)
	}

	body := fmt.Sprintf("Your verification code is %s", code)
	if err := s.mailer.Send(ctx, email, subject, body); err != nil {
		return oops.Code("CAPTCHA_DELIVERY_FAILED").With("purpose", string(purpose)).Wrap(err)
	}

	s.logger.InfoContext(ctx, "challenge code issued", "purpose", string(purpose))
	return nil
}

// Register creates a new ordinary-realm account after verifying the
// registration challenge. The username uniqueness constraint in the store
// is the authoritative duplicate guard; the pre-check lookup is a fast
// path only. Storage failures on insert are downgraded to a soft-fail
// result rather than propagated.
func (s *Service) Register(ctx context.Context, input RegisterInput) (RegisterResult, error) {
	if err := s.verifyCaptcha(ctx, challenge.PurposeRegistration, input.Email, input.Captcha); err != nil {
		return RegisterResult{}, err
	}

	existing, err := s.repo.GetByUsername(ctx, input.Username)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return RegisterResult{}, oops.Code("REGISTER_FAILED").With("operation", "check username").Wrap(err)
	}
	if existing != nil {
		return RegisterResult{}, ErrDuplicateUsername
	}

	now := time.Now()
	acct := &Account{
		Username:   input.Username,
		Password:   s.hasher.Hash(input.Password),
		Email:      input.Email,
		NickName:   input.NickName,
		IsAdmin:    false,
		CreateTime: now,
		UpdateTime: now,
	}

	if err := s.repo.Create(ctx, acct); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return RegisterResult{}, ErrDuplicateUsername
		}
		s.logger.ErrorContext(ctx, "account insert failed", "username", input.Username, "error", err)
		return RegisterResult{Succeeded: false, Message: "registration failed"}, nil
	}

	return RegisterResult{Succeeded: true, Message: "registration successful"}, nil
}

// Login authenticates a credential against the requested realm and issues
// a token pair. An account in the other realm is reported as absent.
// A frozen account still logs in; IsFrozen is not consulted here.
func (s *Service) Login(ctx context.Context, username, password string, isAdmin bool) (*LoginResult, error) {
	acct, err := s.repo.GetByLogin(ctx, username, isAdmin)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, oops.Code("LOGIN_FAILED").With("operation", "get account").Wrap(err)
	}

	if !s.hasher.Compare(password, acct.Password) {
		return nil, ErrInvalidCredentials
	}

	claims := ResolveClaims(acct)

	accessToken, err := s.tokens.IssueAccess(claims)
	if err != nil {
		return nil, oops.Code("LOGIN_FAILED").With("operation", "issue access token").Wrap(err)
	}
	refreshToken, err := s.tokens.IssueRefresh(acct.ID)
	if err != nil {
		return nil, oops.Code("LOGIN_FAILED").With("operation", "issue refresh token").Wrap(err)
	}

	acct.Password = ""
	return &LoginResult{
		Account:      acct,
		Claims:       claims,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RefreshAccessToken verifies a refresh token and mints a fresh access
// token from the account's current roles and permissions, so grants
// changed since login take effect without re-authentication. Any
// verification or lookup miss yields ErrRefreshTokenInvalid without
// revealing the cause.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string, isAdmin bool) (string, error) {
	accountID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", ErrRefreshTokenInvalid
	}

	acct, err := s.repo.GetByID(ctx, accountID, isAdmin)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrRefreshTokenInvalid
		}
		return "", oops.Code("REFRESH_FAILED").With("operation", "get account").Wrap(err)
	}

	accessToken, err := s.tokens.IssueAccess(ResolveClaims(acct))
	if err != nil {
		return "", oops.Code("REFRESH_FAILED").With("operation", "issue access token").Wrap(err)
	}
	return accessToken, nil
}

// UpdatePassword replaces an account's password after verifying the
// password-reset challenge issued to the email address.
func (s *Service) UpdatePassword(ctx context.Context, accountID int64, email, captcha, newPassword string) error {
	if err := s.verifyCaptcha(ctx, challenge.PurposePasswordReset, email, captcha); err != nil {
		return err
	}

	if _, err := s.repo.GetDetail(ctx, accountID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrAccountNotFound
		}
		return oops.Code("UPDATE_PASSWORD_FAILED").With("operation", "get account").Wrap(err)
	}

	if err := s.repo.UpdatePassword(ctx, accountID, s.hasher.Hash(newPassword)); err != nil {
		return oops.Code("UPDATE_PASSWORD_FAILED").With("operation", "persist digest").Wrap(err)
	}
	return nil
}

// Freeze marks an account frozen. Freezing does not end existing
// sessions and, matching login behavior, does not block new ones.
func (s *Service) Freeze(ctx context.Context, accountID int64) error {
	if _, err := s.repo.GetDetail(ctx, accountID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrAccountNotFound
		}
		return oops.Code("FREEZE_FAILED").With("operation", "get account").Wrap(err)
	}

	if err := s.repo.SetFrozen(ctx, accountID); err != nil {
		return oops.Code("FREEZE_FAILED").With("operation", "persist frozen flag").Wrap(err)
	}
	return nil
}

// Detail returns an account view for the info endpoint, digest blanked.
func (s *Service) Detail(ctx context.Context, accountID int64) (*Account, error) {
	acct, err := s.repo.GetDetail(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, oops.Code("DETAIL_FAILED").With("operation", "get account").Wrap(err)
	}
	acct.Password = ""
	return acct, nil
}

// List returns one page of accounts plus the total count. pageNo and
// pageSize must be positive.
func (s *Service) List(ctx context.Context, pageNo, pageSize int) (*Page, error) {
	if pageNo < 1 {
		return nil, oops.Code("ACCOUNT_INVALID_PAGE").Errorf("pageNo must be positive, got %d", pageNo)
	}
	if pageSize < 1 {
		return nil, oops.Code("ACCOUNT_INVALID_PAGE").Errorf("pageSize must be positive, got %d", pageSize)
	}

	accounts, total, err := s.repo.List(ctx, (pageNo-1)*pageSize, pageSize)
	if err != nil {
		return nil, oops.Code("LIST_FAILED").With("operation", "list accounts").Wrap(err)
	}

	for i := range accounts {
		accounts[i].Password = ""
	}
	return &Page{Accounts: accounts, Total: total}, nil
}

// InitData inserts the bootstrap dataset. Not idempotent: running it
// twice duplicates the data. One-time seeding only.
func (s *Service) InitData(ctx context.Context) error {
	if err := s.seeder.SeedInitialData(ctx, DefaultSeedData(s.hasher)); err != nil {
		return oops.Code("SEED_FAILED").With("operation", "insert seed data").Wrap(err)
	}
	s.logger.InfoContext(ctx, "seed data inserted")
	return nil
}

func (s *Service) verifyCaptcha(ctx context.Context, purpose challenge.Purpose, email, submitted string) error {
	err := s.challenges.Verify(ctx, purpose, email, submitted)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, challenge.ErrCodeExpired):
		return ErrCaptchaExpired
	case errors.Is(err, challenge.ErrCodeMismatch):
		return ErrCaptchaMismatch
	default:
		return oops.Code("CAPTCHA_VERIFY_FAILED").With("purpose", string(purpose)).Wrap(err)
	}
}
