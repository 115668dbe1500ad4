// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/internal/httpapi"
	"github.com/accountd/accountd/internal/observability"
)

// fakeService implements httpapi.AccountService with function fields so
// each test wires only the calls it expects.
type fakeService struct {
	sendRegisterCaptcha      func(ctx context.Context, email string) error
	sendPasswordResetCaptcha func(ctx context.Context, email string) error
	register                 func(ctx context.Context, input account.RegisterInput) (account.RegisterResult, error)
	login                    func(ctx context.Context, username, password string, isAdmin bool) (*account.LoginResult, error)
	refreshAccessToken       func(ctx context.Context, refreshToken string, isAdmin bool) (string, error)
	updatePassword           func(ctx context.Context, accountID int64, email, captcha, newPassword string) error
	freeze                   func(ctx context.Context, accountID int64) error
	detail                   func(ctx context.Context, accountID int64) (*account.Account, error)
	list                     func(ctx context.Context, pageNo, pageSize int) (*account.Page, error)
	initData                 func(ctx context.Context) error
}

func (f *fakeService) SendRegisterCaptcha(ctx context.Context, email string) error {
	return f.sendRegisterCaptcha(ctx, email)
}

func (f *fakeService) SendPasswordResetCaptcha(ctx context.Context, email string) error {
	return f.sendPasswordResetCaptcha(ctx, email)
}

func (f *fakeService) Register(ctx context.Context, input account.RegisterInput) (account.RegisterResult, error) {
	return f.register(ctx, input)
}

func (f *fakeService) Login(ctx context.Context, username, password string, isAdmin bool) (*account.LoginResult, error) {
	return f.login(ctx, username, password, isAdmin)
}

func (f *fakeService) RefreshAccessToken(ctx context.Context, refreshToken string, isAdmin bool) (string, error) {
	return f.refreshAccessToken(ctx, refreshToken, isAdmin)
}

func (f *fakeService) UpdatePassword(ctx context.Context, accountID int64, email, captcha, newPassword string) error {
	return f.updatePassword(ctx, accountID, email, captcha, newPassword)
}

func (f *fakeService) Freeze(ctx context.Context, accountID int64) error {
	return f.freeze(ctx, accountID)
}

func (f *fakeService) Detail(ctx context.Context, accountID int64) (*account.Account, error) {
	return f.detail(ctx, accountID)
}

func (f *fakeService) List(ctx context.Context, pageNo, pageSize int) (*account.Page, error) {
	return f.list(ctx, pageNo, pageSize)
}

func (f *fakeService) InitData(ctx context.Context) error {
	return f.initData(ctx)
}

// fakeVerifier accepts exactly one token string.
type fakeVerifier struct {
	token  string
	claims account.Claims
}

func (f *fakeVerifier) VerifyAccess(tokenStr string) (account.Claims, error) {
	if tokenStr != f.token {
		return account.Claims{}, errors.New("token invalid")
	}
	return f.claims, nil
}

func testClaims() account.Claims {
	return account.Claims{
		AccountID:   7,
		Username:    "zhangsan",
		Roles:       []string{"administrator"},
		Permissions: []string{"ccc", "ddd"},
	}
}

func newTestHandler(t *testing.T, svc *fakeService) http.Handler {
	t.Helper()

	verifier := &fakeVerifier{token: "good-token", claims: testClaims()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := httpapi.NewServer("127.0.0.1:0", svc, verifier, nil, logger)
	require.NoError(t, err)
	return srv.Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func testAccount() *account.Account {
	return &account.Account{
		ID:          7,
		Username:    "zhangsan",
		NickName:    "Zhang San",
		Email:       "zhang@example.com",
		PhoneNumber: "13233323333",
		IsAdmin:     true,
		CreateTime:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestHandleRegisterCaptcha(t *testing.T) {
	t.Run("sends code to the given address", func(t *testing.T) {
		var gotEmail string
		svc := &fakeService{sendRegisterCaptcha: func(_ context.Context, email string) error {
			gotEmail = email
			return nil
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodGet, "/user/register-captcha?email=new@example.com", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "captcha sent", decodeMessage(t, rec))
		assert.Equal(t, "new@example.com", gotEmail)
	})

	t.Run("rejects missing address without calling the service", func(t *testing.T) {
		called := false
		svc := &fakeService{sendRegisterCaptcha: func(context.Context, string) error {
			called = true
			return nil
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodGet, "/user/register-captcha", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, called)
	})

	t.Run("rejects malformed address", func(t *testing.T) {
		svc := &fakeService{}
		rec := doJSON(t, newTestHandler(t, svc), http.MethodGet, "/user/register-captcha?email=not-an-address", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delivery failure is internal", func(t *testing.T) {
		svc := &fakeService{sendRegisterCaptcha: func(context.Context, string) error {
			return errors.New("smtp down")
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodGet, "/user/register-captcha?email=new@example.com", nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal error", decodeMessage(t, rec))
	})
}

func TestHandleRegister(t *testing.T) {
	validBody := map[string]string{
		"username": "lisi",
		"password": "222222",
		"email":    "lisi@example.com",
		"nickName": "Li Si",
		"captcha":  "482913",
	}

	t.Run("registers and reports success", func(t *testing.T) {
		var gotInput account.RegisterInput
		svc := &fakeService{register: func(_ context.Context, input account.RegisterInput) (account.RegisterResult, error) {
			gotInput = input
			return account.RegisterResult{Succeeded: true, Message: "registration successful"}, nil
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodPost, "/user/register", validBody)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "registration successful", decodeMessage(t, rec))
		assert.Equal(t, account.RegisterInput{
			Username: "lisi",
			Password: "222222",
			Email:    "lisi@example.com",
			NickName: "Li Si",
			Captcha:  "482913",
		}, gotInput)
	})

	t.Run("storage failure is a 200 with the failure text", func(t *testing.T) {
		svc := &fakeService{register: func(context.Context, account.RegisterInput) (account.RegisterResult, error) {
			return account.RegisterResult{Succeeded: false, Message: "registration failed"}, nil
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodPost, "/user/register", validBody)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "registration failed", decodeMessage(t, rec))
	})

	t.Run("duplicate username", func(t *testing.T) {
		svc := &fakeService{register: func(context.Context, account.RegisterInput) (account.RegisterResult, error) {
			return account.RegisterResult{}, account.ErrDuplicateUsername
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodPost, "/user/register", validBody)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "username already exists", decodeMessage(t, rec))
	})

	t.Run("captcha mismatch", func(t *testing.T) {
		svc := &fakeService{register: func(context.Context, account.RegisterInput) (account.RegisterResult, error) {
			return account.RegisterResult{}, account.ErrCaptchaMismatch
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodPost, "/user/register", validBody)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "captcha is incorrect", decodeMessage(t, rec))
	})

	t.Run("rejects invalid payloads before the service", func(t *testing.T) {
		cases := map[string]map[string]string{
			"short password": {"username": "lisi", "password": "12345", "email": "lisi@example.com", "nickName": "Li Si", "captcha": "482913"},
			"bad email":      {"username": "lisi", "password": "222222", "email": "nope", "nickName": "Li Si", "captcha": "482913"},
			"short captcha":  {"username": "lisi", "password": "222222", "email": "lisi@example.com", "nickName": "Li Si", "captcha": "12"},
			"no username":    {"password": "222222", "email": "lisi@example.com", "nickName": "Li Si", "captcha": "482913"},
		}
		for name, body := range cases {
			t.Run(name, func(t *testing.T) {
				called := false
				svc := &fakeService{register: func(context.Context, account.RegisterInput) (account.RegisterResult, error) {
					called = true
					return account.RegisterResult{}, nil
				}}

				rec := doJSON(t, newTestHandler(t, svc), http.MethodPost, "/user/register", body)

				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.False(t, called)
			})
		}
	})

	t.Run("rejects non-JSON body", func(t *testing.T) {
		svc := &fakeService{}
		req := httptest.NewRequest(http.MethodPost, "/user/register", bytes.NewReader([]byte("not json")))
		rec := httptest.NewRecorder()
		newTestHandler(t, svc).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleLogin(t *testing.T) {
	t.Run("returns identity and token pair", func(t *testing.T) {
		var gotAdmin bool
		svc := &fakeService{login: func(_ context.Context, username, password string, isAdmin bool) (*account.LoginResult, error) {
			gotAdmin = isAdmin
			assert.Equal(t, "zhangsan", username)
			assert.Equal(t, "111111", password)
			return &account.LoginResult{
				Account:      testAccount(),
				Claims:       testClaims(),
				AccessToken:  "access-1",
				RefreshToken: "refresh-1",
			}, nil
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodPost, "/user/login",
			map[string]string{"username": "zhangsan", "password": "111111"})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, gotAdmin)

		var body struct {
			UserInfo struct {
				ID          int64    `json:"id"`
				Username    string   `json:"username"`
				IsAdmin     bool     `json:"isAdmin"`
				Roles       []string `json:"roles"`
				Permissions []string `json:"permissions"`
			} `json:"userInfo"`
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, int64(7), body.UserInfo.ID)
		assert.Equal(t, "zhangsan", body.UserInfo.Username)
		assert.True(t, body.UserInfo.IsAdmin)
		assert.Equal(t, []string{"administrator"}, body.UserInfo.Roles)
		assert.Equal(t, []string{"ccc", "ddd"}, body.UserInfo.Permissions)
		assert.Equal(t, "access-1", body.AccessToken)
		assert.Equal(t, "refresh-1", body.RefreshToken)
	})

	t.Run("admin route selects the admin realm", func(t *testing.T) {
		var gotAdmin bool
		svc := &fakeService{login: func(_ context.Context, _, _ string, isAdmin bool) (*account.LoginResult, error) {
			gotAdmin = isAdmin
			return &account.LoginResult{Account: testAccount(), Claims: testClaims()}, nil
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodPost, "/user/admin/login",
			map[string]string{"username": "zhangsan", "password": "111111"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, gotAdmin)
	})

	t.Run("grant lists are never null", func(t *testing.T) {
		svc := &fakeService{login: func(context.Context, string, string, bool) (*account.LoginResult, error) {
			return &account.LoginResult{Account: testAccount(), Claims: account.Claims{AccountID: 7, Username: "zhangsan"}}, nil
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodPost, "/user/login",
			map[string]string{"username": "zhangsan", "password": "111111"})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"roles":[]`)
		assert.Contains(t, rec.Body.String(), `"permissions":[]`)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc := &fakeService{login: func(context.Context, string, string, bool) (*account.LoginResult, error) {
			return nil, account.ErrInvalidCredentials
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodPost, "/user/login",
			map[string]string{"username": "zhangsan", "password": "wrong1"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "incorrect password", decodeMessage(t, rec))
	})

	t.Run("unknown account", func(t *testing.T) {
		svc := &fakeService{login: func(context.Context, string, string, bool) (*account.LoginResult, error) {
			return nil, account.ErrAccountNotFound
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodPost, "/user/login",
			map[string]string{"username": "ghost", "password": "111111"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "account does not exist", decodeMessage(t, rec))
	})

	t.Run("missing credentials", func(t *testing.T) {
		svc := &fakeService{}
		rec := doJSON(t, newTestHandler(t, svc), http.MethodPost, "/user/login",
			map[string]string{"username": "zhangsan"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleRefresh(t *testing.T) {
	t.Run("renews the access token", func(t *testing.T) {
		var gotToken string
		var gotAdmin bool
		svc := &fakeService{refreshAccessToken: func(_ context.Context, refreshToken string, isAdmin bool) (string, error) {
			gotToken = refreshToken
			gotAdmin = isAdmin
			return "access-2", nil
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodGet, "/user/refresh?refreshToken=refresh-1", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "refresh-1", gotToken)
		assert.False(t, gotAdmin)
		assert.JSONEq(t, `{"accessToken":"access-2"}`, rec.Body.String())
	})

	t.Run("admin route selects the admin realm", func(t *testing.T) {
		var gotAdmin bool
		svc := &fakeService{refreshAccessToken: func(_ context.Context, _ string, isAdmin bool) (string, error) {
			gotAdmin = isAdmin
			return "access-2", nil
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodGet, "/user/admin/refresh?refreshToken=refresh-1", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, gotAdmin)
	})

	t.Run("user flow failures collapse to one message", func(t *testing.T) {
		svc := &fakeService{refreshAccessToken: func(context.Context, string, bool) (string, error) {
			return "", account.ErrRefreshTokenInvalid
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodGet, "/user/refresh?refreshToken=tampered", nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "refresh token is invalid", decodeMessage(t, rec))
	})

	t.Run("admin flow failures collapse to one message", func(t *testing.T) {
		svc := &fakeService{refreshAccessToken: func(context.Context, string, bool) (string, error) {
			return "", account.ErrRefreshTokenInvalid
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodGet, "/user/admin/refresh?refreshToken=expired", nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "session expired, please log in again", decodeMessage(t, rec))
	})
}

func TestHandleInfo(t *testing.T) {
	t.Run("returns the account behind the token", func(t *testing.T) {
		var gotID int64
		svc := &fakeService{detail: func(_ context.Context, accountID int64) (*account.Account, error) {
			gotID = accountID
			return testAccount(), nil
		}}

		req := httptest.NewRequest(http.MethodGet, "/user/info", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		newTestHandler(t, svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(7), gotID)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "zhangsan", body["username"])
		assert.Equal(t, "Zhang San", body["nickName"])
		assert.NotContains(t, body, "password")
		assert.NotContains(t, body, "isAdmin")
	})

	t.Run("rejects missing token", func(t *testing.T) {
		svc := &fakeService{}
		rec := doJSON(t, newTestHandler(t, svc), http.MethodGet, "/user/info", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "login required", decodeMessage(t, rec))
	})

	t.Run("rejects unverifiable token", func(t *testing.T) {
		svc := &fakeService{}
		req := httptest.NewRequest(http.MethodGet, "/user/info", nil)
		req.Header.Set("Authorization", "Bearer forged")
		rec := httptest.NewRecorder()
		newTestHandler(t, svc).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandleUpdatePasswordCaptcha(t *testing.T) {
	t.Run("sends code to the given address", func(t *testing.T) {
		var gotEmail string
		svc := &fakeService{sendPasswordResetCaptcha: func(_ context.Context, email string) error {
			gotEmail = email
			return nil
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodGet, "/user/update_password/captcha?address=zhang@example.com", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "zhang@example.com", gotEmail)
	})

	t.Run("rejects malformed address", func(t *testing.T) {
		svc := &fakeService{}
		rec := doJSON(t, newTestHandler(t, svc), http.MethodGet, "/user/update_password/captcha?address=bogus", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleUpdatePassword(t *testing.T) {
	validBody := map[string]string{
		"email":       "zhang@example.com",
		"captcha":     "482913",
		"newPassword": "333333",
	}

	t.Run("changes the password of the authenticated account", func(t *testing.T) {
		var gotID int64
		svc := &fakeService{updatePassword: func(_ context.Context, accountID int64, email, captcha, newPassword string) error {
			gotID = accountID
			assert.Equal(t, "zhang@example.com", email)
			assert.Equal(t, "482913", captcha)
			assert.Equal(t, "333333", newPassword)
			return nil
		}}

		payload, err := json.Marshal(validBody)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/user/update_password", bytes.NewReader(payload))
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		newTestHandler(t, svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "password updated", decodeMessage(t, rec))
		assert.Equal(t, int64(7), gotID)
	})

	t.Run("expired captcha", func(t *testing.T) {
		svc := &fakeService{updatePassword: func(context.Context, int64, string, string, string) error {
			return account.ErrCaptchaExpired
		}}

		payload, err := json.Marshal(validBody)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/user/update_password", bytes.NewReader(payload))
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		newTestHandler(t, svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "captcha has expired", decodeMessage(t, rec))
	})

	t.Run("requires authentication", func(t *testing.T) {
		svc := &fakeService{}
		rec := doJSON(t, newTestHandler(t, svc), http.MethodPost, "/user/update_password", validBody)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandleFreeze(t *testing.T) {
	t.Run("freezes and answers success", func(t *testing.T) {
		var gotID int64
		svc := &fakeService{freeze: func(_ context.Context, accountID int64) error {
			gotID = accountID
			return nil
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodGet, "/user/freeze?userId=42", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "success", decodeMessage(t, rec))
		assert.Equal(t, int64(42), gotID)
	})

	t.Run("rejects a non-numeric id", func(t *testing.T) {
		svc := &fakeService{}
		rec := doJSON(t, newTestHandler(t, svc), http.MethodGet, "/user/freeze?userId=abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown account", func(t *testing.T) {
		svc := &fakeService{freeze: func(context.Context, int64) error {
			return account.ErrAccountNotFound
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodGet, "/user/freeze?userId=999", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "account does not exist", decodeMessage(t, rec))
	})
}

func TestHandleList(t *testing.T) {
	t.Run("returns one page with the total", func(t *testing.T) {
		var gotNo, gotSize int
		svc := &fakeService{list: func(_ context.Context, pageNo, pageSize int) (*account.Page, error) {
			gotNo, gotSize = pageNo, pageSize
			return &account.Page{Accounts: []account.Account{*testAccount()}, Total: 11}, nil
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodGet, "/user/list?pageNo=3&pageSize=5", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 3, gotNo)
		assert.Equal(t, 5, gotSize)

		var body struct {
			Users []struct {
				Username string `json:"username"`
			} `json:"users"`
			TotalCount int64 `json:"totalCount"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Users, 1)
		assert.Equal(t, "zhangsan", body.Users[0].Username)
		assert.Equal(t, int64(11), body.TotalCount)
	})

	t.Run("empty page is an empty list, not null", func(t *testing.T) {
		svc := &fakeService{list: func(context.Context, int, int) (*account.Page, error) {
			return &account.Page{}, nil
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodGet, "/user/list?pageNo=9&pageSize=5", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"users":[]`)
	})

	t.Run("rejects non-positive paging", func(t *testing.T) {
		svc := &fakeService{}
		for _, target := range []string{
			"/user/list?pageNo=0&pageSize=5",
			"/user/list?pageNo=1&pageSize=0",
			"/user/list?pageNo=x&pageSize=5",
			"/user/list?pageSize=5",
		} {
			rec := doJSON(t, newTestHandler(t, svc), http.MethodGet, target, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		}
	})
}

func TestHandleInitData(t *testing.T) {
	t.Run("seeds and confirms", func(t *testing.T) {
		called := false
		svc := &fakeService{initData: func(context.Context) error {
			called = true
			return nil
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodGet, "/user/init-data", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "initialization complete", decodeMessage(t, rec))
		assert.True(t, called)
	})

	t.Run("seed failure is internal", func(t *testing.T) {
		svc := &fakeService{initData: func(context.Context) error {
			return errors.New("db down")
		}}

		rec := doJSON(t, newTestHandler(t, svc), http.MethodGet, "/user/init-data", nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandlerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	svc := &fakeService{
		login: func(context.Context, string, string, bool) (*account.LoginResult, error) {
			return nil, account.ErrInvalidCredentials
		},
		refreshAccessToken: func(context.Context, string, bool) (string, error) {
			return "access-2", nil
		},
	}
	verifier := &fakeVerifier{token: "good-token", claims: testClaims()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := httpapi.NewServer("127.0.0.1:0", svc, verifier, metrics, logger)
	require.NoError(t, err)
	handler := srv.Handler()

	doJSON(t, handler, http.MethodPost, "/user/admin/login", map[string]string{"username": "zhangsan", "password": "wrong1"})
	doJSON(t, handler, http.MethodGet, "/user/refresh?refreshToken=refresh-1", nil)

	rejected := testutil.ToFloat64(metrics.LoginsTotal.With(prometheus.Labels{
		"realm": observability.RealmAdmin, "outcome": observability.OutcomeRejected,
	}))
	assert.Equal(t, 1.0, rejected)

	refreshed := testutil.ToFloat64(metrics.RefreshesTotal.With(prometheus.Labels{
		"realm": observability.RealmOrdinary, "outcome": observability.OutcomeSuccess,
	}))
	assert.Equal(t, 1.0, refreshed)
}
