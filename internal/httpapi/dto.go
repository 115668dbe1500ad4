// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package httpapi

import (
	"time"

	"github.com/accountd/accountd/internal/account"
)

// registerRequest is the registration payload.
type registerRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,min=6,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	NickName string `json:"nickName" validate:"required,max=50"`
	Captcha  string `json:"captcha"  validate:"required,len=6"`
}

// loginRequest is the credential payload for both realms.
type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// updatePasswordRequest is the password-change payload.
type updatePasswordRequest struct {
	Email       string `json:"email"       validate:"required,email"`
	Captcha     string `json:"captcha"     validate:"required,len=6"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=50"`
}

// messageResponse carries a confirmation or error string.
type messageResponse struct {
	Message string `json:"message"`
}

// userInfo is the identity view embedded in a login response.
type userInfo struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	NickName    string    `json:"nickName"`
	Email       string    `json:"email"`
	HeadPic     string    `json:"headPic"`
	PhoneNumber string    `json:"phoneNumber"`
	IsFrozen    bool      `json:"isFrozen"`
	IsAdmin     bool      `json:"isAdmin"`
	CreateTime  time.Time `json:"createTime"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
}

// loginResponse is the authenticated identity plus its token pair.
type loginResponse struct {
	UserInfo     userInfo `json:"userInfo"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
}

// refreshResponse carries the renewed access token.
type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// userDetail is the account view for the info and list endpoints.
type userDetail struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	NickName    string    `json:"nickName"`
	Email       string    `json:"email"`
	HeadPic     string    `json:"headPic"`
	PhoneNumber string    `json:"phoneNumber"`
	IsFrozen    bool      `json:"isFrozen"`
	CreateTime  time.Time `json:"createTime"`
}

// listResponse is one page of accounts plus the total count.
type listResponse struct {
	Users      []userDetail `json:"users"`
	TotalCount int64        `json:"totalCount"`
}

func newLoginResponse(res *account.LoginResult) loginResponse {
	roles := res.Claims.Roles
	if roles == nil {
		roles = []string{}
	}
	permissions := res.Claims.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	return loginResponse{
		UserInfo: userInfo{
			ID:          res.Account.ID,
			Username:    res.Account.Username,
			NickName:    res.Account.NickName,
			Email:       res.Account.Email,
			HeadPic:     res.Account.HeadPic,
			PhoneNumber: res.Account.PhoneNumber,
			IsFrozen:    res.Account.IsFrozen,
			IsAdmin:     res.Account.IsAdmin,
			CreateTime:  res.Account.CreateTime,
			Roles:       roles,
			Permissions: permissions,
		},
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	}
}

func newUserDetail(acct *account.Account) userDetail {
	return userDetail{
		ID:          acct.ID,
		Username:    acct.Username,
		NickName:    acct.NickName,
		Email:       acct.Email,
		HeadPic:     acct.HeadPic,
		PhoneNumber: acct.PhoneNumber,
		IsFrozen:    acct.IsFrozen,
		CreateTime:  acct.CreateTime,
	}
}
