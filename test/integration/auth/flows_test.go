// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

//go:build integration

package auth_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

type apiResponse struct {
	status int
	body   map[string]any
}

func get(path string) apiResponse {
	GinkgoHelper()
	resp, err := http.Get(env.httpSrv.URL + path)
	Expect(err).NotTo(HaveOccurred())
	return readResponse(resp)
}

func getAuthed(path, accessToken string) apiResponse {
	GinkgoHelper()
	req, err := http.NewRequest(http.MethodGet, env.httpSrv.URL+path, nil)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := http.DefaultClient.Do(req)
	Expect(err).NotTo(HaveOccurred())
	return readResponse(resp)
}

func post(path string, payload any) apiResponse {
	GinkgoHelper()
	return postAuthed(path, payload, "")
}

func postAuthed(path string, payload any, accessToken string) apiResponse {
	GinkgoHelper()
	body, err := json.Marshal(payload)
	Expect(err).NotTo(HaveOccurred())
	req, err := http.NewRequest(http.MethodPost, env.httpSrv.URL+path, bytes.NewReader(body))
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	resp, err := http.DefaultClient.Do(req)
	Expect(err).NotTo(HaveOccurred())
	return readResponse(resp)
}

func readResponse(resp *http.Response) apiResponse {
	GinkgoHelper()
	defer resp.Body.Close() //nolint:errcheck // test helper
	var body map[string]any
	Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
	return apiResponse{status: resp.StatusCode, body: body}
}

var _ = Describe("Authentication flows", Ordered, func() {
	BeforeAll(func() {
		Expect(env.service.InitData(env.ctx)).To(Succeed())
	})

	Describe("seeded admin login", func() {
		It("returns the identity with resolved grants and a token pair", func() {
			resp := post("/user/admin/login", map[string]string{
				"username": "zhangsan",
				"password": "111111",
			})

			Expect(resp.status).To(Equal(http.StatusOK))
			Expect(resp.body["accessToken"]).NotTo(BeEmpty())
			Expect(resp.body["refreshToken"]).NotTo(BeEmpty())

			userInfo, ok := resp.body["userInfo"].(map[string]any)
			Expect(ok).To(BeTrue(), "userInfo should be an object")
			Expect(userInfo["username"]).To(Equal("zhangsan"))
			Expect(userInfo["isAdmin"]).To(BeTrue())
			Expect(userInfo["roles"]).To(ConsistOf("administrator"))
			Expect(userInfo["permissions"]).To(ConsistOf("ccc", "ddd"))
		})

		It("rejects the admin account on the ordinary realm", func() {
			resp := post("/user/login", map[string]string{
				"username": "zhangsan",
				"password": "111111",
			})

			Expect(resp.status).To(Equal(http.StatusBadRequest))
			Expect(resp.body["message"]).To(Equal("account does not exist"))
		})

		It("rejects a wrong password with a distinct message", func() {
			resp := post("/user/admin/login", map[string]string{
				"username": "zhangsan",
				"password": "999999",
			})

			Expect(resp.status).To(Equal(http.StatusBadRequest))
			Expect(resp.body["message"]).To(Equal("incorrect password"))
		})
	})

	Describe("registration", func() {
		const email = "wangwu@example.com"

		It("emails a six-digit challenge code", func() {
			resp := get("/user/register-captcha?email=" + email)
			Expect(resp.status).To(Equal(http.StatusOK))

			code := env.mailer.lastCodeFor(email)
			Expect(code).To(HaveLen(6))
		})

		It("creates the account once the code matches", func() {
			resp := post("/user/register", map[string]string{
				"username": "wangwu",
				"password": "555555",
				"email":    email,
				"nickName": "Wang Wu",
				"captcha":  env.mailer.lastCodeFor(email),
			})

			Expect(resp.status).To(Equal(http.StatusOK))
			Expect(resp.body["message"]).To(Equal("registration successful"))
		})

		It("lets the new account log in on the ordinary realm", func() {
			resp := post("/user/login", map[string]string{
				"username": "wangwu",
				"password": "555555",
			})

			Expect(resp.status).To(Equal(http.StatusOK))
			userInfo := resp.body["userInfo"].(map[string]any)
			Expect(userInfo["isAdmin"]).To(BeFalse())
			Expect(userInfo["roles"]).To(BeEmpty())
		})

		It("rejects a duplicate username", func() {
			captchaResp := get("/user/register-captcha?email=dup@example.com")
			Expect(captchaResp.status).To(Equal(http.StatusOK))

			resp := post("/user/register", map[string]string{
				"username": "wangwu",
				"password": "555555",
				"email":    "dup@example.com",
				"nickName": "Wang Wu Again",
				"captcha":  env.mailer.lastCodeFor("dup@example.com"),
			})

			Expect(resp.status).To(Equal(http.StatusBadRequest))
			Expect(resp.body["message"]).To(Equal("username already exists"))
		})

		It("rejects a wrong challenge code", func() {
			captchaResp := get("/user/register-captcha?email=other@example.com")
			Expect(captchaResp.status).To(Equal(http.StatusOK))

			resp := post("/user/register", map[string]string{
				"username": "someone",
				"password": "555555",
				"email":    "other@example.com",
				"nickName": "Someone",
				"captcha":  "000000",
			})

			Expect(resp.status).To(Equal(http.StatusBadRequest))
			Expect(resp.body["message"]).To(Equal("captcha is incorrect"))
		})
	})

	Describe("token renewal", func() {
		var refreshToken string

		BeforeAll(func() {
			resp := post("/user/login", map[string]string{
				"username": "wangwu",
				"password": "555555",
			})
			Expect(resp.status).To(Equal(http.StatusOK))
			refreshToken = resp.body["refreshToken"].(string)
		})

		It("renews the access token with current grants", func() {
			resp := get("/user/refresh?refreshToken=" + refreshToken)

			Expect(resp.status).To(Equal(http.StatusOK))
			Expect(resp.body["accessToken"]).NotTo(BeEmpty())
			Expect(resp.body).NotTo(HaveKey("refreshToken"))
		})

		It("rejects a tampered token on the user flow", func() {
			resp := get("/user/refresh?refreshToken=" + refreshToken + "x")

			Expect(resp.status).To(Equal(http.StatusUnauthorized))
			Expect(resp.body["message"]).To(Equal("refresh token is invalid"))
		})

		It("rejects a tampered token on the admin flow with its own message", func() {
			resp := get("/user/admin/refresh?refreshToken=" + refreshToken + "x")

			Expect(resp.status).To(Equal(http.StatusUnauthorized))
			Expect(resp.body["message"]).To(Equal("session expired, please log in again"))
		})
	})

	Describe("authenticated account detail", func() {
		var accessToken string

		BeforeAll(func() {
			resp := post("/user/login", map[string]string{
				"username": "wangwu",
				"password": "555555",
			})
			Expect(resp.status).To(Equal(http.StatusOK))
			accessToken = resp.body["accessToken"].(string)
		})

		It("returns the account without the password digest", func() {
			resp := getAuthed("/user/info", accessToken)

			Expect(resp.status).To(Equal(http.StatusOK))
			Expect(resp.body["username"]).To(Equal("wangwu"))
			Expect(resp.body["nickName"]).To(Equal("Wang Wu"))
			Expect(resp.body).NotTo(HaveKey("password"))
		})

		It("rejects requests without a token", func() {
			resp := get("/user/info")

			Expect(resp.status).To(Equal(http.StatusUnauthorized))
			Expect(resp.body["message"]).To(Equal("login required"))
		})
	})

	Describe("password change", func() {
		const email = "wangwu@example.com"
		var accessToken string

		BeforeAll(func() {
			resp := post("/user/login", map[string]string{
				"username": "wangwu",
				"password": "555555",
			})
			Expect(resp.status).To(Equal(http.StatusOK))
			accessToken = resp.body["accessToken"].(string)
		})

		It("changes the password after a fresh challenge", func() {
			captchaResp := get("/user/update_password/captcha?address=" + email)
			Expect(captchaResp.status).To(Equal(http.StatusOK))

			resp := postAuthed("/user/update_password", map[string]string{
				"email":       email,
				"captcha":     env.mailer.lastCodeFor(email),
				"newPassword": "666666",
			}, accessToken)

			Expect(resp.status).To(Equal(http.StatusOK))
			Expect(resp.body["message"]).To(Equal("password updated"))
		})

		It("accepts the new password and rejects the old one", func() {
			Expect(post("/user/login", map[string]string{
				"username": "wangwu",
				"password": "666666",
			}).status).To(Equal(http.StatusOK))

			resp := post("/user/login", map[string]string{
				"username": "wangwu",
				"password": "555555",
			})
			Expect(resp.status).To(Equal(http.StatusBadRequest))
			Expect(resp.body["message"]).To(Equal("incorrect password"))
		})
	})

	Describe("administration", func() {
		It("freezes an account while keeping login possible", func() {
			listResp := get("/user/list?pageNo=1&pageSize=50")
			Expect(listResp.status).To(Equal(http.StatusOK))

			users := listResp.body["users"].([]any)
			var frozenTarget float64
			for _, u := range users {
				user := u.(map[string]any)
				if user["username"] == "wangwu" {
					frozenTarget = user["id"].(float64)
				}
			}
			Expect(frozenTarget).NotTo(BeZero())

			freezeResp := get(fmt.Sprintf("/user/freeze?userId=%d", int64(frozenTarget)))
			Expect(freezeResp.status).To(Equal(http.StatusOK))
			Expect(freezeResp.body["message"]).To(Equal("success"))

			loginResp := post("/user/login", map[string]string{
				"username": "wangwu",
				"password": "666666",
			})
			Expect(loginResp.status).To(Equal(http.StatusOK))
			userInfo := loginResp.body["userInfo"].(map[string]any)
			Expect(userInfo["isFrozen"]).To(BeTrue())
		})

		It("paginates the account list with a stable total", func() {
			resp := get("/user/list?pageNo=1&pageSize=2")

			Expect(resp.status).To(Equal(http.StatusOK))
			users := resp.body["users"].([]any)
			Expect(len(users)).To(BeNumerically("<=", 2))
			Expect(resp.body["totalCount"].(float64)).To(BeNumerically(">=", float64(len(users))))
		})
	})
})
