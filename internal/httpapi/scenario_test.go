// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/sessiongate/sessiongate/internal/auth"
	"github.com/sessiongate/sessiongate/internal/auth/memory"
	"github.com/sessiongate/sessiongate/internal/httpapi"
)

type scenarioClock struct {
	now time.Time
}

func (c *scenarioClock) Now() time.Time { return c.now }

var _ = Describe("Credential flow", Ordered, func() {
	var (
		router *gin.Engine
		repo   *memory.UserRepository
		clock  *scenarioClock
		token  string
	)

	send := func(method, path, body string, headers ...string) (int, map[string]any) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var decoded map[string]any
		Expect(json.Unmarshal(rec.Body.Bytes(), &decoded)).To(Succeed(), rec.Body.String())
		return rec.Code, decoded
	}

	BeforeAll(func() {
		clock = &scenarioClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
		repo = memory.NewUserRepository()

		hasher, err := auth.NewBcryptHasher(auth.DefaultBcryptCost)
		Expect(err).NotTo(HaveOccurred())
		issuer, err := auth.NewTokenIssuer([]byte("scenario-secret"), 0, auth.WithClock(clock.Now))
		Expect(err).NotTo(HaveOccurred())
		svc, err := auth.NewService(repo, hasher, issuer)
		Expect(err).NotTo(HaveOccurred())

		router = httpapi.NewRouter(svc, httpapi.RouterOptions{})
	})

	It("registers Ann", func() {
		status, body := send(http.MethodPost, "/signup",
			`{"name":"Ann","email":"ann@example.com","password":"secret1"}`)

		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(Equal(map[string]any{"message": "User created"}))
		Expect(repo.Len()).To(Equal(1))
	})

	It("logs Ann in with the right password", func() {
		status, body := send(http.MethodPost, "/login",
			`{"email":"ann@example.com","password":"secret1"}`)

		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(HaveKeyWithValue("name", "Ann"))
		Expect(body).To(HaveKeyWithValue("token", Not(BeEmpty())))
		token = body["token"].(string)
	})

	It("accepts the token one hour later", func() {
		clock.now = clock.now.Add(time.Hour)

		status, body := send(http.MethodGet, "/me", "", "Authorization", "Bearer "+token)

		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(HaveKeyWithValue("name", "Ann"))
	})

	It("rejects a wrong password with the generic message", func() {
		status, body := send(http.MethodPost, "/login",
			`{"email":"ann@example.com","password":"wrong"}`)

		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body).To(Equal(map[string]any{"message": "Invalid credentials"}))
	})

	It("rejects an unknown email with the same message", func() {
		status, body := send(http.MethodPost, "/login",
			`{"email":"nobody@example.com","password":"secret1"}`)

		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body).To(Equal(map[string]any{"message": "Invalid credentials"}))
	})

	It("treats an empty password as invalid credentials", func() {
		status, body := send(http.MethodPost, "/login",
			`{"email":"ann@example.com","password":""}`)

		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body).To(Equal(map[string]any{"message": "Invalid credentials"}))
	})

	It("refuses to register the same email twice", func() {
		status, body := send(http.MethodPost, "/signup",
			`{"name":"Ann Again","email":"ann@example.com","password":"other"}`)

		Expect(status).To(Equal(http.StatusConflict))
		Expect(body).To(Equal(map[string]any{"message": "Email already registered"}))
		Expect(repo.Len()).To(Equal(1))
	})

	It("expires the token after twenty-five hours", func() {
		clock.now = clock.now.Add(24 * time.Hour)

		status, body := send(http.MethodGet, "/me", "", "Authorization", "Bearer "+token)

		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body).To(Equal(map[string]any{"message": "Token expired"}))
	})
})
