// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

//go:build integration

package auth_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

func post(path, body string) (int, map[string]any) {
	resp, err := http.Post(env.server.URL+path, "application/json", strings.NewReader(body))
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = resp.Body.Close() }()

	var decoded map[string]any
	Expect(json.NewDecoder(resp.Body).Decode(&decoded)).To(Succeed())
	return resp.StatusCode, decoded
}

var _ = Describe("Signup and login against PostgreSQL", Ordered, func() {
	BeforeAll(func() {
		_, err := env.pool.Exec(env.ctx, "DELETE FROM users")
		Expect(err).NotTo(HaveOccurred())
	})

	It("registers a new user", func() {
		status, body := post("/signup", `{"name":"Ann","email":"ann@example.com","password":"secret1"}`)

		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(HaveKeyWithValue("message", "User created"))
	})

	It("stores a bcrypt hash rather than the password", func() {
		var hash string
		err := env.pool.QueryRow(env.ctx,
			"SELECT password_hash FROM users WHERE email = $1", "ann@example.com").Scan(&hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(hash).To(HavePrefix("$2a$10$"))
		Expect(hash).NotTo(ContainSubstring("secret1"))
	})

	It("logs the user in", func() {
		status, body := post("/login", `{"email":"ann@example.com","password":"secret1"}`)

		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(HaveKeyWithValue("name", "Ann"))
		Expect(body).To(HaveKeyWithValue("token", Not(BeEmpty())))
	})

	It("rejects a wrong password", func() {
		status, body := post("/login", `{"email":"ann@example.com","password":"wrong"}`)

		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body).To(Equal(map[string]any{"message": "Invalid credentials"}))
	})

	It("rejects a second registration of the same email", func() {
		status, body := post("/signup", `{"name":"Ann","email":"ann@example.com","password":"secret1"}`)

		Expect(status).To(Equal(http.StatusConflict))
		Expect(body).To(Equal(map[string]any{"message": "Email already registered"}))
	})

	It("lets exactly one of many concurrent signups for an email succeed", func() {
		const workers = 8

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			statuses = map[int]int{}
		)
		for i := range workers {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				body := fmt.Sprintf(`{"name":"Racer %d","email":"racer@example.com","password":"secret1"}`, i)
				status, _ := post("/signup", body)
				mu.Lock()
				statuses[status]++
				mu.Unlock()
			}()
		}
		wg.Wait()

		Expect(statuses).To(Equal(map[int]int{
			http.StatusOK:       1,
			http.StatusConflict: workers - 1,
		}))
	})
})
