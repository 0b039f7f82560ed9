// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sessiongate/sessiongate/internal/auth"
	"github.com/sessiongate/sessiongate/internal/observability"
	"github.com/sessiongate/sessiongate/pkg/errutil"
)

// Response messages.
const (
	MsgUserCreated        = "User created"
	MsgInvalidRequest     = "Invalid request"
	MsgEmailRegistered    = "Email already registered"
	MsgSignupFailed       = "Signup failed"
	MsgInvalidCredentials = "Invalid credentials"
	MsgLoginFailed        = "Login failed"
	MsgInvalidToken       = "Invalid token"
	MsgTokenExpired       = "Token expired"
	MsgNotFound           = "Not found"
	MsgInternalError      = "Internal server error"
)

// Auth attempt outcomes recorded in metrics.
const (
	outcomeSuccess            = "success"
	outcomeInvalidInput       = "invalid_input"
	outcomeDuplicateEmail     = "duplicate_email"
	outcomeInvalidCredentials = "invalid_credentials"
	outcomeError              = "error"
)

// AuthService is the subset of *auth.Service used by the handlers.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*auth.Registration, error)
	Authenticate(ctx context.Context, email, password string) (*auth.SessionToken, error)
	ValidateToken(token string) (*auth.Identity, error)
}

var _ AuthService = (*auth.Service)(nil)

// Handler serves the credential endpoints.
type Handler struct {
	svc     AuthService
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewHandler creates a Handler. logger and metrics may be nil.
func NewHandler(svc AuthService, logger *slog.Logger, metrics *observability.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger, metrics: metrics}
}

// RegisterRoutes mounts the handler on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	r.GET("/me", h.Me)
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Empty fields are not a binding error: they fail authentication like any
// other unknown email or wrong password.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

type meResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ExpiresAt string `json:"expires_at"`
}

// Signup registers a new user.
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordAuth(observability.OperationSignup, outcomeInvalidInput)
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgInvalidRequest})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.svc.Register(ctx, req.Name, req.Email, req.Password); err != nil {
		switch errutil.Code(err) {
		case auth.CodeInvalidInput:
			h.metrics.RecordAuth(observability.OperationSignup, outcomeInvalidInput)
			c.JSON(http.StatusBadRequest, gin.H{"message": MsgInvalidRequest})
		case auth.CodeDuplicateEmail:
			h.metrics.RecordAuth(observability.OperationSignup, outcomeDuplicateEmail)
			c.JSON(http.StatusConflict, gin.H{"message": MsgEmailRegistered})
		default:
			h.metrics.RecordAuth(observability.OperationSignup, outcomeError)
			errutil.LogErrorContext(ctx, h.logger, "signup failed", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": MsgSignupFailed})
		}
		return
	}

	h.metrics.RecordAuth(observability.OperationSignup, outcomeSuccess)
	c.JSON(http.StatusOK, gin.H{"message": MsgUserCreated})
}

// Login authenticates a user and returns a session token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordAuth(observability.OperationLogin, outcomeInvalidInput)
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgInvalidRequest})
		return
	}

	ctx := c.Request.Context()
	token, err := h.svc.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errutil.Code(err) == auth.CodeInvalidCredentials {
			h.metrics.RecordAuth(observability.OperationLogin, outcomeInvalidCredentials)
			c.JSON(http.StatusUnauthorized, gin.H{"message": MsgInvalidCredentials})
			return
		}
		h.metrics.RecordAuth(observability.OperationLogin, outcomeError)
		errutil.LogErrorContext(ctx, h.logger, "login failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": MsgLoginFailed})
		return
	}

	h.metrics.RecordAuth(observability.OperationLogin, outcomeSuccess)
	c.JSON(http.StatusOK, loginResponse{Token: token.Token, Name: token.Name})
}

// Me returns the identity carried by the bearer token.
func (h *Handler) Me(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": MsgInvalidToken})
		return
	}

	identity, err := h.svc.ValidateToken(strings.TrimSpace(token))
	if err != nil {
		msg := MsgInvalidToken
		if errutil.Code(err) == auth.CodeTokenExpired {
			msg = MsgTokenExpired
		}
		c.JSON(http.StatusUnauthorized, gin.H{"message": msg})
		return
	}

	c.JSON(http.StatusOK, meResponse{
		ID:        identity.UserID.String(),
		Name:      identity.Name,
		ExpiresAt: identity.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
