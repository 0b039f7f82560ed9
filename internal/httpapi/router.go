// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sessiongate Contributors

package httpapi

import (
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sessiongate/sessiongate/internal/observability"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// AllowedOrigins lists origins permitted by CORS. "*" allows any
	// origin; an empty list disables CORS handling.
	AllowedOrigins []string
	// WebDir, when set, is served for unmatched GET requests, with
	// index.html as the fallback for client-side routes.
	WebDir  string
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// NewRouter builds the gin engine serving svc.
func NewRouter(svc AuthService, opts RouterOptions) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(requestID(), accessLog(logger), requestMetrics(opts.Metrics), recovery(logger))

	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.New(corsConfig(opts.AllowedOrigins)))
	}

	NewHandler(svc, logger, opts.Metrics).RegisterRoutes(router)

	if opts.WebDir != "" {
		router.NoRoute(spaHandler(opts.WebDir))
	} else {
		router.NoRoute(notFound)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"message": MsgNotFound})
}

// spaHandler serves files under root, falling back to index.html so
// client-side routes resolve.
func spaHandler(root string) gin.HandlerFunc {
	index := filepath.Join(root, "index.html")
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			notFound(c)
			return
		}

		name := filepath.Join(root, filepath.FromSlash(path.Clean("/"+c.Request.URL.Path)))
		if serveFile(c, name) {
			return
		}
		if !serveFile(c, index) {
			notFound(c)
		}
	}
}

// serveFile writes the regular file at name and reports whether it did.
func serveFile(c *gin.Context, name string) bool {
	f, err := os.Open(name) //nolint:gosec // name is cleaned and rooted by the caller
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
	return true
}
