package http

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/socialchat/internal/auth"
	"github.com/vovakirdan/socialchat/internal/proto"
	"github.com/vovakirdan/socialchat/internal/utils"
)

const (
	// ContextKeyUserID is the context key for storing user ID.
	ContextKeyUserID = "user_id"
	// ContextKeyUsername is the context key for storing username.
	ContextKeyUsername = "username"
	// ContextKeyCookieAuth marks requests authenticated by the session cookie.
	ContextKeyCookieAuth = "cookie_auth"
	// ContextKeyRequestID is the context key for the request id.
	ContextKeyRequestID = "request_id"

	headerRequestID = "X-Request-ID"
)

// RequestIDMiddleware tags every request with an id, reusing the caller's when present.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = utils.NewID()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// AuthMiddleware validates the session token from the Authorization header or the session cookie.
func AuthMiddleware(authService *auth.Service, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, fromCookie, ok := sessionToken(c)
		if !ok {
			logger.Debug().Str("path", c.Request.URL.Path).Msg("missing session")
			c.AbortWithStatusJSON(http.StatusUnauthorized, proto.ErrorResponse{Error: "authentication required"})
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			logger.Debug().Err(err).Msg("invalid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, proto.ErrorResponse{Error: "invalid token"})
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUsername, claims.Username)
		c.Set(ContextKeyCookieAuth, fromCookie)

		c.Next()
	}
}

func sessionToken(c *gin.Context) (token string, fromCookie, ok bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, value, found := strings.Cut(header, " ")
		if !found || scheme != "Bearer" || value == "" {
			return "", false, false
		}
		return value, false, true
	}
	cookie, err := c.Cookie(proto.CookieSession)
	if err != nil || cookie == "" {
		return "", false, false
	}
	return cookie, true, true
}

// CSRFMiddleware enforces the double-submit check on unsafe requests authenticated by cookie:
// the X-CSRFToken header must equal the csrftoken cookie.
func CSRFMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if safeMethod(c.Request.Method) || !c.GetBool(ContextKeyCookieAuth) {
			c.Next()
			return
		}

		cookie, err := c.Cookie(proto.CookieCSRFToken)
		header := c.GetHeader(proto.HeaderCSRFToken)
		if err != nil || cookie == "" || header == "" ||
			subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1 {
			logger.Warn().
				Str("path", c.Request.URL.Path).
				Int64("user_id", c.GetInt64(ContextKeyUserID)).
				Msg("csrf verification failed")
			c.AbortWithStatusJSON(http.StatusForbidden, proto.ErrorResponse{Error: "CSRF verification failed"})
			return
		}

		c.Next()
	}
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info().
			Str("request_id", c.GetString(ContextKeyRequestID)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}

// currentUser returns the authenticated user set by AuthMiddleware.
func currentUser(c *gin.Context) (int64, string, bool) {
	id, ok := c.Get(ContextKeyUserID)
	if !ok {
		return 0, "", false
	}
	uid, ok := id.(int64)
	if !ok {
		return 0, "", false
	}
	return uid, c.GetString(ContextKeyUsername), true
}
