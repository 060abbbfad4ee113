package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/socialchat/internal/auth"
	"github.com/vovakirdan/socialchat/internal/proto"
)

// APIHandlers provides the JSON account endpoints.
type APIHandlers struct {
	authService *auth.Service
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(authService *auth.Service, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		log:         logger,
	}
}

// Register handles user registration.
// POST /api/register
func (h *APIHandlers) Register(c *gin.Context) {
	var req proto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid register request")
		c.JSON(http.StatusBadRequest, proto.ErrorResponse{Error: "invalid request body"})
		return
	}

	sess, err := h.authService.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			c.JSON(http.StatusConflict, proto.ErrorResponse{Error: "user already exists"})
		case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, proto.ErrorResponse{Error: err.Error()})
		default:
			h.log.Error().Err(err).Str("username", req.Username).Msg("failed to register user")
			c.JSON(http.StatusInternalServerError, proto.ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Str("username", sess.Username).Msg("user registered successfully")
	h.startSession(c, sess)
	c.JSON(http.StatusCreated, proto.AuthResponse{Token: sess.Token, Username: sess.Username})
}

// Login handles user login.
// POST /api/login
func (h *APIHandlers) Login(c *gin.Context) {
	var req proto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		c.JSON(http.StatusBadRequest, proto.ErrorResponse{Error: "invalid request body"})
		return
	}

	sess, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, proto.ErrorResponse{Error: "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Str("username", req.Username).Msg("failed to login user")
		c.JSON(http.StatusInternalServerError, proto.ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("username", sess.Username).Msg("user logged in successfully")
	h.startSession(c, sess)
	c.JSON(http.StatusOK, proto.AuthResponse{Token: sess.Token, Username: sess.Username})
}

// startSession stores the token in the session cookie for browser-style clients.
func (h *APIHandlers) startSession(c *gin.Context, sess *auth.Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		proto.CookieSession,
		sess.Token,
		int(h.authService.TTL().Seconds()),
		"/",
		"",
		c.Request.TLS != nil,
		true, // httpOnly
	)
}
