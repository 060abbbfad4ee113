package http

import (
	"html/template"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/socialchat/internal/auth"
	"github.com/vovakirdan/socialchat/internal/config"
	"github.com/vovakirdan/socialchat/internal/proto"
	"github.com/vovakirdan/socialchat/internal/service/chats"
)

// NewServer builds the HTTP server exposing the messaging backend.
func NewServer(chatService *chats.Service, authService *auth.Service, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(chatService, authService, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter wires every route onto a gin engine.
func NewRouter(chatService *chats.Service, authService *auth.Service, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware(), LoggerMiddleware(logger))
	r.SetHTMLTemplate(template.Must(template.New(messagesTemplateName).Parse(messagesTemplate)))

	r.GET("/health", healthHandler)

	api := NewAPIHandlers(authService, logger)
	r.POST(proto.PathRegister, api.Register)
	r.POST(proto.PathLogin, api.Login)

	chatHandlers := NewChatHandlers(chatService, logger)
	pages := NewPageHandlers(chatService, logger)
	users := NewUserHandlers(chatService, logger)

	protected := r.Group("/")
	protected.Use(AuthMiddleware(authService, logger), CSRFMiddleware(logger))
	protected.GET(proto.PathMessagesPage, pages.Messages)
	// Both chat routes share one wildcard: a peer username or a chat id.
	protected.GET("/chat/:ref/", chatHandlers.OpenChat)
	protected.GET("/chat/:ref/messages/", chatHandlers.ListMessages)
	protected.POST(proto.PathSendMessage, chatHandlers.SendMessage)
	protected.GET(proto.PathUserSearch, users.SearchUsers)

	return r
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
