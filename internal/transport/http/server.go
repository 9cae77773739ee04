package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/auth"
	"github.com/vovakirdan/wirechat-presence/internal/config"
	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/service/messages"
)

// NewServer builds an HTTP server with the REST and websocket routes.
func NewServer(hub *core.Hub, authService *auth.Service, msgService *messages.Service, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(hub, authService, msgService, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter builds the top-level handler. The websocket endpoint is mounted on the
// plain mux: gin's response writer refuses the hijack after the 101 is written.
func NewRouter(hub *core.Hub, authService *auth.Service, msgService *messages.Service, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, msgService, cfg, logger))
	mux.Handle("/", newEngine(hub, authService, msgService, cfg, logger))
	return mux
}

// newEngine builds the gin engine serving the REST routes.
func newEngine(hub *core.Hub, authService *auth.Service, msgService *messages.Service, cfg *config.Config, logger *zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	authHandlers := NewAuthHandlers(authService, cfg, logger)
	userHandlers := NewUserHandlers(msgService, hub, logger)
	messageHandlers := NewMessageHandlers(msgService, logger)
	requireAuth := AuthMiddleware(authService, cfg.CookieName, logger)

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		authGroup.POST("/signup", authHandlers.Signup)
		authGroup.POST("/login", authHandlers.Login)
		authGroup.POST("/logout", authHandlers.Logout)
		authGroup.GET("/check", requireAuth, authHandlers.Check)

		msgGroup := api.Group("/messages", requireAuth)
		msgGroup.GET("/contacts", userHandlers.Contacts)
		msgGroup.GET("/chats", userHandlers.Chats)
		msgGroup.GET("/:id", messageHandlers.History)
		msgGroup.POST("/send/:id", messageHandlers.Send)

		api.GET("/presence", requireAuth, userHandlers.Presence)
	}

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
