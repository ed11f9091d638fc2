package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/codesync/codesync-server/internal/auth"
	"github.com/codesync/codesync-server/internal/config"
	"github.com/codesync/codesync-server/internal/core"
	"github.com/codesync/codesync-server/internal/exec"
	"github.com/codesync/codesync-server/internal/store"
)

// NewServer builds the relay's HTTP server: websocket endpoint, document
// bootstrap/save endpoints, and the code-execution proxy.
func NewServer(hub *core.Hub, docs store.DocumentStore, judge *exec.Client, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(LoggerMiddleware(logger), gin.Recovery())

	verifier := auth.NewVerifier(identityConfig(cfg))

	limiter := newRateLimiter(cfg.Judge.RequestsPerMin)
	limiter.startReset(make(chan struct{}))

	executeHandlers := NewExecuteHandlers(judge, limiter, logger)
	documentHandlers := NewDocumentHandlers(docs, logger)

	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, verifier, logger)))

	api := router.Group("/api")
	{
		api.POST("/execute", executeHandlers.Execute)
		api.GET("/rooms/:room/document", documentHandlers.Get)
		api.PUT("/rooms/:room/document", documentHandlers.Save)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func identityConfig(cfg config.Config) *auth.Config {
	if cfg.Identity.Secret == "" {
		return nil
	}
	return &auth.Config{
		Secret:   []byte(cfg.Identity.Secret),
		Issuer:   cfg.Identity.Issuer,
		Audience: cfg.Identity.Audience,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
