package handlers

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"farmcare-server-go/config"
	"farmcare-server-go/middleware"
)

// NewRouter builds the API engine: middleware, the handler's routes and a
// JSON 404 for everything else.
func NewRouter(cfg *config.Config, h *APIHandler, log *logrus.Logger) *gin.Engine {
	if cfg.Env == config.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.RequestLogger(log),
		middleware.Recovery(log),
		// A request from any other origin is refused with 403.
		cors.New(cors.Config{
			AllowOrigins:     []string{cfg.CORS.AllowedOrigin},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
		}),
	)

	h.EnrichRoutes(router)
	router.NoRoute(middleware.NotFound)

	return router
}
