package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rentalhub/pkg/logger"
	"rentalhub/pkg/models"
	"rentalhub/service"
)

type TokenParser interface {
	Parse(token string) (models.Caller, error)
}

type Handler struct {
	services service.IServiceManager
	tokens   TokenParser
	log      logger.ILogger
}

func NewRouter(services service.IServiceManager, tokens TokenParser, log logger.ILogger) *gin.Engine {
	h := &Handler{services: services, tokens: tokens, log: log}

	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger(), cors())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/register", h.register)
		auth.POST("/verify-email", h.verifyEmail)
		auth.POST("/resend-verification", h.resendVerification)
		auth.POST("/login", h.login)
		auth.POST("/forgot-password", h.forgotPassword)
		auth.POST("/check-reset-code", h.checkResetCode)
		auth.POST("/reset-password", h.resetPassword)

		api.GET("/listings", h.listPublicListings)

		private := api.Group("", h.authenticate())
		private.GET("/me", h.me)

		private.GET("/profile", h.getOwnProfile)
		private.POST("/profile", h.createProfile)
		private.PATCH("/profile", h.updateProfile)

		private.GET("/listings/mine", h.listMyListings)
		private.GET("/listings/:id", h.getListing)
		private.POST("/listings", h.createListing)
		private.PATCH("/listings/:id", h.updateListing)

		private.GET("/favorites", h.listFavorites)
		private.POST("/favorites/:listingId", h.addFavorite)
		private.DELETE("/favorites/:listingId", h.removeFavorite)

		private.GET("/notifications", h.listNotifications)
		private.GET("/notifications/unread-count", h.unreadCount)
		private.POST("/notifications/read-all", h.markAllRead)
		private.POST("/notifications/:id/read", h.markRead)

		admin := private.Group("/admin")
		admin.GET("/listings/pending", h.listPendingListings)
		admin.POST("/listings/:id/review", h.reviewListing)
		admin.GET("/profiles/pending", h.listPendingProfiles)
		admin.GET("/profiles/:identityId", h.getProfile)
		admin.POST("/profiles/:identityId/review", h.reviewProfile)
	}

	return r
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.Debug("http request",
			logger.String("method", c.Request.Method),
			logger.String("path", c.FullPath()),
			logger.Int("status", c.Writer.Status()),
			logger.String("latency", time.Since(start).String()),
		)
	}
}

type Server struct {
	srv *http.Server
	log logger.ILogger
}

func NewServer(port int, handler http.Handler, log logger.ILogger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Run blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Run() error {
	s.log.Info("HTTP server listening", logger.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
