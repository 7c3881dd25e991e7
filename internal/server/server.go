package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qanda/backend/internal/auth"
	"github.com/emilythestrangee/qanda/backend/internal/database"
	"github.com/emilythestrangee/qanda/backend/internal/handlers"
	"github.com/emilythestrangee/qanda/backend/internal/middleware"
	"github.com/emilythestrangee/qanda/backend/internal/store"
)

type Server struct {
	db      database.Service
	store   store.Store
	issuer  *auth.Issuer
	handler *handlers.Handler
	logger  *slog.Logger
}

// New assembles a server. db may be nil when the store is not backed by postgres.
func New(db database.Service, st store.Store, issuer *auth.Issuer, handler *handlers.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{db: db, store: st, issuer: issuer, handler: handler, logger: logger}
}

// HTTPServer wraps the router in an http.Server listening on port.
func (s *Server) HTTPServer(port string) *http.Server {
	return &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(s.logger))

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Public reads
		api.GET("/questions", s.handler.Question.GetQuestions)
		api.GET("/questions/:id", s.handler.Question.GetQuestion)
		api.GET("/answers", s.handler.Answer.GetAnswers)
		api.GET("/answers/:id", s.handler.Answer.GetAnswer)
		api.GET("/users/:id", s.handler.Auth.GetUserProfile)

		protected := api.Group("")
		protected.Use(middleware.Auth(s.issuer, s.store))
		{
			protected.GET("/me", s.handler.Auth.GetMe)
			protected.GET("/profile", s.handler.Auth.GetProfile)
			protected.POST("/logout", s.handler.Auth.Logout)

			protected.POST("/questions", s.handler.Question.CreateQuestion)
			protected.PUT("/questions/:id", s.handler.Question.UpdateQuestion)
			protected.PATCH("/questions/:id", s.handler.Question.UpdateQuestion)
			protected.DELETE("/questions/:id", s.handler.Question.DeleteQuestion)
			protected.POST("/questions/:id/vote", s.handler.Question.VoteQuestion)

			protected.POST("/answers", s.handler.Answer.CreateAnswer)
			protected.PUT("/answers/:id", s.handler.Answer.UpdateAnswer)
			protected.PATCH("/answers/:id", s.handler.Answer.UpdateAnswer)
			protected.DELETE("/answers/:id", s.handler.Answer.DeleteAnswer)
			protected.POST("/answers/:id/accept", s.handler.Answer.AcceptAnswer)
			protected.POST("/answers/:id/vote", s.handler.Answer.VoteAnswer)
		}
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	if s.db != nil {
		stats := s.db.Health()
		code := http.StatusOK
		if stats["status"] != "up" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, stats)
		return
	}
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "up"})
}
