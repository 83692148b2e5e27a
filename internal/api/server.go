package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chemviz/app"
	"chemviz/internal"
)

// Server is the public JSON API
type Server struct {
	router         *gin.Engine
	equipment      *app.EquipmentService
	auth           *app.AuthService
	events         *EventHub
	logger         *internal.Logger
	maxUploadBytes int64
}

// NewServer builds the API router. events may be nil to disable the event stream.
func NewServer(equipment *app.EquipmentService, auth *app.AuthService, events *EventHub, maxUploadBytes int64, logger *internal.Logger) *Server {
	s := &Server{
		router:         gin.New(),
		equipment:      equipment,
		auth:           auth,
		events:         events,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.RecoveryWithWriter(s.logger.WithField("component", "recovery").Writer()))
	s.router.Use(requestLogger(s.logger))
	s.router.MaxMultipartMemory = s.maxUploadBytes
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")

	// Auth endpoints
	api.POST("/auth/register/", s.handleRegister)
	api.POST("/auth/login/", s.handleLogin)

	// Dataset endpoints
	authed := api.Group("", s.tokenAuth())
	authed.POST("/upload/", s.handleUpload)
	authed.GET("/history/", s.handleHistory)
	authed.GET("/dataset/:id/", s.handleGetDataset)
	authed.DELETE("/dataset/:id/delete/", s.handleDeleteDataset)
	authed.GET("/dataset/:id/report/", s.handleReport)

	if s.events != nil {
		authed.GET("/events/", s.events.handleEvents)
	}
}
