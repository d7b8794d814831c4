package server

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"prompt-party/internal/config"
	"prompt-party/internal/game"
)

type Server struct {
	store    *Store
	db       *gorm.DB
	ws       *wsHub
	cfg      config.Config
	sessions *sessionStore
	limiter  *rateLimiter
	notifier Notifier

	// generator is swapped for a stub in tests.
	generator imageGenerator

	// defaults is the game config applied when a create request names
	// no preset.
	defaults game.Config
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	defaults, ok := game.ConfigForPreset(cfg.DefaultPreset)
	if !ok {
		defaults = game.StandardConfig()
	}
	return &Server{
		store:     NewStore(),
		db:        conn,
		ws:        newWSHub(),
		cfg:       cfg,
		sessions:  newSessionStore(conn),
		limiter:   newRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		notifier:  logNotifier{},
		generator: newGeminiClient(cfg),
		defaults:  defaults,
	}
}

// SetNotifier swaps the event observer; deployments install their push
// sender here before serving.
func (s *Server) SetNotifier(n Notifier) {
	if n != nil {
		s.notifier = n
	}
}

func (s *Server) Handler() *gin.Engine {
	registerValidators()

	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	{
		api.POST("/games", s.handleCreateGame)
		api.GET("/games", s.handleListGames)
		api.GET("/games/:id", s.handleGetGame)
		api.POST("/games/:id/join", s.handleJoinGame)
		api.POST("/games/:id/start", s.handleStartGame)
		api.POST("/games/:id/seed", s.handleProvideSeed)
		api.POST("/games/:id/turns", s.handleAddTurn)
		api.POST("/games/:id/leave", s.handleLeaveGame)
		api.POST("/games/:id/images/:imageID/reactions", s.handleAddReaction)
		api.DELETE("/games/:id/images/:imageID/reactions", s.handleRemoveReaction)
	}

	engine.GET("/ws/games/:id", s.handleWebsocket)

	return engine
}
