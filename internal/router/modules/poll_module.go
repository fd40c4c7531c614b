package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handlers "github.com/oksasatya/tapvote/internal/interface/http"
	"github.com/oksasatya/tapvote/internal/interface/middleware"
)

// PollModule wires poll creation, listing, search and voting under /api/poll.
type PollModule struct {
	Handler *handlers.PollHandler
	Redis   *redis.Client
	Logger  *logrus.Logger
}

func NewPollModule(h *handlers.PollHandler, rdb *redis.Client, logger *logrus.Logger) *PollModule {
	return &PollModule{Handler: h, Redis: rdb, Logger: logger}
}

func (m *PollModule) Register(rg *gin.RouterGroup) {
	createLimiter := middleware.RateLimit(m.Redis, 20, time.Minute, middleware.KeyByUserIDAndPath(), nil, m.Logger)
	voteLimiter := middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserIDAndPath(), nil, m.Logger)
	searchLimiter := middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByIP(), nil, m.Logger)

	polls := rg.Group("/poll")
	{
		polls.POST("", middleware.UserIDFromBody(), createLimiter, m.Handler.Create)
		polls.GET("", m.Handler.List)
		polls.GET("/search", searchLimiter, m.Handler.Search)
		polls.POST("/vote", middleware.UserIDFromBody(), voteLimiter, m.Handler.Vote)
		polls.GET("/:pollId", m.Handler.Get)
	}
}
