package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tapvote/internal/interface/middleware"
)

// DebugModule exposes expvar counters at /api/debug/vars.
type DebugModule struct {
	Redis  *redis.Client
	Logger *logrus.Logger
}

func NewDebugModule(rdb *redis.Client, logger *logrus.Logger) *DebugModule {
	return &DebugModule{Redis: rdb, Logger: logger}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByIP(), nil, m.Logger)
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}
