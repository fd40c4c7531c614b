package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handlers "github.com/oksasatya/tapvote/internal/interface/http"
	"github.com/oksasatya/tapvote/internal/interface/middleware"
)

// UserModule wires the points and energy endpoints under /api/users.
type UserModule struct {
	Handler      *handlers.UserHandler
	Redis        *redis.Client
	TapPerMinute int
	Logger       *logrus.Logger
}

func NewUserModule(h *handlers.UserHandler, rdb *redis.Client, tapPerMinute int, logger *logrus.Logger) *UserModule {
	return &UserModule{Handler: h, Redis: rdb, TapPerMinute: tapPerMinute, Logger: logger}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	signupLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndPath(), nil, m.Logger)
	loginLimiter := middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByIPAndPath(), nil, m.Logger)
	tapLimiter := middleware.RateLimit(m.Redis, m.TapPerMinute, time.Minute, middleware.KeyByUserIDAndPath(), nil, m.Logger)
	// the energy scheduler calls from inside the network
	regenLimiter := middleware.RateLimit(m.Redis, 60, time.Minute, middleware.KeyByUserIDAndPath(), middleware.AllowPrivateIP(), m.Logger)
	avatarLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndPath(), nil, m.Logger)

	users := rg.Group("/users")
	{
		users.POST("/signup", signupLimiter, m.Handler.Signup)
		users.POST("/login", loginLimiter, m.Handler.Login)
		users.POST("/tap", middleware.UserIDFromBody(), tapLimiter, m.Handler.Tap)
		users.POST("/regenerate-energy", middleware.UserIDFromBody(), regenLimiter, m.Handler.RegenerateEnergy)
		users.GET("/:userId", m.Handler.GetUser)
		users.POST("/:userId/avatar", avatarLimiter, m.Handler.UploadAvatar)
	}
}
