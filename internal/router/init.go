package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/tapvote/internal/container"
	handlers "github.com/oksasatya/tapvote/internal/interface/http"
	"github.com/oksasatya/tapvote/internal/router/modules"
)

// InitModules builds the handlers from c and registers every module.
// It should be called once during startup.
func InitModules(r *Registry, c *container.Container) {
	r.Engine.GET("/", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "Hello, Telegram Mini App!")
	})

	userHandler := handlers.NewUserHandler(c.Economy, c.Logger)
	pollHandler := handlers.NewPollHandler(c.Polls, c.Logger)

	r.Add(
		modules.NewUserModule(userHandler, c.Redis, c.Config.TapRateLimitPerMinute, c.Logger),
		modules.NewPollModule(pollHandler, c.Redis, c.Logger),
	)
	if c.Config.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(c.Redis, c.Logger))
	}
}
