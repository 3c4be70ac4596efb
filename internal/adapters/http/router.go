package http

import (
	"context"
	"net/http"

	"github.com/codinglabe/believe-app-sub028/internal/adapters/meetingapi"
	"github.com/codinglabe/believe-app-sub028/internal/adapters/signal"
	"github.com/codinglabe/believe-app-sub028/internal/app"
	"github.com/codinglabe/believe-app-sub028/internal/config"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const sessionUserKey = "user_id"

// ClientTokenMiddleware resolves the caller's user id: the X-User-ID header
// if present, else the id remembered in the session cookie, else a fresh one.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader(meetingapi.UserHeader); raw != "" {
			id, err := domain.ParseUserID(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.Set("client_token", string(id))
			c.Next()
			return
		}

		session := sessions.Default(c)
		token, _ := session.Get(sessionUserKey).(string)
		if token == "" {
			token = string(domain.NewUserID())
			session.Set(sessionUserKey, token)
			if err := session.Save(); err != nil {
				log.Error().Err(err).Str("module", "adapters.http").Msg("save session")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, hub *app.Hub, ctl *signal.SignalWSController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("MeetingSessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Pusher clients connect to /app/<key>; the key is not checked.
	r.GET("/app/:key", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("user", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctl.HandleSignal(ctx, c)
	})
	r.GET("/channels", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"channels": hub.Channels()})
	})

	m := &meetingHandlers{hub: hub, signal: ctl}
	meetings := r.Group("/meetings")
	meetings.GET("", m.list)
	meetings.GET("/:id", m.show)
	meetings.POST("/:id/join", m.join)
	meetings.POST("/:id/leave", m.leave)
	meetings.POST("/:id/audio", m.audio)
	meetings.POST("/:id/video", m.video)

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
