package gateway

import (
	"net/http"
	"strings"
	"time"

	"github.com/example/foodhub/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	tokenCookie     = "token"

	ctxRequestID = "request_id"
	ctxActor     = "actor"
)

// requestID keeps an incoming X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", c.GetString(ctxRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if actor, ok := c.Get(ctxActor); ok {
			fields = append(fields, zap.String("actor_id", actor.(models.Actor).ID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logger.Info("HTTP request", fields...)
	}
}

// authenticate resolves the caller from a Bearer token or the token cookie.
func authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			raw, _ = c.Cookie(tokenCookie)
		}
		if raw == "" {
			abort(c, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		actor, err := tokens.Parse(raw)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}
		c.Set(ctxActor, actor)
		c.Next()
	}
}

func authorize(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorOf(c)
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "User role '"+string(actor.Role)+"' is not authorized to access this route")
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func actorOf(c *gin.Context) models.Actor {
	if v, ok := c.Get(ctxActor); ok {
		return v.(models.Actor)
	}
	return models.Actor{}
}
