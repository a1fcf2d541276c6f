package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/infrastructure/auth"
	"github.com/logistics/backend/internal/infrastructure/logger"
	"github.com/logistics/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Actor context keys and headers
const (
	ActorKey       = "actor_id"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
	UserIDHeader   = "X-User-ID"
	maxActorLength = 128
)

// ActorConfig holds configuration for the actor middleware
type ActorConfig struct {
	// JWTService validates bearer tokens. Without a secret tokens are rejected.
	JWTService *auth.JWTService
	// AllowHeaderActor trusts X-User-ID when no token is sent
	AllowHeaderActor bool
	// SkipPaths are paths that need no actor
	SkipPaths []string
	Logger    *zap.Logger
}

// Actor identifies the acting user from a bearer token or, when allowed, the
// X-User-ID header, and stores it in the request context for audit records.
// Without either, the request runs as the system actor unless tokens are
// configured and the header is not trusted, in which case it is rejected.
func Actor(cfg ActorConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	requireActor := cfg.JWTService != nil && cfg.JWTService.Enabled() && !cfg.AllowHeaderActor

	return func(c *gin.Context) {
		for _, path := range cfg.SkipPaths {
			if c.Request.URL.Path == path {
				c.Next()
				return
			}
		}

		actorID, err := resolveActor(c, cfg)
		if err != nil {
			rejectActor(c, cfg, err)
			return
		}
		if actorID == "" {
			if requireActor {
				rejectActor(c, cfg, auth.ErrInvalidToken)
				return
			}
			actorID = shared.SystemActor
		}

		c.Set(ActorKey, actorID)
		ctx := shared.WithActor(c.Request.Context(), actorID)
		ctx, _ = logger.WithUserID(ctx, logger.FromContextOr(ctx, cfg.Logger), actorID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func resolveActor(c *gin.Context, cfg ActorConfig) (string, error) {
	if header := c.GetHeader(AuthHeaderKey); header != "" {
		if !strings.HasPrefix(header, BearerPrefix) || cfg.JWTService == nil {
			return "", auth.ErrInvalidToken
		}
		claims, err := cfg.JWTService.ValidateToken(strings.TrimPrefix(header, BearerPrefix))
		if err != nil {
			return "", err
		}
		return claims.Subject, nil
	}

	if cfg.AllowHeaderActor {
		id := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if len(id) > maxActorLength {
			return "", auth.ErrInvalidToken
		}
		return id, nil
	}
	return "", nil
}

func rejectActor(c *gin.Context, cfg ActorConfig, err error) {
	cfg.Logger.Warn("Actor authentication failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)

	code, message := dto.ErrCodeTokenInvalid, "Invalid token"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrMissingSecret):
		code, message = dto.ErrCodeUnauthorized, "Token authentication is not configured"
	}
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code),
		dto.NewErrorResponseWithRequestID(code, message, logger.GetRequestID(c.Request.Context())))
}

// GetActorID returns the acting user stored by Actor
func GetActorID(c *gin.Context) string {
	if id := c.GetString(ActorKey); id != "" {
		return id
	}
	return shared.SystemActor
}
