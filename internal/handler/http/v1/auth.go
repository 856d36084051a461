package v1

import (
	"errors"
	"strings"

	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/apperr"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/config"
	"github.com/Saulolucena27/backend-Pi-Bombeiro/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	ctxActorIDKey     = "actorID"
	ctxPermissionsKey = "permissions"

	// PermissionDelete - право на удаление происшествий
	PermissionDelete = "delete"
)

// JWTAuthMiddleware - middleware для аутентификации по JWT (HS256).
// Токен берется из Authorization: Bearer, для SSE допускается ?token=.
func JWTAuthMiddleware(cfg *config.Config, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken := ""
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			rawToken = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}
		if rawToken == "" {
			rawToken = c.Query("token")
		}

		if rawToken == "" {
			log.Warn("Token missing from request")
			abortWithError(c, apperr.Unauthorized("authentication required"))
			return
		}

		claims, err := parseClaims(rawToken, cfg.JWTSecret)
		if err != nil {
			log.WithError(err).Warn("Invalid token provided")
			abortWithError(c, apperr.Unauthorized("invalid token"))
			return
		}

		subject, _ := claims["sub"].(string)
		actorID, err := uuid.Parse(subject)
		if err != nil {
			log.WithField("sub", subject).Warn("Token subject is not a valid user id")
			abortWithError(c, apperr.Unauthorized("invalid token"))
			return
		}

		c.Set(ctxActorIDKey, actorID)
		c.Set(ctxPermissionsKey, extractPermissions(claims["permissions"]))
		c.Next()
	}
}

// RequirePermission пропускает запрос, только если в токене есть указанное право
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		permissions, _ := c.Get(ctxPermissionsKey)
		list, _ := permissions.([]string)
		for _, item := range list {
			if strings.EqualFold(item, permission) {
				c.Next()
				return
			}
		}
		abortWithError(c, apperr.Forbidden("you do not have permission to perform this action"))
	}
}

// actorFromContext собирает данные инициатора запроса для аудита
func actorFromContext(c *gin.Context) models.Actor {
	actor := models.Actor{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if id, ok := c.Get(ctxActorIDKey); ok {
		actor.ID, _ = id.(uuid.UUID)
	}
	return actor
}

func parseClaims(rawToken, secret string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(rawToken, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func extractPermissions(value any) []string {
	permissions := make([]string, 0)
	switch typed := value.(type) {
	case []string:
		permissions = append(permissions, typed...)
	case []any:
		for _, item := range typed {
			if text, ok := item.(string); ok {
				permissions = append(permissions, text)
			}
		}
	}
	return permissions
}
