package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"quickstory-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// deviceNamespace - неймспейс для детерминированного выведения playerID из
// X-Device-ID: один и тот же девайс всегда получает один и тот же UUID.
var deviceNamespace = uuid.MustParse("9f2c1d6e-4b3a-4f8e-9c7d-2a1b3c4d5e6f")

// JWTVerifier проверяет JWT токены, подписанные HMAC-секретом.
type JWTVerifier struct {
	jwtSecret string
	logger    *zap.Logger
}

// NewJWTVerifier создает новый экземпляр JWTVerifier.
func NewJWTVerifier(jwtSecret string, logger *zap.Logger) (*JWTVerifier, error) {
	if jwtSecret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JWTVerifier{
		jwtSecret: jwtSecret,
		logger:    logger.Named("JWTVerifier"),
	}, nil
}

// VerifyToken проверяет подпись JWT, его валидность и извлекает claims.
func (v *JWTVerifier) VerifyToken(_ context.Context, tokenString string) (*models.Claims, error) {
	log := v.logger.With(zap.String("tokenSnippet", tokenSnippet(tokenString)))
	claims := &models.Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			log.Warn("Unexpected signing method", zap.Any("alg", token.Header["alg"]))
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.jwtSecret), nil
	})

	if err != nil {
		log.Warn("Failed to parse or verify token", zap.Error(err))
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		} else if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, models.ErrTokenMalformed
		} else if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, models.ErrTokenInvalid
		}
		return nil, fmt.Errorf("%w: %v", models.ErrTokenInvalid, err)
	}

	if !token.Valid {
		log.Warn("Token is invalid despite no parsing error")
		return nil, models.ErrTokenInvalid
	}

	if claims.UserID == uuid.Nil {
		log.Warn("Token missing user id claim")
		return nil, fmt.Errorf("%w: uid missing", models.ErrTokenInvalid)
	}

	log.Debug("Token verified successfully", zap.Stringer("userID", claims.UserID))
	return claims, nil
}

// PlayerIdentity возвращает middleware, определяющее игрока по запросу.
// Приоритет: Bearer-токен в Authorization, затем заголовок X-Device-ID
// (анонимная игра без регистрации). Без обоих - 401.
func PlayerIdentity(verifier *JWTVerifier, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("PlayerIdentity")
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Malformed Authorization header")
				c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: Malformed token header"})
				return
			}

			claims, err := verifier.VerifyToken(c.Request.Context(), parts[1])
			if err != nil {
				msg := "Unauthorized: Invalid token"
				if errors.Is(err, models.ErrTokenExpired) {
					msg = "Unauthorized: Token expired"
				}
				c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: msg})
				return
			}

			c.Set(string(models.PlayerContextKey), claims.UserID)
			c.Next()
			return
		}

		if deviceID := c.GetHeader("X-Device-ID"); deviceID != "" {
			c.Set(string(models.PlayerContextKey), PlayerIDFromDevice(deviceID))
			c.Next()
			return
		}

		log.Warn("Request without credentials", zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: Missing token"})
	}
}

// PlayerIDFromDevice детерминированно выводит playerID из идентификатора
// устройства. Используется и HTTP-слоем, и websocket-хендлером.
func PlayerIDFromDevice(deviceID string) uuid.UUID {
	return uuid.NewSHA1(deviceNamespace, []byte(deviceID))
}

// PlayerIDFromContext извлекает playerID, установленный PlayerIdentity.
func PlayerIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(string(models.PlayerContextKey))
	if !exists {
		return uuid.Nil, false
	}
	playerID, ok := value.(uuid.UUID)
	return playerID, ok
}

// tokenSnippet возвращает безопасную для логгирования часть токена.
func tokenSnippet(tokenString string) string {
	limit := 15
	if len(tokenString) > limit {
		return tokenString[:limit] + "..."
	}
	return tokenString
}
