package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/Himejjad/media-app/internal/apperr"
)

// ContextUploaderKey is where the optional uploader identity lives in
// the request context.
const ContextUploaderKey = "uploader"

// fail records an error on the context and stops the handler chain; the
// ErrorHandler middleware translates it into the response envelope.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler is the single place internal error kinds become HTTP
// responses. Handlers never write error bodies themselves.
func ErrorHandler(logger *zap.Logger, includeDebug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		status := statusForKind(apperr.KindOf(err))
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
		}

		body := gin.H{
			"success": false,
			"error":   apperr.Message(err),
		}
		if includeDebug {
			body["debug"] = err.Error()
		}
		c.JSON(status, body)
	}
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindTranscode:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// uploaderClaims mirrors the token payload issued by the auth frontend.
type uploaderClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// IdentityMiddleware extracts an optional uploader identity from a
// bearer token. It never rejects a request: a missing or invalid token
// just leaves the uploader anonymous.
func IdentityMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSecret == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.Next()
			return
		}

		claims := &uploaderClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err == nil && token.Valid {
			who := claims.UserID
			if who == "" {
				who = claims.Subject
			}
			if who != "" {
				c.Set(ContextUploaderKey, who)
			}
		}

		c.Next()
	}
}
