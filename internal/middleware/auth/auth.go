// Модуль выдачи сессионных cookie посетителям.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Claims struct {
	jwt.RegisteredClaims
	SessionID string
}

const (
	tokenExp     = time.Hour * 3
	maxAge       = 3600 * 24 * 30
	cookieName   = "qrlink-session"
	SessionIDKey = "sessionID"
)

var ErrTokenNotValid = errors.New("token is not valid")
var ErrNoSessionInToken = errors.New("no session data in token")
var ErrBuildJWTString = errors.New("error building JWT string")

func BuildJWTString(secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenExp)),
		},
		SessionID: uuid.New().String(),
	})

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("error creating signed JWT: %w", err)
	}

	return tokenString, nil
}

func GetSessionID(tokenString string, secret string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
	if err != nil || !token.Valid {
		return "", ErrTokenNotValid
	}

	if claims.SessionID == "" {
		return "", ErrNoSessionInToken
	}

	return claims.SessionID, nil
}

// SessionMiddleware guarantees every request carries a valid session ID:
// it reads the signed cookie, reissues it when missing or expired, and
// puts the ID into the gin context.
func SessionMiddleware(secret string, logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(cookieName)
		if err != nil {
			if errors.Is(err, http.ErrNoCookie) {
				token, err := BuildJWTString(secret)
				if err != nil {
					logger.Error(ErrBuildJWTString, err)
					c.AbortWithStatus(http.StatusInternalServerError)
					return
				}
				c.SetCookie(cookieName, token, maxAge, "", "", false, true)
				cookie = token
			} else {
				logger.Errorf("error reading cookie[%v]: %v", cookieName, err)
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
		}

		sessionID, err := GetSessionID(cookie, secret)
		if err != nil {
			if errors.Is(err, ErrNoSessionInToken) {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			if errors.Is(err, ErrTokenNotValid) {
				token, err := BuildJWTString(secret)
				if err != nil {
					logger.Error(ErrBuildJWTString, err)
					c.AbortWithStatus(http.StatusInternalServerError)
					return
				}
				sessionID, err = GetSessionID(token, secret)
				if err != nil {
					logger.Errorf("revalidate error session id from renewed token: %v", err)
					c.AbortWithStatus(http.StatusInternalServerError)
					return
				}
				c.SetCookie(cookieName, token, maxAge, "", "", false, true)
			}
		}

		c.Set(SessionIDKey, sessionID)
		c.Next()
	}
}
