package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-horoscope-backend/internal/domain"
)

// Headers forwarded by the authenticating gateway.
const (
	HeaderUserID         = "X-User-ID"
	HeaderUserBirthDate  = "X-User-Birth-Date"
	HeaderUserBirthTime  = "X-User-Birth-Time"
	HeaderUserZodiacSign = "X-User-Zodiac-Sign"

	userKey   = "user"
	userIDKey = "userID"
)

// Identity builds the caller's profile from the gateway headers and stores
// it in the Gin context. Requests without X-User-ID are rejected with 401;
// ids longer than domain.MaxUserIDLen are rejected with 400.
//
// Profile values are passed through as sent; the services decide what an
// unparsable date of birth or birth time means for each operation.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "missing " + HeaderUserID + " header",
			})
			return
		}
		if len(id) > domain.MaxUserIDLen {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_request",
				"message":    HeaderUserID + " is too long",
			})
			return
		}

		u := domain.User{
			ID:          id,
			DateOfBirth: strings.TrimSpace(c.GetHeader(HeaderUserBirthDate)),
			BirthTime:   strings.TrimSpace(c.GetHeader(HeaderUserBirthTime)),
		}
		if s := strings.TrimSpace(c.GetHeader(HeaderUserZodiacSign)); s != "" {
			u.ZodiacSign = domain.ParseZodiacSign(s)
		}

		c.Set(userKey, u)
		c.Set(userIDKey, id)
		c.Next()
	}
}

// UserFrom returns the profile stored by Identity.
func UserFrom(c *gin.Context) (domain.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return domain.User{}, false
	}
	u, ok := v.(domain.User)
	return u, ok
}
