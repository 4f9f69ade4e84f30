package middleware

import (
	"github.com/gin-gonic/gin"

	"pehlione.com/cryptopay/internal/shared/apperr"
)

const (
	HeaderUserID = "X-User-ID"
	CtxKeyUserID = "user_id"
)

// RequireUser trusts the fronting host application to authenticate the payer
// and forward its id. Session/JWT auth is deliberately the host's concern.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetHeader(HeaderUserID)
		if uid == "" {
			Fail(c, apperr.UnauthorizedErr("Authentication required."))
			return
		}

		c.Set(CtxKeyUserID, uid)
		c.Next()
	}
}

func CurrentUserID(c *gin.Context) string {
	if v, ok := c.Get(CtxKeyUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
