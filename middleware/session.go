package middleware

import (
	"net/http"
	"time"

	"github.com/LeeRude11/delivery/logger"
	"github.com/LeeRude11/delivery/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	SessionCookieName = "sessionid"
	SessionIDKey      = "session_id"
)

// Session makes sure every request carries a session id, issuing a fresh
// cookie when the browser has none or sends garbage.
func Session(ttl time.Duration, secure bool) gin.HandlerFunc {
	maxAge := int(ttl.Seconds())
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookieName)
		if err != nil || !session.ValidID(id) {
			id = session.NewID()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookieName, id, maxAge, "/", "", secure, true)
		}
		c.Set(SessionIDKey, id)
		c.Next()
	}
}

// SessionID returns the id set by Session.
func SessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}

// RotateSession deletes the current session from store and issues a new id,
// used on logout. A failed delete is logged; the stale entry expires on its
// own.
func RotateSession(c *gin.Context, store session.Store, ttl time.Duration, secure bool) string {
	if old := SessionID(c); old != "" && store != nil {
		if err := store.Delete(c.Request.Context(), old); err != nil {
			logger.Warn(c, "Failed to delete session on logout", zap.Error(err))
		}
	}

	id := session.NewID()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, id, int(ttl.Seconds()), "/", "", secure, true)
	c.Set(SessionIDKey, id)
	return id
}
