package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderDeskSession  = "X-Desk-Session"
	ContextDeskSession = "desk_session"
)

// DeskSession identifies the front-desk tab a request comes from. Clients
// echo the header back; a request without one is given a fresh id.
func DeskSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderDeskSession)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(ContextDeskSession, id)
		c.Header(HeaderDeskSession, id)
		c.Next()
	}
}

// DeskSessionID returns the id set by DeskSession.
func DeskSessionID(c *gin.Context) string {
	return c.GetString(ContextDeskSession)
}
