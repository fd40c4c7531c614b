package middleware

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
)

const maxPeekBytes = 64 << 10

// UserIDFromBody copies the "userId" field of a JSON body into the context
// key "userID" so per-user rate limits apply before the handler runs. The
// body is restored for the handler.
func UserIDFromBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil {
			c.Next()
			return
		}
		body := c.Request.Body
		raw, err := io.ReadAll(io.LimitReader(body, maxPeekBytes))
		c.Request.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(raw), body), body}
		if err != nil {
			c.Next()
			return
		}
		var peek struct {
			UserID string `json:"userId"`
		}
		if json.Unmarshal(raw, &peek) == nil && peek.UserID != "" {
			c.Set("userID", peek.UserID)
		}
		c.Next()
	}
}
