package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rentalhub/pkg/logger"
	"rentalhub/pkg/models"
)

const callerKey = "caller"

// authenticate resolves the bearer token into a models.Caller.
func (h *Handler) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.Fields(c.GetHeader("Authorization"))
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "missing or malformed authorization header", Code: "unauthorized"})
			return
		}

		caller, err := h.tokens.Parse(parts[1])
		if err != nil {
			h.log.Debug("rejected token", logger.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "invalid or expired token", Code: "unauthorized"})
			return
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

func callerFrom(c *gin.Context) models.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(models.Caller); ok {
			return caller
		}
	}
	return models.Caller{}
}
