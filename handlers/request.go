package handlers

import (
	"medislot/middleware"
	"medislot/utils"

	"github.com/gin-gonic/gin"
)

// callerID returns the authenticated account, writing a 401 when there is none.
func callerID(c *gin.Context) (string, bool) {
	id := c.GetString(middleware.ContextUserID)
	if id == "" {
		utils.JSONError(c, utils.KindUnauthorized, "User not authenticated", "")
		return "", false
	}
	return id, true
}

// bindJSON binds the body into dst, writing a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.JSONError(c, utils.KindValidation, "Invalid request payload", err.Error())
		return false
	}
	return true
}
