package handler

import (
	"net/http"

	"pharmacy-backend/pkg/apperror"
	"pharmacy-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// doctorIDFrom reads the authenticated doctor id set by the auth middleware.
func doctorIDFrom(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString("doctorID")
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Doctor identity missing"))
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service errors onto the API envelope via their AppError code.
func respondError(c *gin.Context, err error) {
	appErr := apperror.Get(err)
	c.JSON(appErr.Code, response.Error(appErr.Code, appErr.Message))
}
