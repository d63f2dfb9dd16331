package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// apiErrorFor maps the service error taxonomy onto the JSON error envelope.
func apiErrorFor(err error, message string) *utils.APIError {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, message, err.Error())
	case errors.Is(err, services.ErrValidation):
		return utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, message, err.Error())
	case errors.Is(err, services.ErrInvalidStateTransition):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidStateTransition, message, err.Error())
	case errors.Is(err, services.ErrConflict):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, message, err.Error())
	default:
		return utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, message, "Internal error")
	}
}

// respondServiceError logs err under op and writes the mapped error response.
func respondServiceError(c *gin.Context, err error, op, message string) {
	utils.LogError(err, op)
	utils.RespondWithError(c, apiErrorFor(err, message))
}

// parseIDParam reads a positive int64 path parameter, responding 400 when it is malformed.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format.", "must be a positive integer"))
		return 0, false
	}
	return id, true
}

// bindJSON binds the request body, responding 400 on failure.
func bindJSON(c *gin.Context, op string, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.LogError(err, op+": Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload.", err.Error()))
		return false
	}
	return true
}

// optionalInt64Query parses an optional int64 query parameter into dst.
func optionalInt64Query(c *gin.Context, name string, dst **int64) bool {
	raw := c.Query(name)
	if raw == "" {
		return true
	}
	v, err := utils.StrToInt64(raw)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format.", err.Error()))
		return false
	}
	*dst = &v
	return true
}
