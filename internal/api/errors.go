package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/property-rental-server/internal/apperrors"
	"github.com/rongwang/property-rental-server/internal/models"
	"github.com/rongwang/property-rental-server/internal/utils"
	"github.com/sirupsen/logrus"
)

const msgInternal = "An unexpected error occurred"

// respondError maps err onto the HTTP error contract and aborts the
// request. input is echoed back with validation failures so clients can
// redisplay the form; pass nil when there is nothing safe to echo.
func respondError(c *gin.Context, err error, input interface{}) {
	body := models.ErrorResponse{}
	var status int

	verr, isValidation := apperrors.AsValidation(err)
	if isValidation {
		body.Details = verr.Fields
	}

	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		// Login failures also carry the offending field.
		status, body.Code, body.Message = http.StatusUnauthorized, apperrors.CodeUnauthorized, "Authentication required"
	case isValidation:
		status, body.Code, body.Message = http.StatusBadRequest, apperrors.CodeValidation, "Invalid input"
		body.Input = input
	case errors.Is(err, apperrors.ErrForbidden):
		status, body.Code, body.Message = http.StatusForbidden, apperrors.CodeForbidden, "You do not have access to this resource"
	case errors.Is(err, apperrors.ErrNotFound):
		status, body.Code, body.Message = http.StatusNotFound, apperrors.CodeNotFound, "Resource not found"
	case errors.Is(err, apperrors.ErrConflict):
		status, body.Code, body.Message = http.StatusConflict, apperrors.CodeConflict, "The record was changed by another user. Reload it and try again."
	case errors.Is(err, apperrors.ErrInUse):
		status, body.Code, body.Message = http.StatusConflict, apperrors.CodeInUse, "The record is still referenced and cannot be deleted"
	case errors.Is(err, apperrors.ErrInvalidTransition):
		status, body.Code, body.Message = http.StatusConflict, apperrors.CodeInvalidTransition, "The requested status change is not allowed"
	default:
		status, body.Code, body.Message = http.StatusInternalServerError, apperrors.CodeInternal, msgInternal
	}

	fields := logrus.Fields{
		"request_id": requestID(c),
		"status":     status,
		"error":      err.Error(),
	}
	if status >= http.StatusInternalServerError {
		utils.Logger.WithFields(fields).Error(msgInternal)
	} else {
		utils.Logger.WithFields(fields).Debug(body.Message)
	}

	c.AbortWithStatusJSON(status, body)
}

// respondInvalidPayload reports a body or query that could not be decoded.
func respondInvalidPayload(c *gin.Context, err error) {
	utils.Logger.WithFields(logrus.Fields{
		"request_id": requestID(c),
		"error":      err.Error(),
	}).Debug("Invalid request payload")

	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
		Code:    apperrors.CodeInvalidPayload,
		Message: "Invalid request payload",
	})
}
