package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luccibyey/atelier/internal/domain/models"
	"github.com/luccibyey/atelier/internal/repository/mongodb"
	"github.com/luccibyey/atelier/internal/service/planning"
	"github.com/luccibyey/atelier/internal/service/requirements"
	"github.com/luccibyey/atelier/internal/service/statistics"
	"github.com/luccibyey/atelier/pkg/clients/erpapi"
)

const currentUserKey = "current_user"

// SetCurrentUser stores the request's user on the gin context.
func SetCurrentUser(c *gin.Context, user models.CurrentUser) {
	c.Set(currentUserKey, user)
}

// CurrentUser returns the request's user, or models.Anonymous.
func CurrentUser(c *gin.Context) models.CurrentUser {
	if v, ok := c.Get(currentUserKey); ok {
		if user, ok := v.(models.CurrentUser); ok {
			return user
		}
	}
	return models.Anonymous
}

// statusOf maps a service error onto an HTTP status.
func statusOf(err error) int {
	var apiErr *erpapi.APIError
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, planning.ErrNotValidated),
		errors.Is(err, requirements.ErrNothingToRetry):
		return http.StatusConflict
	case errors.Is(err, mongodb.ErrNoSnapshot):
		return http.StatusNotFound
	case errors.Is(err, statistics.ErrTrendUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr):
		if apiErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.Is(err, erpapi.ErrMalformedResponse),
		errors.Is(err, erpapi.ErrUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError writes err as a JSON error body. Validation errors carry their fields.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusOf(err)

	var fields models.ValidationErrors
	if errors.As(err, &fields) {
		c.JSON(status, gin.H{"error": "validation failed", "fields": fields})
		return
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		logger.Warn("request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// idParam parses a positive integer path parameter, answering 400 otherwise.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func badRequest(c *gin.Context, logger *zap.Logger, err error) {
	logger.Warn("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}
