// Package handler exposes the ledger and trade services over HTTP.
package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HeaderActorID carries the id of the user performing a posting
const HeaderActorID = "X-Actor-ID"

// dateLayout is the calendar date format accepted in requests
const dateLayout = "2006-01-02"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with an explicit status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message, c.GetString("request_id")))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// ValidationError sends a 400 response describing binding failures
func (h *BaseHandler) ValidationError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleError maps a service error to a response. Internal errors are
// logged with the request-scoped logger and reported without detail.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	status, code, message := dto.ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.L(c.Request.Context()).Error("Request failed", zap.Error(err))
		_ = c.Error(err)
	}
	h.Error(c, status, code, message)
}

// tenantID returns the tenant resolved by the tenant middleware
func tenantID(c *gin.Context) uuid.UUID {
	return middleware.TenantID(c)
}

// parseUUIDParam parses a path parameter as a UUID. On failure it writes a
// 400 response and returns false.
func (h *BaseHandler) parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidID, "Invalid "+strings.ReplaceAll(name, "_", " "))
		return uuid.Nil, false
	}
	return id, true
}

// actorID reads the acting user from the X-Actor-ID header. On failure it
// writes a 400 response and returns false.
func (h *BaseHandler) actorID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader(HeaderActorID)
	if raw == "" {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeNoActor, "X-Actor-ID header is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeNoActor, "X-Actor-ID must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// optionalActor returns the X-Actor-ID header when present and valid
func optionalActor(c *gin.Context) *uuid.UUID {
	id, err := uuid.Parse(c.GetHeader(HeaderActorID))
	if err != nil || id == uuid.Nil {
		return nil
	}
	return &id
}

// parseDate parses a calendar date in UTC
func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

// parseOptionalDate parses s when it is not empty
func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// parseAsOf reads the as_of query parameter. On failure it writes a 400
// response and returns false.
func (h *BaseHandler) parseAsOf(c *gin.Context) (*time.Time, bool) {
	asOf, err := parseOptionalDate(c.Query("as_of"))
	if err != nil {
		h.BadRequest(c, "as_of must be a date in the form "+dateLayout)
		return nil, false
	}
	return asOf, true
}
