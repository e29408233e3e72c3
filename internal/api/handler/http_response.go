package handler

import (
	"net/http"

	"github.com/bu-wallet-ledger/internal/api/middleware"
	"github.com/gin-gonic/gin"
)

// Response is the JSON envelope shared by every endpoint. Exactly one of
// Data and Error is set.
type Response struct {
	Data          any        `json:"data,omitempty"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	Meta          *MetaInfo  `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MetaInfo describes the page returned by a list endpoint
type MetaInfo struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
	TotalItems int `json:"total_items,omitempty"`
}

func pageMeta(page, perPage int, total int64) *MetaInfo {
	items := int(total)
	pages := 0
	if perPage > 0 {
		pages = (items + perPage - 1) / perPage
	}
	return &MetaInfo{Page: page, PerPage: perPage, TotalPages: pages, TotalItems: items}
}

// respond stamps the request's correlation id on the envelope before writing it
func respond(c *gin.Context, status int, body Response) {
	body.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(status, body)
}

func RespondWithData(c *gin.Context, status int, data any) {
	respond(c, status, Response{Data: data})
}

func RespondWithError(c *gin.Context, status int, code, message string) {
	respond(c, status, Response{Error: &ErrorInfo{Code: code, Message: message}})
}

func RespondWithPaginatedData(c *gin.Context, status int, data any, page, perPage int, total int64) {
	respond(c, status, Response{Data: data, Meta: pageMeta(page, perPage, total)})
}

func RespondOK(c *gin.Context, data any)      { RespondWithData(c, http.StatusOK, data) }
func RespondCreated(c *gin.Context, data any) { RespondWithData(c, http.StatusCreated, data) }

func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// RespondUnauthorized covers handlers reached without a caller identity
func RespondUnauthorized(c *gin.Context) {
	RespondWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Caller identity is required")
}

func RespondNotFound(c *gin.Context, code, message string) {
	RespondWithError(c, http.StatusNotFound, code, message)
}

func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}
