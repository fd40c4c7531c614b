package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/tapvote/internal/application"
	"github.com/oksasatya/tapvote/internal/domain/entity"
	"github.com/oksasatya/tapvote/pkg/response"
)

// errorKind pairs a domain error with its HTTP status and a stable code.
type errorKind struct {
	err    error
	status int
	code   string
}

var errorKinds = []errorKind{
	{entity.ErrInvalidFormat, http.StatusBadRequest, "invalid_format"},
	{entity.ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{entity.ErrConflict, http.StatusConflict, "conflict"},
	{entity.ErrNotFound, http.StatusNotFound, "not_found"},
	{entity.ErrDailyLimitReached, http.StatusTooManyRequests, "daily_limit_reached"},
	{entity.ErrInsufficientEnergy, http.StatusBadRequest, "insufficient_energy"},
	{entity.ErrInsufficientFunds, http.StatusPaymentRequired, "insufficient_funds"},
	{entity.ErrAlreadyVoted, http.StatusConflict, "already_voted"},
	{entity.ErrOptionNotFound, http.StatusNotFound, "option_not_found"},
	{application.ErrStorage, http.StatusServiceUnavailable, "storage_unavailable"},
}

// StatusFor maps err to an HTTP status and error code.
func StatusFor(err error) (int, string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status, k.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// writeError renders err in the response envelope. Storage and unknown
// errors get a generic message; domain errors carry their own.
func writeError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		msg = "service temporarily unavailable, try again"
	case http.StatusInternalServerError:
		msg = "server error"
	}
	response.Error[any](c, status, msg, gin.H{"code": code})
}
