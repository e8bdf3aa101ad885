package http_common

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	usecase_room "github.com/humanbelnik/storypoker/internal/usecase/room"
)

const StaleHeader = "X-View-Stale"

type ErrorResponse struct {
	Message string `json:"message"`
}

// BearerToken extracts the credential from the Authorization header.
func BearerToken(ctx *gin.Context) string {
	h := ctx.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func Status(err error) (int, string) {
	switch {
	case errors.Is(err, usecase_room.ErrResourceNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, usecase_room.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, usecase_room.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, usecase_room.ErrConflict):
		return http.StatusConflict, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func AbortWithError(ctx *gin.Context, err error) {
	status, message := Status(err)
	ctx.AbortWithStatusJSON(status, ErrorResponse{
		Message: message,
	})
}

// MarkStale tells the caller that other viewers may not have seen the change.
func MarkStale(ctx *gin.Context, stale bool) {
	if stale {
		ctx.Header(StaleHeader, "1")
	}
}
