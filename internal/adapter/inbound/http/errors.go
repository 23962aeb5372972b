package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	domainerror "github.com/codecrunchr/credentials/internal/domain/error"
)

// errorResponse is the JSON body returned for every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeError maps a domain error onto an HTTP response. Unclassified errors
// become opaque 500s so internals never leak to callers.
func writeError(c echo.Context, err error) error {
	var derr *domainerror.Error
	if !errors.As(err, &derr) {
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Error: "internal server error",
		})
	}

	return c.JSON(statusForKind(derr.Kind), errorResponse{
		Error: derr.Message,
		Code:  string(derr.Code),
	})
}

func statusForKind(kind domainerror.Kind) int {
	switch kind {
	case domainerror.KindUnauthorized, domainerror.KindReauthRequired:
		return http.StatusUnauthorized
	case domainerror.KindValidation:
		return http.StatusBadRequest
	case domainerror.KindNotFound:
		return http.StatusNotFound
	case domainerror.KindUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
