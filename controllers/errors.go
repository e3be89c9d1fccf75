package controllers

import (
	"errors"
	"net/http"

	"acl-center/repositories"
	"acl-center/services"

	restful "github.com/emicklei/go-restful/v3"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

// handleServiceError translates service errors to HTTP responses.
func handleServiceError(response *restful.Response, err error) {
	statusCode := http.StatusInternalServerError
	message := "An internal error occurred"

	switch {
	case errors.Is(err, repositories.ErrUnknownRole),
		errors.Is(err, repositories.ErrUnknownPermission),
		errors.Is(err, repositories.ErrUserNotFound):
		statusCode = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, services.ErrSyncInProgress):
		statusCode = http.StatusConflict
		message = err.Error()
	case errors.Is(err, repositories.ErrPersistenceUnavailable):
		statusCode = http.StatusServiceUnavailable
		message = "Authorization store unavailable"
	}

	_ = response.WriteHeaderAndJson(statusCode, ErrorResponse{Message: message}, restful.MIME_JSON)
}
