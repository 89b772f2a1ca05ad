package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"docqa-backend/internal/app"
	"docqa-backend/internal/transport/http/response"
)

type errorMapping struct {
	err    error
	status int
	code   int
}

// Service errors are matched in order; the first hit decides status and code.
var errorMappings = []errorMapping{
	{app.ErrInvalidInput, http.StatusBadRequest, response.CodeBadRequest},
	{app.ErrPasswordMismatch, http.StatusBadRequest, response.CodePasswordMismatch},
	{app.ErrInactiveUser, http.StatusBadRequest, response.CodeInactiveUser},
	{app.ErrNoOrganization, http.StatusBadRequest, response.CodeNoOrganization},
	{app.ErrUnsupportedFileType, http.StatusBadRequest, response.CodeUnsupportedFileType},
	{app.ErrFileTooLarge, http.StatusBadRequest, response.CodeFileTooLarge},
	{app.ErrConfirmationRequired, http.StatusBadRequest, response.CodeConfirmationRequired},
	{app.ErrOrganizationNameMismatch, http.StatusBadRequest, response.CodeOrganizationNameMismatch},
	{app.ErrInvalidCredential, http.StatusUnauthorized, response.CodeInvalidCredentials},
	{app.ErrUserNotFound, http.StatusUnauthorized, response.CodeUnauthorized},
	{app.ErrForbidden, http.StatusForbidden, response.CodeForbidden},
	{app.ErrOrganizationNotFound, http.StatusNotFound, response.CodeOrganizationNotFound},
	{app.ErrDocumentNotFound, http.StatusNotFound, response.CodeDocumentNotFound},
	{app.ErrUsernameExists, http.StatusConflict, response.CodeUsernameExists},
	{app.ErrEmailExists, http.StatusConflict, response.CodeEmailExists},
	{app.ErrDocumentExists, http.StatusConflict, response.CodeDocumentExists},
	{app.ErrOrganizationExists, http.StatusConflict, response.CodeOrganizationExists},
	{app.ErrAlreadyInOrganization, http.StatusConflict, response.CodeAlreadyInOrganization},
	{app.ErrIngestionInProgress, http.StatusConflict, response.CodeIngestionInProgress},
	{app.ErrEmbeddingDimensionMismatch, http.StatusInternalServerError, response.CodeEmbeddingDimensionMismatch},
	{app.ErrExtraction, http.StatusInternalServerError, response.CodeExtraction},
	{app.ErrUpstream, http.StatusInternalServerError, response.CodeUpstream},
}

// writeError converts a service error into the response envelope. Server-side
// failures are logged here, once; unknown errors are reported as fallback.
func writeError(c *gin.Context, err error, fallback string) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.err) {
			continue
		}
		if m.status >= http.StatusInternalServerError {
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg(fallback)
		}
		response.Error(c, m.status, m.code, err.Error())
		return
	}

	zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg(fallback)
	response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
}
