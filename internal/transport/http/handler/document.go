package handler

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/app"
	"docqa-backend/internal/model"
	"docqa-backend/internal/transport/http/response"
)

type DocumentService interface {
	Upload(ctx context.Context, input app.UploadInput) (*app.UploadResult, error)
	List(ctx context.Context, user *model.User) ([]app.DocumentView, error)
	Open(ctx context.Context, user *model.User, fileName string) (io.ReadCloser, *model.Document, error)
	Delete(ctx context.Context, user *model.User, fileName string, confirm bool) error
	Reindex(ctx context.Context, user *model.User, fileName, requestID string) (*app.ReindexOutcome, error)
}

// multipartOverhead leaves room for boundaries and part headers on top of the file itself.
const multipartOverhead = 64 << 10

type DocumentHandler struct {
	docService     DocumentService
	maxUploadBytes int64
}

// NewDocumentHandler caps upload request bodies at maxUploadBytes plus multipart
// framing; zero disables the cap.
func NewDocumentHandler(docService DocumentService, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{docService: docService, maxUploadBytes: maxUploadBytes}
}

// Upload accepts a multipart form with "file" and an optional "confirm" flag
// (form field or query) that allows replacing a file of the same name.
func (h *DocumentHandler) Upload(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, app.ErrFileTooLarge, "upload failed")
			return
		}
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	result, err := h.docService.Upload(c.Request.Context(), app.UploadInput{
		Uploader:    user,
		FileName:    file.Filename,
		Content:     f,
		Size:        file.Size,
		ContentType: file.Header.Get("Content-Type"),
		Confirm:     confirmFlag(c),
	})
	if err != nil {
		writeError(c, err, "upload failed")
		return
	}
	response.Status(c, http.StatusCreated, result)
}

func (h *DocumentHandler) MyDocuments(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	docs, err := h.docService.List(c.Request.Context(), user)
	if err != nil {
		writeError(c, err, "list documents failed")
		return
	}
	response.OK(c, gin.H{"documents": docs})
}

func (h *DocumentHandler) Download(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	rc, doc, err := h.docService.Open(c.Request.Context(), user, c.Query("filename"))
	if err != nil {
		writeError(c, err, "download failed")
		return
	}
	defer rc.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName})
	c.DataFromReader(http.StatusOK, -1, "application/octet-stream", rc, map[string]string{
		"Content-Disposition": disposition,
	})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	name := c.Query("filename")
	if err := h.docService.Delete(c.Request.Context(), user, name, confirmFlag(c)); err != nil {
		writeError(c, err, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted": name})
}

// Reindex answers 202 when the job was queued and 200 when it ran inline.
func (h *DocumentHandler) Reindex(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	out, err := h.docService.Reindex(c.Request.Context(), user, c.Query("filename"), c.GetString(response.RequestIDKey))
	if err != nil {
		writeError(c, err, "reindex failed")
		return
	}
	status := http.StatusOK
	if out.Queued {
		status = http.StatusAccepted
	}
	response.Status(c, status, out)
}

func confirmFlag(c *gin.Context) bool {
	raw := c.Query("confirm")
	if raw == "" {
		raw = c.PostForm("confirm")
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && v
}
