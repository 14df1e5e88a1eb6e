package handlers

import (
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/devanmodhavadiya189/chatapp/internal/filestore"
	"github.com/devanmodhavadiya189/chatapp/internal/middleware"
)

// FileHandler handles message attachment uploads.
type FileHandler struct {
	files *filestore.Service
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(files *filestore.Service) *FileHandler {
	return &FileHandler{files: files}
}

// Upload handles POST /api/messages/upload. The returned file reference is
// embedded by clients in a follow-up send call.
func (h *FileHandler) Upload(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil || user.ID == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "No file uploaded"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		slog.Error("Failed to open uploaded file", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Failed to upload file"})
	}
	defer src.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	ref, err := h.files.UploadFile(c.Request().Context(), user.ID.String(), fileHeader.Filename, mimeType, src)
	if err != nil {
		slog.Error("Failed to store uploaded file", "user_id", user.ID.String(), "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Failed to upload file"})
	}

	return c.JSON(http.StatusOK, UploadFileResponse{
		Message: "File uploaded successfully",
		File:    ref,
	})
}

// Download handles GET /uploads/*, streaming a stored attachment back by
// the storage path embedded in its FileRef URL.
func (h *FileHandler) Download(c echo.Context) error {
	storagePath := c.Param("*")
	if storagePath == "" {
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: "File not found"})
	}

	f, err := h.files.Open(c.Request().Context(), storagePath)
	if err != nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: "File not found"})
	}
	defer f.Close()

	mimeType := mime.TypeByExtension(filepath.Ext(storagePath))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return c.Stream(http.StatusOK, mimeType, f)
}
