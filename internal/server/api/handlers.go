package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"shelf/internal/server/auth"
	"shelf/internal/server/database"
	"shelf/internal/server/service"

	"github.com/labstack/echo/v4"
)

// Handler contains the HTTP handlers for the library API.
type Handler struct {
	svc  *service.Library
	auth *auth.Authenticator
	db   *database.DB
}

// NewHandler creates a new handler with its dependencies.
func NewHandler(svc *service.Library, authn *auth.Authenticator, db *database.DB) *Handler {
	return &Handler{svc: svc, auth: authn, db: db}
}

type loginRequest struct {
	Password string `json:"password"`
}

// HandleLogin handles POST /api/auth/login.
func (h *Handler) HandleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Password is required"})
	}

	if !h.auth.VerifyPassword(req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid password"})
	}

	token, err := h.auth.IssueToken()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":   "Login successful",
		"token":     token,
		"expiresIn": fmt.Sprintf("%dh", int(h.auth.TTL().Hours())),
	})
}

// HandleVerify handles GET /api/auth/verify.
// Reports token validity; a bad token is a negative answer, not an error.
func (h *Handler) HandleVerify(c echo.Context) error {
	token := bearerToken(c.Request())
	if token == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"valid": false})
	}

	if _, err := h.auth.Authenticate(token); err != nil {
		return c.JSON(http.StatusOK, echo.Map{"valid": false})
	}
	return c.JSON(http.StatusOK, echo.Map{"valid": true})
}

// HandleList handles GET /api/pdfs.
func (h *Handler) HandleList(c echo.Context) error {
	docs, err := h.svc.List(c.Request().Context())
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, docs)
}

// HandleGet handles GET /api/pdfs/:id.
func (h *Handler) HandleGet(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "PDF not found"})
	}

	doc, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

// HandleFile handles GET /api/pdfs/file/:filename.
// Streams the blob inline; the view counter bump is best-effort.
func (h *Handler) HandleFile(c echo.Context) error {
	filename := c.Param("filename")

	path, err := h.svc.OpenFile(c.Request().Context(), filename)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "File not found"})
		}
		return mapServiceError(c, err)
	}

	return c.Inline(path, filename)
}

// HandleDownload handles GET /api/pdfs/download/:filename.
// Streams the blob as an attachment named after the sanitized title.
func (h *Handler) HandleDownload(c echo.Context) error {
	filename := c.Param("filename")

	path, downloadName, err := h.svc.OpenDownload(c.Request().Context(), filename)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "File not found"})
		}
		return mapServiceError(c, err)
	}

	return c.Attachment(path, downloadName)
}

// HandleUpload handles POST /api/pdfs/upload (admin only).
// Accepts a multipart form with a "pdf" file field, a required "title" and an
// optional "description".
func (h *Handler) HandleUpload(c echo.Context) error {
	fileHeader, err := c.FormFile("pdf")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "No file uploaded"})
	}

	if ct := fileHeader.Header.Get("Content-Type"); ct != "application/pdf" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Only PDF files are allowed"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to read uploaded file"})
	}
	defer src.Close()

	doc, err := h.svc.Upload(
		c.Request().Context(),
		c.FormValue("title"),
		c.FormValue("description"),
		src,
		fileHeader.Size,
	)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "PDF uploaded successfully",
		"pdf":     doc,
	})
}

// HandleDelete handles DELETE /api/pdfs/:id (admin only).
func (h *Handler) HandleDelete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "PDF not found"})
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "PDF deleted successfully"})
}

// HandleHealth handles GET /health.
// Returns the health status of the server, including database connectivity.
func (h *Handler) HandleHealth(c echo.Context) error {
	status := "healthy"
	dbStatus := "connected"

	if err := h.db.HealthCheck(c.Request().Context()); err != nil {
		status = "degraded"
		dbStatus = fmt.Sprintf("error: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":   status,
		"database": dbStatus,
	})
}

// HandleStats handles GET /api/stats.
// Returns aggregate library statistics.
func (h *Handler) HandleStats(c echo.Context) error {
	stats, err := h.svc.GetStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve stats"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_pdfs":         stats.TotalDocuments,
		"total_views":        stats.TotalViews,
		"total_downloads":    stats.TotalDownloads,
		"storage_used_bytes": stats.StorageUsed,
		"storage_used_human": humanizeBytes(stats.StorageUsed),
	})
}

// mapServiceError translates service-layer errors into HTTP responses.
// Unexpected errors become a generic 500; internal detail stays in the logs.
func mapServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "PDF not found"})
	case errors.Is(err, service.ErrTitleRequired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Title is required"})
	case errors.Is(err, service.ErrNotPDF):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Only PDF files are allowed"})
	case errors.Is(err, service.ErrFileTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{
			"error": "file exceeds maximum allowed size",
		})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
}

// humanizeBytes formats a byte count into a human-readable string.
func humanizeBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
