package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-records-api/internal/middleware"
	"github.com/noah-isme/college-records-api/internal/models"
	"github.com/noah-isme/college-records-api/internal/service"
	appErrors "github.com/noah-isme/college-records-api/pkg/errors"
	"github.com/noah-isme/college-records-api/pkg/response"
)

type importService interface {
	ImportReader(ctx context.Context, kind models.ImportKind, r io.Reader) (*models.ImportReport, error)
}

type exportService interface {
	Export(ctx context.Context, kind models.ImportKind, format models.ExportFormat, courseID int64) (*service.ExportFile, error)
}

// TransferHandler serves CSV imports and CSV/PDF exports.
type TransferHandler struct {
	imports        importService
	exports        exportService
	maxUploadBytes int64
}

func NewTransferHandler(imports importService, exports exportService, maxUploadBytes int64) *TransferHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 << 20
	}
	return &TransferHandler{imports: imports, exports: exports, maxUploadBytes: maxUploadBytes}
}

// Import godoc
// @Summary Import CSV
// @Description Reconcile a CSV file into the store. Rows are find-or-create so a file can be replayed.
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param kind path string true "users, students, faculty, courses or enrollments"
// @Param file formData file true "CSV file"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /imports/{kind} [post]
func (h *TransferHandler) Import(c *gin.Context) {
	kind := models.ImportKind(strings.ToLower(c.Param("kind")))
	if !kind.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown import kind "+strconv.Quote(string(kind))))
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	header, err := c.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			response.Error(c, appErrors.ErrPayloadTooLarge)
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "multipart field 'file' is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload"))
		return
	}
	defer file.Close()

	report, err := h.imports.ImportReader(c.Request.Context(), kind, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "filename", header.Filename)
	response.JSON(c, http.StatusOK, report, nil, middleware.Meta(c))
}

// Export godoc
// @Summary Export data
// @Description CSV columns match the import columns of the same kind
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param kind path string true "users, students, faculty, courses, enrollments or attendance"
// @Param format query string false "csv (default) or pdf"
// @Param course_id query int false "Required for attendance"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 501 {object} response.Envelope
// @Router /exports/{kind} [get]
func (h *TransferHandler) Export(c *gin.Context) {
	format, ok := models.ParseExportFormat(c.Query("format"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	var courseID int64
	if raw := c.Query("course_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "course_id must be a positive integer"))
			return
		}
		courseID = id
	}

	kind := models.ImportKind(strings.ToLower(c.Param("kind")))
	file, err := h.exports.Export(c.Request.Context(), kind, format, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
