package documents

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"procurement-backend/internal/shared/metrics"
	"procurement-backend/internal/shared/server/middleware"
	"procurement-backend/internal/shared/server/respond"
	"procurement-backend/internal/shared/util"
)

// Handler exposes the document pipeline over HTTP.
type Handler struct {
	Service *Service
}

// NewHandler constructs the HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

// Register mounts the document routes on the given group.
func (h *Handler) Register(rg *gin.RouterGroup, heavy gin.HandlerFunc) {
	rg.POST("/documents", h.Upload)
	rg.GET("/documents", h.List)
	rg.GET("/documents/search", h.Search)
	rg.GET("/documents/:id", h.Get)
	rg.PATCH("/documents/:id", h.Patch)
	rg.DELETE("/documents/:id", h.Delete)
	rg.GET("/documents/:id/stream", h.Stream)

	if heavy == nil {
		heavy = func(c *gin.Context) { c.Next() }
	}
	rg.POST("/documents/:id/classify", heavy, h.Classify)
	rg.POST("/documents/:id/analyze", heavy, h.Analyze)
}

// Upload handles POST /documents.
func (h *Handler) Upload(c *gin.Context) {
	maxBytes := h.Service.maxUploadBytes()
	// Multipart framing overhead on top of the file cap.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1<<20)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "File size exceeds 20MB limit", nil)
			metrics.IncUploadRejected("size")
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file field is required", nil)
		metrics.IncUploadRejected("missing_file")
		return
	}
	defer file.Close()

	requester := middleware.RequesterFromContext(c)
	doc, err := h.Service.Upload(c.Request.Context(), UploadInput{
		OwnerID:      requester.ID,
		ProjectID:    strings.TrimSpace(c.PostForm("projectId")),
		SOWID:        strings.TrimSpace(c.PostForm("sowId")),
		Filename:     header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		SizeBytes:    header.Size,
		DocumentType: strings.TrimSpace(c.PostForm("documentType")),
		Notes:        strings.TrimSpace(c.PostForm("notes")),
		Body:         file,
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			respond.Error(c, http.StatusBadRequest, "validation_error", verr.Error(), nil)
			metrics.IncUploadRejected(rejectionReason(verr))
			return
		}
		respond.Error(c, http.StatusInternalServerError, "upload_failed", "could not store document", nil)
		return
	}

	c.Set("documentId", doc.ID)
	respond.Created(c, gin.H{"document": toResponse(doc)})
}

// List handles GET /documents with paging, filters and X-Total-Count.
func (h *Handler) List(c *gin.Context) {
	params := ListParams{
		Limit:        intQuery(c, "limit", 20),
		Offset:       intQuery(c, "offset", 0),
		Sort:         c.Query("sort"),
		Order:        c.Query("order"),
		Status:       c.Query("status"),
		DocumentType: typeQuery(c),
		ProjectID:    c.Query("projectId"),
		SOWID:        c.Query("sowId"),
	}
	if params.Status != "" && !ValidStatus(params.Status) {
		respond.Error(c, http.StatusBadRequest, "validation_error", fmt.Sprintf("unknown status %q", params.Status), nil)
		return
	}

	docs, total, err := h.Service.List(c.Request.Context(), params)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "list_failed", "could not list documents", nil)
		return
	}

	c.Header("X-Total-Count", strconv.Itoa(total))
	respond.OK(c, gin.H{"documents": toResponses(docs), "total": total})
}

// Search handles GET /documents/search.
func (h *Handler) Search(c *gin.Context) {
	params := SearchParams{
		Query:        c.Query("q"),
		DocumentType: typeQuery(c),
		Status:       c.Query("status"),
		Limit:        intQuery(c, "limit", 0),
	}

	docs, err := h.Service.Search(c.Request.Context(), params)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "search_failed", "could not search documents", nil)
		return
	}
	respond.OK(c, gin.H{"documents": toResponses(docs), "count": len(docs)})
}

// Get handles GET /documents/:id.
func (h *Handler) Get(c *gin.Context) {
	doc, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "get_failed", "could not fetch document")
		return
	}
	respond.OK(c, gin.H{"document": toResponse(doc)})
}

type patchRequest struct {
	DocumentType *string   `json:"documentType"`
	Tags         *[]string `json:"tags"`
	Notes        *string   `json:"notes"`
}

// Patch handles PATCH /documents/:id.
func (h *Handler) Patch(c *gin.Context) {
	var req patchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}

	doc, err := h.Service.Patch(c.Request.Context(), c.Param("id"), UpdateFields{
		DocumentType: req.DocumentType,
		Tags:         req.Tags,
		Notes:        req.Notes,
	})
	if err != nil {
		if errors.Is(err, ErrNoFields) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "no updatable fields provided", nil)
			return
		}
		h.writeError(c, err, "update_failed", "could not update document")
		return
	}
	respond.OK(c, gin.H{"document": toResponse(doc)})
}

// Delete handles DELETE /documents/:id.
func (h *Handler) Delete(c *gin.Context) {
	doc, err := h.Service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "delete_failed", "could not delete document")
		return
	}
	respond.OK(c, gin.H{"deleted": true, "document": toResponse(doc)})
}

// Classify handles POST /documents/:id/classify.
func (h *Handler) Classify(c *gin.Context) {
	c.Set("documentId", c.Param("id"))
	doc, res, err := h.Service.Classify(c.Request.Context(), c.Param("id"))
	if err != nil {
		var perr *ProcessingError
		if errors.As(err, &perr) {
			respond.Error(c, http.StatusInternalServerError, "classification_failed", "classification did not complete", gin.H{"reason": perr.Err.Error()})
			return
		}
		h.writeError(c, err, "classification_failed", "could not classify document")
		return
	}
	c.Set("statusTransition", "classifying->"+string(doc.Status))
	respond.OK(c, gin.H{"document": toResponse(doc), "classification": res})
}

// Analyze handles POST /documents/:id/analyze.
func (h *Handler) Analyze(c *gin.Context) {
	c.Set("documentId", c.Param("id"))
	doc, res, err := h.Service.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		var perr *ProcessingError
		if errors.As(err, &perr) {
			respond.Error(c, http.StatusInternalServerError, "analysis_failed", "analysis did not complete", gin.H{"reason": perr.Err.Error()})
			return
		}
		h.writeError(c, err, "analysis_failed", "could not analyze document")
		return
	}
	c.Set("statusTransition", "analyzing->"+string(doc.Status))
	respond.OK(c, gin.H{"document": toResponse(doc), "analysis": res})
}

// Stream handles GET /documents/:id/stream. The body is copied straight from
// the store so a slow client applies backpressure instead of buffering.
func (h *Handler) Stream(c *gin.Context) {
	c.Set("documentId", c.Param("id"))
	requester := middleware.RequesterFromContext(c)
	res, err := h.Service.Stream(c.Request.Context(), c.Param("id"), Requester{
		ID:    requester.ID,
		Admin: requester.Admin,
	})
	if err != nil {
		h.writeError(c, err, "stream_failed", "could not stream document")
		return
	}
	defer res.Body.Close()

	safeName, err := util.SanitizeFileName(res.Filename)
	if err != nil {
		safeName = "document"
	}

	c.DataFromReader(
		http.StatusOK,
		res.SizeBytes,
		res.ContentType,
		res.Body,
		map[string]string{
			"Content-Disposition": fmt.Sprintf("inline; filename=%q", safeName),
		},
	)
}

// writeError maps domain errors onto the standard response envelope.
func (h *Handler) writeError(c *gin.Context, err error, fallbackCode, fallbackMsg string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, "validation_error", verr.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Document not found", nil)
	case errors.Is(err, ErrFileMissing):
		respond.Error(c, http.StatusNotFound, "not_found", "Document file not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "Access denied", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, fallbackCode, fallbackMsg, nil)
	}
}

func rejectionReason(verr *ValidationError) string {
	msg := verr.Error()
	switch {
	case strings.Contains(msg, "file type"):
		return "mime"
	case strings.Contains(msg, "20MB"):
		return "size"
	case strings.Contains(msg, "empty"):
		return "empty"
	default:
		return "other"
	}
}

// typeQuery accepts both the short and the long form of the type filter.
func typeQuery(c *gin.Context) string {
	if v := c.Query("type"); v != "" {
		return v
	}
	return c.Query("documentType")
}

func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
