package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"document-classify-service/metrics"
	"document-classify-service/models"
	"document-classify-service/session"
	"document-classify-service/version"
)

const sessionCookie = "dcs_session"

// Handlers represents the HTTP handlers
type Handlers struct {
	sessions *session.Manager
}

// NewHandlers creates new HTTP handlers
func NewHandlers(sessions *session.Manager) *Handlers {
	return &Handlers{sessions: sessions}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "document-classify-service",
		"provider": h.sessions.ProviderName(),
		"version":  version.Get("document-classify-service"),
	})
}

// session resolves the caller's session from the cookie, minting a new
// session ID on first contact.
func (h *Handlers) session(c *gin.Context) *session.Session {
	id, err := c.Cookie(sessionCookie)
	if err != nil || id == "" {
		id = uuid.NewString()
		c.SetCookie(sessionCookie, id, 0, "/", "", false, true)
	}
	return h.sessions.Get(id)
}

type dataURLUpload struct {
	Filename string `json:"filename"`
	DataURL  string `json:"data_url" binding:"required"`
}

// UploadDocument handles file intake: a multipart "document" part or a
// JSON body carrying a data: URL. Only images are accepted.
func (h *Handlers) UploadDocument(c *gin.Context) {
	s := h.session(c)

	content, declaredMime, filename, err := readUpload(c)
	if err == nil {
		err = s.Select(content, declaredMime, filename)
	}
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		log.WithField("session", s.ID).WithError(err).Warn("document rejected")
		c.JSON(statusForError(err), gin.H{
			"error": models.UserMessage(err),
			"state": s.Snapshot(),
		})
		return
	}

	metrics.UploadsTotal.WithLabelValues("accepted").Inc()
	c.JSON(http.StatusOK, gin.H{"state": s.Snapshot()})
}

// readUpload extracts the raw bytes and declared MIME type from either
// upload shape. A failed read of the file content is an encoding failure.
func readUpload(c *gin.Context) ([]byte, string, string, error) {
	fileHeader, err := c.FormFile("document")
	if err == nil {
		f, err := fileHeader.Open()
		if err != nil {
			return nil, "", "", models.NewEncodingError("failed to read file content", err)
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			return nil, "", "", models.NewEncodingError("failed to read file content", err)
		}
		return content, fileHeader.Header.Get("Content-Type"), fileHeader.Filename, nil
	}

	var body dataURLUpload
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, "", "", models.NewValidationError("no document in request")
	}
	content, mime, err := session.DecodeDataURL(body.DataURL)
	if err != nil {
		return nil, "", "", err
	}
	return content, mime, body.Filename, nil
}

// Classify runs one classification attempt for the caller's session and
// responds once it settles.
func (h *Handlers) Classify(c *gin.Context) {
	s := h.session(c)

	result, err := h.sessions.Classify(c.Request.Context(), s)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"error": models.UserMessage(err),
			"state": s.Snapshot(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result": result,
		"state":  s.Snapshot(),
	})
}

// GetState returns the session's presentation state snapshot.
func (h *Handlers) GetState(c *gin.Context) {
	s := h.session(c)
	c.JSON(http.StatusOK, gin.H{"state": s.Snapshot()})
}

// GetPreview serves the currently selected document bytes.
func (h *Handlers) GetPreview(c *gin.Context) {
	s := h.session(c)
	content, mime, ok := s.Preview()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no document selected"})
		return
	}
	c.Data(http.StatusOK, mime, content)
}

// statusForError maps the attempt error taxonomy onto HTTP status codes.
// Locally-detected problems are client errors; provider and response-shape
// failures surface as bad gateway.
func statusForError(err error) int {
	var ce *models.ClassifyError
	if !errors.As(err, &ce) {
		return http.StatusInternalServerError
	}
	switch ce.Kind {
	case models.ErrValidation:
		if ce.Message == session.MsgAttemptInFlight || ce.Message == session.MsgSelectionBlocked {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	case models.ErrEncoding:
		return http.StatusBadRequest
	case models.ErrTransport, models.ErrFormat:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
