package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/gabriel-vasile/mimetype"

	"document-classify-service/llm"
	"document-classify-service/metrics"
	"document-classify-service/models"
	"document-classify-service/parser"
)

// User-facing messages for locally-detected intake problems.
const (
	MsgNotAnImage       = "not an image"
	MsgNoDocument       = "Please upload a document first."
	MsgAttemptInFlight  = "A classification is already in progress."
	MsgSelectionBlocked = "Cannot replace the document while a classification is in progress."
)

// State is a snapshot of a session's presentation state. Exactly one of
// the loading/result/error facets is populated at a time.
type State struct {
	Status      models.Status                `json:"status"`
	HasDocument bool                         `json:"has_document"`
	Filename    string                       `json:"filename,omitempty"`
	MimeType    string                       `json:"mime_type,omitempty"`
	PreviewPath string                       `json:"preview_path,omitempty"`
	Result      *models.ClassificationResult `json:"result,omitempty"`
	Error       string                       `json:"error,omitempty"`
}

// Session tracks one user's document and classification state.
type Session struct {
	ID string

	mu          sync.Mutex
	doc         *models.UploadedDocument
	status      models.Status
	result      *models.ClassificationResult
	errMsg      string
	classifying bool
	lastSeen    time.Time
}

// Select validates and installs a newly chosen file. Only image content is
// accepted; anything else fails without touching the current document. On
// success the previous document, result and error are discarded and the
// preview now resolves to the new content.
func (s *Session) Select(content []byte, declaredMime, filename string) error {
	mime := effectiveImageMime(content, declaredMime)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()

	if s.classifying {
		return models.NewValidationError(MsgSelectionBlocked)
	}

	if mime == "" {
		// Surface the error but leave the prior document and result alone.
		s.errMsg = MsgNotAnImage
		return models.NewValidationError(MsgNotAnImage)
	}

	// Replacing the document releases the superseded preview content.
	s.doc = &models.UploadedDocument{
		Content:    content,
		MimeType:   mime,
		Filename:   filename,
		UploadedAt: time.Now(),
	}
	s.result = nil
	s.errMsg = ""
	s.status = models.StatusReady
	return nil
}

// effectiveImageMime resolves the MIME type to attach to the document,
// trusting the declared type when it is an image and falling back to
// content sniffing. Empty means the input is not an image.
func effectiveImageMime(content []byte, declared string) string {
	declared = strings.TrimSpace(strings.SplitN(declared, ";", 2)[0])
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	if detected := mimetype.Detect(content); strings.HasPrefix(detected.String(), "image/") {
		return detected.String()
	}
	return ""
}

// Classify runs one attempt against the provider: encode, request, parse,
// validate. It blocks until the attempt settles. The session shows the
// classifying status for exactly that interval, and a second invocation
// (or a file selection) during it is rejected.
func (m *Manager) Classify(ctx context.Context, s *Session) (*models.ClassificationResult, error) {
	s.mu.Lock()
	s.lastSeen = time.Now()
	if s.classifying {
		s.mu.Unlock()
		return nil, models.NewValidationError(MsgAttemptInFlight)
	}
	if s.doc == nil {
		// No network call is made; the state is untouched apart from the
		// prompt to upload.
		s.errMsg = MsgNoDocument
		s.mu.Unlock()
		return nil, models.NewValidationError(MsgNoDocument)
	}
	// A fresh attempt clears any previous result or error.
	s.result = nil
	s.errMsg = ""
	s.classifying = true
	s.status = models.StatusClassifying
	req := models.ClassificationRequest{
		ImageB64: base64.StdEncoding.EncodeToString(s.doc.Content),
		MimeType: s.doc.MimeType,
	}
	s.mu.Unlock()

	metrics.ClassificationsInFlight.Inc()
	start := time.Now()
	result, err := m.runAttempt(ctx, req)
	metrics.ClassificationsInFlight.Dec()

	outcome := "ok"
	if err != nil {
		outcome = string(models.KindOf(err))
	}
	metrics.ClassificationsTotal.WithLabelValues(outcome).Inc()
	metrics.ClassificationDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.classifying = false
	if err != nil {
		s.status = models.StatusFailed
		s.errMsg = models.UserMessage(err)
		log.WithField("session", s.ID).WithError(err).Warn("classification attempt failed")
		return nil, err
	}
	s.status = models.StatusDone
	s.result = result
	log.WithField("session", s.ID).WithField("category", result.Category).Info("document classified")
	return result, nil
}

// runAttempt performs the single provider round trip and response
// validation outside the session lock.
func (m *Manager) runAttempt(ctx context.Context, req models.ClassificationRequest) (*models.ClassificationResult, error) {
	raw, err := m.llm.ClassifyDocument(ctx, req.ImageB64, req.MimeType)
	if err != nil {
		return nil, models.NewTransportError(err)
	}
	return parser.ParseClassification(strings.TrimSpace(raw))
}

// Snapshot returns the current presentation state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Status:      s.status,
		HasDocument: s.doc != nil,
		Result:      s.result,
		Error:       s.errMsg,
	}
	if s.doc != nil {
		st.Filename = s.doc.Filename
		st.MimeType = s.doc.MimeType
		st.PreviewPath = "/api/v1/preview"
	}
	if st.Status == "" {
		st.Status = models.StatusNoFile
	}
	return st
}

// Preview returns the stored document bytes and MIME type, when present.
func (s *Session) Preview() ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	if s.doc == nil {
		return nil, "", false
	}
	return s.doc.Content, s.doc.MimeType, true
}

// Manager owns the live sessions and the provider client. Sessions are
// kept in memory only; an idle session is dropped after the TTL so its
// preview content does not accumulate.
type Manager struct {
	llm llm.Client
	ttl time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session

	stopOnce sync.Once
	stop     chan struct{}
}

func NewManager(client llm.Client, ttl time.Duration) *Manager {
	return &Manager{
		llm:      client,
		ttl:      ttl,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
}

// Get returns the session for id, creating it on first use.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok = m.sessions[id]; ok {
		return s
	}
	s = &Session{
		ID:       id,
		status:   models.StatusNoFile,
		lastSeen: time.Now(),
	}
	m.sessions[id] = s
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	return s
}

// ProviderName reports the configured provider label.
func (m *Manager) ProviderName() string {
	return m.llm.SourceName()
}

// StartJanitor runs periodic expiry of idle sessions until Stop is called.
func (m *Manager) StartJanitor() {
	interval := m.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.expire(time.Now())
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop terminates the janitor goroutine.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Manager) expire(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastSeen) > m.ttl
		busy := s.classifying
		s.mu.Unlock()
		if idle && !busy {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		metrics.ActiveSessions.Set(float64(len(m.sessions)))
		log.WithField("removed", removed).Debug("expired idle sessions")
	}
}

// DecodeDataURL converts a data: URL into raw bytes plus the embedded MIME
// type, stripping the prefix. A malformed payload is an encoding failure.
func DecodeDataURL(dataURL string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, "", models.NewEncodingError("invalid data URL", fmt.Errorf("missing data: prefix"))
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", models.NewEncodingError("invalid data URL", fmt.Errorf("missing payload separator"))
	}
	mime, _ := strings.CutSuffix(meta, ";base64")
	content, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", models.NewEncodingError("failed to decode file content", err)
	}
	return content, mime, nil
}
