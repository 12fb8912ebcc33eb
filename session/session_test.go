package session

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-classify-service/models"
)

// pngBytes carries the PNG magic so content sniffing recognizes an image.
var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

type fakeClient struct {
	resp    string
	err     error
	calls   int
	gotB64  string
	gotMime string
	block   chan struct{}
}

func (f *fakeClient) ClassifyDocument(ctx context.Context, imageB64, mimeType string) (string, error) {
	f.calls++
	f.gotB64 = imageB64
	f.gotMime = mimeType
	if f.block != nil {
		<-f.block
	}
	return f.resp, f.err
}

func (f *fakeClient) SourceName() string { return "Fake" }

func newTestManager(client *fakeClient) (*Manager, *Session) {
	m := NewManager(client, time.Minute)
	return m, m.Get("test-session")
}

func TestSelectRejectsNonImage(t *testing.T) {
	fake := &fakeClient{}
	_, s := newTestManager(fake)

	err := s.Select([]byte("just some text"), "text/plain", "notes.txt")
	require.Error(t, err)
	assert.Equal(t, models.ErrValidation, models.KindOf(err))
	assert.Equal(t, MsgNotAnImage, models.UserMessage(err))

	st := s.Snapshot()
	assert.Equal(t, models.StatusNoFile, st.Status)
	assert.False(t, st.HasDocument)
	assert.Equal(t, MsgNotAnImage, st.Error)
	assert.Zero(t, fake.calls, "no network call may follow a rejected intake")
}

func TestSelectRejectionKeepsPriorDocument(t *testing.T) {
	_, s := newTestManager(&fakeClient{})

	require.NoError(t, s.Select(pngBytes, "image/png", "doc.png"))
	require.Error(t, s.Select([]byte("nope"), "application/pdf", "doc.pdf"))

	st := s.Snapshot()
	assert.True(t, st.HasDocument)
	assert.Equal(t, "doc.png", st.Filename)
	assert.Equal(t, MsgNotAnImage, st.Error)
}

func TestSelectAcceptsImage(t *testing.T) {
	_, s := newTestManager(&fakeClient{})

	require.NoError(t, s.Select(pngBytes, "image/png", "doc.png"))

	st := s.Snapshot()
	assert.Equal(t, models.StatusReady, st.Status)
	assert.True(t, st.HasDocument)
	assert.Empty(t, st.Error)
	assert.Equal(t, "/api/v1/preview", st.PreviewPath)

	content, mime, ok := s.Preview()
	require.True(t, ok)
	assert.Equal(t, pngBytes, content)
	assert.Equal(t, "image/png", mime)
}

func TestSelectSniffsUndeclaredMime(t *testing.T) {
	_, s := newTestManager(&fakeClient{})

	require.NoError(t, s.Select(pngBytes, "", "doc.bin"))

	_, mime, ok := s.Preview()
	require.True(t, ok)
	assert.Equal(t, "image/png", mime)
}

func TestClassifySuccess(t *testing.T) {
	fake := &fakeClient{resp: `{"category": "Public", "reason": "No sensitive content detected"}`}
	m, s := newTestManager(fake)
	require.NoError(t, s.Select(pngBytes, "image/png", "doc.png"))

	result, err := m.Classify(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "Public", result.Category)
	assert.Equal(t, "No sensitive content detected", result.Reason)

	st := s.Snapshot()
	assert.Equal(t, models.StatusDone, st.Status)
	require.NotNil(t, st.Result)
	assert.Equal(t, "Public", st.Result.Category)
	assert.Empty(t, st.Error)

	// the provider received the encoded payload, prefix-free
	assert.Equal(t, base64.StdEncoding.EncodeToString(pngBytes), fake.gotB64)
	assert.Equal(t, "image/png", fake.gotMime)
	assert.Equal(t, 1, fake.calls)
}

func TestClassifyMissingReasonIsFormatFailure(t *testing.T) {
	fake := &fakeClient{resp: `{"category": "Confidential"}`}
	m, s := newTestManager(fake)
	require.NoError(t, s.Select(pngBytes, "image/png", "doc.png"))

	result, err := m.Classify(context.Background(), s)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, models.ErrFormat, models.KindOf(err))

	st := s.Snapshot()
	assert.Equal(t, models.StatusFailed, st.Status)
	assert.Nil(t, st.Result, "a partial response must not become a result")
	assert.Equal(t, "Invalid response format from the model", st.Error)
}

func TestClassifyTransportErrorSurfacesVerbatim(t *testing.T) {
	fake := &fakeClient{err: errors.New("network down")}
	m, s := newTestManager(fake)
	require.NoError(t, s.Select(pngBytes, "image/png", "doc.png"))

	_, err := m.Classify(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, models.ErrTransport, models.KindOf(err))

	st := s.Snapshot()
	assert.Equal(t, models.StatusFailed, st.Status)
	assert.Equal(t, "network down", st.Error)
}

func TestClassifyEmptyErrorMessageFallsBack(t *testing.T) {
	fake := &fakeClient{err: errors.New("")}
	m, s := newTestManager(fake)
	require.NoError(t, s.Select(pngBytes, "image/png", "doc.png"))

	_, err := m.Classify(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, models.GenericErrorMessage, s.Snapshot().Error)
}

func TestClassifyWithoutDocument(t *testing.T) {
	fake := &fakeClient{}
	m, s := newTestManager(fake)

	_, err := m.Classify(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, models.ErrValidation, models.KindOf(err))
	assert.Equal(t, MsgNoDocument, models.UserMessage(err))

	st := s.Snapshot()
	assert.Equal(t, models.StatusNoFile, st.Status)
	assert.Equal(t, MsgNoDocument, st.Error)
	assert.Zero(t, fake.calls, "no network call without a document")
}

func TestClassifyRetryClearsPreviousFailure(t *testing.T) {
	fake := &fakeClient{err: errors.New("network down")}
	m, s := newTestManager(fake)
	require.NoError(t, s.Select(pngBytes, "image/png", "doc.png"))

	_, err := m.Classify(context.Background(), s)
	require.Error(t, err)

	fake.err = nil
	fake.resp = `{"category": "Unsafe", "reason": "Explicit content."}`
	result, err := m.Classify(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "Unsafe", result.Category)

	st := s.Snapshot()
	assert.Equal(t, models.StatusDone, st.Status)
	assert.Empty(t, st.Error)
}

func TestSingleAttemptInFlight(t *testing.T) {
	fake := &fakeClient{
		resp:  `{"category": "Public", "reason": "ok"}`,
		block: make(chan struct{}),
	}
	m, s := newTestManager(fake)
	require.NoError(t, s.Select(pngBytes, "image/png", "doc.png"))

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(started)
		_, _ = m.Classify(context.Background(), s)
		close(done)
	}()
	<-started

	// wait for the attempt to reach the provider call
	deadline := time.After(2 * time.Second)
	for s.Snapshot().Status != models.StatusClassifying {
		select {
		case <-deadline:
			t.Fatal("attempt never reached the classifying state")
		case <-time.After(time.Millisecond):
		}
	}

	_, err := m.Classify(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, MsgAttemptInFlight, models.UserMessage(err))

	err = s.Select(pngBytes, "image/png", "other.png")
	require.Error(t, err)
	assert.Equal(t, MsgSelectionBlocked, models.UserMessage(err))

	close(fake.block)
	<-done
	assert.Equal(t, models.StatusDone, s.Snapshot().Status)
	assert.Equal(t, 1, fake.calls)
}

func TestNewSelectionDiscardsResultAndError(t *testing.T) {
	fake := &fakeClient{resp: `{"category": "Public", "reason": "ok"}`}
	m, s := newTestManager(fake)
	require.NoError(t, s.Select(pngBytes, "image/png", "doc.png"))

	_, err := m.Classify(context.Background(), s)
	require.NoError(t, err)
	require.NotNil(t, s.Snapshot().Result)

	require.NoError(t, s.Select(pngBytes, "image/png", "next.png"))
	st := s.Snapshot()
	assert.Equal(t, models.StatusReady, st.Status)
	assert.Nil(t, st.Result)
	assert.Empty(t, st.Error)
	assert.Equal(t, "next.png", st.Filename)
}

func TestManagerExpiresIdleSessions(t *testing.T) {
	m := NewManager(&fakeClient{}, 10*time.Millisecond)
	s := m.Get("idle")
	require.NoError(t, s.Select(pngBytes, "image/png", "doc.png"))

	m.expire(time.Now().Add(time.Hour))

	fresh := m.Get("idle")
	assert.NotSame(t, s, fresh, "expired session should be recreated empty")
	assert.False(t, fresh.Snapshot().HasDocument)
}

func TestDecodeDataURL(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(pngBytes)

	content, mime, err := DecodeDataURL("data:image/png;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, content)
	assert.Equal(t, "image/png", mime)

	_, _, err = DecodeDataURL("image/png;base64," + payload)
	require.Error(t, err)
	assert.Equal(t, models.ErrEncoding, models.KindOf(err))

	_, _, err = DecodeDataURL("data:image/png;base64,@@not-base64@@")
	require.Error(t, err)
	assert.Equal(t, models.ErrEncoding, models.KindOf(err))
}
