package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/casefold-ai/lexgate/internal/backend"
)

type MockChatBackend struct {
	mock.Mock
}

func (m *MockChatBackend) InitializeSession(ctx context.Context, bearerToken, botID string) (string, error) {
	args := m.Called(ctx, bearerToken, botID)
	return args.String(0), args.Error(1)
}

func (m *MockChatBackend) UploadFiles(ctx context.Context, bearerToken, sessionID string, files []backend.UploadFile) error {
	args := m.Called(ctx, bearerToken, sessionID, files)
	return args.Error(0)
}

func (m *MockChatBackend) ChatSessionStream(ctx context.Context, bearerToken string, req backend.ChatRequest) (*backend.ChatStream, error) {
	args := m.Called(ctx, bearerToken, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.ChatStream), args.Error(1)
}

func multipartStartRequest(t *testing.T, botID string, filenames ...string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if botID != "" {
		require.NoError(t, writer.WriteField("bot_id", botID))
	}
	for _, name := range filenames {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("file contents of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := requestWithSession(http.MethodPost, "/chat/start", body.Bytes())
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestChatHandler_Start_Success(t *testing.T) {
	mockBackend := new(MockChatBackend)
	handler := NewChatHandler(mockBackend)

	mockBackend.On("InitializeSession", mock.Anything, "id-token-123", "bot-1").Return("sess-9", nil)

	req := multipartStartRequest(t, "bot-1")
	w := httptest.NewRecorder()

	handler.Start(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sess-9")
	mockBackend.AssertExpectations(t)
	mockBackend.AssertNotCalled(t, "UploadFiles")
}

func TestChatHandler_Start_WithFiles(t *testing.T) {
	mockBackend := new(MockChatBackend)
	handler := NewChatHandler(mockBackend)

	mockBackend.On("InitializeSession", mock.Anything, "id-token-123", "bot-1").Return("sess-9", nil)
	mockBackend.On("UploadFiles", mock.Anything, "id-token-123", "sess-9",
		mock.MatchedBy(func(files []backend.UploadFile) bool {
			return len(files) == 2 && files[0].Filename == "brief.pdf" && files[1].Filename == "notes.txt"
		})).Return(nil)

	req := multipartStartRequest(t, "bot-1", "brief.pdf", "notes.txt")
	w := httptest.NewRecorder()

	handler.Start(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockBackend.AssertExpectations(t)
}

func TestChatHandler_Start_MissingBotID(t *testing.T) {
	mockBackend := new(MockChatBackend)
	handler := NewChatHandler(mockBackend)

	req := multipartStartRequest(t, "")
	w := httptest.NewRecorder()

	handler.Start(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "bot_id is required")
}

func TestChatHandler_Start_InitializeFails(t *testing.T) {
	mockBackend := new(MockChatBackend)
	handler := NewChatHandler(mockBackend)

	mockBackend.On("InitializeSession", mock.Anything, "id-token-123", "bot-1").
		Return("", &backend.APIError{StatusCode: http.StatusInternalServerError, Message: "boom"})

	req := multipartStartRequest(t, "bot-1")
	w := httptest.NewRecorder()

	handler.Start(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestChatHandler_Start_UploadFails(t *testing.T) {
	mockBackend := new(MockChatBackend)
	handler := NewChatHandler(mockBackend)

	mockBackend.On("InitializeSession", mock.Anything, "id-token-123", "bot-1").Return("sess-9", nil)
	mockBackend.On("UploadFiles", mock.Anything, "id-token-123", "sess-9", mock.Anything).
		Return(&backend.APIError{StatusCode: http.StatusInternalServerError, Message: "disk full"})

	req := multipartStartRequest(t, "bot-1", "brief.pdf")
	w := httptest.NewRecorder()

	handler.Start(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "failed to upload files")
}

func TestChatHandler_Stream_ForwardsEvents(t *testing.T) {
	mockBackend := new(MockChatBackend)
	handler := NewChatHandler(mockBackend)

	stream := backend.NewChatStream(io.NopCloser(strings.NewReader(
		"{\"token\":\"Due\"}\n{\"token\":\" process\"}\n")))
	mockBackend.On("ChatSessionStream", mock.Anything, "id-token-123", backend.ChatRequest{
		BotID:     "bot-1",
		SessionID: "sess-9",
		Message:   "hello",
	}).Return(stream, nil)

	req := requestWithSession(http.MethodGet, "/chat/stream?session_id=sess-9&bot_id=bot-1&message=hello", nil)
	w := httptest.NewRecorder()

	handler.Stream(w, req)

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "data: {\"token\":\"Due\"}\n\n")
	assert.Contains(t, body, "data: {\"token\":\" process\"}\n\n")
	assert.Contains(t, body, `"type":"done"`)
	mockBackend.AssertExpectations(t)
}

func TestChatHandler_Stream_EndsWithDoneSentinel(t *testing.T) {
	mockBackend := new(MockChatBackend)
	handler := NewChatHandler(mockBackend)

	stream := backend.NewChatStream(io.NopCloser(strings.NewReader("{\"token\":\"x\"}\n")))
	mockBackend.On("ChatSessionStream", mock.Anything, "id-token-123", mock.Anything).Return(stream, nil)

	req := requestWithSession(http.MethodGet, "/chat/stream?session_id=s&bot_id=b", nil)
	w := httptest.NewRecorder()

	handler.Stream(w, req)

	body := w.Body.String()
	events := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	require.NotEmpty(t, events)
	assert.Contains(t, events[len(events)-1], `"type":"done"`)
}

func TestChatHandler_Stream_BackendUnreachable(t *testing.T) {
	mockBackend := new(MockChatBackend)
	handler := NewChatHandler(mockBackend)

	mockBackend.On("ChatSessionStream", mock.Anything, "id-token-123", mock.Anything).
		Return(nil, &backend.APIError{StatusCode: http.StatusServiceUnavailable, Message: "down"})

	req := requestWithSession(http.MethodGet, "/chat/stream?session_id=s&bot_id=b", nil)
	w := httptest.NewRecorder()

	handler.Stream(w, req)

	body := w.Body.String()
	assert.Contains(t, body, `"type":"error"`)
	assert.Contains(t, body, "failed to reach the research service")
	assert.Contains(t, body, `"type":"done"`)
	assert.NotContains(t, body, "down")
}

func TestChatHandler_Stream_MissingParams(t *testing.T) {
	mockBackend := new(MockChatBackend)
	handler := NewChatHandler(mockBackend)

	req := requestWithSession(http.MethodGet, "/chat/stream", nil)
	w := httptest.NewRecorder()

	handler.Stream(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
