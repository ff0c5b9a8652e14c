package backend

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

// ChatRequest starts or continues a streaming chat turn.
type ChatRequest struct {
	BotID     string `json:"bot_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message,omitempty"`
}

// ChatStream iterates the newline-delimited JSON fragments of a
// streaming chat response. Close must be called when done.
type ChatStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

// NewChatStream wraps an already-open response body as a ChatStream.
func NewChatStream(body io.ReadCloser) *ChatStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &ChatStream{body: body, scanner: scanner}
}

// Next returns the next non-empty line of the stream, or io.EOF when the
// backend closes it.
func (s *ChatStream) Next() (string, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line != "" {
			return line, nil
		}
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Close releases the underlying response body.
func (s *ChatStream) Close() error {
	return s.body.Close()
}

// ChatSessionStream opens the backend's streaming chat endpoint. The
// stream carries no timeout; it stays open until the backend finishes or
// the context is canceled.
func (c *Client) ChatSessionStream(ctx context.Context, bearerToken string, req ChatRequest) (*ChatStream, error) {
	httpReq, err := c.newRequest(ctx, requestOptions{
		method:      http.MethodPost,
		path:        "chat_session_stream",
		bearerToken: bearerToken,
		body:        req,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stream request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	return NewChatStream(resp.Body), nil
}

// UploadFile is one file to attach to a chat session.
type UploadFile struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

// UploadFiles forwards user files to the backend as a multipart request
// scoped to a session.
func (c *Client) UploadFiles(ctx context.Context, bearerToken, sessionID string, files []UploadFile) error {
	if len(files) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, file := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="files"; filename="%s"`, escapeQuotes(file.Filename)))
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return fmt.Errorf("failed to create multipart section: %w", err)
		}
		if _, err := io.Copy(part, file.Reader); err != nil {
			return fmt.Errorf("failed to copy file %q: %w", file.Filename, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	u := c.baseURL + "/upload_files?" + url.Values{"session_id": {sessionID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	return nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}
