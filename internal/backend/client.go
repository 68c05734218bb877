// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the folio document backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/jeranaias/folio-tui/internal/stream"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeTimeout
	ErrTypeConnection
	ErrTypeInvalidResponse
	ErrTypeRemote   // The backend returned an error field
	ErrTypeProtocol // A stream record was fatal or structurally wrong
)

// Sentinel errors for easy checking.
var (
	ErrNotRunning = &ClientError{Type: ErrTypeNotRunning, Message: "backend is not running"}
	ErrTimeout    = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
)

// remoteError builds a ClientError for an error message the backend embedded
// in an otherwise well-formed response.
func remoteError(msg string) *ClientError {
	return &ClientError{Type: ErrTypeRemote, Message: msg}
}

// IsRemote checks if an error carries a backend-supplied error message.
func IsRemote(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeRemote
	}
	return false
}

// IsNotRunning checks if an error indicates the backend is unreachable.
func IsNotRunning(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeNotRunning
	}
	return errors.Is(err, ErrNotRunning)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return errors.Is(err, ErrTimeout)
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://127.0.0.1:8000)
	// Note: Uses explicit IPv4 address instead of localhost to avoid IPv6 resolution issues on Windows
	BaseURL string

	// Timeout for non-streaming requests (default: 60s; outline generation
	// and OCR ingestion are slow server-side)
	Timeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: "http://127.0.0.1:8000",
		Timeout: 60 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the folio backend.
//
// The Client is thread-safe for concurrent use.
//
// Example:
//
//	client := backend.NewClient()
//	if err := client.CheckRunning(ctx); err != nil {
//	    log.Fatal("backend not available:", err)
//	}
//	reply, err := client.Chat(ctx, req)
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new backend client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new backend client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8000"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *ClientConfig {
	return c.config
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckRunning verifies that the backend is reachable.
func (c *Client) CheckRunning(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/", nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ClientError{
			Type:    ErrTypeConnection,
			Message: "unexpected status from backend: " + resp.Status,
		}
	}

	return nil
}

// =============================================================================
// CHAT (SINGLE OBJECT)
// =============================================================================

// Chat sends a chat request and decodes the response as a single JSON
// object. Use ChatStream for the incremental event-stream shape.
func (c *Client) Chat(ctx context.Context, chatReq ChatRequest) (*ChatResult, error) {
	resp, err := c.postJSON(ctx, "/chat", chatReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("chat request failed", resp)
	}

	var result ChatResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	if result.Error != "" {
		return nil, remoteError(result.Error)
	}

	return &result, nil
}

// =============================================================================
// CHAT (STREAMING)
// =============================================================================

// EventCallback is called for each decoded stream event, in arrival order.
type EventCallback func(event StreamEvent) error

// ChatStream sends a chat request and decodes the response as a
// newline-delimited JSON event stream, invoking the callback for each
// recognized event. Returns when the stream ends, the callback returns an
// error, an error record arrives, or the context is cancelled.
func (c *Client) ChatStream(ctx context.Context, chatReq ChatRequest, callback EventCallback) error {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	// Use a client without timeout for streaming (we handle timeout via context)
	streamClient := &http.Client{}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := streamClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return ErrTimeout
		}
		return ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError("stream request failed", resp)
	}

	dec := stream.NewLineDecoder(resp.Body)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := dec.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &ClientError{Type: ErrTypeConnection, Message: "stream read failed", Cause: err}
		}

		event, err := ParseEvent(line)
		if err != nil {
			return err
		}
		if event == nil {
			continue // noise record
		}

		if err := callback(*event); err != nil {
			return err
		}
		if event.Type == EventComplete {
			return nil
		}
	}
}

// =============================================================================
// INGEST
// =============================================================================

// StoreText stores extracted text in the backend under a folder.
func (c *Client) StoreText(ctx context.Context, storeReq StoreTextRequest) (*StoreResult, error) {
	resp, err := c.postJSON(ctx, "/store-text", storeReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("store-text request failed", resp)
	}

	var result StoreResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	if result.Error != "" {
		return nil, remoteError(result.Error)
	}

	return &result, nil
}

// OCRPDF uploads a scanned PDF for server-side OCR and ingestion.
// The title and author fields are optional and may be empty.
func (c *Client) OCRPDF(ctx context.Context, pdf []byte, filename, folderName, title, author string) (*StoreResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build form", Cause: err}
	}
	if _, err := part.Write(pdf); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build form", Cause: err}
	}

	writer.WriteField("folder_name", folderName)
	if title != "" {
		writer.WriteField("title", title)
	}
	if author != "" {
		writer.WriteField("author", author)
	}
	if err := writer.Close(); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build form", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/ocr-pdf", &buf)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	// OCR of a large PDF can far exceed the default request timeout.
	ocrClient := &http.Client{}
	resp, err := ocrClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("ocr-pdf request failed", resp)
	}

	var result StoreResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	if result.Error != "" {
		return nil, remoteError(result.Error)
	}

	return &result, nil
}

// =============================================================================
// OUTLINES
// =============================================================================

// GenerateOutline asks the backend to generate outlines for a set of
// questions against one folder's documents.
func (c *Client) GenerateOutline(ctx context.Context, outlineReq OutlineRequest) (*OutlineResult, error) {
	resp, err := c.postJSON(ctx, "/generate-outline", outlineReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("generate-outline request failed", resp)
	}

	var result OutlineResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	if result.Error != "" {
		return nil, remoteError(result.Error)
	}

	return &result, nil
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// GetDocuments lists the unique documents ingested into a folder.
func (c *Client) GetDocuments(ctx context.Context, folderName string) (*DocumentList, error) {
	resp, err := c.postJSON(ctx, "/get-documents", map[string]string{"folder_name": folderName})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("get-documents request failed", resp)
	}

	var result DocumentList
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	if result.Error != "" {
		return nil, remoteError(result.Error)
	}

	return &result, nil
}

// SearchChunks retrieves the raw chunk sets most relevant to each question.
func (c *Client) SearchChunks(ctx context.Context, searchReq SearchRequest) (*SearchResult, error) {
	resp, err := c.postJSON(ctx, "/search-chunks", searchReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("search-chunks request failed", resp)
	}

	var result SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	if result.Error != "" {
		return nil, remoteError(result.Error)
	}

	return &result, nil
}

// UpdateDocumentAuthors asks the backend to re-extract author metadata for
// every document already ingested into a folder.
func (c *Client) UpdateDocumentAuthors(ctx context.Context, folderName string) (*UpdateAuthorsResult, error) {
	resp, err := c.postJSON(ctx, "/update-document-authors", map[string]string{"folder_name": folderName})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("update-document-authors request failed", resp)
	}

	var result UpdateAuthorsResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	if result.Error != "" {
		return nil, remoteError(result.Error)
	}

	return &result, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// postJSON issues a JSON POST to the given path and returns the raw response.
// The caller owns the response body.
func (c *Client) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ErrNotRunning
	}

	return resp, nil
}

// statusError builds a ClientError from a non-success HTTP response,
// preferring an embedded error message when the body carries one.
func (c *Client) statusError(prefix string, resp *http.Response) *ClientError {
	var remote struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&remote); err == nil {
		if remote.Error != "" {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: remote.Error}
		}
		if remote.Detail != "" {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: remote.Detail}
		}
	}
	return &ClientError{
		Type:    ErrTypeInvalidResponse,
		Message: prefix + ": " + resp.Status,
	}
}
