// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the folio document backend.
package backend

// =============================================================================
// CHAT REQUEST
// =============================================================================

// HistoryMessage is one prior turn sent as conversation context.
type HistoryMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is the request body for POST /chat.
type ChatRequest struct {
	Message             string           `json:"message"`
	FolderName          string           `json:"folder_name"`
	ConversationHistory []HistoryMessage `json:"conversation_history"`
}

// =============================================================================
// CHUNKS AND SOURCES
// =============================================================================

// ChunkMetadata is the positional metadata the backend stores per chunk.
// All fields are optional; the backend omits whatever it does not know.
type ChunkMetadata struct {
	Source      string `json:"source,omitempty"`
	Author      string `json:"author,omitempty"`
	Filename    string `json:"filename,omitempty"`
	FolderName  string `json:"folder_name,omitempty"`
	ChunkIndex  int    `json:"chunk_index,omitempty"`
	TotalChunks int    `json:"total_chunks,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// Chunk is one retrieved text excerpt. Chunks are read-only snapshots from
// the backend; the client never creates or edits them.
type Chunk struct {
	Text     string        `json:"text"`
	Distance *float64      `json:"distance,omitempty"` // Similarity distance, lower is closer
	Metadata ChunkMetadata `json:"metadata,omitempty"`
}

// ChunkSet is the chunk data for one cited source, keyed by source label in
// the complete event's source_chunks map.
type ChunkSet struct {
	Author string  `json:"author,omitempty"`
	Chunks []Chunk `json:"chunks"`
}

// =============================================================================
// STREAM EVENTS
// =============================================================================

// EventType discriminates chat stream records.
type EventType string

const (
	// EventMetadata carries the retrieved source list and source->author map.
	EventMetadata EventType = "metadata"
	// EventChunk carries one content delta.
	EventChunk EventType = "chunk"
	// EventComplete carries the final cited sources and their chunk sets.
	// Always the last record of a successful stream.
	EventComplete EventType = "complete"
	// EventError aborts the exchange with the embedded message.
	EventError EventType = "error"
)

// StreamEvent is one decoded record of the chat event stream.
type StreamEvent struct {
	Type          EventType           `json:"type"`
	Content       string              `json:"content,omitempty"`
	Sources       []string            `json:"sources,omitempty"`
	SourceAuthors map[string]string   `json:"source_authors,omitempty"`
	SourceChunks  map[string]ChunkSet `json:"source_chunks,omitempty"`
	Error         string              `json:"error,omitempty"`
}

// =============================================================================
// NON-STREAMING CHAT RESPONSE
// =============================================================================

// ChatResult is the single-object response shape of POST /chat.
type ChatResult struct {
	Response      string              `json:"response"`
	Sources       []string            `json:"sources,omitempty"`
	SourceAuthors map[string]string   `json:"source_authors,omitempty"`
	SourceChunks  map[string]ChunkSet `json:"source_chunks,omitempty"`
	Error         string              `json:"error,omitempty"`
}

// =============================================================================
// INGEST
// =============================================================================

// StoreTextRequest is the request body for POST /store-text.
type StoreTextRequest struct {
	Text       string `json:"text"`
	Filename   string `json:"filename"`
	FolderName string `json:"folder_name"`
	Title      string `json:"title,omitempty"`
	Author     string `json:"author,omitempty"`
}

// StoreResult is the response of POST /store-text and POST /ocr-pdf.
type StoreResult struct {
	Message        string `json:"message,omitempty"`
	FolderName     string `json:"folder_name,omitempty"`
	DocumentTitle  string `json:"document_title,omitempty"`
	DocumentAuthor string `json:"document_author,omitempty"`
	Filename       string `json:"filename,omitempty"`
	TotalChunks    int    `json:"total_chunks,omitempty"`
	TotalPages     int    `json:"total_pages,omitempty"` // OCR only
	Error          string `json:"error,omitempty"`
}

// =============================================================================
// OUTLINES
// =============================================================================

// OutlineRequest is the request body for POST /generate-outline.
type OutlineRequest struct {
	Questions  []string `json:"questions"`
	FolderName string   `json:"folder_name"`
}

// Outline is the generated outline for one question.
type Outline struct {
	Question        string   `json:"question"`
	Outline         string   `json:"outline,omitempty"`
	SourcesUsed     int      `json:"sources_used,omitempty"`
	SourceDocuments []string `json:"source_documents,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// OutlineResult is the response of POST /generate-outline.
type OutlineResult struct {
	Outlines []Outline `json:"outlines"`
	Error    string    `json:"error,omitempty"`
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// DocumentInfo describes one ingested document in a folder.
type DocumentInfo struct {
	Title    string `json:"title"`
	Author   string `json:"author,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// DocumentList is the response of POST /get-documents.
type DocumentList struct {
	FolderName string         `json:"folder_name"`
	Documents  []DocumentInfo `json:"documents"`
	Count      int            `json:"count"`
	Error      string         `json:"error,omitempty"`
}

// =============================================================================
// CHUNK SEARCH
// =============================================================================

// SearchRequest is the request body for POST /search-chunks.
type SearchRequest struct {
	Questions  []string `json:"questions"`
	FolderName string   `json:"folder_name"`
}

// SearchHit is the chunk list retrieved for one question.
type SearchHit struct {
	Question string  `json:"question"`
	Chunks   []Chunk `json:"chunks"`
}

// SearchResult is the response of POST /search-chunks.
type SearchResult struct {
	Results []SearchHit `json:"results"`
	Note    string      `json:"note,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// =============================================================================
// AUTHOR MAINTENANCE
// =============================================================================

// UpdateAuthorsResult is the response of POST /update-document-authors.
type UpdateAuthorsResult struct {
	Message      string   `json:"message,omitempty"`
	UpdatedCount int      `json:"updated_count"`
	Errors       []string `json:"errors,omitempty"`
	Error        string   `json:"error,omitempty"`
}
