// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the folio document backend.
package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient returns a client pointed at a throwaway backend.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithConfig(&ClientConfig{BaseURL: server.URL})
}

// =============================================================================
// STREAMING CHAT TESTS
// =============================================================================

func TestChatStream_FullExchange(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Message != "What is X?" || req.FolderName != "docs" {
			t.Errorf("request = %+v", req)
		}

		w.Write([]byte(`{"type":"metadata","sources":["doc1.pdf"],"source_authors":{"doc1.pdf":"Doe"}}` + "\n"))
		w.Write([]byte(`{"type":"chunk","content":"X is "}` + "\n"))
		w.Write([]byte(`{"type":"chunk","content":"..."}` + "\n"))
		w.Write([]byte(`{"type":"complete","sources":["doc1.pdf"],"source_chunks":{"doc1.pdf":{"chunks":[{"text":"about X"}]}}}` + "\n"))
	})

	in := NewInterpreter()
	err := client.ChatStream(context.Background(), ChatRequest{
		Message:    "What is X?",
		FolderName: "docs",
	}, in.Feed)
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}

	if !in.Completed() {
		t.Error("stream should be completed")
	}
	reply := in.Reply()
	if reply.Content != "X is ..." {
		t.Errorf("Content = %q", reply.Content)
	}
	if len(reply.Sources) != 1 || reply.Sources[0] != "doc1.pdf" {
		t.Errorf("Sources = %v", reply.Sources)
	}
	if reply.SourceAuthors["doc1.pdf"] != "Doe" {
		t.Errorf("SourceAuthors = %v", reply.SourceAuthors)
	}
	if len(reply.SourceChunks["doc1.pdf"].Chunks) != 1 {
		t.Errorf("SourceChunks = %v", reply.SourceChunks)
	}
}

func TestChatStream_NoiseLinesSkipped(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("garbage line\n"))
		w.Write([]byte(`{"type":"chunk","content":"ok"}` + "\n"))
		w.Write([]byte("\n"))
		w.Write([]byte(`{"type":"complete"}` + "\n"))
	})

	in := NewInterpreter()
	if err := client.ChatStream(context.Background(), ChatRequest{}, in.Feed); err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}
	if in.Content() != "ok" {
		t.Errorf("Content = %q", in.Content())
	}
}

func TestChatStream_ErrorRecord(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"chunk","content":"partial"}` + "\n"))
		w.Write([]byte(`{"type":"error","error":"generation failed"}` + "\n"))
	})

	in := NewInterpreter()
	err := client.ChatStream(context.Background(), ChatRequest{}, in.Feed)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsRemote(err) {
		t.Errorf("err = %v, want remote", err)
	}
	if in.Completed() {
		t.Error("stream must not be completed after error record")
	}
}

func TestChatStream_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"boom"}`))
	})

	err := client.ChatStream(context.Background(), ChatRequest{}, NewInterpreter().Feed)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "boom" {
		t.Errorf("message = %q, want boom", err.Error())
	}
}

func TestChatStream_EndsWithoutComplete(t *testing.T) {
	// A stream that just ends is not an error at the client layer; the
	// controller decides whether the accumulated reply is usable.
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"chunk","content":"cut off"}` + "\n"))
	})

	in := NewInterpreter()
	if err := client.ChatStream(context.Background(), ChatRequest{}, in.Feed); err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}
	if in.Completed() {
		t.Error("Completed should be false")
	}
	if in.Content() != "cut off" {
		t.Errorf("Content = %q", in.Content())
	}
}

func TestChatStream_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"chunk","content":"a"}` + "\n"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		cancel()
		// Keep the body open; the client should notice cancellation.
		<-r.Context().Done()
	})

	err := client.ChatStream(ctx, ChatRequest{}, NewInterpreter().Feed)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}

// =============================================================================
// SINGLE-OBJECT CHAT TESTS
// =============================================================================

func TestChat_SingleObject(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatResult{
			Response: "X is a thing.",
			Sources:  []string{"doc1.pdf"},
		})
	})

	result, err := client.Chat(context.Background(), ChatRequest{Message: "What is X?", FolderName: "docs"})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if result.Response != "X is a thing." || len(result.Sources) != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestChat_RemoteError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatResult{Error: "folder_name is required"})
	})

	_, err := client.Chat(context.Background(), ChatRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsRemote(err) {
		t.Errorf("err = %v, want remote", err)
	}
}

// =============================================================================
// INGEST TESTS
// =============================================================================

func TestStoreText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/store-text" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req StoreTextRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Text != "body" || req.FolderName != "docs" || req.Filename != "notes.txt" {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(StoreResult{FolderName: "docs", TotalChunks: 3})
	})

	result, err := client.StoreText(context.Background(), StoreTextRequest{
		Text: "body", Filename: "notes.txt", FolderName: "docs",
	})
	if err != nil {
		t.Fatalf("StoreText failed: %v", err)
	}
	if result.TotalChunks != 3 {
		t.Errorf("TotalChunks = %d", result.TotalChunks)
	}
}

func TestOCRPDF_Multipart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("not multipart: %v", err)
		}
		if r.FormValue("folder_name") != "docs" {
			t.Errorf("folder_name = %q", r.FormValue("folder_name"))
		}
		if r.FormValue("title") != "Scanned" {
			t.Errorf("title = %q", r.FormValue("title"))
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		defer file.Close()
		if header.Filename != "scan.pdf" {
			t.Errorf("filename = %q", header.Filename)
		}
		json.NewEncoder(w).Encode(StoreResult{TotalPages: 2, TotalChunks: 5})
	})

	result, err := client.OCRPDF(context.Background(), []byte("%PDF-1.4"), "scan.pdf", "docs", "Scanned", "")
	if err != nil {
		t.Fatalf("OCRPDF failed: %v", err)
	}
	if result.TotalPages != 2 || result.TotalChunks != 5 {
		t.Errorf("result = %+v", result)
	}
}

// =============================================================================
// OUTLINE AND DOCUMENT TESTS
// =============================================================================

func TestGenerateOutline(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req OutlineRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Questions) != 1 || req.FolderName != "docs" {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(OutlineResult{
			Outlines: []Outline{{Question: req.Questions[0], Outline: "I. Intro"}},
		})
	})

	result, err := client.GenerateOutline(context.Background(), OutlineRequest{
		Questions: []string{"What is X?"}, FolderName: "docs",
	})
	if err != nil {
		t.Fatalf("GenerateOutline failed: %v", err)
	}
	if len(result.Outlines) != 1 || result.Outlines[0].Outline != "I. Intro" {
		t.Errorf("result = %+v", result)
	}
}

func TestGetDocuments(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(DocumentList{
			FolderName: "docs",
			Documents:  []DocumentInfo{{Title: "Paper", Author: "Doe"}},
			Count:      1,
		})
	})

	result, err := client.GetDocuments(context.Background(), "docs")
	if err != nil {
		t.Fatalf("GetDocuments failed: %v", err)
	}
	if result.Count != 1 || result.Documents[0].Title != "Paper" {
		t.Errorf("result = %+v", result)
	}
}

func TestCheckRunning(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"Hello, World!"}`))
	})
	if err := client.CheckRunning(context.Background()); err != nil {
		t.Errorf("CheckRunning failed: %v", err)
	}
}

func TestCheckRunning_Down(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{BaseURL: "http://127.0.0.1:1"})
	err := client.CheckRunning(context.Background())
	if !IsNotRunning(err) {
		t.Errorf("err = %v, want not-running", err)
	}
}
