// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/folio-tui/internal/session"
)

// chdirTemp runs the test in a throwaway working directory so export files
// land somewhere disposable.
func chdirTemp(t *testing.T) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestWriteExport_Markdown(t *testing.T) {
	chdirTemp(t)
	sess := testSession("sess_x1", "Contract Review", time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC))
	sess.Messages[1].Sources = []string{"agreement.pdf"}

	path, err := WriteExport(sess, "markdown")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(path, "folio-contract-review-"), "path = %s", path)
	require.True(t, strings.HasSuffix(path, ".md"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(data)
	require.Contains(t, body, "# Contract Review")
	require.Contains(t, body, "Folder: docs")
	require.Contains(t, body, "Hello there")
	require.Contains(t, body, "Sources: agreement.pdf")
}

func TestWriteExport_MdAlias(t *testing.T) {
	chdirTemp(t)
	path, err := WriteExport(testSession("sess_x2", "notes", time.Now()), "md")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, ".md"))
}

func TestWriteExport_JSONRoundTrip(t *testing.T) {
	chdirTemp(t)
	sess := testSession("sess_x3", "Quarterly Notes", time.Now().UTC().Truncate(time.Second))

	path, err := WriteExport(sess, "json")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, ".json"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var restored session.Session
	require.NoError(t, json.Unmarshal(data, &restored))
	require.Equal(t, sess.ID, restored.ID)
	require.Equal(t, sess.Title, restored.Title)
	require.Len(t, restored.Messages, 2)
	require.Equal(t, sess.Messages[0].Content, restored.Messages[0].Content)
}

func TestWriteExport_UnsupportedFormat(t *testing.T) {
	chdirTemp(t)
	_, err := WriteExport(testSession("sess_x4", "t", time.Now()), "pdf")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported export format")
}

func TestWriteExport_UntitledFallsBackToID(t *testing.T) {
	chdirTemp(t)
	sess := testSession("sess_x5", "", time.Now())

	path, err := WriteExport(sess, "md")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(path, "folio-sess_x5-"), "path = %s", path)
}

func TestExportSlug(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Contract Review", "contract-review"},
		{"What is clause 7.2?", "what-is-clause-72"},
		{"--- odd --- spacing ---", "odd-----spacing"},
		{"UPPER lower_mixed", "upper-lower-mixed"},
		{"日本語タイトル", ""},
		{strings.Repeat("a", 60), strings.Repeat("a", 40)},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, exportSlug(tc.title), "title %q", tc.title)
	}
}
