package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Januuus/chatbot/internal/core/domain"
	"github.com/Januuus/chatbot/internal/core/ports/driving"
)

func ingestText(t *testing.T, rt *testRuntime, filename, content string) string {
	t.Helper()
	res, err := rt.documents.Ingest(context.Background(), &domain.Upload{
		Filename: filename,
		MimeType: domain.MIMEPlainText,
		Size:     int64(len(content)),
		Data:     []byte(content),
	}, driving.IngestOptions{})
	require.NoError(t, err)
	return res.Document.ID
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}

	for _, want := range []string{"serve", "migrate", "ingest", "document", "history", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestDocumentCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range documentCmd.Commands() {
		names = append(names, cmd.Name())
	}

	assert.ElementsMatch(t, []string{"search", "get", "delete"}, names)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
	assert.NotNil(t, serveCmd.Flags().Lookup("memory"))
	assert.NotNil(t, ingestCmd.Flags().Lookup("watch"))
}

func TestMigrateCmd(t *testing.T) {
	setupTestRuntime(t)

	out, err := executeCommand(t, "migrate")

	require.NoError(t, err)
	assert.Contains(t, out, "schema version 3")
}

func TestIngestCmd_Summary(t *testing.T) {
	rt := setupTestRuntime(t)
	dir := rt.cfg.Documents.TrainingDir
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("Alpha beta gamma."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.txt"), []byte("secret"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blob.bin"), []byte("binary"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.md"), []byte("# Beta\n\nNotes."), 0o644))

	out, err := executeCommand(t, "ingest")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 files failed")
	assert.Contains(t, out, "✅ a.txt (1 chunks)")
	assert.Contains(t, out, "✅ sub/b.md")
	assert.Contains(t, out, "❌ empty.txt")
	assert.Contains(t, out, "Processed 3 files: 2 succeeded, 1 failed")
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "blob.bin")

	found, err := rt.documents.Search(context.Background(), "alpha", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.True(t, found[0].IsReference)
}

func TestIngestCmd_ExplicitDirectory(t *testing.T) {
	setupTestRuntime(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide.txt"), []byte("Guide."), 0o644))

	out, err := executeCommand(t, "ingest", dir)

	require.NoError(t, err)
	assert.Contains(t, out, "Training documents in "+dir)
	assert.Contains(t, out, "Processed 1 files: 1 succeeded, 0 failed")
}

func TestIngestCmd_MissingDirectory(t *testing.T) {
	setupTestRuntime(t)

	_, err := executeCommand(t, "ingest", filepath.Join(t.TempDir(), "missing"))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngestCmd_TooManyArgs(t *testing.T) {
	setupTestRuntime(t)

	_, err := executeCommand(t, "ingest", "a", "b")

	assert.Error(t, err)
}

func TestPrintIngestSummary_NoFiles(t *testing.T) {
	var sb strings.Builder

	failed := printIngestSummary(&sb, "docs", nil)

	assert.Zero(t, failed)
	assert.Contains(t, sb.String(), "No supported files found.")
}

func TestPrintIngestSummary_CountsFailures(t *testing.T) {
	var sb strings.Builder

	failed := printIngestSummary(&sb, "docs", []driving.TrainingResult{
		{Filename: "ok.txt", Chunks: 2},
		{Filename: "bad.pdf", Err: errors.New("broken")},
	})

	assert.Equal(t, 1, failed)
	assert.Contains(t, sb.String(), "✅ ok.txt (2 chunks)")
	assert.Contains(t, sb.String(), "❌ bad.pdf: broken")
}

func TestDocumentSearchCmd(t *testing.T) {
	rt := setupTestRuntime(t)
	id := ingestText(t, rt, "alpha.txt", "Alpha content here.")
	ingestText(t, rt, "beta.txt", "Beta content here.")

	out, err := executeCommand(t, "document", "search", "alpha")

	require.NoError(t, err)
	assert.Contains(t, out, "[1] alpha.txt")
	assert.Contains(t, out, "ID: "+id)
	assert.Contains(t, out, "Total: 1 documents")
	assert.NotContains(t, out, "beta.txt")
}

func TestDocumentSearchCmd_JSON(t *testing.T) {
	rt := setupTestRuntime(t)
	ingestText(t, rt, "alpha.txt", "Alpha content.")

	out, err := executeCommand(t, "document", "search", "content", "--json")

	require.NoError(t, err)
	var docs []domain.DocumentSummary
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "alpha.txt", docs[0].Filename)
}

func TestDocumentSearchCmd_NoResults(t *testing.T) {
	setupTestRuntime(t)

	out, err := executeCommand(t, "document", "search", "nothing")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents found.")
}

func TestDocumentGetCmd(t *testing.T) {
	rt := setupTestRuntime(t)
	id := ingestText(t, rt, "alpha.txt", "Alpha content here.")

	out, err := executeCommand(t, "document", "get", id, "--chunks")

	require.NoError(t, err)
	assert.Contains(t, out, "Document: "+id)
	assert.Contains(t, out, "Filename:  alpha.txt")
	assert.Contains(t, out, "Chunks:    1")
	assert.Contains(t, out, "Alpha content here.")
}

func TestDocumentGetCmd_RequiresExactlyOneArg(t *testing.T) {
	setupTestRuntime(t)

	_, err := executeCommand(t, "document", "get")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestDocumentGetCmd_NotFound(t *testing.T) {
	setupTestRuntime(t)

	_, err := executeCommand(t, "document", "get", "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentDeleteCmd(t *testing.T) {
	rt := setupTestRuntime(t)
	id := ingestText(t, rt, "alpha.txt", "Alpha.")

	out, err := executeCommand(t, "document", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted document "+id)

	_, err = rt.documents.Get(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistoryCmd(t *testing.T) {
	rt := setupTestRuntime(t)
	now := time.Now()
	require.NoError(t, rt.conversations.SaveConversation(context.Background(), &domain.Conversation{
		ID:          "c1",
		UserMessage: "What is\nalpha?",
		BotResponse: "Alpha is the first letter.",
		Metadata:    domain.ConversationMetadata{ContextChunks: 2, InputTokens: 10, OutputTokens: 4, HasImage: true},
		CreatedAt:   now,
	}))

	out, err := executeCommand(t, "history", "--limit", "5")

	require.NoError(t, err)
	assert.Contains(t, out, "Q: What is alpha?")
	assert.Contains(t, out, "A: Alpha is the first letter.")
	assert.Contains(t, out, "2 context chunks, 10/4 tokens, image")
}

func TestHistoryCmd_Empty(t *testing.T) {
	setupTestRuntime(t)

	out, err := executeCommand(t, "history")

	require.NoError(t, err)
	assert.Contains(t, out, "No conversations yet.")
}

func TestNewServer_WiresServices(t *testing.T) {
	rt := setupTestRuntime(t)
	rt.cfg.Server.RequiredAPIKey = ""
	rt.cfg.Server.PublicDir = ""

	app := newServer(rt.runtime).App()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"query":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	chat, err := app.Test(req, -1)
	require.NoError(t, err)
	defer chat.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, chat.StatusCode)
}

func TestRuntime_CloseReverseOrder(t *testing.T) {
	var order []string
	rt := &runtime{closers: []func() error{
		func() error { order = append(order, "first"); return nil },
		func() error { order = append(order, "second"); return errors.New("second failed") },
	}}

	err := rt.Close()

	assert.EqualError(t, err, "second failed")
	assert.Equal(t, []string{"second", "first"}, order)
	assert.NoError(t, rt.Close())
}
