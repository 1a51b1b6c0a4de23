package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Januuus/chatbot/internal/adapters/driven/storage/memory"
	"github.com/Januuus/chatbot/internal/core/domain"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestTrainingDocumentID_Deterministic(t *testing.T) {
	assert.Equal(t, TrainingDocumentID("a/b.txt"), TrainingDocumentID("a/./b.txt"))
	assert.NotEqual(t, TrainingDocumentID("a.txt"), TrainingDocumentID("b.txt"))
}

func TestTrainingService_ProcessDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "intro.txt", "Welcome to the course. Read everything.")
	writeFile(t, dir, "notes/week1.md", "# Week one\nCells are small.")
	writeFile(t, dir, "broken.docx", "not a zip")
	writeFile(t, dir, "image.png", "ignored")
	writeFile(t, dir, ".hidden/secret.txt", "skip me")

	store := memory.NewDocumentStore()
	svc := NewTrainingService(newTestDocumentService(store, nil))
	ctx := context.Background()

	results, err := svc.ProcessDirectory(ctx, dir)
	require.NoError(t, err)
	require.Len(t, results, 3)

	byName := map[string]bool{}
	for _, r := range results {
		byName[r.Filename] = r.OK()
	}
	assert.Equal(t, map[string]bool{
		"broken.docx":    false,
		"intro.txt":      true,
		"notes/week1.md": true,
	}, byName)

	doc, err := store.GetDocument(ctx, TrainingDocumentID("intro.txt"))
	require.NoError(t, err)
	assert.True(t, doc.IsReference)
	assert.Equal(t, "intro.txt", doc.Filename)

	refs, err := store.GetAllChunks(ctx, true)
	require.NoError(t, err)
	assert.Len(t, refs, 2)
}

func TestTrainingService_ProcessDirectory_RerunUpserts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "Version one.")

	store := memory.NewDocumentStore()
	svc := NewTrainingService(newTestDocumentService(store, nil))
	ctx := context.Background()

	_, err := svc.ProcessDirectory(ctx, dir)
	require.NoError(t, err)
	writeFile(t, dir, "a.txt", "Version two.")
	results, err := svc.ProcessDirectory(ctx, dir)
	require.NoError(t, err)
	require.Len(t, results, 1)

	refs, err := store.GetAllChunks(ctx, true)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "Version two.", refs[0].Content)
	assert.Equal(t, results[0].DocumentID, refs[0].DocumentID)
}

func TestTrainingService_ProcessDirectory_Missing(t *testing.T) {
	svc := NewTrainingService(newTestDocumentService(memory.NewDocumentStore(), nil))

	_, err := svc.ProcessDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTrainingService_ProcessDirectory_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file.txt", "x")
	svc := NewTrainingService(newTestDocumentService(memory.NewDocumentStore(), nil))

	_, err := svc.ProcessDirectory(context.Background(), filepath.Join(dir, "file.txt"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTrainingService_ProcessFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sub/a.txt", "Hello there.")
	svc := NewTrainingService(newTestDocumentService(memory.NewDocumentStore(), nil))
	ctx := context.Background()

	rel := svc.ProcessFile(ctx, dir, "sub/a.txt")
	require.NoError(t, rel.Err)
	assert.Equal(t, "sub/a.txt", rel.Filename)
	assert.Equal(t, 1, rel.Chunks)

	abs := svc.ProcessFile(ctx, dir, filepath.Join(dir, "sub", "a.txt"))
	require.NoError(t, abs.Err)
	assert.Equal(t, rel.DocumentID, abs.DocumentID)

	unsupported := svc.ProcessFile(ctx, dir, "x.exe")
	assert.ErrorIs(t, unsupported.Err, domain.ErrUnsupportedType)

	missing := svc.ProcessFile(ctx, dir, "gone.txt")
	assert.Error(t, missing.Err)
	assert.False(t, missing.OK())
}
