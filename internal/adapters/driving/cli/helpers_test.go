package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Januuus/chatbot/internal/adapters/driven/storage/memory"
	"github.com/Januuus/chatbot/internal/config"
)

type testRuntime struct {
	*runtime
	conversations *memory.ConversationStore
}

// setupTestRuntime replaces openRuntime with in-memory services and
// restores it, along with flag state, when the test ends.
func setupTestRuntime(t *testing.T) *testRuntime {
	t.Helper()

	cfg := config.Default()
	cfg.Documents.TrainingDir = t.TempDir()
	cfg.Documents.ChunkSize = 200

	convs := memory.NewConversationStore()
	rt := &runtime{
		cfg:           cfg,
		schemaVersion: func(context.Context) (int, error) { return 3, nil },
	}
	require.NoError(t, rt.wire(memory.NewDocumentStore(), convs, nil))

	original := openRuntime
	openRuntime = func(context.Context, config.Requirements) (*runtime, error) {
		return rt, nil
	}
	t.Cleanup(func() {
		openRuntime = original
		resetFlags()
	})

	return &testRuntime{runtime: rt, conversations: convs}
}

func resetFlags() {
	documentSearchLimit = 10
	documentSearchJSON = false
	documentGetChunks = false
	historyLimit = 10
	ingestWatch = false
	serveMemory = false
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
