package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caresync/internal/core/domain"
)

// syncBuffer is a bytes.Buffer safe for the watcher's result goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchCmd_Flags(t *testing.T) {
	assert.Equal(t, "watch [dir]", watchCmd.Use)
	require.NotNil(t, watchCmd.Flags().Lookup("type"))
	require.NotNil(t, watchCmd.Flags().Lookup("existing"))
	flag := watchCmd.Flags().Lookup("debounce")
	require.NotNil(t, flag)
	assert.Equal(t, "500ms", flag.DefValue)
}

func TestWatchCmd_RequiresDir(t *testing.T) {
	_, err := executeCommand("watch")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestWatchCmd_ServiceNotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	documentService = nil

	_, err := executeCommand("watch", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document service not configured")
}

func TestWatchCmd_MissingDir(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("watch", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRunWatch_IngestsExistingFiles(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	resetFlags()
	defer resetFlags()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "labs.pdf"), []byte("%PDF"), 0o600))

	ingested := make(chan string, 1)
	documentService = &MockDocumentService{
		ProcessFunc: func(_ context.Context, _ []byte, filename, documentType string) (*domain.ProcessResult, error) {
			assert.Equal(t, "lab_result", documentType)
			ingested <- filename
			return &domain.ProcessResult{DocumentID: "doc-9", NumChunks: 2}, nil
		},
	}
	watchExisting = true
	watchType = "lab_result"
	watchDebounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetContext(ctx)

	done := make(chan error, 1)
	go func() { done <- runWatch(cmd, []string{dir}) }()

	select {
	case name := <-ingested:
		assert.Equal(t, "labs.pdf", name)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for ingestion")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop")
	}

	assert.Contains(t, out.String(), "Watching "+dir)
	assert.Contains(t, out.String(), "as doc-9 (2 chunks)")
}
