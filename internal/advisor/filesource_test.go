package advisor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileContextSourceReadsFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "profile.md"), []byte("# Profile\nSenior engineer.\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "intel.md"), []byte("Rates dropped.\n"), 0644))

	src := NewFileContextSource(dir)
	ctx := context.Background()

	profile, err := src.ProfileContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "# Profile\nSenior engineer.", profile)

	intel, err := src.FilteredIntelContext(ctx, "learning")
	require.NoError(t, err)
	assert.Equal(t, "Rates dropped.", intel)
}

func TestFileContextSourceMissingFileIsEmpty(t *testing.T) {
	src := NewFileContextSource(t.TempDir())

	journal, err := src.JournalContext(context.Background(), "career")
	require.NoError(t, err)
	assert.Empty(t, journal)
}

func TestFileContextSourceTruncatesLargeFiles(t *testing.T) {
	dir := t.TempDir()
	big := strings.Repeat("journal entry\n", 4096)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "journal.md"), []byte(big), 0644))

	src := NewFileContextSource(dir)
	journal, err := src.JournalContext(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, journal, maxContextBytes)
}
