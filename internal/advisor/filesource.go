package advisor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// maxContextBytes bounds each context string fed into a prompt.
const maxContextBytes = 16 * 1024

// FileContextSource is a minimal ContextSource reading plain-text context
// files from a directory (profile.md, journal.md, intel.md). The full
// assembly layer with retrieval and freshness weighting lives outside this
// module; this source keeps the binary usable without it.
type FileContextSource struct {
	dir string
}

// NewFileContextSource creates a source over the given directory.
func NewFileContextSource(dir string) *FileContextSource {
	return &FileContextSource{dir: dir}
}

// ProfileContext returns the contents of profile.md.
func (f *FileContextSource) ProfileContext(ctx context.Context) (string, error) {
	return f.read("profile.md")
}

// JournalContext returns the contents of journal.md. The query is ignored;
// retrieval is a collaborator concern.
func (f *FileContextSource) JournalContext(ctx context.Context, query string) (string, error) {
	return f.read("journal.md")
}

// IntelContext returns the contents of intel.md.
func (f *FileContextSource) IntelContext(ctx context.Context, query string) (string, error) {
	return f.read("intel.md")
}

// FilteredIntelContext returns the same intel digest; filtering is a
// collaborator concern.
func (f *FileContextSource) FilteredIntelContext(ctx context.Context, query string) (string, error) {
	return f.read("intel.md")
}

// read loads one context file, empty when missing, truncated to the
// per-context byte budget.
func (f *FileContextSource) read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	text := strings.TrimSpace(string(data))
	if len(text) > maxContextBytes {
		text = text[:maxContextBytes]
	}
	return text, nil
}
