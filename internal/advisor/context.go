package advisor

import "context"

// ContextSource assembles the bounded profile/journal/intelligence strings
// fed into generation and critique prompts. The assembly layer (length
// budgeting, retrieval, freshness) is a collaborator concern; each method
// returns a ready-to-embed string, empty when nothing is available.
type ContextSource interface {
	ProfileContext(ctx context.Context) (string, error)
	JournalContext(ctx context.Context, query string) (string, error)
	IntelContext(ctx context.Context, query string) (string, error)
	FilteredIntelContext(ctx context.Context, query string) (string, error)
}
