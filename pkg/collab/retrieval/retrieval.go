// Package retrieval defines the Provider interface for the document
// retrieval collaborator that answers product questions (card, loan, and
// savings offers).
package retrieval

import "context"

// Provider is the abstraction over the retrieval backend.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Query answers a product question from the document corpus.
	Query(ctx context.Context, question string) (string, error)
}
