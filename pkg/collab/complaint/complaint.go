// Package complaint defines the Lodger interface for the complaint-filing
// collaborator.
package complaint

import "context"

// Lodger is the abstraction over the complaint service.
// Implementations must be safe for concurrent use.
type Lodger interface {
	// Lodge files a complaint and returns its assigned identifier.
	Lodge(ctx context.Context, phone, text, imageURL string) (string, error)
}
