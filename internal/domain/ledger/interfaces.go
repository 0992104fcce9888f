package ledger

import (
	"context"
	"time"
)

// Store persists the document. Update runs fn between a load and a save
// under the store's lock; when fn fails nothing is written.
type Store interface {
	Load(ctx context.Context) (*Document, error)
	Update(ctx context.Context, fn func(doc *Document) error) (*Document, error)
}

// Mirror replicates a single submission to an external service. Failures
// are reported in the outcome, never as errors.
type Mirror interface {
	Notify(ctx context.Context, sub Submission) MirrorOutcome
}

// Recorder observes operation outcomes.
type Recorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}
