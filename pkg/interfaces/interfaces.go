package interfaces

import (
	"context"

	"proctorhub/pkg/types"
)

// Sender is the outbound side of one live connection. Implementations must
// preserve the order of Send calls made from a single goroutine and must
// not block on the network (queue-and-return), so fan-out loops cannot be
// stalled by one slow recipient.
type Sender interface {
	Send(event string, data any) error
}

// QuizStore is the durable store for question papers and submissions. It
// is the source of truth; the hub only mirrors store writes as best-effort
// live notifications.
type QuizStore interface {
	CreatePaper(ctx context.Context, paper *types.Paper) error
	GetPaper(ctx context.Context, paperID string) (*types.Paper, error)
	GetLatestPaper(ctx context.Context) (*types.Paper, error)
	CreateSubmission(ctx context.Context, sub *types.Submission) error
	GetLeaderboard(ctx context.Context, paperID string) ([]types.LeaderboardEntry, error)
}
