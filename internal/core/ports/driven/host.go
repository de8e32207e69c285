package driven

import (
	"context"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// Host is the desktop host application's process model.
// The running list is authoritative: sessions may end outside idlekit.
type Host interface {
	// IsReady reports whether the host application is running.
	IsReady(ctx context.Context) (bool, error)

	// ListRunning returns the IDs of titles currently being idled.
	ListRunning(ctx context.Context) ([]int, error)

	// StartSession starts idling one title.
	StartSession(ctx context.Context, title domain.Title) error

	// StopSession stops idling one title.
	StopSession(ctx context.Context, titleID int) error

	// StartBulk starts idling every title in one command.
	StartBulk(ctx context.Context, titles []domain.Title) error

	// StopBulk stops every session started by StartBulk.
	StopBulk(ctx context.Context) error
}
