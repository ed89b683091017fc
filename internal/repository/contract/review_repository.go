package contract

import (
	"context"

	"doc-review-be/internal/entity"
)

// ReviewRepository persists review records as keyed points. Every save is a
// whole-record overwrite.
type ReviewRepository interface {
	FindSession(ctx context.Context, sessionId string) (*entity.ReviewSession, error)
	SaveSession(ctx context.Context, session *entity.ReviewSession) error
	FindIssue(ctx context.Context, sessionId, issueId string) (*entity.TrackedIssue, error)
	SaveIssue(ctx context.Context, sessionId string, issue *entity.TrackedIssue) error
	FindChunk(ctx context.Context, sessionId, chunkId string) (*entity.DocumentChunk, error)
	SaveChunk(ctx context.Context, sessionId, docId string, chunk *entity.DocumentChunk) error
	FindTurn(ctx context.Context, sessionId, turnId string) (*entity.ConversationTurn, error)
	SaveTurn(ctx context.Context, turn *entity.ConversationTurn) error
}
