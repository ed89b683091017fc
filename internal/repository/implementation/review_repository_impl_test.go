package implementation

import (
	"context"
	"testing"
	"time"

	"doc-review-be/internal/apperror"
	"doc-review-be/internal/entity"
	"doc-review-be/internal/pkg/logger"
	"doc-review-be/pkg/embedding"
	"doc-review-be/pkg/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCollections = Collections{
	Sessions: "review_sessions",
	Issues:   "nitpick_issues",
	Chunks:   "document_chunks",
	Turns:    "conversation_turns",
}

func newTestRepository(backend string, dial vectorstore.Dialer, fallback bool) *ReviewRepositoryImpl {
	log := logger.NewNopLogger()
	store := vectorstore.NewStore(vectorstore.Options{
		Backend:      backend,
		AutoFallback: fallback,
		Dimension:    16,
		Collections:  testCollections.All(),
	}, dial, log)
	embedder := embedding.NewEmbedder(nil, 16, log)
	return NewReviewRepository(store, embedder, testCollections).(*ReviewRepositoryImpl)
}

func sampleSession() *entity.ReviewSession {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &entity.ReviewSession{
		SessionId:           "s1",
		CompanyName:         "Acme",
		DocId:               "doc-1",
		DocTitle:            "SAFE",
		Status:              entity.SessionStatusActive,
		PendingResolutionId: "issue_001",
		ChunkIds:            []string{"c1"},
		Issues: []*entity.TrackedIssue{{
			IssueId:   "issue_001",
			Text:      "Scope 3 undisclosed",
			Citations: []string{"c1"},
			Status:    entity.IssueStatusInProgress,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestReviewRepository_SessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(vectorstore.MemoryBackendName, nil, false)

	missing, err := repo.FindSession(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.SaveSession(ctx, sampleSession()))

	got, err := repo.FindSession(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "issue_001", got.PendingResolutionId)
	require.Len(t, got.Issues, 1)
	assert.Equal(t, entity.IssueStatusInProgress, got.Issues[0].Status)
	assert.Equal(t, []string{"c1"}, got.Issues[0].Citations)
}

func TestReviewRepository_SaveSessionOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(vectorstore.MemoryBackendName, nil, false)

	first := sampleSession()
	require.NoError(t, repo.SaveSession(ctx, first))

	second := sampleSession()
	second.Issues = nil
	second.PendingResolutionId = ""
	second.Status = entity.SessionStatusReadyForCleanup
	require.NoError(t, repo.SaveSession(ctx, second))

	got, err := repo.FindSession(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got.Issues)
	assert.Empty(t, got.PendingResolutionId)
	assert.Equal(t, entity.SessionStatusReadyForCleanup, got.Status)
}

func TestReviewRepository_IssueChunkTurn(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(vectorstore.MemoryBackendName, nil, false)
	session := sampleSession()

	require.NoError(t, repo.SaveIssue(ctx, session.SessionId, session.Issues[0]))
	issue, err := repo.FindIssue(ctx, "s1", "issue_001")
	require.NoError(t, err)
	require.NotNil(t, issue)
	assert.Equal(t, "Scope 3 undisclosed", issue.Text)

	other, err := repo.FindIssue(ctx, "s2", "issue_001")
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, repo.SaveChunk(ctx, "s1", "doc-1", &entity.DocumentChunk{ChunkId: "c1", Text: "Scope 3 emissions are not reported."}))
	chunk, err := repo.FindChunk(ctx, "s1", "c1")
	require.NoError(t, err)
	require.NotNil(t, chunk)
	assert.Equal(t, "Scope 3 emissions are not reported.", chunk.Text)

	turn := &entity.ConversationTurn{
		TurnId:         "t1",
		SessionId:      "s1",
		ConversationId: "default",
		Role:           entity.RoleUser,
		Message:        "please add a 2026 deadline",
		IssueId:        "issue_001",
		InferredUpdates: []entity.StatusUpdate{{
			IssueId:        "issue_001",
			PreviousStatus: entity.IssueStatusOpen,
			NewStatus:      entity.IssueStatusInProgress,
			Reason:         "edit requested",
		}},
	}
	require.NoError(t, repo.SaveTurn(ctx, turn))
	gotTurn, err := repo.FindTurn(ctx, "s1", "t1")
	require.NoError(t, err)
	require.NotNil(t, gotTurn)
	assert.Equal(t, turn.InferredUpdates, gotTurn.InferredUpdates)
}

func TestReviewRepository_FailedStoreSurfacesBackendFault(t *testing.T) {
	ctx := context.Background()
	unavailable := func() (vectorstore.Backend, error) { return nil, vectorstore.ErrClientUnavailable }
	repo := newTestRepository(vectorstore.PgVectorBackendName, unavailable, false)

	err := repo.SaveSession(ctx, sampleSession())
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindBackendFault))

	_, err = repo.FindSession(ctx, "s1")
	assert.True(t, apperror.Is(err, apperror.KindBackendFault))
}

func TestReviewRepository_FallbackIsTransparent(t *testing.T) {
	ctx := context.Background()
	unavailable := func() (vectorstore.Backend, error) { return nil, vectorstore.ErrClientUnavailable }
	repo := newTestRepository(vectorstore.PgVectorBackendName, unavailable, true)

	require.NoError(t, repo.SaveSession(ctx, sampleSession()))
	got, err := repo.FindSession(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s1", got.SessionId)
}
