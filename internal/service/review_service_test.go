package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"doc-review-be/internal/apperror"
	"doc-review-be/internal/dto"
	"doc-review-be/internal/entity"
	"doc-review-be/internal/pkg/logger"
	"doc-review-be/internal/pkg/mailer"
	"doc-review-be/internal/repository/contract"
	"doc-review-be/internal/repository/implementation"
	"doc-review-be/pkg/artifact"
	"doc-review-be/pkg/embedding"
	"doc-review-be/pkg/llm"
	"doc-review-be/pkg/review/intent"
	"doc-review-be/pkg/review/prompt"
	"doc-review-be/pkg/review/response"
	"doc-review-be/pkg/review/state"
	"doc-review-be/pkg/vectorstore"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic = "review.events"

type stubLLM struct {
	answer string
	err    error
	calls  int
}

func (s *stubLLM) Name() string { return "stub" }

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	s.calls++
	return s.answer, s.err
}

func (s *stubLLM) Generate(ctx context.Context, p string, options ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: p}}, options...)
}

type testEnv struct {
	store    *vectorstore.Store
	repo     contract.ReviewRepository
	sessions ISessionService
	chat     IChatService
	cleanup  ICleanupService
	consumer IConsumerService
	llm      *stubLLM
}

type envOptions struct {
	backend  string
	dial     vectorstore.Dialer
	fallback bool
	llm      *stubLLM
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	log := logger.NewNopLogger()
	if opts.backend == "" {
		opts.backend = vectorstore.MemoryBackendName
	}

	collections := implementation.Collections{
		Sessions: "review_sessions",
		Issues:   "nitpick_issues",
		Chunks:   "document_chunks",
		Turns:    "conversation_turns",
	}
	store := vectorstore.NewStore(vectorstore.Options{
		Backend:      opts.backend,
		AutoFallback: opts.fallback,
		Dimension:    16,
		Collections:  collections.All(),
	}, opts.dial, log)
	embedder := embedding.NewEmbedder(nil, 16, log)
	repo := implementation.NewReviewRepository(store, embedder, collections)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })
	consumer := NewConsumerService(pubSub, testTopic, log, log)
	require.NoError(t, consumer.Consume(context.Background()))
	publisher := NewPublisherService(testTopic, pubSub, nil, log)

	var provider llm.LLMProvider
	if opts.llm != nil {
		provider = opts.llm
	}
	generator := response.NewGenerator(provider, "stub-model", log)
	builder := prompt.NewBuilder()

	sessions := NewSessionService(repo, 40, 10, log)
	chat := NewChatService(sessions, repo, intent.NewClassifier(), state.NewManager(log), builder, generator, nil, publisher, log)
	cleanup := NewCleanupService(
		sessions, builder, generator,
		artifact.NewWriter(t.TempDir()),
		mailer.NewEmailService("", 0, "", "", log),
		publisher,
		CleanupOptions{EmailFrom: "investor@example.com", EmailTo: "founders@example.com"},
		log,
	)

	return &testEnv{
		store:    store,
		repo:     repo,
		sessions: sessions,
		chat:     chat,
		cleanup:  cleanup,
		consumer: consumer,
		llm:      opts.llm,
	}
}

func scenarioRequest() *dto.StartSessionRequest {
	return &dto.StartSessionRequest{
		SessionId:        "s1",
		CompanyName:      "Acme",
		DocId:            "doc-1",
		DocTitle:         "Sustainability Report",
		FullDocumentText: "Scope 1 and 2 emissions are reported.",
		ChunkIds:         []string{"c1"},
		Issues: []dto.IssueInput{{
			Text:             "Scope 3 undisclosed",
			Severity:         entity.SeverityHigh,
			Citations:        []string{"c1"},
			SuggestedChanges: []string{"Disclose Scope 3 emissions"},
		}},
	}
}

func mustStart(t *testing.T, env *testEnv, req *dto.StartSessionRequest) *dto.StartSessionResponse {
	t.Helper()
	res, err := env.sessions.StartSession(context.Background(), req.SessionId, req, false)
	require.NoError(t, err)
	return res
}

func TestStartSession_CitationSanitization(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	req := &dto.StartSessionRequest{
		SessionId: "s1",
		ChunkIds:  []string{"c1", "c2"},
		Issues: []dto.IssueInput{
			{Text: "first", Citations: []string{"c1", "c3"}},
			{Text: "second", Citations: []string{"c9", "c2", "c2"}},
		},
	}

	res := mustStart(t, env, req)
	assert.Equal(t, StartStatusCreated, res.Status)
	assert.Equal(t, 2, res.IssueCount)
	assert.Equal(t, 2, res.DroppedCitationCount)

	session, err := env.sessions.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, session.Issues[0].Citations)
	assert.Equal(t, []string{"c2"}, session.Issues[1].Citations)

	stored, err := env.repo.FindIssue(context.Background(), "s1", "issue_001")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, []string{"c1"}, stored.Citations)
}

func TestStartSession_ConflictAndForce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, envOptions{})
	mustStart(t, env, scenarioRequest())

	_, err := env.sessions.StartSession(ctx, "s1", scenarioRequest(), false)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	req := scenarioRequest()
	req.CompanyName = "Acme Holdings"
	res, err := env.sessions.StartSession(ctx, "s1", req, true)
	require.NoError(t, err)
	assert.Equal(t, StartStatusOverwritten, res.Status)

	session, err := env.sessions.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Holdings", session.CompanyName)
}

func TestStartSession_Validation(t *testing.T) {
	tests := []struct {
		name   string
		pathId string
		mutate func(r *dto.StartSessionRequest)
	}{
		{name: "path and body id differ", pathId: "other", mutate: func(r *dto.StartSessionRequest) {}},
		{name: "duplicate issue id", pathId: "s1", mutate: func(r *dto.StartSessionRequest) {
			r.Issues = []dto.IssueInput{{IssueId: "x", Text: "a"}, {IssueId: "x", Text: "b"}}
		}},
		{name: "issue without title or text", pathId: "s1", mutate: func(r *dto.StartSessionRequest) {
			r.Issues = []dto.IssueInput{{Summary: "only a summary"}}
		}},
		{name: "duplicate chunk id", pathId: "s1", mutate: func(r *dto.StartSessionRequest) {
			r.DocumentChunks = []dto.ChunkInput{{ChunkId: "c1"}, {ChunkId: "c1"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, envOptions{})
			req := scenarioRequest()
			tt.mutate(req)
			_, err := env.sessions.StartSession(context.Background(), tt.pathId, req, false)
			require.Error(t, err)
			assert.True(t, apperror.Is(err, apperror.KindValidation))
		})
	}
}

func TestStartSession_AssignsIssueIdsInInputOrder(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	req := &dto.StartSessionRequest{
		SessionId: "s1",
		Issues: []dto.IssueInput{
			{Text: "a"},
			{IssueId: "issue_001", Text: "b", Status: "in_progress"},
			{Text: "c"},
		},
	}
	mustStart(t, env, req)

	session, err := env.sessions.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	ids := []string{session.Issues[0].IssueId, session.Issues[1].IssueId, session.Issues[2].IssueId}
	assert.Equal(t, []string{"issue_002", "issue_001", "issue_003"}, ids)
	assert.Equal(t, entity.IssueStatusOpen, session.Issues[0].Status)
	assert.Equal(t, entity.IssueStatusInProgress, session.Issues[1].Status)
}

func TestStartSession_SplitsFullTextIntoChunks(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, envOptions{})
	req := &dto.StartSessionRequest{
		SessionId:        "s1",
		DocTitle:         "Deck",
		FullDocumentText: strings.Repeat("Revenue grew strongly. ", 6),
		Issues:           []dto.IssueInput{{Text: "claim", Citations: []string{"chunk_001", "chunk_999"}}},
	}

	res := mustStart(t, env, req)
	assert.Greater(t, res.ChunkCount, 1)
	assert.Equal(t, 1, res.DroppedCitationCount)

	chunk, err := env.repo.FindChunk(ctx, "s1", "chunk_001")
	require.NoError(t, err)
	require.NotNil(t, chunk)
	assert.Equal(t, "Deck", chunk.SourceName)
}

func TestGetSession_NotFound(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	_, err := env.sessions.GetSession(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestChat_ResolveViaPendingScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, envOptions{})
	mustStart(t, env, scenarioRequest())

	first, err := env.chat.Chat(ctx, "s1", &dto.ChatRequest{Message: "please add a 2026 deadline", IssueId: "issue_001"})
	require.NoError(t, err)
	require.Len(t, first.InferredUpdates, 1)
	assert.Equal(t, "issue_001", first.InferredUpdates[0].IssueId)
	assert.Equal(t, "open", first.InferredUpdates[0].PreviousStatus)
	assert.Equal(t, "in_progress", first.InferredUpdates[0].NewStatus)
	require.NotNil(t, first.PendingResolutionId)
	assert.Equal(t, "issue_001", *first.PendingResolutionId)
	assert.Equal(t, []string{"issue_001"}, first.Citations)
	assert.Equal(t, []string{"c1"}, first.ChunkCitations)
	assert.Equal(t, response.ChatFallback, first.Answer)

	second, err := env.chat.Chat(ctx, "s1", &dto.ChatRequest{Message: "mark this resolved"})
	require.NoError(t, err)
	require.Len(t, second.InferredUpdates, 1)
	assert.Equal(t, "in_progress", second.InferredUpdates[0].PreviousStatus)
	assert.Equal(t, "resolved", second.InferredUpdates[0].NewStatus)
	assert.Nil(t, second.PendingResolutionId)
	assert.Equal(t, "ready_for_cleanup", second.SessionStatus)

	session, err := env.sessions.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusReadyForCleanup, session.Status)
	assert.Empty(t, session.PendingResolutionId)
	assert.Contains(t, session.Issues[0].AcceptedChangeInstructions, "please add a 2026 deadline")

	issue, err := env.repo.FindIssue(ctx, "s1", "issue_001")
	require.NoError(t, err)
	assert.Equal(t, entity.IssueStatusResolved, issue.Status)

	// two status changes plus the ready-for-cleanup transition
	require.Eventually(t, func() bool { return env.consumer.Handled() == 3 }, 2*time.Second, 10*time.Millisecond)
}

func TestChat_UsesGeneratedAnswer(t *testing.T) {
	tests := []struct {
		name string
		llm  *stubLLM
		want string
	}{
		{name: "completion", llm: &stubLLM{answer: "  Add a Scope 3 section.  "}, want: "Add a Scope 3 section."},
		{name: "empty completion", llm: &stubLLM{answer: "   "}, want: response.ChatFallback},
		{name: "provider error", llm: &stubLLM{err: errors.New("rate limited")}, want: response.ChatFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, envOptions{llm: tt.llm})
			mustStart(t, env, scenarioRequest())

			res, err := env.chat.Chat(context.Background(), "s1", &dto.ChatRequest{Message: "what is missing?"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Answer)
			assert.Equal(t, 1, tt.llm.calls)
		})
	}
}

func TestChat_NoTargetLeavesIssuesAlone(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, envOptions{})
	req := scenarioRequest()
	req.Issues = append(req.Issues, dto.IssueInput{Text: "Board seat terms unclear"})
	mustStart(t, env, req)

	res, err := env.chat.Chat(ctx, "s1", &dto.ChatRequest{Message: "please change the wording"})
	require.NoError(t, err)
	assert.Empty(t, res.InferredUpdates)
	assert.Nil(t, res.TargetIssueId)
	assert.Empty(t, res.Citations)
	assert.Equal(t, []string{"c1"}, res.ChunkCitations)

	session, err := env.sessions.GetSession(ctx, "s1")
	require.NoError(t, err)
	for _, issue := range session.Issues {
		assert.Equal(t, entity.IssueStatusOpen, issue.Status)
	}
}

func TestChat_UnknownSession(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	_, err := env.chat.Chat(context.Background(), "nope", &dto.ChatRequest{Message: "hi"})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestChat_BlankMessage(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	mustStart(t, env, scenarioRequest())

	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := env.chat.Chat(context.Background(), "s1", &dto.ChatRequest{Message: msg})
		assert.True(t, apperror.Is(err, apperror.KindValidation), "message %q", msg)
	}
}

// Two writers that load the same session both succeed; the later save wins
// and the earlier change is lost.
func TestSaveSession_LastWriterWins(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, envOptions{})
	mustStart(t, env, scenarioRequest())

	a, err := env.sessions.GetSession(ctx, "s1")
	require.NoError(t, err)
	b, err := env.sessions.GetSession(ctx, "s1")
	require.NoError(t, err)

	a.Issues[0].Status = entity.IssueStatusResolved
	a.RecomputeStatus()
	require.NoError(t, env.sessions.SaveSession(ctx, a))

	b.Issues[0].AcceptedChangeInstructions = "add a deadline"
	require.NoError(t, env.sessions.SaveSession(ctx, b))

	final, err := env.sessions.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, entity.IssueStatusOpen, final.Issues[0].Status)
	assert.Equal(t, "add a deadline", final.Issues[0].AcceptedChangeInstructions)
	assert.Equal(t, entity.SessionStatusActive, final.Status)
}

func TestSaveSession_RefiltersCitations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, envOptions{})
	mustStart(t, env, scenarioRequest())

	session, err := env.sessions.GetSession(ctx, "s1")
	require.NoError(t, err)
	session.Issues[0].Citations = []string{"c1", "ghost"}
	require.NoError(t, env.sessions.SaveSession(ctx, session))

	stored, err := env.sessions.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, stored.Issues[0].Citations)
}

func TestFallbackIsTransparent(t *testing.T) {
	ctx := context.Background()
	unavailable := func() (vectorstore.Backend, error) { return nil, vectorstore.ErrClientUnavailable }

	run := func(env *testEnv) (*dto.ChatResponse, *entity.ReviewSession) {
		mustStart(t, env, scenarioRequest())
		res, err := env.chat.Chat(ctx, "s1", &dto.ChatRequest{Message: "please add a 2026 deadline"})
		require.NoError(t, err)
		session, err := env.sessions.GetSession(ctx, "s1")
		require.NoError(t, err)
		return res, session
	}

	memEnv := newTestEnv(t, envOptions{})
	fbEnv := newTestEnv(t, envOptions{backend: vectorstore.PgVectorBackendName, dial: unavailable, fallback: true})

	memRes, memSession := run(memEnv)
	fbRes, fbSession := run(fbEnv)

	assert.Equal(t, vectorstore.StateDegraded, fbEnv.store.State())
	assert.Equal(t, memRes.InferredUpdates, fbRes.InferredUpdates)
	assert.Equal(t, memRes.PendingResolutionId, fbRes.PendingResolutionId)
	assert.Equal(t, memSession.Status, fbSession.Status)
	assert.Equal(t, memSession.Issues[0].Status, fbSession.Issues[0].Status)
}

func TestFailedStoreSurfacesBackendFault(t *testing.T) {
	unavailable := func() (vectorstore.Backend, error) { return nil, vectorstore.ErrClientUnavailable }
	env := newTestEnv(t, envOptions{backend: vectorstore.PgVectorBackendName, dial: unavailable})

	req := scenarioRequest()
	_, err := env.sessions.StartSession(context.Background(), "s1", req, false)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindBackendFault))
	assert.Equal(t, vectorstore.StateFailed, env.store.State())
}

func boolPtr(b bool) *bool { return &b }

func TestGenerateCleanup_RequiresConfirmation(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	mustStart(t, env, scenarioRequest())

	for _, confirmed := range []*bool{nil, boolPtr(false)} {
		_, err := env.cleanup.GenerateCleanup(context.Background(), "s1", &dto.CleanupRequest{Confirmed: confirmed})
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	}
}

func TestGenerateCleanup_WritesArtifacts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, envOptions{})
	req := scenarioRequest()
	req.Issues = append(req.Issues, dto.IssueInput{Text: "Board seat terms unclear"})
	mustStart(t, env, req)

	_, err := env.chat.Chat(ctx, "s1", &dto.ChatRequest{Message: "please add a 2026 deadline", IssueId: "issue_001"})
	require.NoError(t, err)

	res, err := env.cleanup.GenerateCleanup(ctx, "s1", &dto.CleanupRequest{Confirmed: boolPtr(true), InvestorNote: "thanks"})
	require.NoError(t, err)
	assert.Equal(t, "completed", res.Status)
	assert.Equal(t, []string{"issue_001", "issue_002"}, res.UnresolvedIssueIds)
	assert.Equal(t, []string{
		"Applied: issue_001: please add a 2026 deadline",
		"Unresolved issues intentionally left open by investor: issue_001, issue_002",
	}, res.ChangeLog)
	assert.False(t, res.EmailSent)

	for _, key := range []string{entity.ArtifactRevisedText, entity.ArtifactRevisedPDF, entity.ArtifactInvestorEmail} {
		assert.True(t, artifact.Exists(res.ArtifactPaths[key]), key)
	}

	session, err := env.sessions.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusCompleted, session.Status)
	assert.NotNil(t, session.CompletedAt)

	listed, err := env.cleanup.GetArtifacts(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, res.ArtifactPaths, listed.ArtifactPaths)
	assert.True(t, listed.ExistingArtifacts[entity.ArtifactRevisedPDF])

	// a completed session keeps its status through later chat turns
	_, err = env.chat.Chat(ctx, "s1", &dto.ChatRequest{Message: "mark this resolved", IssueId: "issue_001"})
	require.NoError(t, err)
	session, err = env.sessions.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusCompleted, session.Status)
}

func TestAcceptedChanges(t *testing.T) {
	tests := []struct {
		name   string
		issues []*entity.TrackedIssue
		want   []string
	}{
		{
			name: "instructions win",
			issues: []*entity.TrackedIssue{
				{IssueId: "issue_001", AcceptedChangeInstructions: " add a deadline ", SuggestedChanges: []string{"x"}},
				{IssueId: "issue_002", Title: "Board", SuggestedChanges: []string{"y"}},
			},
			want: []string{"issue_001: add a deadline"},
		},
		{
			name: "falls back to first suggested change",
			issues: []*entity.TrackedIssue{
				{IssueId: "issue_001", Title: "Scope 3", SuggestedChanges: []string{"Disclose", "Estimate"}},
				{IssueId: "issue_002", Text: "Board"},
			},
			want: []string{"issue_001: Scope 3 -> Disclose"},
		},
		{name: "nothing to apply", issues: nil, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := acceptedChanges(&entity.ReviewSession{Issues: tt.issues})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetArtifacts_NotFound(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	_, err := env.cleanup.GetArtifacts(context.Background(), "nope")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
