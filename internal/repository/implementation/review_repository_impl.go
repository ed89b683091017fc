package implementation

import (
	"context"
	"encoding/json"
	"fmt"

	"doc-review-be/internal/apperror"
	"doc-review-be/internal/entity"
	"doc-review-be/internal/mapper"
	"doc-review-be/internal/model"
	"doc-review-be/internal/repository/contract"
	"doc-review-be/pkg/embedding"
	"doc-review-be/pkg/vectorstore"
)

// Collections names the four point collections the repository writes to.
type Collections struct {
	Sessions string
	Issues   string
	Chunks   string
	Turns    string
}

func (c Collections) All() []string {
	return []string{c.Sessions, c.Issues, c.Chunks, c.Turns}
}

type ReviewRepositoryImpl struct {
	store       *vectorstore.Store
	embedder    *embedding.Embedder
	collections Collections
	mapper      *mapper.ReviewMapper
}

func NewReviewRepository(store *vectorstore.Store, embedder *embedding.Embedder, collections Collections) contract.ReviewRepository {
	return &ReviewRepositoryImpl{
		store:       store,
		embedder:    embedder,
		collections: collections,
		mapper:      mapper.NewReviewMapper(),
	}
}

// FindSession returns nil, nil when the session has never been stored.
func (r *ReviewRepositoryImpl) FindSession(ctx context.Context, sessionId string) (*entity.ReviewSession, error) {
	var rec model.ReviewSessionRecord
	found, err := r.get(ctx, r.collections.Sessions, vectorstore.SessionKey(sessionId), &rec)
	if err != nil || !found {
		return nil, err
	}
	return r.mapper.SessionToEntity(&rec), nil
}

func (r *ReviewRepositoryImpl) SaveSession(ctx context.Context, session *entity.ReviewSession) error {
	text := fmt.Sprintf("%s\n%s\n%s", session.CompanyName, session.DocTitle, session.DocId)
	vector := r.embedder.Embed(ctx, text, embedding.TaskRetrievalDocument)
	return r.put(ctx, r.collections.Sessions, vectorstore.SessionKey(session.SessionId), vector, r.mapper.SessionToRecord(session))
}

func (r *ReviewRepositoryImpl) FindIssue(ctx context.Context, sessionId, issueId string) (*entity.TrackedIssue, error) {
	var rec model.TrackedIssueRecord
	found, err := r.get(ctx, r.collections.Issues, vectorstore.IssueKey(sessionId, issueId), &rec)
	if err != nil || !found {
		return nil, err
	}
	return r.mapper.IssueToEntity(&rec), nil
}

func (r *ReviewRepositoryImpl) SaveIssue(ctx context.Context, sessionId string, issue *entity.TrackedIssue) error {
	text := fmt.Sprintf("%s\n%s\n%s", issue.Label(), issue.Summary, issue.Severity)
	vector := r.embedder.Embed(ctx, text, embedding.TaskRetrievalDocument)
	return r.put(ctx, r.collections.Issues, vectorstore.IssueKey(sessionId, issue.IssueId), vector, r.mapper.IssueToRecord(sessionId, issue))
}

func (r *ReviewRepositoryImpl) FindChunk(ctx context.Context, sessionId, chunkId string) (*entity.DocumentChunk, error) {
	var rec model.DocumentChunkRecord
	found, err := r.get(ctx, r.collections.Chunks, vectorstore.ChunkKey(sessionId, chunkId), &rec)
	if err != nil || !found {
		return nil, err
	}
	return r.mapper.ChunkToEntity(&rec), nil
}

func (r *ReviewRepositoryImpl) SaveChunk(ctx context.Context, sessionId, docId string, chunk *entity.DocumentChunk) error {
	vector := r.embedder.Embed(ctx, chunk.Text, embedding.TaskRetrievalDocument)
	return r.put(ctx, r.collections.Chunks, vectorstore.ChunkKey(sessionId, chunk.ChunkId), vector, r.mapper.ChunkToRecord(sessionId, docId, chunk))
}

func (r *ReviewRepositoryImpl) FindTurn(ctx context.Context, sessionId, turnId string) (*entity.ConversationTurn, error) {
	var rec model.ConversationTurnRecord
	found, err := r.get(ctx, r.collections.Turns, vectorstore.TurnKey(sessionId, turnId), &rec)
	if err != nil || !found {
		return nil, err
	}
	return r.mapper.TurnToEntity(&rec), nil
}

func (r *ReviewRepositoryImpl) SaveTurn(ctx context.Context, turn *entity.ConversationTurn) error {
	vector := r.embedder.Embed(ctx, turn.Message, embedding.TaskRetrievalDocument)
	return r.put(ctx, r.collections.Turns, vectorstore.TurnKey(turn.SessionId, turn.TurnId), vector, r.mapper.TurnToRecord(turn))
}

func (r *ReviewRepositoryImpl) put(ctx context.Context, collection string, key vectorstore.Key, vector []float32, record interface{}) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return apperror.BackendFault(err, "encode %s record", collection)
	}
	return r.store.Put(ctx, collection, key, vector, payload)
}

func (r *ReviewRepositoryImpl) get(ctx context.Context, collection string, key vectorstore.Key, out interface{}) (bool, error) {
	payload, found, err := r.store.Get(ctx, collection, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return false, apperror.BackendFault(err, "decode %s record", collection)
	}
	return true, nil
}
