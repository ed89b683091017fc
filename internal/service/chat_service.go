// FILE: internal/service/chat_service.go
package service

import (
	"context"
	"strings"
	"time"

	"doc-review-be/internal/apperror"
	"doc-review-be/internal/dto"
	"doc-review-be/internal/entity"
	"doc-review-be/internal/pkg/logger"
	"doc-review-be/internal/repository/contract"
	"doc-review-be/pkg/events"
	"doc-review-be/pkg/review/intent"
	"doc-review-be/pkg/review/prompt"
	"doc-review-be/pkg/review/response"
	"doc-review-be/pkg/review/retrieval"
	"doc-review-be/pkg/review/state"

	"github.com/google/uuid"
)

const DefaultConversationId = "default"

type IChatService interface {
	Chat(ctx context.Context, sessionId string, req *dto.ChatRequest) (*dto.ChatResponse, error)
}

type chatService struct {
	sessionService   ISessionService
	repo             contract.ReviewRepository
	classifier       *intent.Classifier
	stateManager     *state.Manager
	promptBuilder    *prompt.Builder
	generator        *response.Generator
	retriever        *retrieval.Client
	publisherService IPublisherService
	logger           logger.ILogger
	now              func() time.Time
}

func NewChatService(
	sessionService ISessionService,
	repo contract.ReviewRepository,
	classifier *intent.Classifier,
	stateManager *state.Manager,
	promptBuilder *prompt.Builder,
	generator *response.Generator,
	retriever *retrieval.Client,
	publisherService IPublisherService,
	log logger.ILogger,
) IChatService {
	return &chatService{
		sessionService:   sessionService,
		repo:             repo,
		classifier:       classifier,
		stateManager:     stateManager,
		promptBuilder:    promptBuilder,
		generator:        generator,
		retriever:        retriever,
		publisherService: publisherService,
		logger:           log,
		now:              time.Now,
	}
}

// Chat runs one investor turn: resolve the target issue, classify the
// message, apply transitions, then persist turns, issues and the session in
// that order. Storage errors are returned after the in-memory transitions
// have already been applied.
func (c *chatService) Chat(ctx context.Context, sessionId string, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, apperror.Validation("message is required")
	}

	session, err := c.sessionService.GetSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	conversationId := req.ConversationId
	if conversationId == "" {
		conversationId = DefaultConversationId
	}
	now := c.now().UTC()
	previousStatus := session.Status

	targetId := state.ResolveTarget(session, req.IssueId, message)
	signals := c.classifier.Classify(message)
	updates := c.stateManager.Apply(session, state.Turn{
		TargetId: targetId,
		Message:  message,
		Signals:  signals,
		At:       now,
	})

	citations := []string{}
	if targetId != "" {
		citations = []string{targetId}
	}
	chunkCitations := responseChunkCitations(session, targetId)

	if err := c.repo.SaveTurn(ctx, &entity.ConversationTurn{
		TurnId:          uuid.NewString(),
		SessionId:       sessionId,
		ConversationId:  conversationId,
		Role:            entity.RoleUser,
		Message:         message,
		IssueId:         targetId,
		Citations:       chunkCitations,
		InferredUpdates: updates,
		CreatedAt:       now,
	}); err != nil {
		return nil, err
	}

	contextChunks := c.retriever.Retrieve(ctx, message)
	p := c.promptBuilder.BuildChat(prompt.ChatInput{
		Session:   session,
		TargetId:  targetId,
		Message:   message,
		Citations: chunkCitations,
		Context:   contextChunks,
	})
	answer := c.generator.GenerateOr(ctx, p, response.ChatFallback)

	if err := c.repo.SaveTurn(ctx, &entity.ConversationTurn{
		TurnId:          uuid.NewString(),
		SessionId:       sessionId,
		ConversationId:  conversationId,
		Role:            entity.RoleAssistant,
		Message:         answer,
		IssueId:         targetId,
		Citations:       chunkCitations,
		InferredUpdates: updates,
		CreatedAt:       c.now().UTC(),
	}); err != nil {
		return nil, err
	}

	if err := c.sessionService.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	c.publisherService.PublishAll(ctx, chatEvents(session, previousStatus, updates, now))

	c.logger.Info("ChatService", "Chat turn processed", map[string]interface{}{
		"session_id":      sessionId,
		"conversation_id": conversationId,
		"target_issue_id": targetId,
		"updates":         len(updates),
		"session_status":  session.Status,
		"context_chunks":  len(contextChunks),
	})

	return &dto.ChatResponse{
		Answer:              answer,
		Citations:           citations,
		ChunkCitations:      chunkCitations,
		InferredUpdates:     toStatusUpdateResponses(updates),
		PendingResolutionId: optional(session.PendingResolutionId),
		TargetIssueId:       optional(targetId),
		SessionStatus:       string(session.Status),
	}, nil
}

// responseChunkCitations returns the target's known chunk citations, or those
// of the first unresolved issue that has any.
func responseChunkCitations(session *entity.ReviewSession, targetId string) []string {
	known := session.KnownChunks()
	if target := session.Issue(targetId); target != nil {
		kept, _ := filterCitations(target.Citations, known)
		return kept
	}
	for _, issue := range session.UnresolvedIssues() {
		if kept, _ := filterCitations(issue.Citations, known); len(kept) > 0 {
			return kept
		}
	}
	return []string{}
}

func chatEvents(session *entity.ReviewSession, previous entity.SessionStatus, updates []entity.StatusUpdate, at time.Time) []events.Event {
	evts := make([]events.Event, 0, len(updates)+1)
	for _, u := range updates {
		evts = append(evts, events.IssueStatusChanged(session.SessionId, u.IssueId, string(u.PreviousStatus), string(u.NewStatus), u.Reason, at))
	}
	if previous != entity.SessionStatusReadyForCleanup && session.Status == entity.SessionStatusReadyForCleanup {
		evts = append(evts, events.SessionReadyForCleanup(session.SessionId, len(session.Issues), at))
	}
	return evts
}

func toStatusUpdateResponses(updates []entity.StatusUpdate) []dto.StatusUpdateResponse {
	out := make([]dto.StatusUpdateResponse, 0, len(updates))
	for _, u := range updates {
		out = append(out, dto.StatusUpdateResponse{
			IssueId:        u.IssueId,
			PreviousStatus: string(u.PreviousStatus),
			NewStatus:      string(u.NewStatus),
			Reason:         u.Reason,
		})
	}
	return out
}
