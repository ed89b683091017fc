// FILE: internal/service/session_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"doc-review-be/internal/apperror"
	"doc-review-be/internal/dto"
	"doc-review-be/internal/entity"
	"doc-review-be/internal/pkg/logger"
	"doc-review-be/internal/repository/contract"
	"doc-review-be/pkg/utils"
)

const (
	StartStatusCreated     = "created"
	StartStatusOverwritten = "overwritten"
)

type ISessionService interface {
	StartSession(ctx context.Context, sessionId string, req *dto.StartSessionRequest, force bool) (*dto.StartSessionResponse, error)
	GetSession(ctx context.Context, sessionId string) (*entity.ReviewSession, error)
	Show(ctx context.Context, sessionId string) (*dto.SessionResponse, error)
	SaveSession(ctx context.Context, session *entity.ReviewSession) error
}

type sessionService struct {
	repo         contract.ReviewRepository
	chunkSize    int
	chunkOverlap int
	logger       logger.ILogger
	now          func() time.Time
}

func NewSessionService(repo contract.ReviewRepository, chunkSize, chunkOverlap int, log logger.ILogger) ISessionService {
	return &sessionService{
		repo:         repo,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       log,
		now:          time.Now,
	}
}

func (s *sessionService) StartSession(ctx context.Context, sessionId string, req *dto.StartSessionRequest, force bool) (*dto.StartSessionResponse, error) {
	if strings.TrimSpace(sessionId) == "" {
		return nil, apperror.Validation("session id is required")
	}
	if req.SessionId != "" && req.SessionId != sessionId {
		return nil, apperror.Validation("path session id %q does not match body session_id %q", sessionId, req.SessionId)
	}

	chunks, err := s.buildChunks(req)
	if err != nil {
		return nil, err
	}
	known := knownChunkIds(chunks, req.ChunkIds)

	issues, dropped, err := s.buildIssues(req.AllIssues(), (&entity.ReviewSession{ChunkIds: known}).KnownChunks())
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if existing != nil && !force {
		return nil, apperror.Conflict("session %q already exists", sessionId)
	}

	now := s.now().UTC()
	session := &entity.ReviewSession{
		SessionId:        sessionId,
		CompanyName:      req.CompanyName,
		DocId:            req.DocId,
		DocTitle:         req.DocTitle,
		FullDocumentText: req.FullDocumentText,
		GreenScore:       req.GreenScore,
		Status:           entity.SessionStatusActive,
		Issues:           issues,
		ChunkIds:         known,
		Artifacts:        map[string]string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, issue := range issues {
		issue.UpdatedAt = now
	}
	session.RecomputeStatus()

	if err := s.repo.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	for _, issue := range issues {
		if err := s.repo.SaveIssue(ctx, sessionId, issue); err != nil {
			return nil, err
		}
	}
	for _, chunk := range chunks {
		if err := s.repo.SaveChunk(ctx, sessionId, req.DocId, chunk); err != nil {
			return nil, err
		}
	}

	status := StartStatusCreated
	if existing != nil {
		status = StartStatusOverwritten
	}

	s.logger.Info("SessionService", "Review session started", map[string]interface{}{
		"session_id":        sessionId,
		"status":            status,
		"issue_count":       len(issues),
		"chunk_count":       len(chunks),
		"dropped_citations": dropped,
	})

	return &dto.StartSessionResponse{
		SessionId:            sessionId,
		Status:               status,
		IssueCount:           len(issues),
		ChunkCount:           len(chunks),
		DroppedCitationCount: dropped,
	}, nil
}

func (s *sessionService) GetSession(ctx context.Context, sessionId string) (*entity.ReviewSession, error) {
	session, err := s.repo.FindSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NotFound("session %q not found", sessionId)
	}
	return session, nil
}

func (s *sessionService) Show(ctx context.Context, sessionId string) (*dto.SessionResponse, error) {
	session, err := s.GetSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

// SaveSession re-filters citations, writes every issue, then overwrites the
// session record.
func (s *sessionService) SaveSession(ctx context.Context, session *entity.ReviewSession) error {
	known := session.KnownChunks()
	for _, issue := range session.Issues {
		issue.Citations, _ = filterCitations(issue.Citations, known)
		if err := s.repo.SaveIssue(ctx, session.SessionId, issue); err != nil {
			return err
		}
	}
	return s.repo.SaveSession(ctx, session)
}

func (s *sessionService) buildChunks(req *dto.StartSessionRequest) ([]*entity.DocumentChunk, error) {
	if len(req.DocumentChunks) > 0 {
		chunks := make([]*entity.DocumentChunk, 0, len(req.DocumentChunks))
		seen := make(map[string]struct{}, len(req.DocumentChunks))
		for _, c := range req.DocumentChunks {
			if _, dup := seen[c.ChunkId]; dup {
				return nil, apperror.Validation("duplicate chunk_id %q", c.ChunkId)
			}
			seen[c.ChunkId] = struct{}{}
			chunks = append(chunks, &entity.DocumentChunk{
				ChunkId:    c.ChunkId,
				Text:       c.Text,
				SourceName: c.SourceName,
				Citations:  c.Citations,
			})
		}
		return chunks, nil
	}

	if len(req.ChunkIds) > 0 || strings.TrimSpace(req.FullDocumentText) == "" {
		return nil, nil
	}

	texts, err := utils.SplitText(req.FullDocumentText, s.chunkSize, s.chunkOverlap)
	if err != nil {
		return nil, apperror.Validation("cannot split document: %v", err)
	}

	source := req.DocTitle
	if source == "" {
		source = req.DocId
	}
	chunks := make([]*entity.DocumentChunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, &entity.DocumentChunk{
			ChunkId:    fmt.Sprintf("chunk_%03d", i+1),
			Text:       text,
			SourceName: source,
		})
	}
	return chunks, nil
}

// buildIssues assigns issue_NNN ids in input order to issues without one,
// skipping ids that were supplied explicitly.
func (s *sessionService) buildIssues(inputs []dto.IssueInput, known map[string]struct{}) ([]*entity.TrackedIssue, int, error) {
	used := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		if in.IssueId == "" {
			continue
		}
		if _, dup := used[in.IssueId]; dup {
			return nil, 0, apperror.Validation("duplicate issue_id %q", in.IssueId)
		}
		used[in.IssueId] = struct{}{}
	}

	issues := make([]*entity.TrackedIssue, 0, len(inputs))
	dropped := 0
	next := 1
	for i, in := range inputs {
		if strings.TrimSpace(in.Title) == "" && strings.TrimSpace(in.Text) == "" {
			return nil, 0, apperror.Validation("issue %d needs a title or text", i+1)
		}

		citations, n := filterCitations(in.Citations, known)
		dropped += n

		issue := &entity.TrackedIssue{
			IssueId:          in.IssueId,
			Title:            in.Title,
			Text:             in.Text,
			Summary:          in.Summary,
			Notes:            in.Notes,
			Severity:         in.Severity,
			Score:            in.Score,
			Citations:        citations,
			SuggestedChanges: in.SuggestedChanges,
			Status:           entity.IssueStatusOpen,
		}

		if issue.IssueId == "" {
			for {
				candidate := fmt.Sprintf("issue_%03d", next)
				next++
				if _, taken := used[candidate]; !taken {
					issue.IssueId = candidate
					used[candidate] = struct{}{}
					break
				}
			}
		} else {
			if in.Status != "" {
				issue.Status = entity.IssueStatus(in.Status)
			}
			issue.AcceptedChangeInstructions = in.AcceptedChangeInstructions
		}

		issues = append(issues, issue)
	}
	return issues, dropped, nil
}

func knownChunkIds(chunks []*entity.DocumentChunk, extra []string) []string {
	ids := make([]string, 0, len(chunks)+len(extra))
	seen := make(map[string]struct{}, cap(ids))
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, c := range chunks {
		add(c.ChunkId)
	}
	for _, id := range extra {
		add(id)
	}
	return ids
}

// filterCitations keeps known chunk ids once each, in order, and reports how
// many unknown ids were dropped.
func filterCitations(citations []string, known map[string]struct{}) ([]string, int) {
	kept := make([]string, 0, len(citations))
	seen := make(map[string]struct{}, len(citations))
	dropped := 0
	for _, c := range citations {
		if _, ok := known[c]; !ok {
			dropped++
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		kept = append(kept, c)
	}
	return kept, dropped
}

func toSessionResponse(s *entity.ReviewSession) *dto.SessionResponse {
	issues := make([]dto.IssueResponse, 0, len(s.Issues))
	for _, issue := range s.Issues {
		issues = append(issues, dto.IssueResponse{
			IssueId:                    issue.IssueId,
			Title:                      issue.Label(),
			Text:                       issue.Text,
			Severity:                   issue.Severity,
			Score:                      issue.Score,
			Status:                     string(issue.Status),
			Summary:                    issue.Summary,
			Notes:                      issue.Notes,
			Citations:                  nonNil(issue.Citations),
			SuggestedChanges:           nonNil(issue.SuggestedChanges),
			AcceptedChangeInstructions: issue.AcceptedChangeInstructions,
		})
	}

	artifacts := s.Artifacts
	if artifacts == nil {
		artifacts = map[string]string{}
	}

	return &dto.SessionResponse{
		SessionId:           s.SessionId,
		CompanyName:         s.CompanyName,
		DocId:               s.DocId,
		DocTitle:            s.DocTitle,
		GreenScore:          s.GreenScore,
		Status:              string(s.Status),
		PendingResolutionId: optional(s.PendingResolutionId),
		Issues:              issues,
		ChunkIds:            nonNil(s.ChunkIds),
		ArtifactPaths:       artifacts,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
		CompletedAt:         s.CompletedAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
