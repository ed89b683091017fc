package mapper

import (
	"doc-review-be/internal/entity"
	"doc-review-be/internal/model"
)

type ReviewMapper struct{}

func NewReviewMapper() *ReviewMapper {
	return &ReviewMapper{}
}

func (m *ReviewMapper) SessionToRecord(s *entity.ReviewSession) *model.ReviewSessionRecord {
	if s == nil {
		return nil
	}

	issues := make([]model.TrackedIssueRecord, 0, len(s.Issues))
	for _, issue := range s.Issues {
		issues = append(issues, *m.IssueToRecord("", issue))
	}

	return &model.ReviewSessionRecord{
		SessionId:           s.SessionId,
		CompanyName:         s.CompanyName,
		DocId:               s.DocId,
		DocTitle:            s.DocTitle,
		FullDocumentText:    s.FullDocumentText,
		GreenScore:          s.GreenScore,
		Status:              string(s.Status),
		PendingResolutionId: s.PendingResolutionId,
		Issues:              issues,
		ChunkIds:            copyStrings(s.ChunkIds),
		Artifacts:           copyArtifacts(s.Artifacts),
		ChangeLog:           copyStrings(s.ChangeLog),
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
		CompletedAt:         s.CompletedAt,
	}
}

func (m *ReviewMapper) SessionToEntity(r *model.ReviewSessionRecord) *entity.ReviewSession {
	if r == nil {
		return nil
	}

	issues := make([]*entity.TrackedIssue, 0, len(r.Issues))
	for i := range r.Issues {
		issues = append(issues, m.IssueToEntity(&r.Issues[i]))
	}

	return &entity.ReviewSession{
		SessionId:           r.SessionId,
		CompanyName:         r.CompanyName,
		DocId:               r.DocId,
		DocTitle:            r.DocTitle,
		FullDocumentText:    r.FullDocumentText,
		GreenScore:          r.GreenScore,
		Status:              entity.SessionStatus(r.Status),
		PendingResolutionId: r.PendingResolutionId,
		Issues:              issues,
		ChunkIds:            copyStrings(r.ChunkIds),
		Artifacts:           copyArtifacts(r.Artifacts),
		ChangeLog:           copyStrings(r.ChangeLog),
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
		CompletedAt:         r.CompletedAt,
	}
}

// IssueToRecord stamps sessionId on standalone issue records; pass "" when the
// record is embedded in its session.
func (m *ReviewMapper) IssueToRecord(sessionId string, i *entity.TrackedIssue) *model.TrackedIssueRecord {
	return &model.TrackedIssueRecord{
		SessionId:                  sessionId,
		IssueId:                    i.IssueId,
		Title:                      i.Title,
		Text:                       i.Text,
		Summary:                    i.Summary,
		Notes:                      i.Notes,
		Severity:                   i.Severity,
		Score:                      i.Score,
		Citations:                  copyStrings(i.Citations),
		SuggestedChanges:           copyStrings(i.SuggestedChanges),
		Status:                     string(i.Status),
		AcceptedChangeInstructions: i.AcceptedChangeInstructions,
		LastInvestorMessage:        i.LastInvestorMessage,
		UpdatedAt:                  i.UpdatedAt,
	}
}

func (m *ReviewMapper) IssueToEntity(r *model.TrackedIssueRecord) *entity.TrackedIssue {
	return &entity.TrackedIssue{
		IssueId:                    r.IssueId,
		Title:                      r.Title,
		Text:                       r.Text,
		Summary:                    r.Summary,
		Notes:                      r.Notes,
		Severity:                   r.Severity,
		Score:                      r.Score,
		Citations:                  copyStrings(r.Citations),
		SuggestedChanges:           copyStrings(r.SuggestedChanges),
		Status:                     entity.IssueStatus(r.Status),
		AcceptedChangeInstructions: r.AcceptedChangeInstructions,
		LastInvestorMessage:        r.LastInvestorMessage,
		UpdatedAt:                  r.UpdatedAt,
	}
}

func (m *ReviewMapper) ChunkToRecord(sessionId, docId string, c *entity.DocumentChunk) *model.DocumentChunkRecord {
	return &model.DocumentChunkRecord{
		SessionId:  sessionId,
		DocId:      docId,
		ChunkId:    c.ChunkId,
		Text:       c.Text,
		SourceName: c.SourceName,
		Citations:  copyStrings(c.Citations),
	}
}

func (m *ReviewMapper) ChunkToEntity(r *model.DocumentChunkRecord) *entity.DocumentChunk {
	return &entity.DocumentChunk{
		ChunkId:    r.ChunkId,
		Text:       r.Text,
		SourceName: r.SourceName,
		Citations:  copyStrings(r.Citations),
	}
}

func (m *ReviewMapper) TurnToRecord(t *entity.ConversationTurn) *model.ConversationTurnRecord {
	updates := make([]model.StatusUpdateRecord, 0, len(t.InferredUpdates))
	for _, u := range t.InferredUpdates {
		updates = append(updates, model.StatusUpdateRecord{
			IssueId:        u.IssueId,
			PreviousStatus: string(u.PreviousStatus),
			NewStatus:      string(u.NewStatus),
			Reason:         u.Reason,
		})
	}

	return &model.ConversationTurnRecord{
		SessionId:       t.SessionId,
		ConversationId:  t.ConversationId,
		TurnId:          t.TurnId,
		Role:            t.Role,
		Message:         t.Message,
		IssueId:         t.IssueId,
		Citations:       copyStrings(t.Citations),
		InferredUpdates: updates,
		CreatedAt:       t.CreatedAt,
	}
}

func (m *ReviewMapper) TurnToEntity(r *model.ConversationTurnRecord) *entity.ConversationTurn {
	updates := make([]entity.StatusUpdate, 0, len(r.InferredUpdates))
	for _, u := range r.InferredUpdates {
		updates = append(updates, entity.StatusUpdate{
			IssueId:        u.IssueId,
			PreviousStatus: entity.IssueStatus(u.PreviousStatus),
			NewStatus:      entity.IssueStatus(u.NewStatus),
			Reason:         u.Reason,
		})
	}

	return &entity.ConversationTurn{
		TurnId:          r.TurnId,
		SessionId:       r.SessionId,
		ConversationId:  r.ConversationId,
		Role:            r.Role,
		Message:         r.Message,
		IssueId:         r.IssueId,
		Citations:       copyStrings(r.Citations),
		InferredUpdates: updates,
		CreatedAt:       r.CreatedAt,
	}
}

func copyStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string{}, in...)
}

func copyArtifacts(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
