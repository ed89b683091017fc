// FILE: internal/service/cleanup_service.go
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
	"doc-review-be/internal/pkg/mailer"
	"doc-review-be/pkg/artifact"
	"doc-review-be/pkg/events"
	"doc-review-be/pkg/review/prompt"
	"doc-review-be/pkg/review/response"

	"gopkg.in/gomail.v2"
)

type ICleanupService interface {
	GenerateCleanup(ctx context.Context, sessionId string, req *dto.CleanupRequest) (*dto.CleanupResponse, error)
	GetArtifacts(ctx context.Context, sessionId string) (*dto.ArtifactsResponse, error)
}

// CleanupOptions addresses the investor email.
type CleanupOptions struct {
	EmailFrom string
	EmailTo   string
	SendEmail bool
}

type cleanupService struct {
	sessionService   ISessionService
	promptBuilder    *prompt.Builder
	generator        *response.Generator
	writer           *artifact.Writer
	emailService     mailer.IEmailService
	publisherService IPublisherService
	opts             CleanupOptions
	logger           logger.ILogger
	now              func() time.Time
}

func NewCleanupService(
	sessionService ISessionService,
	promptBuilder *prompt.Builder,
	generator *response.Generator,
	writer *artifact.Writer,
	emailService mailer.IEmailService,
	publisherService IPublisherService,
	opts CleanupOptions,
	log logger.ILogger,
) ICleanupService {
	return &cleanupService{
		sessionService:   sessionService,
		promptBuilder:    promptBuilder,
		generator:        generator,
		writer:           writer,
		emailService:     emailService,
		publisherService: publisherService,
		opts:             opts,
		logger:           log,
		now:              time.Now,
	}
}

func (s *cleanupService) GenerateCleanup(ctx context.Context, sessionId string, req *dto.CleanupRequest) (*dto.CleanupResponse, error) {
	if req.Confirmed == nil || !*req.Confirmed {
		return nil, apperror.Validation("cleanup generation requires explicit confirmation")
	}

	session, err := s.sessionService.GetSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()

	unresolved := make([]string, 0, len(session.Issues))
	for _, issue := range session.UnresolvedIssues() {
		unresolved = append(unresolved, issue.IssueId)
	}
	accepted := acceptedChanges(session)

	in := prompt.CleanupInput{
		CompanyName:        session.CompanyName,
		DocTitle:           session.DocTitle,
		FullText:           session.FullDocumentText,
		AcceptedChanges:    accepted,
		UnresolvedIssueIds: unresolved,
		InvestorNote:       req.InvestorNote,
	}
	revisedText := s.generator.GenerateOr(ctx, s.promptBuilder.BuildRevision(in),
		response.RevisedTextFallback(session.CompanyName, session.DocTitle, session.FullDocumentText, accepted))
	emailText := s.generator.GenerateOr(ctx, s.promptBuilder.BuildEmail(in),
		response.EmailFallback(session.CompanyName, session.DocTitle, accepted, unresolved))

	changeLog := make([]string, 0, len(accepted)+1)
	for _, change := range accepted {
		changeLog = append(changeLog, "Applied: "+change)
	}
	if len(unresolved) > 0 {
		changeLog = append(changeLog, "Unresolved issues intentionally left open by investor: "+strings.Join(unresolved, ", "))
	}

	subject, body := artifact.ParseEmailText(emailText, fmt.Sprintf("Requested Revisions to %s", session.DocTitle))
	msg := artifact.NewMessage(artifact.Email{
		From:    s.opts.EmailFrom,
		To:      s.opts.EmailTo,
		Subject: subject,
		Body:    body,
	})

	paths, err := s.writeArtifacts(sessionId, session.DocTitle, revisedText, msg)
	if err != nil {
		return nil, err
	}

	emailSent := false
	if s.opts.SendEmail && s.emailService.Configured() {
		if err := s.emailService.Send(msg); err != nil {
			s.logger.Warn("CleanupService", "Investor email delivery failed", map[string]interface{}{
				"session_id": sessionId,
				"error":      err.Error(),
			})
		} else {
			emailSent = true
		}
	}

	session.Artifacts = paths
	session.ChangeLog = changeLog
	session.Status = entity.SessionStatusCompleted
	session.CompletedAt = &now
	session.UpdatedAt = now

	if err := s.sessionService.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	s.publisherService.PublishAll(ctx, []events.Event{events.SessionCompleted(sessionId, paths, unresolved, now)})

	s.logger.Info("CleanupService", "Cleanup artifacts generated", map[string]interface{}{
		"session_id": sessionId,
		"unresolved": len(unresolved),
		"changes":    len(accepted),
		"email_sent": emailSent,
	})

	return &dto.CleanupResponse{
		SessionId:          sessionId,
		Status:             string(entity.SessionStatusCompleted),
		ArtifactPaths:      paths,
		UnresolvedIssueIds: unresolved,
		ChangeLog:          changeLog,
		EmailSent:          emailSent,
	}, nil
}

func (s *cleanupService) GetArtifacts(ctx context.Context, sessionId string) (*dto.ArtifactsResponse, error) {
	session, err := s.sessionService.GetSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	paths := make(map[string]string, len(session.Artifacts))
	existing := make(map[string]bool, len(session.Artifacts))
	for name, path := range session.Artifacts {
		paths[name] = path
		existing[name] = artifact.Exists(path)
	}

	return &dto.ArtifactsResponse{
		SessionId:         sessionId,
		ArtifactPaths:     paths,
		ExistingArtifacts: existing,
	}, nil
}

func (s *cleanupService) writeArtifacts(sessionId, title, revisedText string, msg *gomail.Message) (map[string]string, error) {
	textPath, err := s.writer.WriteText(sessionId, artifact.RevisedTextFile, revisedText)
	if err != nil {
		return nil, apperror.BackendFault(err, "write revised text")
	}
	pdfPath, err := s.writer.WritePDF(sessionId, artifact.RevisedPDFFile, "Revised Draft - "+title, revisedText)
	if err != nil {
		return nil, apperror.BackendFault(err, "write revised pdf")
	}
	emailPath, err := s.writer.WriteEmail(sessionId, artifact.InvestorEmailFile, msg)
	if err != nil {
		return nil, apperror.BackendFault(err, "write investor email")
	}

	return map[string]string{
		entity.ArtifactRevisedText:   textPath,
		entity.ArtifactRevisedPDF:    pdfPath,
		entity.ArtifactInvestorEmail: emailPath,
	}, nil
}

// acceptedChanges lists the investor's instructions per issue. When no issue
// has any, each issue's first suggested change is used instead.
func acceptedChanges(session *entity.ReviewSession) []string {
	changes := make([]string, 0, len(session.Issues))
	for _, issue := range session.Issues {
		if instructions := strings.TrimSpace(issue.AcceptedChangeInstructions); instructions != "" {
			changes = append(changes, fmt.Sprintf("%s: %s", issue.IssueId, instructions))
		}
	}
	if len(changes) > 0 {
		return changes
	}

	for _, issue := range session.Issues {
		if len(issue.SuggestedChanges) > 0 {
			changes = append(changes, fmt.Sprintf("%s: %s -> %s", issue.IssueId, issue.Label(), issue.SuggestedChanges[0]))
		}
	}
	return changes
}
