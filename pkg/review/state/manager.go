package state

import (
	"strings"
	"time"

	"doc-review-be/internal/entity"
	"doc-review-be/internal/pkg/logger"
	"doc-review-be/pkg/review/intent"
)

const (
	ReasonReopen              = "Investor asked to reopen the issue."
	ReasonConfirmed           = "Investor confirmed issue resolution."
	ReasonAwaitingConfirm     = "Investor indicated likely approval; awaiting confirmation."
	ReasonEditAfterResolution = "Investor requested additional edits after resolution."
	ReasonEditRequested       = "Investor requested edits for this issue."
	ReasonPendingConfirmed    = "Investor confirmed resolution in chat."
)

// Turn is one inbound investor message after target resolution and classification
type Turn struct {
	TargetId string
	Message  string
	Signals  intent.Signals
	At       time.Time
}

// Manager applies the per-issue status machine and the session pending slot
type Manager struct {
	logger logger.ILogger
}

// NewManager creates a new state manager
func NewManager(log logger.ILogger) *Manager {
	return &Manager{logger: log}
}

// Apply mutates session in place and returns the status changes in the order
// they happened. Session status and updatedAt are recomputed last.
func (m *Manager) Apply(session *entity.ReviewSession, turn Turn) []entity.StatusUpdate {
	updates := make([]entity.StatusUpdate, 0, 2)

	if issue := session.Issue(turn.TargetId); issue != nil {
		updates = append(updates, m.transitionIssue(issue, session.PendingResolutionId, turn)...)
		session.PendingResolutionId = nextPending(issue, turn.Signals, session.PendingResolutionId)
	} else if session.PendingResolutionId != "" && turn.Signals.ExplicitConfirm {
		if pending := session.Issue(session.PendingResolutionId); pending != nil {
			updates = append(updates, setStatus(pending, entity.IssueStatusResolved, ReasonPendingConfirmed, turn.At)...)
		}
		session.PendingResolutionId = ""
	}

	session.RecomputeStatus()
	session.UpdatedAt = turn.At

	for _, u := range updates {
		m.logger.Info("ReviewState", "Issue status changed", map[string]interface{}{
			"session_id": session.SessionId,
			"issue_id":   u.IssueId,
			"from":       u.PreviousStatus,
			"to":         u.NewStatus,
		})
	}

	return updates
}

func (m *Manager) transitionIssue(issue *entity.TrackedIssue, pendingId string, turn Turn) []entity.StatusUpdate {
	var updates []entity.StatusUpdate
	sig := turn.Signals

	if sig.Reopen {
		updates = append(updates, setStatus(issue, entity.IssueStatusOpen, ReasonReopen, turn.At)...)
	}

	if sig.ExplicitConfirm || (sig.SoftConfirm && pendingId == issue.IssueId) {
		updates = append(updates, setStatus(issue, entity.IssueStatusResolved, ReasonConfirmed, turn.At)...)
	} else if sig.SoftConfirm {
		updates = append(updates, setStatus(issue, entity.IssueStatusInProgress, ReasonAwaitingConfirm, turn.At)...)
	}

	if sig.EditRequested {
		switch issue.Status {
		case entity.IssueStatusResolved:
			updates = append(updates, setStatus(issue, entity.IssueStatusInProgress, ReasonEditAfterResolution, turn.At)...)
		case entity.IssueStatusOpen:
			updates = append(updates, setStatus(issue, entity.IssueStatusInProgress, ReasonEditRequested, turn.At)...)
		}
		issue.AcceptedChangeInstructions = AppendInstruction(issue.AcceptedChangeInstructions, turn.Message)
	}

	if sig.Any() {
		issue.LastInvestorMessage = strings.TrimSpace(turn.Message)
	}

	return updates
}

func nextPending(issue *entity.TrackedIssue, sig intent.Signals, current string) string {
	if issue.Status == entity.IssueStatusResolved {
		return clearIfPointing(current, issue.IssueId)
	}
	if sig.Reopen && issue.Status == entity.IssueStatusOpen {
		return clearIfPointing(current, issue.IssueId)
	}
	if sig.EditRequested || sig.SoftConfirm || issue.Status == entity.IssueStatusInProgress {
		return issue.IssueId
	}
	return current
}

func clearIfPointing(current, issueId string) string {
	if current == issueId {
		return ""
	}
	return current
}

// setStatus is a no-op when the status does not change.
func setStatus(issue *entity.TrackedIssue, status entity.IssueStatus, reason string, at time.Time) []entity.StatusUpdate {
	if issue.Status == status {
		return nil
	}
	update := entity.StatusUpdate{
		IssueId:        issue.IssueId,
		PreviousStatus: issue.Status,
		NewStatus:      status,
		Reason:         reason,
	}
	issue.Status = status
	issue.UpdatedAt = at
	return []entity.StatusUpdate{update}
}

// AppendInstruction adds message as a new line unless it is blank or already
// contained in current.
func AppendInstruction(current, message string) string {
	line := strings.TrimSpace(message)
	if line == "" {
		return current
	}
	if current == "" {
		return line
	}
	if strings.Contains(current, line) {
		return current
	}
	return current + "\n" + line
}
