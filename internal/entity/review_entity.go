package entity

import "time"

type SessionStatus string

const (
	SessionStatusActive          SessionStatus = "active"
	SessionStatusReadyForCleanup SessionStatus = "ready_for_cleanup"
	SessionStatusCompleted       SessionStatus = "completed"
)

type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "open"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusResolved   IssueStatus = "resolved"
)

func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusOpen, IssueStatusInProgress, IssueStatusResolved:
		return true
	}
	return false
}

const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	ArtifactRevisedText   = "revised_text_path"
	ArtifactRevisedPDF    = "revised_pdf_path"
	ArtifactInvestorEmail = "investor_email_path"
)

type ReviewSession struct {
	SessionId           string
	CompanyName         string
	DocId               string
	DocTitle            string
	FullDocumentText    string
	GreenScore          *float64
	Status              SessionStatus
	PendingResolutionId string
	Issues              []*TrackedIssue
	ChunkIds            []string
	Artifacts           map[string]string
	ChangeLog           []string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	CompletedAt         *time.Time
}

type TrackedIssue struct {
	IssueId                    string
	Title                      string
	Text                       string
	Summary                    string
	Notes                      string
	Severity                   string
	Score                      *float64
	Citations                  []string
	SuggestedChanges           []string
	Status                     IssueStatus
	AcceptedChangeInstructions string
	LastInvestorMessage        string
	UpdatedAt                  time.Time
}

type DocumentChunk struct {
	ChunkId    string
	Text       string
	SourceName string
	Citations  []string
}

type ConversationTurn struct {
	TurnId          string
	SessionId       string
	ConversationId  string
	Role            string
	Message         string
	IssueId         string
	Citations       []string
	InferredUpdates []StatusUpdate
	CreatedAt       time.Time
}

type StatusUpdate struct {
	IssueId        string
	PreviousStatus IssueStatus
	NewStatus      IssueStatus
	Reason         string
}

// Label is the human readable name of the issue, falling back to its raw text.
func (i *TrackedIssue) Label() string {
	if i.Title != "" {
		return i.Title
	}
	if i.Text != "" {
		return i.Text
	}
	return i.IssueId
}

func (i *TrackedIssue) Resolved() bool {
	return i.Status == IssueStatusResolved
}

func (s *ReviewSession) Issue(issueId string) *TrackedIssue {
	for _, issue := range s.Issues {
		if issue.IssueId == issueId {
			return issue
		}
	}
	return nil
}

func (s *ReviewSession) KnownChunks() map[string]struct{} {
	known := make(map[string]struct{}, len(s.ChunkIds))
	for _, id := range s.ChunkIds {
		known[id] = struct{}{}
	}
	return known
}

// AllResolved is true for a session without issues.
func (s *ReviewSession) AllResolved() bool {
	for _, issue := range s.Issues {
		if !issue.Resolved() {
			return false
		}
	}
	return true
}

func (s *ReviewSession) UnresolvedIssues() []*TrackedIssue {
	unresolved := make([]*TrackedIssue, 0, len(s.Issues))
	for _, issue := range s.Issues {
		if !issue.Resolved() {
			unresolved = append(unresolved, issue)
		}
	}
	return unresolved
}

// RecomputeStatus derives active/ready_for_cleanup from the issues. A completed
// session stays completed.
func (s *ReviewSession) RecomputeStatus() {
	if s.Status == SessionStatusCompleted {
		return
	}
	if s.AllResolved() {
		s.Status = SessionStatusReadyForCleanup
		return
	}
	s.Status = SessionStatusActive
}
