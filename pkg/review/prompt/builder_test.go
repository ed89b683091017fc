package prompt

import (
	"testing"

	"doc-review-be/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestBuilder_BuildChat(t *testing.T) {
	score := 72.5
	session := &entity.ReviewSession{
		CompanyName: "Acme",
		DocTitle:    "Sustainability Report",
		DocId:       "doc-1",
		GreenScore:  &score,
		Issues: []*entity.TrackedIssue{
			{IssueId: "issue_001", Text: "Scope 3 undisclosed", Severity: "high", Status: entity.IssueStatusInProgress, AcceptedChangeInstructions: "add a 2026 deadline"},
			{IssueId: "issue_002", Title: "Vague offsets", Status: entity.IssueStatusOpen},
		},
	}

	p := NewBuilder().BuildChat(ChatInput{
		Session:   session,
		TargetId:  "issue_001",
		Message:   "what else?",
		Citations: []string{"issue_001"},
		Context:   []string{"Page 4: emissions table"},
	})

	assert.Contains(t, p.System, "investor document review assistant")
	assert.Contains(t, p.User, "Green score: 72.5")
	assert.Contains(t, p.User, "Issue issue_001: Scope 3 undisclosed")
	assert.Contains(t, p.User, "Accepted instructions: add a 2026 deadline")
	assert.Contains(t, p.User, "- issue_001 | Scope 3 undisclosed | high | in_progress")
	assert.Contains(t, p.User, "- issue_002 | Vague offsets | None | open")
	assert.Contains(t, p.User, "<context>\nPage 4: emissions table\n</context>")
	assert.Contains(t, p.User, "Investor message: what else?")
}

func TestBuilder_BuildChatWithoutTarget(t *testing.T) {
	p := NewBuilder().BuildChat(ChatInput{Session: &entity.ReviewSession{}, Message: "hi"})

	assert.Contains(t, p.User, "Focused issue:\nNone")
	assert.Contains(t, p.User, "Green score: None")
	assert.NotContains(t, p.User, "Retrieved document context")
}

func TestBuilder_CleanupPrompts(t *testing.T) {
	in := CleanupInput{
		CompanyName:        "Acme",
		DocTitle:           "Report",
		FullText:           "original body",
		AcceptedChanges:    []string{"issue_001: add deadline"},
		UnresolvedIssueIds: []string{"issue_002"},
	}

	revision := NewBuilder().BuildRevision(in)
	assert.Contains(t, revision.User, "Investor note: None")
	assert.Contains(t, revision.User, "Requested changes:\n- issue_001: add deadline")
	assert.Contains(t, revision.User, "Original document:\noriginal body")

	email := NewBuilder().BuildEmail(in)
	assert.Contains(t, email.System, "plain text only")
	assert.Contains(t, email.User, "Unresolved issues: issue_002")
}
